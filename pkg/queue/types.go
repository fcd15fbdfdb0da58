package queue

import "fmt"

// Kind tags the shape of a store reply.
type Kind int

const (
	// Failed means the query did not complete (timeout, connection loss).
	Failed Kind = iota
	// Scalar is a single value, such as a message payload.
	Scalar
	// Collection is a multi-element reply, such as the device set or a popped
	// queue entry.
	Collection
	// Missing means the key does not exist or the queue is empty.
	Missing
	// WrongType means the key holds a value of another Redis type.
	WrongType
)

// String returns the kind's name for logging.
func (k Kind) String() string {
	switch k {
	case Failed:
		return "failed"
	case Scalar:
		return "scalar"
	case Collection:
		return "collection"
	case Missing:
		return "missing"
	case WrongType:
		return "wrong type"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Reply is the tagged result of a store query. Value is only meaningful for
// Scalar and Collection replies; Err is set for Failed and WrongType.
type Reply[T any] struct {
	Kind  Kind
	Value T
	Err   error
}

// OK reports whether the reply carries a value.
func (r Reply[T]) OK() bool {
	return r.Kind == Scalar || r.Kind == Collection
}

// Descriptor identifies the next pending message of a device.
// Score is the producer-assigned ordering key; lower is older.
type Descriptor struct {
	Device string
	Key    string
	Score  float64
}
