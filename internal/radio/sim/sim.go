// Package sim implements an in-process LoRaWAN radio stack for host-side runs
// and tests. It joins after a fixed delay, records every submitted frame and
// completes each transmission after a configurable airtime.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dyluth/loratx/internal/radio"
)

const eventBuffer = 64

// Frame is one submitted uplink.
type Frame struct {
	Port      uint8
	Payload   []byte
	Confirmed bool
}

// Options tunes the simulated MAC.
type Options struct {
	// JoinDelay is the time between Start and the Joined event.
	JoinDelay time.Duration

	// Airtime is the time between Submit and TxComplete.
	Airtime time.Duration

	// ManualJoin suppresses the automatic Joining/Joined sequence.
	ManualJoin bool

	// ManualComplete suppresses automatic TxComplete; call Complete instead.
	ManualComplete bool

	// FrameSize overrides radio.MaxFrameSize.
	FrameSize int
}

// Radio is the simulated transceiver. Safe for concurrent use.
type Radio struct {
	opts Options

	mu        sync.Mutex
	events    chan radio.Event
	closed    bool
	started   bool
	inFlight  bool
	frames    []Frame
	dropped   int
	downlinks [][]byte
	session   radio.Session
}

var _ radio.Radio = (*Radio)(nil)

// New creates a simulated radio.
func New(opts Options) *Radio {
	if opts.FrameSize <= 0 {
		opts.FrameSize = radio.MaxFrameSize
	}
	return &Radio{
		opts:   opts,
		events: make(chan radio.Event, eventBuffer),
	}
}

// Start begins the simulated join. The event channel is closed when ctx is done.
func (r *Radio) Start(ctx context.Context, session radio.Session) error {
	if session.Credentials == nil {
		return fmt.Errorf("missing credentials")
	}

	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return fmt.Errorf("radio already started")
	}
	r.started = true
	r.session = session
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		r.closed = true
		close(r.events)
	}()

	if r.opts.ManualJoin {
		return nil
	}

	r.Inject(radio.Event{Kind: radio.Joining})
	time.AfterFunc(r.opts.JoinDelay, func() {
		r.Inject(radio.Event{Kind: radio.Joined})
	})
	return nil
}

// Submit records the frame and schedules its completion.
func (r *Radio) Submit(port uint8, payload []byte, confirmed bool) error {
	if len(payload) > r.opts.FrameSize {
		return fmt.Errorf("payload of %d bytes exceeds frame size %d", len(payload), r.opts.FrameSize)
	}

	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		return radio.ErrBusy
	}
	r.inFlight = true

	frame := Frame{Port: port, Payload: make([]byte, len(payload)), Confirmed: confirmed}
	copy(frame.Payload, payload)
	r.frames = append(r.frames, frame)
	r.mu.Unlock()

	if !r.opts.ManualComplete {
		time.AfterFunc(r.opts.Airtime, r.Complete)
	}
	return nil
}

// Complete finishes the outstanding transmission, attaching a queued downlink
// if one was added with QueueDownlink.
func (r *Radio) Complete() {
	r.mu.Lock()
	r.inFlight = false
	var downlink []byte
	if len(r.downlinks) > 0 {
		downlink = r.downlinks[0]
		r.downlinks = r.downlinks[1:]
	}
	r.mu.Unlock()

	r.Inject(radio.Event{Kind: radio.TxComplete, Downlink: downlink})
}

// QueueDownlink makes the next TxComplete carry data as a received frame.
func (r *Radio) QueueDownlink(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	r.downlinks = append(r.downlinks, cp)
}

// Inject delivers an arbitrary MAC event. Events after shutdown, or while the
// event buffer is full, are dropped and counted.
func (r *Radio) Inject(ev radio.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.events <- ev:
	default:
		r.dropped++
	}
}

// DroppedEvents returns how many events were discarded on a full buffer.
func (r *Radio) DroppedEvents() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Events returns the notification channel.
func (r *Radio) Events() <-chan radio.Event {
	return r.events
}

// MaxFrameSize returns the configured frame buffer size.
func (r *Radio) MaxFrameSize() int {
	return r.opts.FrameSize
}

// Frames returns a copy of every frame submitted so far.
func (r *Radio) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Frame, len(r.frames))
	for i, f := range r.frames {
		out[i] = Frame{Port: f.Port, Payload: append([]byte(nil), f.Payload...), Confirmed: f.Confirmed}
	}
	return out
}

// InFlight reports whether a submitted frame has not completed yet.
func (r *Radio) InFlight() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

// Session returns the session passed to Start.
func (r *Radio) Session() radio.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}
