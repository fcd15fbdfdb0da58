// Package radio defines the narrow boundary between the bridge and a LoRaWAN
// MAC implementation. The MAC itself (join, retransmission, duty cycle, data
// rate adaptation) lives behind the Radio interface.
package radio

import (
	"context"
	"errors"
	"fmt"

	"github.com/dyluth/loratx/internal/credentials"
)

// MaxFrameSize is the largest application payload the reference MAC frame
// buffer holds (LMIC MAX_LEN_FRAME).
const MaxFrameSize = 64

// ErrBusy is returned by Submit while a previous frame is still outstanding.
var ErrBusy = errors.New("radio busy")

// EventKind enumerates the MAC lifecycle notifications the bridge reacts to.
type EventKind int

const (
	Joining EventKind = iota
	JoinFailed
	RejoinFailed
	LinkDead
	LinkAlive
	Joined
	TxComplete
)

func (k EventKind) String() string {
	switch k {
	case Joining:
		return "joining"
	case JoinFailed:
		return "join failed"
	case RejoinFailed:
		return "rejoin failed"
	case LinkDead:
		return "link dead"
	case LinkAlive:
		return "link alive"
	case Joined:
		return "joined"
	case TxComplete:
		return "tx complete"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is a notification from the MAC. Downlink carries a frame received in
// the receive window after a transmission, if any.
type Event struct {
	Kind     EventKind
	Downlink []byte
}

// JoinPlan selects the channel plan used for the OTAA join.
type JoinPlan int

const (
	// DefaultJoinChannels uses the regional default join channels.
	DefaultJoinChannels JoinPlan = iota
	// LoRaBridgeJoinChannels restricts the join to the single-channel
	// LoRaBridge gateway forwarder.
	LoRaBridgeJoinChannels
)

func (p JoinPlan) String() string {
	if p == LoRaBridgeJoinChannels {
		return "lorabridge"
	}
	return "default"
}

// Session is what the MAC needs to join the network.
type Session struct {
	Credentials *credentials.Credentials
	Plan        JoinPlan
}

// Radio is a half-duplex LoRaWAN transceiver carrying one frame at a time.
//
// Submit returns immediately; completion arrives as a TxComplete event.
// Start begins the join and returns; the MAC keeps running until ctx is done.
// Events are delivered in order on the channel returned by Events, which is
// closed once the radio stops.
type Radio interface {
	Start(ctx context.Context, session Session) error
	Submit(port uint8, payload []byte, confirmed bool) error
	Events() <-chan Event
	MaxFrameSize() int
}
