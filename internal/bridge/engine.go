// Package bridge drains the per-device Redis queues onto the LoRaWAN radio.
//
// The Engine owns the two pieces of shared state, the link health flag and the
// transmission gate, and touches them only from the goroutine running Run.
// Scheduling ticks and MAC notifications are handled one at a time, in
// arrival order, by the same select loop.
package bridge

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dyluth/loratx/internal/radio"
	"github.com/dyluth/loratx/pkg/queue"
)

// HeartbeatPayload is the single byte sent while the link is not alive.
const HeartbeatPayload = 'h'

// Store is the subset of the queue client the engine drains from.
type Store interface {
	Devices(ctx context.Context) queue.Reply[[]string]
	PopLowest(ctx context.Context, device string) queue.Reply[queue.Descriptor]
	FetchAndDelete(ctx context.Context, device, key string) queue.Reply[[]byte]
}

// StatusSink accepts status tokens, last write wins.
type StatusSink interface {
	SetStatus(ctx context.Context, token string) error
}

// Options holds the engine's tunables.
type Options struct {
	// HeartbeatInterval is the tick cadence while the link is not alive.
	HeartbeatInterval time.Duration

	// DrainInterval is the tick cadence while the link is alive.
	DrainInterval time.Duration

	// Port is the LoRaWAN FPort used for heartbeats and application data.
	Port uint8

	// MaxPayload caps payload size; 0 means the radio's frame size.
	MaxPayload int

	// StoreTimeout bounds the store round-trips of a single tick.
	StoreTimeout time.Duration
}

// DefaultOptions returns the cadence of the LoRaBridge deployment.
func DefaultOptions() Options {
	return Options{
		HeartbeatInterval: 60 * time.Second,
		DrainInterval:     5 * time.Second,
		Port:              1,
		StoreTimeout:      1500 * time.Millisecond,
	}
}

// Snapshot is a point-in-time copy of the engine state.
type Snapshot struct {
	Health       LinkHealth
	GateBusy     bool
	JoinAttempts int
	Sent         uint64
	Heartbeats   uint64
	Dropped      uint64
}

// Engine is the scheduler context: link health, gate, join counter and the
// collaborators every tick and notification handler works against.
type Engine struct {
	store  Store
	status StatusSink
	radio  radio.Radio
	opts   Options

	health       LinkHealth
	gate         Gate
	joinAttempts int
	sent         uint64
	heartbeats   uint64
	dropped      uint64

	snapshots chan chan Snapshot
}

// NewEngine creates an engine. Zero-valued options fall back to DefaultOptions.
func NewEngine(store Store, status StatusSink, r radio.Radio, opts Options) *Engine {
	def := DefaultOptions()
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = def.HeartbeatInterval
	}
	if opts.DrainInterval <= 0 {
		opts.DrainInterval = def.DrainInterval
	}
	if opts.Port == 0 {
		opts.Port = def.Port
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = def.StoreTimeout
	}
	if opts.MaxPayload <= 0 || opts.MaxPayload > r.MaxFrameSize() {
		opts.MaxPayload = r.MaxFrameSize()
	}

	return &Engine{
		store:     store,
		status:    status,
		radio:     r,
		opts:      opts,
		snapshots: make(chan chan Snapshot),
	}
}

// Run drives ticks and MAC notifications until ctx is cancelled or the radio
// event stream closes. No tick is scheduled before the first Joined event.
// Exactly one tick is outstanding at any time; an immediate tick replaces it.
func (e *Engine) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	timer.Stop()
	defer timer.Stop()

	events := e.radio.Events()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			timer.Reset(e.Tick(ctx))

		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("radio event stream closed")
			}
			if e.HandleEvent(ctx, ev) {
				timer.Stop()
				timer.Reset(e.Tick(ctx))
			}

		case reply := <-e.snapshots:
			reply <- e.snapshot()
		}
	}
}

// Tick runs one scheduling step and returns the delay until the next one.
func (e *Engine) Tick(ctx context.Context) time.Duration {
	if e.health != Alive {
		e.heartbeat()
		return e.opts.HeartbeatInterval
	}

	e.drain(ctx)
	return e.opts.DrainInterval
}

func (e *Engine) heartbeat() {
	if !e.gate.TryAcquire() {
		log.Printf("[DEBUG] Heartbeat skipped, transmission outstanding")
		return
	}

	log.Printf("[INFO] Scheduling a lorabridge heartbeat packet (link %s)", e.health)
	if err := e.radio.Submit(e.opts.Port, []byte{HeartbeatPayload}, false); err != nil {
		// Nothing was handed over, so no TxComplete will follow.
		e.gate.Release()
		log.Printf("[WARN] Heartbeat rejected by radio: %v", err)
		return
	}
	e.heartbeats++
}

// drain sends at most one queued payload. Devices are visited in directory
// order; the first device with a deliverable message takes the slot.
func (e *Engine) drain(ctx context.Context) {
	if e.gate.Busy() {
		log.Printf("[DEBUG] Transmission outstanding, not draining this tick")
		return
	}

	tickCtx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()

	devices := e.store.Devices(tickCtx)
	switch devices.Kind {
	case queue.Collection:
	case queue.Missing:
		return
	default:
		log.Printf("[WARN] Device index query returned %s: %v", devices.Kind, devices.Err)
		return
	}

	for _, device := range devices.Value {
		desc := e.store.PopLowest(tickCtx, device)
		switch desc.Kind {
		case queue.Collection:
		case queue.Missing:
			continue
		default:
			log.Printf("[WARN] Queue query for device='%s' returned %s: %v", device, desc.Kind, desc.Err)
			continue
		}

		payload := e.store.FetchAndDelete(tickCtx, device, desc.Value.Key)
		switch payload.Kind {
		case queue.Scalar:
		case queue.Missing:
			log.Printf("[DEBUG] Message '%s' of device='%s' already consumed", desc.Value.Key, device)
			continue
		default:
			log.Printf("[WARN] Message fetch for device='%s' key='%s' returned %s: %v", device, desc.Value.Key, payload.Kind, payload.Err)
			continue
		}

		if len(payload.Value) > e.opts.MaxPayload {
			e.dropped++
			log.Printf("[WARN] Dropping message '%s' of device='%s': %d bytes exceeds limit of %d",
				desc.Value.Key, device, len(payload.Value), e.opts.MaxPayload)
			continue
		}

		if e.send(device, desc.Value.Key, payload.Value) {
			return
		}
	}
}

func (e *Engine) send(device, key string, payload []byte) bool {
	if !e.gate.TryAcquire() {
		e.dropped++
		log.Printf("[WARN] Gate busy, message '%s' of device='%s' lost", key, device)
		return true
	}

	if err := e.radio.Submit(e.opts.Port, payload, false); err != nil {
		e.gate.Release()
		e.dropped++
		log.Printf("[WARN] Message '%s' of device='%s' rejected by radio: %v", key, device, err)
		return false
	}

	e.sent++
	log.Printf("[INFO] Sent %d byte message '%s' of device='%s' at %s",
		len(payload), key, device, time.Now().Format(time.RFC3339))
	return true
}

// HandleEvent applies a MAC notification. It returns true when a tick must run
// immediately.
func (e *Engine) HandleEvent(ctx context.Context, ev radio.Event) bool {
	switch ev.Kind {
	case radio.Joining:
		e.joinAttempts++
		log.Printf("[DEBUG] %d. joining attempt", e.joinAttempts)

	case radio.JoinFailed:
		log.Printf("[DEBUG] Join failed")
		e.Publish(ctx, StatusJoinFailed)

	case radio.RejoinFailed:
		log.Printf("[DEBUG] Rejoin failed")
		e.Publish(ctx, StatusRejoinFailed)

	case radio.LinkDead:
		log.Printf("[DEBUG] Link dead signal issued")
		e.health = Dead
		e.Publish(ctx, StatusLinkDead)

	case radio.LinkAlive:
		log.Printf("[DEBUG] Link alive signal issued")
		e.health = Alive
		e.Publish(ctx, StatusJoined)

	case radio.Joined:
		log.Printf("[INFO] Joined network after %d attempt(s)", e.joinAttempts)
		e.gate.Release()
		e.health = Alive
		e.joinAttempts = 0
		e.Publish(ctx, StatusJoined)
		return true

	case radio.TxComplete:
		e.gate.Release()
		if len(ev.Downlink) > 0 {
			log.Printf("[DEBUG] Received %d byte downlink: % X", len(ev.Downlink), ev.Downlink)
		}

	default:
		log.Printf("[DEBUG] Ignoring radio event %s", ev.Kind)
	}
	return false
}

// Publish writes a status token. Failures are logged and otherwise ignored.
func (e *Engine) Publish(ctx context.Context, token string) {
	pubCtx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()

	if err := e.status.SetStatus(pubCtx, token); err != nil {
		log.Printf("[WARN] Update of UI status to '%s' failed: %v", token, err)
	}
}

// Snapshot asks the running loop for a copy of its state.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case e.snapshots <- reply:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (e *Engine) snapshot() Snapshot {
	return Snapshot{
		Health:       e.health,
		GateBusy:     e.gate.Busy(),
		JoinAttempts: e.joinAttempts,
		Sent:         e.sent,
		Heartbeats:   e.heartbeats,
		Dropped:      e.dropped,
	}
}
