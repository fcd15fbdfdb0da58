package bridge

// LinkHealth is the bridge's view of the LoRaWAN session, driven only by MAC
// notifications.
type LinkHealth int

const (
	Unknown LinkHealth = iota
	Alive
	Dead
)

func (h LinkHealth) String() string {
	switch h {
	case Alive:
		return "alive"
	case Dead:
		return "dead"
	}
	return "unknown"
}

// Gate guards the single transmission slot of the half-duplex radio.
// Not safe for concurrent use; the engine loop is its only user.
type Gate struct {
	busy bool
}

// TryAcquire marks the gate busy and returns true if it was free.
func (g *Gate) TryAcquire() bool {
	if g.busy {
		return false
	}
	g.busy = true
	return true
}

// Release frees the gate. Releasing a free gate is a no-op.
func (g *Gate) Release() {
	g.busy = false
}

// Busy reports whether a frame is outstanding.
func (g *Gate) Busy() bool {
	return g.busy
}
