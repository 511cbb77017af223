package location

import "sync"

// SyncState says which direction is currently propagating
type SyncState int

const (
	Idle SyncState = iota
	SyncingFromStore
	SyncingFromLocation
)

func (s SyncState) String() string {
	switch s {
	case Idle:
		return "idle"
	case SyncingFromStore:
		return "syncing_from_store"
	case SyncingFromLocation:
		return "syncing_from_location"
	default:
		return "unknown"
	}
}

// guard lets one direction propagate at a time
type guard struct {
	mu    sync.Mutex
	state SyncState
}

// enter moves from idle to the given state; it fails while the other
// direction, or the same one, is propagating
func (g *guard) enter(s SyncState) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Idle {
		return false
	}
	g.state = s
	return true
}

func (g *guard) exit() {
	g.mu.Lock()
	g.state = Idle
	g.mu.Unlock()
}

func (g *guard) current() SyncState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}
