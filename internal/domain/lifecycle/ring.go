package lifecycle

import "github.com/GriffinCanCode/webdesk/backend/internal/shared/types"

// ring is a fixed-capacity event buffer that evicts the oldest entry
type ring struct {
	buf   []types.LifecycleEvent
	start int
	size  int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]types.LifecycleEvent, capacity)}
}

func (r *ring) push(e types.LifecycleEvent) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = e
		r.size++
		return
	}
	r.buf[r.start] = e
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring) items() []types.LifecycleEvent {
	out := make([]types.LifecycleEvent, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

func (r *ring) reset() {
	r.start, r.size = 0, 0
}
