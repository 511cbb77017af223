package window

import (
	"sync"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

// ViewportProvider reports the current desktop size
type ViewportProvider interface {
	Viewport() types.Viewport
}

// StaticViewport is a settable ViewportProvider
type StaticViewport struct {
	mu sync.RWMutex
	vp types.Viewport
}

// NewStaticViewport creates a provider with a fixed initial size
func NewStaticViewport(width, height, taskbarHeight int) *StaticViewport {
	return &StaticViewport{vp: types.Viewport{Width: width, Height: height, TaskbarHeight: taskbarHeight}}
}

// Viewport returns the current size
func (s *StaticViewport) Viewport() types.Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vp
}

// Set replaces the viewport size
func (s *StaticViewport) Set(vp types.Viewport) {
	s.mu.Lock()
	s.vp = vp
	s.mu.Unlock()
}

// Constrain applies the bounds-constraint algorithm: width and height are
// clamped to [min, viewport] with the minimum winning, then the position is
// clamped so the whole window stays above the taskbar.
func Constrain(b types.Bounds, minSize types.Size, vp types.Viewport) types.Bounds {
	maxW := vp.Width
	maxH := vp.UsableHeight()

	b.W = clamp(b.W, minSize.Width, maxW)
	b.H = clamp(b.H, minSize.Height, maxH)
	b.X = clamp(b.X, 0, maxW-b.W)
	b.Y = clamp(b.Y, 0, maxH-b.H)
	return b
}

// clamp bounds v to [lo, hi]; lo wins when the range is empty
func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// FullBounds is the whole usable viewport
func FullBounds(vp types.Viewport) types.Bounds {
	return types.Bounds{X: 0, Y: 0, W: vp.Width, H: vp.UsableHeight()}
}

// SnapBounds computes the target rectangle of a snap position
func SnapBounds(pos types.SnapPosition, vp types.Viewport) (types.Bounds, bool) {
	half := vp.Width / 2
	usable := vp.UsableHeight()

	switch pos {
	case types.SnapLeft:
		return types.Bounds{X: 0, Y: 0, W: half, H: usable}, true
	case types.SnapRight:
		return types.Bounds{X: half, Y: 0, W: vp.Width - half, H: usable}, true
	case types.SnapFull:
		return FullBounds(vp), true
	default:
		return types.Bounds{}, false
	}
}

// Centered places a size in the middle of the usable viewport
func Centered(size types.Size, vp types.Viewport) types.Bounds {
	return types.Bounds{
		X: (vp.Width - size.Width) / 2,
		Y: (vp.UsableHeight() - size.Height) / 2,
		W: size.Width,
		H: size.Height,
	}
}
