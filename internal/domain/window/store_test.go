package window

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

type fakeCatalog map[string]types.AppRegistration

func (c fakeCatalog) Get(id string) (types.AppRegistration, bool) {
	reg, ok := c[id]
	return reg, ok
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		"terminal": {
			ID: "terminal", Name: "Terminal",
			DefaultSize: types.Size{Width: 720, Height: 480},
			MinSize:     types.Size{Width: 320, Height: 240},
			Resizable:   true, Maximizable: true, MultiInstance: true,
		},
		"settings": {
			ID: "settings", Name: "Settings",
			DefaultSize: types.Size{Width: 800, Height: 560},
			MinSize:     types.Size{Width: 320, Height: 240},
			Resizable:   true, Maximizable: true,
		},
		"calculator": {
			ID: "calculator", Name: "Calculator",
			DefaultSize: types.Size{Width: 320, Height: 480},
			MinSize:     types.Size{Width: 320, Height: 480},
		},
	}
}

func newTestStore() *Store {
	seq := 0
	return NewStore(testCatalog(), NewStaticViewport(1920, 1080, 48), nil).
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("win_%d", seq)
		})
}

func intPtr(v int) *int { return &v }

// assertInvariants checks single focus and z-order completeness
func assertInvariants(t *testing.T, s *Store) {
	t.Helper()
	state := s.State()

	focused := 0
	for _, w := range state.Windows {
		if w.Focused {
			focused++
		}
	}
	assert.LessOrEqual(t, focused, 1, "at most one window may be focused")

	keys := make([]string, 0, len(state.Windows))
	for wid := range state.Windows {
		keys = append(keys, wid)
	}
	order := append([]string(nil), state.ZOrder...)
	sort.Strings(keys)
	sort.Strings(order)
	assert.Equal(t, keys, order, "z-order must contain exactly the open windows")
}

func TestCreateWindowOnEmptyDesktop(t *testing.T) {
	s := newTestStore()

	wid, err := s.CreateWindow("terminal", nil)
	require.NoError(t, err)

	win, ok := s.Get(wid)
	require.True(t, ok)
	assert.True(t, win.Focused)
	assert.Equal(t, "Terminal", win.Title)
	assert.Equal(t, []string{wid}, s.ZOrder())
	assert.Equal(t, 720, win.Bounds.W)
	assertInvariants(t, s)
}

func TestCreateWindowUnknownApp(t *testing.T) {
	s := newTestStore()

	_, err := s.CreateWindow("ghost", nil)
	assert.ErrorIs(t, err, types.ErrAppNotFound)
	assert.Zero(t, s.Count())
}

func TestCreateWindowOverridesAreConstrained(t *testing.T) {
	s := newTestStore()

	wid, err := s.CreateWindow("terminal", &CreateOptions{
		Title:  "<b>build</b> log",
		Bounds: &types.Bounds{X: 1800, Y: 1000, W: 10, H: 10},
	})
	require.NoError(t, err)

	win, _ := s.Get(wid)
	assert.Equal(t, "build log", win.Title)
	assert.Equal(t, types.Bounds{X: 1600, Y: 792, W: 320, H: 240}, win.Bounds)
}

func TestCreateWindowFocusesNewest(t *testing.T) {
	s := newTestStore()

	first, _ := s.CreateWindow("terminal", nil)
	second, _ := s.CreateWindow("terminal", nil)

	w1, _ := s.Get(first)
	w2, _ := s.Get(second)
	assert.False(t, w1.Focused)
	assert.True(t, w2.Focused)
	assert.Equal(t, []string{first, second}, s.ZOrder())
}

func TestFocusWindow(t *testing.T) {
	s := newTestStore()
	first, _ := s.CreateWindow("terminal", nil)
	second, _ := s.CreateWindow("settings", nil)

	assert.True(t, s.FocusWindow(first))
	assert.Equal(t, []string{second, first}, s.ZOrder())

	focused, ok := s.Focused()
	require.True(t, ok)
	assert.Equal(t, first, focused.ID)
	assertInvariants(t, s)
}

func TestFocusWindowIsIdempotent(t *testing.T) {
	s := newTestStore()
	first, _ := s.CreateWindow("terminal", nil)
	s.CreateWindow("settings", nil)

	s.FocusWindow(first)
	once := s.State()
	s.FocusWindow(first)
	twice := s.State()

	assert.Equal(t, once, twice)
}

func TestFocusWindowUnknownIsNoop(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("terminal", nil)
	before := s.State()

	assert.False(t, s.FocusWindow("win_missing"))
	assert.Equal(t, before, s.State())

	win, _ := s.Get(wid)
	assert.True(t, win.Focused)
}

func TestCloseWindowPassesFocusToTopmost(t *testing.T) {
	s := newTestStore()
	a, _ := s.CreateWindow("terminal", nil)
	b, _ := s.CreateWindow("terminal", nil)
	c, _ := s.CreateWindow("settings", nil)

	assert.True(t, s.CloseWindow(c, false))
	assert.Equal(t, []string{a, b}, s.ZOrder())

	focused, ok := s.Focused()
	require.True(t, ok)
	assert.Equal(t, b, focused.ID)

	s.CloseWindow(b, false)
	s.CloseWindow(a, true)
	_, ok = s.Focused()
	assert.False(t, ok)
	assert.Empty(t, s.ZOrder())
	assert.False(t, s.CloseWindow(a, false))
}

func TestCloseSkipsMinimizedWhenRefocusing(t *testing.T) {
	s := newTestStore()
	a, _ := s.CreateWindow("terminal", nil)
	b, _ := s.CreateWindow("terminal", nil)
	c, _ := s.CreateWindow("terminal", nil)

	s.MinimizeWindow(b)
	s.FocusWindow(c)
	s.CloseWindow(c, false)

	focused, ok := s.Focused()
	require.True(t, ok)
	assert.Equal(t, a, focused.ID)
	assertInvariants(t, s)
}

func TestRequestCloseWindow(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("terminal", nil)
	ctx := context.Background()

	allowed, err := s.RequestCloseWindow(ctx, wid)
	require.NoError(t, err)
	assert.True(t, allowed, "windows without a hook may always close")

	require.True(t, s.SetCloseConfirmation(wid, func(ctx context.Context, w *types.Window) (bool, error) {
		assert.Equal(t, wid, w.ID)
		return false, nil
	}))
	allowed, err = s.RequestCloseWindow(ctx, wid)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.True(t, s.Has(wid), "requesting a close never removes the window")

	s.SetCloseConfirmation(wid, func(ctx context.Context, w *types.Window) (bool, error) {
		return false, errors.New("app crashed")
	})
	_, err = s.RequestCloseWindow(ctx, wid)
	assert.Error(t, err)

	_, err = s.RequestCloseWindow(ctx, "win_missing")
	assert.ErrorIs(t, err, types.ErrWindowNotFound)
}

func TestMinimizeAndRestore(t *testing.T) {
	s := newTestStore()
	a, _ := s.CreateWindow("terminal", nil)
	b, _ := s.CreateWindow("settings", nil)

	require.True(t, s.MinimizeWindow(b))
	wb, _ := s.Get(b)
	assert.True(t, wb.Minimized)
	assert.False(t, wb.Focused)

	focused, _ := s.Focused()
	assert.Equal(t, a, focused.ID)

	require.True(t, s.RestoreWindow(b))
	wb, _ = s.Get(b)
	assert.False(t, wb.Minimized)
	assert.True(t, wb.Focused)
	assert.Equal(t, b, s.ZOrder()[1])
	assertInvariants(t, s)
}

func TestMinimizeLastWindowLeavesNoFocus(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("terminal", nil)

	s.MinimizeWindow(wid)
	_, ok := s.Focused()
	assert.False(t, ok)
}

func TestFocusRestoresMinimizedWindow(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("terminal", nil)
	s.MinimizeWindow(wid)

	s.FocusWindow(wid)
	win, _ := s.Get(wid)
	assert.False(t, win.Minimized)
	assert.True(t, win.Focused)
}

func TestMaximizeToggle(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("terminal", &CreateOptions{Bounds: &types.Bounds{X: 50, Y: 60, W: 700, H: 500}})

	require.True(t, s.MaximizeWindow(wid))
	win, _ := s.Get(wid)
	assert.True(t, win.Maximized)
	assert.Equal(t, types.Bounds{X: 0, Y: 0, W: 1920, H: 1032}, win.Bounds)
	require.NotNil(t, win.PreMaximize)

	require.True(t, s.MaximizeWindow(wid))
	win, _ = s.Get(wid)
	assert.False(t, win.Maximized)
	assert.Equal(t, types.Bounds{X: 50, Y: 60, W: 700, H: 500}, win.Bounds)
	assert.Nil(t, win.PreMaximize)
}

func TestMaximizeMinimizedWindowRestoresFirst(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("terminal", nil)
	s.MinimizeWindow(wid)

	s.MaximizeWindow(wid)
	win, _ := s.Get(wid)
	assert.False(t, win.Minimized)
	assert.True(t, win.Maximized)
	assert.True(t, win.Focused)
}

func TestMaximizeRespectsPolicy(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("calculator", nil)

	assert.False(t, s.MaximizeWindow(wid))
	win, _ := s.Get(wid)
	assert.False(t, win.Maximized)
}

func TestRestoreUnmaximizes(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("terminal", &CreateOptions{Bounds: &types.Bounds{X: 10, Y: 10, W: 400, H: 300}})
	s.MaximizeWindow(wid)

	s.RestoreWindow(wid)
	win, _ := s.Get(wid)
	assert.False(t, win.Maximized)
	assert.Equal(t, types.Bounds{X: 10, Y: 10, W: 400, H: 300}, win.Bounds)
}

func TestUpdateWindowBoundsClampsNegativePosition(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("terminal", nil)

	require.True(t, s.UpdateWindowBounds(wid, types.PartialBounds{X: intPtr(-50), Y: intPtr(-50)}))
	win, _ := s.Get(wid)
	assert.Equal(t, 0, win.Bounds.X)
	assert.Equal(t, 0, win.Bounds.Y)
}

func TestUpdateWindowBoundsEnforcesMinimumWidth(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("terminal", nil)

	s.UpdateWindowBounds(wid, types.PartialBounds{W: intPtr(10)})
	win, _ := s.Get(wid)
	assert.Equal(t, 320, win.Bounds.W)
}

func TestUpdateWindowBoundsKeepsTitleBarAboveTaskbar(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("terminal", nil)

	s.UpdateWindowBounds(wid, types.PartialBounds{
		X: intPtr(5000), Y: intPtr(5000), W: intPtr(4000), H: intPtr(4000),
	})
	win, _ := s.Get(wid)
	assert.Equal(t, types.Bounds{X: 0, Y: 0, W: 1920, H: 1032}, win.Bounds)
}

func TestUpdateWindowBoundsNonResizableKeepsSize(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("calculator", nil)

	s.UpdateWindowBounds(wid, types.PartialBounds{X: intPtr(100), W: intPtr(900)})
	win, _ := s.Get(wid)
	assert.Equal(t, 100, win.Bounds.X)
	assert.Equal(t, 320, win.Bounds.W)
}

func TestUpdateWindowBoundsUnmaximizes(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("terminal", nil)
	s.MaximizeWindow(wid)

	s.UpdateWindowBounds(wid, types.PartialBounds{W: intPtr(600), H: intPtr(400)})
	win, _ := s.Get(wid)
	assert.False(t, win.Maximized)
	assert.Equal(t, 600, win.Bounds.W)
}

func TestSnapWindow(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("terminal", nil)

	require.NoError(t, s.SnapWindow(wid, types.SnapLeft))
	win, _ := s.Get(wid)
	assert.Equal(t, types.Bounds{X: 0, Y: 0, W: 960, H: 1032}, win.Bounds)

	require.NoError(t, s.SnapWindow(wid, types.SnapRight))
	win, _ = s.Get(wid)
	assert.Equal(t, types.Bounds{X: 960, Y: 0, W: 960, H: 1032}, win.Bounds)

	require.NoError(t, s.SnapWindow(wid, types.SnapFull))
	win, _ = s.Get(wid)
	assert.True(t, win.Maximized)

	assert.Error(t, s.SnapWindow(wid, "diagonal"))
	assert.ErrorIs(t, s.SnapWindow("win_missing", types.SnapLeft), types.ErrWindowNotFound)
}

func TestSetWindowState(t *testing.T) {
	s := newTestStore()
	a, _ := s.CreateWindow("terminal", nil)
	b, _ := s.CreateWindow("terminal", nil)
	yes, no := true, false

	require.True(t, s.SetWindowState(b, &yes, nil))
	win, _ := s.Get(b)
	assert.True(t, win.Maximized)

	// Setting the same value again does not toggle
	s.SetWindowState(b, &yes, nil)
	win, _ = s.Get(b)
	assert.True(t, win.Maximized)

	s.SetWindowState(b, &no, &yes)
	win, _ = s.Get(b)
	assert.False(t, win.Maximized)
	assert.True(t, win.Minimized)

	focused, _ := s.Focused()
	assert.Equal(t, a, focused.ID)
}

func TestWindowsByApp(t *testing.T) {
	s := newTestStore()
	t1, _ := s.CreateWindow("terminal", nil)
	s.CreateWindow("settings", nil)
	t2, _ := s.CreateWindow("terminal", nil)

	wins := s.WindowsByApp("terminal")
	require.Len(t, wins, 2)
	assert.Equal(t, t1, wins[0].ID)
	assert.Equal(t, t2, wins[1].ID)
	assert.Empty(t, s.WindowsByApp("calculator"))
}

func TestClampToViewport(t *testing.T) {
	vp := NewStaticViewport(1920, 1080, 48)
	s := NewStore(testCatalog(), vp, nil)
	a, _ := s.CreateWindow("terminal", &CreateOptions{Bounds: &types.Bounds{X: 1500, Y: 700, W: 400, H: 300}})
	b, _ := s.CreateWindow("terminal", nil)
	s.MaximizeWindow(b)

	vp.Set(types.Viewport{Width: 1280, Height: 720, TaskbarHeight: 48})
	assert.Equal(t, 2, s.ClampToViewport())

	wa, _ := s.Get(a)
	assert.Equal(t, types.Bounds{X: 880, Y: 372, W: 400, H: 300}, wa.Bounds)
	wb, _ := s.Get(b)
	assert.Equal(t, types.Bounds{X: 0, Y: 0, W: 1280, H: 672}, wb.Bounds)
}

func TestReturnedWindowsAreCopies(t *testing.T) {
	s := newTestStore()
	wid, _ := s.CreateWindow("terminal", nil)

	win, _ := s.Get(wid)
	win.Title = "mutated"
	win.Bounds.X = 999

	fresh, _ := s.Get(wid)
	assert.Equal(t, "Terminal", fresh.Title)
	assert.NotEqual(t, 999, fresh.Bounds.X)
}

func TestSubscribeFiresOnlyOnChange(t *testing.T) {
	s := newTestStore()

	var calls []interface{}
	unsubscribe := s.Subscribe(
		func(state types.WindowState) interface{} {
			if w := state.Focused(); w != nil {
				return w.ID
			}
			return ""
		},
		func(current, previous interface{}) {
			calls = append(calls, current)
		},
	)

	a, _ := s.CreateWindow("terminal", nil)
	b, _ := s.CreateWindow("terminal", nil)
	s.UpdateWindowBounds(b, types.PartialBounds{X: intPtr(10)}) // focus unchanged
	s.FocusWindow(b)                                         // no-op
	s.FocusWindow(a)

	assert.Equal(t, []interface{}{a, b, a}, calls)

	unsubscribe()
	s.FocusWindow(b)
	assert.Len(t, calls, 3)
}

func TestSubscriberPanicIsIsolated(t *testing.T) {
	s := newTestStore()
	delivered := 0

	s.Subscribe(func(state types.WindowState) interface{} { return len(state.Windows) },
		func(current, previous interface{}) { panic("boom") })
	s.Subscribe(func(state types.WindowState) interface{} { return len(state.Windows) },
		func(current, previous interface{}) { delivered++ })

	_, err := s.CreateWindow("terminal", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
}

func TestRandomOperationsPreserveInvariants(t *testing.T) {
	s := newTestStore()
	rng := rand.New(rand.NewSource(42))
	apps := []string{"terminal", "settings", "calculator"}

	for i := 0; i < 500; i++ {
		ids := s.ZOrder()
		pick := func() string {
			if len(ids) == 0 {
				return "win_missing"
			}
			return ids[rng.Intn(len(ids))]
		}

		switch rng.Intn(7) {
		case 0, 1:
			_, err := s.CreateWindow(apps[rng.Intn(len(apps))], nil)
			require.NoError(t, err)
		case 2:
			s.FocusWindow(pick())
		case 3:
			s.CloseWindow(pick(), false)
		case 4:
			s.MinimizeWindow(pick())
		case 5:
			s.MaximizeWindow(pick())
		case 6:
			s.UpdateWindowBounds(pick(), types.PartialBounds{X: intPtr(rng.Intn(4000) - 2000), W: intPtr(rng.Intn(3000))})
		}
		assertInvariants(t, s)
	}
}
