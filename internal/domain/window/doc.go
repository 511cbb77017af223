// Package window holds the authoritative window state of the desktop.
//
// The Store owns every open window, the stacking order and the focus flag.
// All mutations go through it and complete under a single lock; subscribers
// are notified afterwards with a deep copy of the new state.
//
// Invariants kept by every operation:
//   - At most one window is focused, and a minimized window never is
//   - ZOrder lists exactly the open windows, back-to-front
//   - Bounds respect the app minimum size and keep the title bar on screen
//
// Geometry helpers (Constrain, SnapBounds, FullBounds, Centered) are pure
// functions over types.Viewport and are reused by the launcher and the
// location service.
//
// Example Usage:
//
//	store := window.NewStore(apps, window.NewStaticViewport(1920, 1080, 48), logger)
//	wid, err := store.CreateWindow("terminal", nil)
//	unsubscribe := store.Subscribe(selectFocused, onFocusChange)
//	defer unsubscribe()
package window
