package window

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/id"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

// AppCatalog resolves window policy for an app
type AppCatalog interface {
	Get(id string) (types.AppRegistration, bool)
}

// CloseConfirmation asks a hosted application whether its window may close
type CloseConfirmation func(ctx context.Context, w *types.Window) (bool, error)

// CreateOptions overrides the defaults of a new window
type CreateOptions struct {
	Title  string
	Bounds *types.Bounds
	Data   map[string]interface{}
}

// Selector extracts the slice of state a subscriber cares about
type Selector func(state types.WindowState) interface{}

// Listener receives the selected slice after it changes
type Listener func(current, previous interface{})

type subscription struct {
	selector Selector
	listener Listener

	mu   sync.Mutex
	last interface{}
}

// Store is the authoritative container for open windows
type Store struct {
	mu      sync.Mutex
	windows map[string]*types.Window     // Protected by mu
	zorder  []string                     // Protected by mu, back-to-front
	confirm map[string]CloseConfirmation // Protected by mu

	apps      AppCatalog
	viewport  ViewportProvider
	newID     func() string
	sanitizer *bluemonday.Policy
	logger    *zap.Logger

	subsMu  sync.Mutex
	subs    map[int]*subscription
	nextSub int
}

// NewStore creates an empty window store
func NewStore(apps AppCatalog, viewport ViewportProvider, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		windows:   make(map[string]*types.Window),
		confirm:   make(map[string]CloseConfirmation),
		apps:      apps,
		viewport:  viewport,
		newID:     func() string { return id.NewWindowID().String() },
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
		subs:      make(map[int]*subscription),
	}
}

// WithIDGenerator replaces the window ID source
func (s *Store) WithIDGenerator(gen func() string) *Store {
	s.newID = gen
	return s
}

// CreateWindow opens a new focused window on top of the stack
func (s *Store) CreateWindow(appID string, opts *CreateOptions) (string, error) {
	reg, ok := s.apps.Get(appID)
	if !ok {
		return "", fmt.Errorf("create window for %s: %w", appID, types.ErrAppNotFound)
	}
	if opts == nil {
		opts = &CreateOptions{}
	}

	vp := s.viewport.Viewport()
	bounds := Centered(reg.DefaultSize, vp)
	if opts.Bounds != nil {
		bounds = *opts.Bounds
	}

	title := s.sanitizer.Sanitize(opts.Title)
	if title == "" {
		title = reg.Name
	}

	win := &types.Window{
		ID:        s.newID(),
		AppID:     appID,
		Title:     title,
		Bounds:    Constrain(bounds, reg.MinSize, vp),
		CreatedAt: time.Now(),
		Data:      opts.Data,
	}

	s.mu.Lock()
	s.windows[win.ID] = win
	s.zorder = append(s.zorder, win.ID)
	s.focusLocked(win.ID)
	s.mu.Unlock()

	s.logger.Debug("Window created",
		zap.String("window_id", win.ID),
		zap.String("app_id", appID),
	)
	s.notify()
	return win.ID, nil
}

// FocusWindow raises a window and gives it focus.
// Unknown IDs are ignored; a minimized window is restored first.
func (s *Store) FocusWindow(windowID string) bool {
	s.mu.Lock()
	win, ok := s.windows[windowID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if win.Focused && !win.Minimized && s.topLocked() == windowID {
		s.mu.Unlock()
		return true
	}
	win.Minimized = false
	s.focusLocked(windowID)
	s.mu.Unlock()

	s.notify()
	return true
}

// CloseWindow removes a window. The topmost remaining visible window takes
// focus if the closed one had it.
func (s *Store) CloseWindow(windowID string, force bool) bool {
	s.mu.Lock()
	win, ok := s.windows[windowID]
	if !ok {
		s.mu.Unlock()
		return false
	}

	delete(s.windows, windowID)
	delete(s.confirm, windowID)
	s.removeFromZOrderLocked(windowID)

	if win.Focused {
		if next := s.topVisibleLocked(); next != "" {
			s.focusLocked(next)
		}
	}
	s.mu.Unlock()

	s.logger.Debug("Window closed",
		zap.String("window_id", windowID),
		zap.String("app_id", win.AppID),
		zap.Bool("force", force),
	)
	s.notify()
	return true
}

// SetCloseConfirmation installs the hook consulted by RequestCloseWindow
func (s *Store) SetCloseConfirmation(windowID string, hook CloseConfirmation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.windows[windowID]; !ok {
		return false
	}
	if hook == nil {
		delete(s.confirm, windowID)
	} else {
		s.confirm[windowID] = hook
	}
	return true
}

// RequestCloseWindow asks the hosted application whether the window may close.
// It never removes the window itself.
func (s *Store) RequestCloseWindow(ctx context.Context, windowID string) (bool, error) {
	s.mu.Lock()
	win, ok := s.windows[windowID]
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("request close %s: %w", windowID, types.ErrWindowNotFound)
	}
	hook := s.confirm[windowID]
	snapshot := win.Clone()
	s.mu.Unlock()

	if hook == nil {
		return true, nil
	}

	// The hook may block on the user; no lock is held here
	allowed, err := hook(ctx, snapshot)
	if err != nil {
		return false, fmt.Errorf("close confirmation for %s: %w", windowID, err)
	}
	return allowed, nil
}

// MinimizeWindow hides a window and passes focus to the next visible window
func (s *Store) MinimizeWindow(windowID string) bool {
	s.mu.Lock()
	win, ok := s.windows[windowID]
	if !ok || win.Minimized {
		s.mu.Unlock()
		return ok
	}

	win.Minimized = true
	if win.Focused {
		win.Focused = false
		if next := s.topVisibleLocked(); next != "" {
			s.focusLocked(next)
		}
	}
	s.mu.Unlock()

	s.notify()
	return true
}

// RestoreWindow un-minimizes a window, or un-maximizes a visible one, and focuses it
func (s *Store) RestoreWindow(windowID string) bool {
	s.mu.Lock()
	win, ok := s.windows[windowID]
	if !ok {
		s.mu.Unlock()
		return false
	}

	switch {
	case win.Minimized:
		win.Minimized = false
	case win.Maximized:
		s.unmaximizeLocked(win)
	}
	s.focusLocked(windowID)
	s.mu.Unlock()

	s.notify()
	return true
}

// MaximizeWindow toggles the maximized state. Maximizing fills the usable
// viewport and remembers the previous bounds; a minimized window is restored first.
func (s *Store) MaximizeWindow(windowID string) bool {
	s.mu.Lock()
	win, ok := s.windows[windowID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if reg, found := s.apps.Get(win.AppID); found && !reg.Maximizable && !win.Maximized {
		s.mu.Unlock()
		return false
	}

	win.Minimized = false
	if win.Maximized {
		s.unmaximizeLocked(win)
	} else {
		prev := win.Bounds
		win.PreMaximize = &prev
		win.Bounds = FullBounds(s.viewport.Viewport())
		win.Maximized = true
	}
	s.focusLocked(windowID)
	s.mu.Unlock()

	s.notify()
	return true
}

// SetWindowState applies explicit maximized/minimized flags, used when
// restoring a layout rather than toggling
func (s *Store) SetWindowState(windowID string, maximized, minimized *bool) bool {
	s.mu.Lock()
	win, ok := s.windows[windowID]
	if !ok {
		s.mu.Unlock()
		return false
	}

	if maximized != nil && *maximized != win.Maximized {
		if *maximized {
			prev := win.Bounds
			win.PreMaximize = &prev
			win.Bounds = FullBounds(s.viewport.Viewport())
			win.Maximized = true
		} else {
			s.unmaximizeLocked(win)
		}
	}
	if minimized != nil && *minimized != win.Minimized {
		win.Minimized = *minimized
		if win.Minimized && win.Focused {
			win.Focused = false
			if next := s.topVisibleLocked(); next != "" {
				s.focusLocked(next)
			}
		}
	}
	s.mu.Unlock()

	s.notify()
	return true
}

// UpdateWindowBounds merges partial bounds and re-applies the constraint
// algorithm. Moving a maximized window un-maximizes it; non-resizable apps
// keep their size.
func (s *Store) UpdateWindowBounds(windowID string, partial types.PartialBounds) bool {
	s.mu.Lock()
	win, ok := s.windows[windowID]
	if !ok {
		s.mu.Unlock()
		return false
	}

	reg, _ := s.apps.Get(win.AppID)
	if !reg.Resizable {
		partial.W, partial.H = nil, nil
	}

	if win.Maximized {
		win.Maximized = false
		win.PreMaximize = nil
	}
	win.Bounds = Constrain(win.Bounds.Merge(partial), reg.MinSize, s.viewport.Viewport())
	s.mu.Unlock()

	s.notify()
	return true
}

// SnapWindow moves a window to the left half, right half or full viewport
func (s *Store) SnapWindow(windowID string, pos types.SnapPosition) error {
	target, ok := SnapBounds(pos, s.viewport.Viewport())
	if !ok {
		return fmt.Errorf("unknown snap position %q", pos)
	}

	if pos == types.SnapFull {
		win, found := s.Get(windowID)
		if !found {
			return fmt.Errorf("snap %s: %w", windowID, types.ErrWindowNotFound)
		}
		if !win.Maximized {
			s.MaximizeWindow(windowID)
		}
		return nil
	}

	s.mu.Lock()
	win, found := s.windows[windowID]
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("snap %s: %w", windowID, types.ErrWindowNotFound)
	}
	reg, _ := s.apps.Get(win.AppID)
	win.Maximized = false
	win.PreMaximize = nil
	win.Minimized = false
	win.Bounds = Constrain(target, reg.MinSize, s.viewport.Viewport())
	s.focusLocked(windowID)
	s.mu.Unlock()

	s.notify()
	return nil
}

// ClampToViewport re-applies the constraint algorithm to every window after
// the viewport changes
func (s *Store) ClampToViewport() int {
	vp := s.viewport.Viewport()
	changed := 0

	s.mu.Lock()
	for _, win := range s.windows {
		before := win.Bounds
		if win.Maximized {
			win.Bounds = FullBounds(vp)
		} else {
			reg, _ := s.apps.Get(win.AppID)
			win.Bounds = Constrain(win.Bounds, reg.MinSize, vp)
		}
		if win.Bounds != before {
			changed++
		}
	}
	s.mu.Unlock()

	if changed > 0 {
		s.logger.Info("Clamped windows to viewport",
			zap.Int("count", changed),
			zap.Int("width", vp.Width),
			zap.Int("height", vp.Height),
		)
		s.notify()
	}
	return changed
}

// Get returns a copy of a window
func (s *Store) Get(windowID string) (*types.Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	win, ok := s.windows[windowID]
	if !ok {
		return nil, false
	}
	return win.Clone(), true
}

// Has reports whether a window exists
func (s *Store) Has(windowID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.windows[windowID]
	return ok
}

// WindowsByApp returns copies of an app's windows in stacking order
func (s *Store) WindowsByApp(appID string) []*types.Window {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*types.Window
	for _, wid := range s.zorder {
		if win := s.windows[wid]; win.AppID == appID {
			result = append(result, win.Clone())
		}
	}
	return result
}

// List returns copies of all windows back-to-front
func (s *Store) List() []*types.Window {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*types.Window, 0, len(s.zorder))
	for _, wid := range s.zorder {
		result = append(result, s.windows[wid].Clone())
	}
	return result
}

// ZOrder returns the window IDs back-to-front
func (s *Store) ZOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.zorder...)
}

// Focused returns a copy of the focused window
func (s *Store) Focused() (*types.Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, win := range s.windows {
		if win.Focused {
			return win.Clone(), true
		}
	}
	return nil, false
}

// Count returns the number of open windows
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.windows)
}

// State returns a deep snapshot of the store
func (s *Store) State() types.WindowState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Subscribe registers a listener for changes of the selected slice.
// The listener runs on the goroutine that performed the mutation.
func (s *Store) Subscribe(selector Selector, listener Listener) func() {
	sub := &subscription{
		selector: selector,
		listener: listener,
		last:     selector(s.State()),
	}

	s.subsMu.Lock()
	key := s.nextSub
	s.nextSub++
	s.subs[key] = sub
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, key)
		s.subsMu.Unlock()
	}
}

// notify delivers the current snapshot to subscribers whose slice changed
func (s *Store) notify() {
	s.subsMu.Lock()
	if len(s.subs) == 0 {
		s.subsMu.Unlock()
		return
	}
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subsMu.Unlock()

	state := s.State()
	for _, sub := range subs {
		current := sub.selector(state)

		sub.mu.Lock()
		previous := sub.last
		if reflect.DeepEqual(current, previous) {
			sub.mu.Unlock()
			continue
		}
		sub.last = current
		sub.mu.Unlock()

		s.deliver(sub, current, previous)
	}
}

func (s *Store) deliver(sub *subscription, current, previous interface{}) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Window store subscriber panicked", zap.Any("panic", r))
		}
	}()
	sub.listener(current, previous)
}

// focusLocked moves a window to the top and makes it the only focused one
func (s *Store) focusLocked(windowID string) {
	for wid, win := range s.windows {
		win.Focused = wid == windowID
	}
	s.removeFromZOrderLocked(windowID)
	s.zorder = append(s.zorder, windowID)
}

func (s *Store) removeFromZOrderLocked(windowID string) {
	for i, wid := range s.zorder {
		if wid == windowID {
			s.zorder = append(s.zorder[:i], s.zorder[i+1:]...)
			return
		}
	}
}

func (s *Store) topLocked() string {
	if len(s.zorder) == 0 {
		return ""
	}
	return s.zorder[len(s.zorder)-1]
}

// topVisibleLocked returns the topmost non-minimized window
func (s *Store) topVisibleLocked() string {
	for i := len(s.zorder) - 1; i >= 0; i-- {
		if win := s.windows[s.zorder[i]]; !win.Minimized {
			return win.ID
		}
	}
	return ""
}

func (s *Store) unmaximizeLocked(win *types.Window) {
	win.Maximized = false
	if win.PreMaximize != nil {
		reg, _ := s.apps.Get(win.AppID)
		win.Bounds = Constrain(*win.PreMaximize, reg.MinSize, s.viewport.Viewport())
		win.PreMaximize = nil
	}
}

func (s *Store) snapshotLocked() types.WindowState {
	windows := make(map[string]*types.Window, len(s.windows))
	for wid, win := range s.windows {
		windows[wid] = win.Clone()
	}
	return types.WindowState{
		Windows: windows,
		ZOrder:  append([]string(nil), s.zorder...),
	}
}
