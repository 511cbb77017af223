package launcher

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/backend/internal/domain/window"
	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

const (
	// CascadeBase is the offset of the first cascaded window
	CascadeBase = 100
	// CascadeStep is the per-window offset along both axes
	CascadeStep = 30
	// CascadeCycle is the number of windows after which the cascade restarts
	CascadeCycle = 10
)

// Catalog resolves app registrations
type Catalog interface {
	Get(id string) (types.AppRegistration, bool)
}

// Windows is the subset of the window store the launcher drives
type Windows interface {
	CreateWindow(appID string, opts *window.CreateOptions) (string, error)
	FocusWindow(windowID string) bool
	CloseWindow(windowID string, force bool) bool
	MinimizeWindow(windowID string) bool
	RestoreWindow(windowID string) bool
	MaximizeWindow(windowID string) bool
	SetWindowState(windowID string, maximized, minimized *bool) bool
	SnapWindow(windowID string, pos types.SnapPosition) error
	RequestCloseWindow(ctx context.Context, windowID string) (bool, error)
	WindowsByApp(appID string) []*types.Window
	Get(windowID string) (*types.Window, bool)
	Focused() (*types.Window, bool)
	Count() int
}

// Lifecycle is the subset of the lifecycle manager the launcher notifies
type Lifecycle interface {
	MountApp(appID, windowID string)
	UnmountApp(appID, windowID string)
	FocusApp(appID, windowID string)
	BlurApp(appID, windowID string)
	ActivateApp(appID string)
	DeactivateApp(appID string)
	WindowCount(appID string) int
}

// AutoSaver runs the per-window position auto-save
type AutoSaver interface {
	Register(windowID, appID string)
	Unregister(windowID string) bool
}

// UsageTracker records that an app was launched
type UsageTracker interface {
	RecordUsage(appID string)
}

// UsageFunc adapts a function to UsageTracker
type UsageFunc func(appID string)

// RecordUsage calls f(appID)
func (f UsageFunc) RecordUsage(appID string) { f(appID) }

// Prefetcher warms up apps related to a launched app
type Prefetcher interface {
	Prefetch(appID string)
}

// PrefetchFunc adapts a function to Prefetcher
type PrefetchFunc func(appID string)

// Prefetch calls f(appID)
func (f PrefetchFunc) Prefetch(appID string) { f(appID) }

// Options controls a single launch
type Options struct {
	// FocusExisting nil applies the default policy: focus the existing window
	// of a single-instance app. True also focuses an existing window of a
	// multi-instance app. False never prevents the single-instance cap.
	FocusExisting *bool
	Title         string
	Bounds        *types.Bounds
	Data          map[string]interface{}
}

// Launcher opens, focuses and closes app windows, keeping the window store
// and the lifecycle manager in step
type Launcher struct {
	apps      Catalog
	windows   Windows
	lifecycle Lifecycle
	autosave  AutoSaver
	usage     UsageTracker
	prefetch  Prefetcher
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	// mu serializes launches and focus changes so the single-instance check
	// and the window it guards are one step
	mu    sync.Mutex
	hooks sync.WaitGroup
}

// New creates a launcher
func New(apps Catalog, windows Windows, lifecycle Lifecycle, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{
		apps:      apps,
		windows:   windows,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// WithAutoSave registers every launched window for position auto-save
func (l *Launcher) WithAutoSave(autosave AutoSaver) *Launcher {
	l.autosave = autosave
	return l
}

// WithUsageTracker sets the usage hook
func (l *Launcher) WithUsageTracker(usage UsageTracker) *Launcher {
	l.usage = usage
	return l
}

// WithPrefetcher sets the prefetch hook
func (l *Launcher) WithPrefetcher(prefetch Prefetcher) *Launcher {
	l.prefetch = prefetch
	return l
}

// WithMetrics adds metrics tracking to the launcher
func (l *Launcher) WithMetrics(metrics *monitoring.Metrics) *Launcher {
	l.metrics = metrics
	return l
}

// LaunchApp focuses or creates a window for an app. Failures, including
// panics below it, come back as an unsuccessful result.
func (l *Launcher) LaunchApp(ctx context.Context, appID string, opts Options) (result types.LaunchResult) {
	timer := monitoring.NewTimer(l.metrics, "launcher", "launch")
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Launch panicked", zap.String("app_id", appID), zap.Any("panic", r))
			result = types.LaunchResult{Error: fmt.Sprintf("launch %s: %v", appID, r)}
		}
		status := "success"
		if !result.Success {
			status = "failure"
		}
		timer.Stop(status)
		if l.metrics != nil {
			l.metrics.RecordLaunch(appID, result.Success)
		}
	}()

	if err := ctx.Err(); err != nil {
		return failure(err)
	}

	reg, ok := l.apps.Get(appID)
	if !ok {
		l.logger.Warn("Launch of unknown app", zap.String("app_id", appID))
		return failure(types.ErrAppNotFound)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing := l.existingWindow(reg, opts.FocusExisting); existing != "" {
		l.focusLocked(existing)
		return types.LaunchResult{Success: true, WindowID: existing, ExistingWindow: true}
	}

	bounds := opts.Bounds
	if bounds == nil {
		cascade := Cascade(l.windows.Count(), reg.DefaultSize)
		bounds = &cascade
	}

	previous, hadFocus := l.windows.Focused()
	windowID, err := l.windows.CreateWindow(appID, &window.CreateOptions{
		Title:  opts.Title,
		Bounds: bounds,
		Data:   opts.Data,
	})
	if err != nil {
		return failure(err)
	}

	l.fire(appID)

	if hadFocus {
		l.lifecycle.BlurApp(previous.AppID, previous.ID)
	}
	l.lifecycle.MountApp(appID, windowID)
	l.lifecycle.ActivateApp(appID)
	if l.autosave != nil {
		l.autosave.Register(windowID, appID)
	}

	l.logger.Info("App launched",
		zap.String("app_id", appID),
		zap.String("window_id", windowID),
	)
	return types.LaunchResult{Success: true, WindowID: windowID}
}

// LaunchFromDesktop focuses any open window of the app before creating one
func (l *Launcher) LaunchFromDesktop(ctx context.Context, appID string) types.LaunchResult {
	focus := true
	return l.LaunchApp(ctx, appID, Options{FocusExisting: &focus})
}

// LaunchFromStartMenu focuses an existing window only for single-instance apps
func (l *Launcher) LaunchFromStartMenu(ctx context.Context, appID string) types.LaunchResult {
	return l.LaunchApp(ctx, appID, Options{})
}

// LaunchWithData opens a new window carrying data. A single-instance app
// that is already open is focused instead.
func (l *Launcher) LaunchWithData(ctx context.Context, appID string, data map[string]interface{}) types.LaunchResult {
	focus := false
	return l.LaunchApp(ctx, appID, Options{FocusExisting: &focus, Data: data})
}

// Launch dispatches a request to the helper matching its mode
func (l *Launcher) Launch(ctx context.Context, appID string, req types.LaunchRequest) types.LaunchResult {
	switch req.Mode {
	case types.LaunchModeDesktop:
		return l.LaunchFromDesktop(ctx, appID)
	case types.LaunchModeStartMenu:
		return l.LaunchFromStartMenu(ctx, appID)
	case types.LaunchModeData:
		return l.LaunchWithData(ctx, appID, req.Data)
	default:
		return l.LaunchApp(ctx, appID, Options{
			FocusExisting: req.FocusExisting,
			Title:         req.Title,
			Bounds:        req.Bounds,
			Data:          req.Data,
		})
	}
}

// CloseApp closes a window after its app agrees, or unconditionally when forced
func (l *Launcher) CloseApp(ctx context.Context, windowID string, force bool) bool {
	win, ok := l.windows.Get(windowID)
	if !ok {
		return false
	}

	// A forced close never waits on the app
	if !force {
		allowed, err := l.windows.RequestCloseWindow(ctx, windowID)
		if err != nil {
			l.logger.Warn("Close confirmation failed",
				zap.String("window_id", windowID),
				zap.Error(err),
			)
			allowed = false
		}
		if !allowed {
			l.logger.Debug("Close vetoed", zap.String("window_id", windowID))
			return false
		}
	}

	// Final position capture needs the window to still exist
	if l.autosave != nil {
		l.autosave.Unregister(windowID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.windows.CloseWindow(windowID, force) {
		return false
	}

	l.lifecycle.UnmountApp(win.AppID, windowID)
	if l.lifecycle.WindowCount(win.AppID) == 0 {
		l.lifecycle.DeactivateApp(win.AppID)
	}

	if next, ok := l.windows.Focused(); ok && win.Focused {
		l.lifecycle.FocusApp(next.AppID, next.ID)
	}
	return true
}

// FocusApp focuses a window and records it with the lifecycle manager.
// Unknown windows are ignored.
func (l *Launcher) FocusApp(windowID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.focusLocked(windowID)
}

// MinimizeApp minimizes a window; focus passes to the next visible window
func (l *Launcher) MinimizeApp(windowID string) bool {
	return l.transition(func() bool { return l.windows.MinimizeWindow(windowID) })
}

// RestoreApp restores and focuses a window
func (l *Launcher) RestoreApp(windowID string) bool {
	return l.transition(func() bool { return l.windows.RestoreWindow(windowID) })
}

// MaximizeApp toggles the maximized state of a window and focuses it
func (l *Launcher) MaximizeApp(windowID string) bool {
	return l.transition(func() bool { return l.windows.MaximizeWindow(windowID) })
}

// SetAppWindowState applies explicit maximized/minimized flags to a window
func (l *Launcher) SetAppWindowState(windowID string, maximized, minimized *bool) bool {
	return l.transition(func() bool { return l.windows.SetWindowState(windowID, maximized, minimized) })
}

// SnapApp docks a window to a screen edge and focuses it
func (l *Launcher) SnapApp(windowID string, pos types.SnapPosition) error {
	var err error
	l.transition(func() bool {
		err = l.windows.SnapWindow(windowID, pos)
		return err == nil
	})
	return err
}

// transition runs a store operation and reports the focus change it caused
// to the lifecycle manager
func (l *Launcher) transition(op func() bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	previous, hadFocus := l.windows.Focused()
	ok := op()

	current, hasFocus := l.windows.Focused()
	if hadFocus && hasFocus && previous.ID == current.ID {
		return ok
	}
	if hadFocus {
		l.lifecycle.BlurApp(previous.AppID, previous.ID)
	}
	if hasFocus {
		l.lifecycle.FocusApp(current.AppID, current.ID)
	}
	return ok
}

func (l *Launcher) focusLocked(windowID string) {
	win, ok := l.windows.Get(windowID)
	if !ok {
		return
	}

	if previous, hadFocus := l.windows.Focused(); hadFocus && previous.ID != windowID {
		l.lifecycle.BlurApp(previous.AppID, previous.ID)
	}
	l.windows.FocusWindow(windowID)
	l.lifecycle.FocusApp(win.AppID, windowID)
}

// Wait blocks until every fire-and-forget hook has returned
func (l *Launcher) Wait() {
	l.hooks.Wait()
}

// existingWindow picks the window to focus instead of creating a new one
func (l *Launcher) existingWindow(reg types.AppRegistration, focusExisting *bool) string {
	wins := l.windows.WindowsByApp(reg.ID)
	if len(wins) == 0 {
		return ""
	}

	// Topmost window of the app, WindowsByApp is back-to-front
	topmost := wins[len(wins)-1].ID
	if !reg.MultiInstance {
		return topmost
	}
	if focusExisting != nil && *focusExisting {
		return topmost
	}
	return ""
}

// fire runs the usage and prefetch hooks without waiting for them
func (l *Launcher) fire(appID string) {
	if l.usage != nil {
		l.goHook("usage", appID, l.usage.RecordUsage)
	}
	if l.prefetch != nil {
		l.goHook("prefetch", appID, l.prefetch.Prefetch)
	}
}

func (l *Launcher) goHook(name, appID string, hook func(string)) {
	l.hooks.Add(1)
	go func() {
		defer l.hooks.Done()
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("Launch hook panicked",
					zap.String("hook", name),
					zap.String("app_id", appID),
					zap.Any("panic", r),
				)
			}
		}()
		hook(appID)
	}()
}

// Cascade places the n-th window diagonally from the base offset, restarting
// every CascadeCycle windows
func Cascade(openWindows int, size types.Size) types.Bounds {
	offset := CascadeBase + CascadeStep*(openWindows%CascadeCycle)
	return types.Bounds{X: offset, Y: offset, W: size.Width, H: size.Height}
}

func failure(err error) types.LaunchResult {
	return types.LaunchResult{Success: false, Error: err.Error()}
}
