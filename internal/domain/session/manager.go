package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

// DefaultAutoSaveInterval is how often an open window's position is captured
const DefaultAutoSaveInterval = 30 * time.Second

// saveTimeout bounds a single background write
const saveTimeout = 5 * time.Second

// WindowSource reads live window state
type WindowSource interface {
	Get(windowID string) (*types.Window, bool)
}

// autosave is the timer bound to one open window
type autosave struct {
	appID  string
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager keeps the preferences snapshot and per-window auto-save timers
type Manager struct {
	mu     sync.RWMutex
	prefs  *Preferences         // Protected by mu
	timers map[string]*autosave // Protected by mu
	dirty  bool                 // Protected by mu

	store    Store
	windows  WindowSource
	interval time.Duration
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	lastSaved *time.Time // Protected by mu
}

// NewManager creates a session manager. Positions are captured every interval
// while a window is registered.
func NewManager(store Store, windows WindowSource, interval time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultAutoSaveInterval
	}
	return &Manager{
		prefs:    NewPreferences(),
		timers:   make(map[string]*autosave),
		store:    store,
		windows:  windows,
		interval: interval,
		logger:   logger,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Load replaces the in-memory snapshot with the persisted one
func (m *Manager) Load(ctx context.Context) error {
	prefs, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}

	m.mu.Lock()
	m.prefs = prefs
	m.dirty = false
	m.mu.Unlock()

	m.logger.Info("Preferences loaded", zap.Int("positions", len(prefs.Positions)))
	return nil
}

// Register starts the auto-save timer of a window. Registering twice is a no-op.
func (m *Manager) Register(windowID, appID string) {
	m.mu.Lock()
	if _, exists := m.timers[windowID]; exists {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	timer := &autosave{appID: appID, cancel: cancel, done: make(chan struct{})}
	m.timers[windowID] = timer
	m.mu.Unlock()

	go m.run(ctx, windowID, timer)
}

// Unregister cancels a window's timer and saves its final position. It must
// run while the window still exists for the final capture to see it.
func (m *Manager) Unregister(windowID string) bool {
	m.mu.Lock()
	timer, ok := m.timers[windowID]
	if ok {
		delete(m.timers, windowID)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}

	timer.cancel()
	<-timer.done

	m.Capture(windowID, timer.appID)
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := m.Save(ctx); err != nil {
		m.logger.Warn("Final position save failed",
			zap.String("window_id", windowID),
			zap.Error(err),
		)
	}
	return true
}

// Registered reports whether a window has an active timer
func (m *Manager) Registered(windowID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.timers[windowID]
	return ok
}

// Capture copies a window's current bounds into the snapshot. Minimized and
// maximized windows keep the last free-floating position.
func (m *Manager) Capture(windowID, appID string) bool {
	win, ok := m.windows.Get(windowID)
	if !ok || win.Minimized || win.Maximized {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, exists := m.prefs.Positions[appID]; exists && prev == win.Bounds {
		return false
	}
	m.prefs.Positions[appID] = win.Bounds
	m.prefs.UpdatedAt = time.Now()
	m.dirty = true
	return true
}

// SavedPosition returns the last saved bounds of an app
func (m *Manager) SavedPosition(appID string) (types.Bounds, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.prefs.Positions[appID]
	return b, ok
}

// Forget drops the saved position of an app
func (m *Manager) Forget(appID string) {
	m.mu.Lock()
	if _, ok := m.prefs.Positions[appID]; ok {
		delete(m.prefs.Positions, appID)
		m.prefs.UpdatedAt = time.Now()
		m.dirty = true
	}
	m.mu.Unlock()
}

// Preferences returns a copy of the snapshot
func (m *Manager) Preferences() *Preferences {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prefs.Clone()
}

// Save persists the snapshot if it changed since the last write
func (m *Manager) Save(ctx context.Context) error {
	m.mu.Lock()
	if !m.dirty {
		m.mu.Unlock()
		return nil
	}
	snapshot := m.prefs.Clone()
	m.dirty = false
	m.mu.Unlock()

	// I/O happens without holding the lock
	if err := m.store.Save(ctx, snapshot); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
		if m.metrics != nil {
			m.metrics.IncPreferencesErrors()
		}
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	now := time.Now()
	m.mu.Lock()
	m.lastSaved = &now
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.IncPreferencesSaved()
	}
	return nil
}

// Stats returns session manager statistics
func (m *Manager) Stats() types.SessionStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return types.SessionStats{
		SavedPositions: len(m.prefs.Positions),
		ActiveTimers:   len(m.timers),
		LastSaved:      m.lastSaved,
	}
}

// Close stops every timer and writes the snapshot one last time
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	timers := m.timers
	m.timers = make(map[string]*autosave)
	m.mu.Unlock()

	for windowID, timer := range timers {
		timer.cancel()
		<-timer.done
		m.Capture(windowID, timer.appID)
	}
	return m.Save(ctx)
}

func (m *Manager) run(ctx context.Context, windowID string, timer *autosave) {
	defer close(timer.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.Capture(windowID, timer.appID) {
				continue
			}
			saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
			if err := m.Save(saveCtx); err != nil {
				m.logger.Warn("Auto-save failed",
					zap.String("window_id", windowID),
					zap.String("app_id", timer.appID),
					zap.Error(err),
				)
			}
			cancel()
		}
	}
}
