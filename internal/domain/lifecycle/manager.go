package lifecycle

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

// DefaultHistorySize is the number of events kept for debugging
const DefaultHistorySize = 100

// AppCatalog answers whether an app exists
type AppCatalog interface {
	Has(id string) bool
}

// Listener receives lifecycle events
type Listener func(event types.LifecycleEvent)

// Manager tracks which apps are running and emits lifecycle events
type Manager struct {
	mu        sync.RWMutex
	states    map[string]*types.RunningAppState // Protected by mu
	listeners map[string]Listener               // Protected by mu
	history   *ring                             // Protected by mu

	apps    AppCatalog
	now     func() time.Time
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewManager creates a lifecycle manager with the default history size
func NewManager(apps AppCatalog, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		states:    make(map[string]*types.RunningAppState),
		listeners: make(map[string]Listener),
		history:   newRing(DefaultHistorySize),
		apps:      apps,
		now:       time.Now,
		logger:    logger,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithHistorySize changes the history capacity, dropping recorded events
func (m *Manager) WithHistorySize(size int) *Manager {
	if size <= 0 {
		size = DefaultHistorySize
	}
	m.mu.Lock()
	m.history = newRing(size)
	m.mu.Unlock()
	return m
}

// WithClock replaces the timestamp source
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// MountApp records a new window for an app. Unknown apps are ignored with a warning.
func (m *Manager) MountApp(appID, windowID string) {
	if m.apps != nil && !m.apps.Has(appID) {
		m.logger.Warn("Mount for unknown app ignored",
			zap.String("app_id", appID),
			zap.String("window_id", windowID),
		)
		return
	}

	m.mu.Lock()
	state, ok := m.states[appID]
	if !ok {
		state = &types.RunningAppState{AppID: appID}
		m.states[appID] = state
	}
	for _, wid := range state.Windows {
		if wid == windowID {
			m.mu.Unlock()
			return
		}
	}
	state.Windows = append(state.Windows, windowID)
	state.LastFocused = windowID
	state.Running = true
	event := m.recordLocked(types.EventMount, appID, windowID)
	m.mu.Unlock()

	m.emit(event)
	m.updateRunningGauge()
}

// UnmountApp removes a window from its app. The app stays known but stops
// running when its last window goes.
func (m *Manager) UnmountApp(appID, windowID string) {
	m.mu.Lock()
	state, ok := m.states[appID]
	if !ok {
		m.mu.Unlock()
		return
	}

	idx := -1
	for i, wid := range state.Windows {
		if wid == windowID {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return
	}
	state.Windows = append(state.Windows[:idx], state.Windows[idx+1:]...)

	// Focus history falls back to the entry mounted just before the removed one
	if state.LastFocused == windowID {
		switch {
		case len(state.Windows) == 0:
			state.LastFocused = ""
		case idx > 0:
			state.LastFocused = state.Windows[idx-1]
		default:
			state.LastFocused = state.Windows[0]
		}
	}
	state.Running = len(state.Windows) > 0
	event := m.recordLocked(types.EventUnmount, appID, windowID)
	m.mu.Unlock()

	m.emit(event)
	m.updateRunningGauge()
}

// FocusApp records the focused window of an app and emits focus
func (m *Manager) FocusApp(appID, windowID string) {
	m.touch(types.EventFocus, appID, windowID)
}

// BlurApp records the window that lost focus and emits blur
func (m *Manager) BlurApp(appID, windowID string) {
	m.touch(types.EventBlur, appID, windowID)
}

// touch updates lastFocused without altering the window list
func (m *Manager) touch(eventType types.EventType, appID, windowID string) {
	m.mu.Lock()
	if state, ok := m.states[appID]; ok && windowID != "" {
		state.LastFocused = windowID
	}
	event := m.recordLocked(eventType, appID, windowID)
	m.mu.Unlock()

	m.emit(event)
}

// ActivateApp emits activate
func (m *Manager) ActivateApp(appID string) {
	m.emitType(types.EventActivate, appID, "")
}

// DeactivateApp emits deactivate
func (m *Manager) DeactivateApp(appID string) {
	m.emitType(types.EventDeactivate, appID, "")
}

// AddEventListener registers a listener under a key, replacing any previous one
func (m *Manager) AddEventListener(key string, listener Listener) {
	m.mu.Lock()
	m.listeners[key] = listener
	m.mu.Unlock()
}

// RemoveEventListener unregisters a listener
func (m *Manager) RemoveEventListener(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.listeners[key]; !ok {
		return false
	}
	delete(m.listeners, key)
	return true
}

// EventHistory returns recorded events oldest first
func (m *Manager) EventHistory() []types.LifecycleEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.history.items()
}

// ClearEventHistory drops all recorded events
func (m *Manager) ClearEventHistory() {
	m.mu.Lock()
	m.history.reset()
	m.mu.Unlock()
}

// IsAppRunning reports whether an app has at least one mounted window
func (m *Manager) IsAppRunning(appID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[appID]
	return ok && state.Running
}

// AppState returns a copy of an app's running state
func (m *Manager) AppState(appID string) (types.RunningAppState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[appID]
	if !ok {
		return types.RunningAppState{}, false
	}
	return state.Clone(), true
}

// RunningApps returns copies of the running app states sorted by app ID
func (m *Manager) RunningApps() []types.RunningAppState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]types.RunningAppState, 0, len(m.states))
	for _, state := range m.states {
		if state.Running {
			result = append(result, state.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AppID < result[j].AppID })
	return result
}

// WindowCount returns the number of mounted windows of an app
func (m *Manager) WindowCount(appID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if state, ok := m.states[appID]; ok {
		return len(state.Windows)
	}
	return 0
}

func (m *Manager) emitType(eventType types.EventType, appID, windowID string) {
	m.mu.Lock()
	event := m.recordLocked(eventType, appID, windowID)
	m.mu.Unlock()

	m.emit(event)
}

func (m *Manager) recordLocked(eventType types.EventType, appID, windowID string) types.LifecycleEvent {
	event := types.LifecycleEvent{
		Type:      eventType,
		AppID:     appID,
		WindowID:  windowID,
		Timestamp: m.now(),
	}
	m.history.push(event)
	return event
}

// emit delivers an event to every listener; a failing listener never blocks the rest
func (m *Manager) emit(event types.LifecycleEvent) {
	if m.metrics != nil {
		m.metrics.RecordLifecycleEvent(string(event.Type))
	}

	m.mu.RLock()
	keys := make([]string, 0, len(m.listeners))
	for key := range m.listeners {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	listeners := make([]Listener, len(keys))
	for i, key := range keys {
		listeners[i] = m.listeners[key]
	}
	m.mu.RUnlock()

	for i, listener := range listeners {
		m.deliver(keys[i], listener, event)
	}
}

func (m *Manager) deliver(key string, listener Listener, event types.LifecycleEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Lifecycle listener panicked",
				zap.String("listener", key),
				zap.String("event", string(event.Type)),
				zap.Any("panic", r),
			)
		}
	}()
	listener(event)
}

func (m *Manager) updateRunningGauge() {
	if m.metrics == nil {
		return
	}
	m.metrics.SetAppsRunning(len(m.RunningApps()))
}
