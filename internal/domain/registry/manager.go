package registry

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

// Manager is the catalog of installable applications
type Manager struct {
	mu      sync.RWMutex
	apps    map[string]types.AppRegistration // Protected by mu
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewManager creates an empty registry
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		apps:   make(map[string]types.AppRegistration),
		logger: logger,
	}
}

// WithMetrics adds metrics tracking to the registry
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	m.updateGauge()
	return m
}

// Register adds an app, replacing any registration with the same ID
func (m *Manager) Register(reg types.AppRegistration) error {
	if reg.ID == "" {
		return fmt.Errorf("app ID is required")
	}
	if reg.MinSize.Width < 0 || reg.MinSize.Height < 0 {
		return fmt.Errorf("app %s: negative minimum size", reg.ID)
	}
	if reg.DefaultSize.Width < reg.MinSize.Width {
		reg.DefaultSize.Width = reg.MinSize.Width
	}
	if reg.DefaultSize.Height < reg.MinSize.Height {
		reg.DefaultSize.Height = reg.MinSize.Height
	}

	m.mu.Lock()
	_, replaced := m.apps[reg.ID]
	m.apps[reg.ID] = reg.Clone()
	m.mu.Unlock()
	m.updateGauge()

	if replaced {
		m.logger.Debug("Replaced app registration", zap.String("app_id", reg.ID))
	}
	return nil
}

// Unregister removes an app; it reports whether the app existed
func (m *Manager) Unregister(id string) bool {
	m.mu.Lock()
	_, ok := m.apps[id]
	delete(m.apps, id)
	m.mu.Unlock()

	if ok {
		m.updateGauge()
	}
	return ok
}

// Get retrieves a registration by ID
func (m *Manager) Get(id string) (types.AppRegistration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg, ok := m.apps[id]
	if !ok {
		return types.AppRegistration{}, false
	}
	return reg.Clone(), true
}

// Has checks whether an app is registered
func (m *Manager) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.apps[id]
	return ok
}

// List returns all registrations ordered by ID
func (m *Manager) List() []types.AppRegistration {
	m.mu.RLock()
	apps := make([]types.AppRegistration, 0, len(m.apps))
	for _, reg := range m.apps {
		apps = append(apps, reg.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(apps, func(i, j int) bool {
		return apps[i].ID < apps[j].ID
	})
	return apps
}

// WindowConfig returns the sizing projection of an app
func (m *Manager) WindowConfig(id string) (types.AppWindowConfig, bool) {
	reg, ok := m.Get(id)
	if !ok {
		return types.AppWindowConfig{}, false
	}
	return reg.WindowConfig(), true
}

// Stats returns registry statistics
func (m *Manager) Stats() types.RegistryStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	categories := make(map[string]int)
	for _, reg := range m.apps {
		categories[reg.Category]++
	}

	return types.RegistryStats{
		TotalApps:  len(m.apps),
		Categories: categories,
	}
}

func (m *Manager) updateGauge() {
	if m.metrics == nil {
		return
	}
	m.mu.RLock()
	n := len(m.apps)
	m.mu.RUnlock()
	m.metrics.SetRegistryApps(n)
}
