package server

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/backend/internal/domain/registry"
	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

// launchHooks are the launcher's fire-and-forget post-launch hooks. They run
// on their own goroutines and never affect the launch result.
type launchHooks struct {
	apps    *registry.Manager
	metrics *monitoring.Metrics
	logger  *zap.Logger

	mu     sync.Mutex
	warmed map[string]types.AppWindowConfig // Protected by mu
}

func newLaunchHooks(apps *registry.Manager, metrics *monitoring.Metrics, logger *zap.Logger) *launchHooks {
	return &launchHooks{
		apps:    apps,
		metrics: metrics,
		logger:  logger,
		warmed:  make(map[string]types.AppWindowConfig),
	}
}

// RecordUsage counts a launch that opened a window
func (h *launchHooks) RecordUsage(appID string) {
	if h.metrics != nil {
		h.metrics.RecordAppUsage(appID)
	}
	h.logger.Debug("App usage recorded", zap.String("app_id", appID))
}

// Prefetch resolves the window configs of apps related to appID so a
// follow-up launch of one of them finds it warm
func (h *launchHooks) Prefetch(appID string) {
	reg, ok := h.apps.Get(appID)
	if !ok || len(reg.Related) == 0 {
		return
	}

	for _, related := range reg.Related {
		cfg, found := h.apps.WindowConfig(related)
		if !found {
			h.logger.Debug("Related app not registered",
				zap.String("app_id", appID),
				zap.String("related", related),
			)
			continue
		}

		h.mu.Lock()
		h.warmed[related] = cfg
		h.mu.Unlock()

		if h.metrics != nil {
			h.metrics.RecordPrefetch(related)
		}
	}
}

// Warmed lists the prefetched app IDs
func (h *launchHooks) Warmed() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.warmed))
	for id := range h.warmed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
