package location

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/backend/internal/domain/bus"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/launcher"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/window"
	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

// DesktopURL is the route of an empty or unfocused desktop
const DesktopURL = "/"

// Navigator is the navigation surface the derived location is pushed to
type Navigator interface {
	Replace(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(ctx context.Context, url string) error

// Replace calls f(ctx, url)
func (f NavigatorFunc) Replace(ctx context.Context, url string) error { return f(ctx, url) }

// Windows is the window store surface the service reads and reconciles
type Windows interface {
	Subscribe(selector window.Selector, listener window.Listener) func()
	State() types.WindowState
	Get(windowID string) (*types.Window, bool)
	WindowsByApp(appID string) []*types.Window
	UpdateWindowBounds(windowID string, partial types.PartialBounds) bool
}

// Launcher opens and focuses windows with lifecycle bookkeeping
type Launcher interface {
	LaunchApp(ctx context.Context, appID string, opts launcher.Options) types.LaunchResult
	FocusApp(windowID string)
	SetAppWindowState(windowID string, maximized, minimized *bool) bool
}

// Catalog resolves app registrations
type Catalog interface {
	Get(id string) (types.AppRegistration, bool)
}

// PositionSource returns saved per-app positions
type PositionSource interface {
	SavedPosition(appID string) (types.Bounds, bool)
}

// Publisher sends side-channel messages to apps
type Publisher interface {
	Publish(channel bus.Channel, payload interface{}) int
}

// Action is what a navigation did to the store
type Action string

const (
	ActionSkipped    Action = "skipped"
	ActionDesktop    Action = "desktop"
	ActionUpdated    Action = "updated"
	ActionFocused    Action = "focused"
	ActionCreated    Action = "created"
	ActionRedirected Action = "redirected"
	ActionFailed     Action = "failed"
)

// Result reports how a navigation was reconciled
type Result struct {
	Action   Action `json:"action"`
	WindowID string `json:"window_id,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}

// Status is a snapshot of the service for diagnostics
type Status struct {
	State      string `json:"state"`
	Location   string `json:"location"`
	LastPushed string `json:"last_pushed"`
}

// Service keeps the window store and the navigation surface in agreement
type Service struct {
	windows   Windows
	apps      Catalog
	launcher  Launcher
	positions PositionSource
	publisher Publisher
	navigator Navigator
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	guard   guard
	retries *retryTracker

	pushMu     sync.Mutex
	lastPushed string // Protected by pushMu

	subMu     sync.RWMutex
	subroutes map[string]string // windowID -> slug or path, protected by subMu

	unsubscribe func()
}

// NewService creates a location service. Call Start to begin following the store.
func NewService(windows Windows, apps Catalog, l Launcher, navigator Navigator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		windows:   windows,
		apps:      apps,
		launcher:  l,
		navigator: navigator,
		logger:    logger,
		retries:   newRetryTracker(DefaultMaxAttempts),
		subroutes: make(map[string]string),
	}
}

// WithPositions enables the saved-position fallback for new windows
func (s *Service) WithPositions(positions PositionSource) *Service {
	s.positions = positions
	return s
}

// WithPublisher enables project and files side-channel messages
func (s *Service) WithPublisher(publisher Publisher) *Service {
	s.publisher = publisher
	return s
}

// WithMaxAttempts sets the restoration retry budget
func (s *Service) WithMaxAttempts(n int) *Service {
	s.retries = newRetryTracker(n)
	return s
}

// WithMetrics adds metrics tracking to the service
func (s *Service) WithMetrics(metrics *monitoring.Metrics) *Service {
	s.metrics = metrics
	return s
}

// Start subscribes to the window store. The current location is taken as
// already shown so nothing is pushed until the store changes.
func (s *Service) Start() {
	s.pushMu.Lock()
	s.lastPushed = s.Current()
	s.pushMu.Unlock()

	s.unsubscribe = s.windows.Subscribe(s.selectLocation, s.onStoreChange)
}

// Stop unsubscribes from the window store
func (s *Service) Stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Current derives the location of the store's present state
func (s *Service) Current() string {
	return s.locationOf(s.windows.State())
}

// Status returns the guard state and the last pushed location
func (s *Service) Status() Status {
	s.pushMu.Lock()
	last := s.lastPushed
	s.pushMu.Unlock()

	return Status{
		State:      s.guard.current().String(),
		Location:   s.Current(),
		LastPushed: last,
	}
}

// HandleNavigation reconciles the store with a location arriving from the
// navigation surface (back/forward, pasted deep link). Invalid locations
// redirect instead of failing; an error means the restoration failed and
// may be retried.
func (s *Service) HandleNavigation(ctx context.Context, raw string) (Result, error) {
	if !s.guard.enter(SyncingFromLocation) {
		s.logger.Debug("Navigation ignored while syncing", zap.String("url", raw))
		return Result{Action: ActionSkipped}, nil
	}

	// The surface now shows raw, whatever was pushed before
	s.pushMu.Lock()
	s.lastPushed = raw
	s.pushMu.Unlock()

	result, err := s.reconcile(ctx, raw)
	s.guard.exit()

	if result.Redirect != "" {
		s.push(ctx, result.Redirect)
	}
	if result.Action != ActionSkipped {
		s.push(ctx, s.Current())
	}
	return result, err
}

func (s *Service) reconcile(ctx context.Context, raw string) (Result, error) {
	key := canonicalKey(raw)
	if s.retries.abandoned(key) {
		return s.redirect(raw, DesktopURL, "restoration abandoned"), nil
	}

	desc, err := Parse(raw)
	var invalid []string
	if err != nil {
		var pe *ParamError
		if !errors.As(err, &pe) {
			return s.redirect(raw, DesktopURL, "unknown route"), nil
		}
		invalid = pe.Params
	}

	if desc.Route == types.RouteDesktop {
		s.retries.clear(key)
		return Result{Action: ActionDesktop}, nil
	}

	reg, ok := s.apps.Get(desc.AppID)
	if !ok {
		return s.redirect(raw, DesktopURL, "unknown app"), nil
	}

	redirect := ""
	invalid = append(invalid, Validate(desc.Params, reg.MinSize)...)
	if len(invalid) > 0 {
		if desc.Route == types.RouteApp {
			desc = Strip(desc, invalid)
		} else {
			desc = BaseRoute(desc)
		}
		redirect = Format(desc)
		s.logger.Info("Redirecting invalid location",
			zap.String("url", raw),
			zap.Strings("invalid", invalid),
			zap.String("redirect", redirect),
		)
	}

	windowID, action, err := s.apply(ctx, reg, desc)
	if err != nil {
		attempts, abandoned := s.retries.fail(key)
		if abandoned {
			s.logger.Warn("Restoration abandoned",
				zap.String("url", raw),
				zap.Int("attempts", attempts),
				zap.Error(err),
			)
			s.recordFailure("abandoned")
			return Result{Action: ActionRedirected, Redirect: DesktopURL, Attempts: attempts}, nil
		}
		s.recordFailure("retry")
		return Result{Action: ActionFailed, Attempts: attempts},
			fmt.Errorf("restore %s (attempt %d): %w", raw, attempts, err)
	}

	s.retries.clear(key)
	s.sideChannel(windowID, desc)
	if s.metrics != nil {
		s.metrics.RecordLocationSync("from_location")
	}

	if redirect != "" {
		action = ActionRedirected
	}
	return Result{Action: action, WindowID: windowID, Redirect: redirect}, nil
}

// apply targets the named window, else the app's first window, else a new one
func (s *Service) apply(ctx context.Context, reg types.AppRegistration, desc types.LocationDescriptor) (string, Action, error) {
	p := desc.Params

	if p.WindowID != "" {
		if win, ok := s.windows.Get(p.WindowID); ok && win.AppID == reg.ID {
			return win.ID, ActionUpdated, s.applyParams(win.ID, p)
		}
	}

	if wins := s.windows.WindowsByApp(reg.ID); len(wins) > 0 {
		first := wins[0]
		for _, w := range wins[1:] {
			if w.CreatedAt.Before(first.CreatedAt) {
				first = w
			}
		}
		s.launcher.FocusApp(first.ID)
		return first.ID, ActionFocused, nil
	}

	result := s.launcher.LaunchApp(ctx, reg.ID, launcher.Options{Bounds: s.initialBounds(reg, p)})
	if !result.Success {
		return "", ActionFailed, fmt.Errorf("launch %s: %s", reg.ID, result.Error)
	}
	if p.Maximized != nil || p.Minimized != nil {
		if !s.launcher.SetAppWindowState(result.WindowID, p.Maximized, p.Minimized) {
			return "", ActionFailed, fmt.Errorf("window %s vanished: %w", result.WindowID, types.ErrWindowNotFound)
		}
	}
	return result.WindowID, ActionCreated, nil
}

func (s *Service) applyParams(windowID string, p types.LocationParams) error {
	if p.HasGeometry() && !s.windows.UpdateWindowBounds(windowID, toPartial(p)) {
		return fmt.Errorf("update %s: %w", windowID, types.ErrWindowNotFound)
	}
	if p.Minimized == nil || !*p.Minimized {
		s.launcher.FocusApp(windowID)
	}
	if (p.Maximized != nil || p.Minimized != nil) && !s.launcher.SetAppWindowState(windowID, p.Maximized, p.Minimized) {
		return fmt.Errorf("set state %s: %w", windowID, types.ErrWindowNotFound)
	}
	return nil
}

// initialBounds merges location geometry over the saved position; nil lets
// the launcher cascade
func (s *Service) initialBounds(reg types.AppRegistration, p types.LocationParams) *types.Bounds {
	saved, hasSaved := types.Bounds{}, false
	if s.positions != nil {
		saved, hasSaved = s.positions.SavedPosition(reg.ID)
	}

	if !p.HasGeometry() {
		if hasSaved {
			return &saved
		}
		return nil
	}

	base := launcher.Cascade(0, reg.DefaultSize)
	if hasSaved {
		base = saved
	}
	merged := base.Merge(toPartial(p))
	return &merged
}

func (s *Service) sideChannel(windowID string, desc types.LocationDescriptor) {
	var sub string
	switch desc.Route {
	case types.RouteProject:
		sub = desc.Slug
		if s.publisher != nil {
			s.publisher.Publish(bus.ChannelProjectSelected, bus.ProjectSelected{Slug: desc.Slug})
		}
	case types.RouteFiles:
		sub = desc.Params.Path
		if s.publisher != nil {
			s.publisher.Publish(bus.ChannelFilesNavigate, bus.FileNavigate{Path: desc.Params.Path})
		}
	default:
		return
	}

	s.subMu.Lock()
	s.subroutes[windowID] = sub
	s.subMu.Unlock()
}

func (s *Service) redirect(raw, target, reason string) Result {
	s.logger.Info("Redirecting location",
		zap.String("url", raw),
		zap.String("redirect", target),
		zap.String("reason", reason),
	)
	return Result{Action: ActionRedirected, Redirect: target}
}

func (s *Service) onStoreChange(current, previous interface{}) {
	if !s.guard.enter(SyncingFromStore) {
		return
	}
	defer s.guard.exit()

	s.push(context.Background(), s.Current())
	if s.metrics != nil {
		s.metrics.RecordLocationSync("to_location")
	}
}

// push replaces the navigation surface location unless it already shows it
func (s *Service) push(ctx context.Context, location string) {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	if location == s.lastPushed {
		return
	}
	if err := s.navigator.Replace(ctx, location); err != nil {
		s.logger.Warn("Failed to push location", zap.String("url", location), zap.Error(err))
		return
	}
	s.lastPushed = location
}

func (s *Service) selectLocation(state types.WindowState) interface{} {
	return s.locationOf(state)
}

func (s *Service) locationOf(state types.WindowState) string {
	focused := state.Focused()
	if focused == nil {
		return DesktopURL
	}

	s.subMu.RLock()
	sub := s.subroutes[focused.ID]
	s.subMu.RUnlock()
	s.pruneSubroutes(state)

	return Format(Describe(focused, sub))
}

func (s *Service) pruneSubroutes(state types.WindowState) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for windowID := range s.subroutes {
		if _, ok := state.Windows[windowID]; !ok {
			delete(s.subroutes, windowID)
		}
	}
}

func (s *Service) recordFailure(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordRestorationFailure(outcome)
	}
}

// canonicalKey identifies a location independent of parameter order
func canonicalKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("/" + strings.Trim(u.Path, "/"))
	for i, k := range keys {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(k + "=" + strings.Join(q[k], ","))
	}
	return b.String()
}
