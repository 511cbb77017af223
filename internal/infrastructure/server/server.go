package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/webdesk/backend/internal/api/http"
	"github.com/GriffinCanCode/webdesk/backend/internal/api/middleware"
	"github.com/GriffinCanCode/webdesk/backend/internal/api/ws"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/bus"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/launcher"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/lifecycle"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/location"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/registry"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/session"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/window"
	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/paths"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

const (
	loadTimeout     = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
	logger     *logging.Logger
	metrics    *monitoring.Metrics
	tracer     *tracing.Tracer

	apps      *registry.Manager
	windows   *window.Store
	lifecycle *lifecycle.Manager
	launcher  *launcher.Launcher
	sessions  *session.Manager
	location  *location.Service
	bus       *bus.Bus
	hub       *ws.Handler
	hooks     *launchHooks
	prefs     io.Closer // nil unless the preferences store holds a connection

	unsubscribe []func()
	closeOnce   sync.Once
	closeErr    error
}

// New creates a server with every component constructed and wired
func New(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing WebDesk server",
		zap.String("port", cfg.Server.Port),
		zap.Int("viewport_width", cfg.Desktop.ViewportWidth),
		zap.Int("viewport_height", cfg.Desktop.ViewportHeight),
	)

	// Metrics first, other components record into them
	metrics := monitoring.NewMetrics(nil)
	tracer := tracing.New("webdesk", logger.Component("tracing"))

	apps := registry.NewManager(logger.Component("registry")).WithMetrics(metrics)
	if err := seedRegistry(apps, cfg.Desktop.ManifestsDir, logger); err != nil {
		metrics.Close()
		tracer.Close()
		return nil, err
	}

	viewport := window.NewStaticViewport(cfg.Desktop.ViewportWidth, cfg.Desktop.ViewportHeight, cfg.Desktop.TaskbarHeight)
	windows := window.NewStore(apps, viewport, logger.Component("windows"))

	lc := lifecycle.NewManager(apps, logger.Component("lifecycle")).
		WithMetrics(metrics).
		WithHistorySize(cfg.Desktop.EventHistorySize)

	sessions, prefs := newSessions(cfg.Session, windows, metrics, logger)

	hooks := newLaunchHooks(apps, metrics, logger.Component("launcher"))
	l := launcher.New(apps, windows, lc, logger.Component("launcher")).
		WithMetrics(metrics).
		WithAutoSave(sessions).
		WithUsageTracker(launcher.UsageFunc(hooks.RecordUsage)).
		WithPrefetcher(launcher.PrefetchFunc(hooks.Prefetch))

	b := bus.New(logger.Component("bus"))
	hub := ws.NewHandler(cfg.Server.AllowedOrigins, logger.Component("ws")).
		WithMetrics(metrics).
		WithTracer(tracer).
		WithCloseGate(windows)

	loc := location.NewService(windows, apps, l, hub, logger.Component("location")).
		WithPositions(sessions).
		WithPublisher(b).
		WithMaxAttempts(cfg.Desktop.RestoreMaxAttempts).
		WithMetrics(metrics)
	hub.WithLocator(loc)

	s := &Server{
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		apps:      apps,
		windows:   windows,
		lifecycle: lc,
		launcher:  l,
		sessions:  sessions,
		location:  loc,
		bus:       b,
		hub:       hub,
		hooks:     hooks,
		prefs:     prefs,
	}
	s.wire()
	loc.Start()

	s.router = s.newRouter(viewport)
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

func seedRegistry(apps *registry.Manager, dir string, logger *logging.Logger) error {
	if dir == "" {
		dir = paths.DefaultManifestsDir()
	}
	seeder := registry.NewSeeder(apps, dir, logger.Component("seeder"))

	logger.Info("Loading built-in apps...")
	if err := seeder.SeedBuiltins(); err != nil {
		return fmt.Errorf("failed to seed built-in apps: %w", err)
	}
	if _, _, err := seeder.SeedManifests(); err != nil {
		logger.Warn("Failed to seed app manifests", zap.String("dir", dir), zap.Error(err))
	}
	return nil
}

func newSessions(cfg config.SessionConfig, windows *window.Store, metrics *monitoring.Metrics, logger *logging.Logger) (*session.Manager, io.Closer) {
	path := cfg.PrefsPath
	if path == "" {
		path = paths.DefaultPrefsPath(cfg.Compress)
	}

	breaker := resilience.New("preferences", resilience.Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsFailure: func(err error) bool {
			return !session.IsCanceled(err)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Preferences breaker changed state",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	backing := preferencesStore(cfg, path, logger)
	var closer io.Closer
	if c, ok := backing.(io.Closer); ok {
		closer = c
	}

	store := session.NewGuardedStore(backing, breaker)
	sessions := session.NewManager(store, windows, cfg.AutoSaveInterval, logger.Component("session")).
		WithMetrics(metrics)

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	if err := sessions.Load(ctx); err != nil {
		logger.Warn("Starting without saved window positions", zap.Error(err))
	} else {
		logger.Info("Loaded window preferences")
	}
	return sessions, closer
}

// preferencesStore picks Redis when configured and reachable, the
// preferences file otherwise
func preferencesStore(cfg config.SessionConfig, path string, logger *logging.Logger) session.Store {
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		store, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.RedisKey, cfg.RedisTTL)
		if err == nil {
			logger.Info("Window preferences stored in Redis", zap.String("key", cfg.RedisKey))
			return store
		}
		logger.Warn("Redis unavailable, falling back to preferences file", zap.Error(err))
	}
	return session.NewFileStore(path, cfg.Compress)
}

// wire connects event sources to their consumers
func (s *Server) wire() {
	s.metrics.SetWindowsOpen(s.windows.Count())
	s.unsubscribe = append(s.unsubscribe, s.windows.Subscribe(
		func(state types.WindowState) interface{} { return len(state.Windows) },
		func(current, _ interface{}) { s.metrics.SetWindowsOpen(current.(int)) },
	))

	s.lifecycle.AddEventListener("ws", s.hub.OnLifecycleEvent)
	s.unsubscribe = append(s.unsubscribe, func() { s.lifecycle.RemoveEventListener("ws") })

	s.unsubscribe = append(s.unsubscribe, s.bus.SubscribeAll(s.hub.OnBusMessage))
}

func (s *Server) newRouter(viewport *window.StaticViewport) *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	httpLogger := s.logger.Component("http")
	router.Use(middleware.Recovery(httpLogger))
	router.Use(tracing.HTTPMiddleware(s.tracer))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.Logger(httpLogger))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig().WithOrigins(s.config.Server.AllowedOrigins)))
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
			zap.Bool("global", s.config.RateLimit.Global),
		)
		limits := middleware.RateLimitConfig{
			RequestsPerSecond: s.config.RateLimit.RequestsPerSecond,
			Burst:             s.config.RateLimit.Burst,
		}
		if s.config.RateLimit.Global {
			router.Use(middleware.GlobalRateLimit(limits))
		} else {
			router.Use(middleware.RateLimit(limits))
		}
	}

	handlers := apihttp.NewHandlers(apihttp.Deps{
		Apps:      s.apps,
		Windows:   s.windows,
		Viewport:  viewport,
		Lifecycle: s.lifecycle,
		Launcher:  s.launcher,
		Location:  s.location,
		Session:   s.sessions,
		Metrics:   s.metrics,
		Tracer:    s.tracer,
		Logger:    httpLogger,
	})
	handlers.Routes(router)

	// WebSocket
	router.GET("/stream", s.hub.HandleConnection)

	return router
}

// Handler exposes the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until Close is called
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Close gracefully shuts down the server. Window positions of open windows
// are saved before exit.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.shutdown()
	})
	return s.closeErr
}

func (s *Server) shutdown() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop http server: %w", err))
	}
	s.hub.Close()

	s.location.Stop()
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.launcher.Wait()

	if err := s.sessions.Close(ctx); err != nil {
		s.logger.Error("Failed to save window preferences", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to close session: %w", err))
	}
	if s.prefs != nil {
		if err := s.prefs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close preferences store: %w", err))
		}
	}

	s.tracer.Close()
	s.metrics.Close()
	_ = s.logger.Sync()

	return errors.Join(errs...)
}
