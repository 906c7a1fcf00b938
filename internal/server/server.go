package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sinoafrica/freightbridge/internal/api/handlers"
	"github.com/sinoafrica/freightbridge/internal/api/middleware"
	"github.com/sinoafrica/freightbridge/internal/config"
	"github.com/sinoafrica/freightbridge/internal/contact"
	"github.com/sinoafrica/freightbridge/internal/dispatch"
	"github.com/sinoafrica/freightbridge/internal/logging"
	"github.com/sinoafrica/freightbridge/internal/server/routes"
	"github.com/sinoafrica/freightbridge/internal/service"
	"github.com/sinoafrica/freightbridge/internal/storage"
	"github.com/sinoafrica/freightbridge/internal/tasks"
	"github.com/sinoafrica/freightbridge/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	serviceName      = "freightbridge"
	janitorInterval  = time.Minute
	shutdownTimeout  = 15 * time.Second
	formIdleTimeout  = 30 * time.Minute
	sessionStoreTick = 5 * time.Minute
	durablePurgeTick = 12 * time.Hour
	durableRetention = 30 * 24 * time.Hour
)

// NewServer creates a new server instance from explicit dependencies
func NewServer(cfg *config.Config, deps Dependencies) (*Server, error) {
	if deps.Durable == nil || deps.Session == nil || deps.Dispatcher == nil {
		return nil, errors.New("server requires durable store, session store and dispatcher")
	}

	// Disable Gin's default logger entirely because we're using our custom logger
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DisableConsoleColor()
	gin.DefaultWriter = io.Discard

	logger := logging.GetGlobalLogger()

	s := &Server{
		router: gin.New(),
		cfg:    cfg,
		logger: logger,
		deps:   deps,
		limiter: middleware.NewClientRateLimiter(middleware.RateLimitConfig{
			RPS:   10,
			Burst: 20,
		}),
	}
	if sessions, ok := deps.Session.(*storage.MemoryStore); ok {
		s.sessions = sessions
	}

	opts := []contact.PipelineOption{
		contact.WithObserver(func(session string, from, to contact.Status) {
			logger.Debug("Contact form %s: %s -> %s", session, from, to)
		}),
	}
	if deps.Scheduler != nil {
		opts = append(opts, contact.WithScheduler(deps.Scheduler))
	}
	pipeline := contact.NewPipeline(
		contact.NewRateLimiter(deps.Durable),
		contact.NewCSRFManager(deps.Session),
		deps.Dispatcher,
		opts...,
	)
	s.forms = contact.NewFormRegistry(pipeline, formIdleTimeout)

	validationMiddleware, err := middleware.NewValidationMiddleware()
	if err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	var pinger storage.Pinger
	if p, ok := deps.Durable.(storage.Pinger); ok {
		pinger = p
	}

	s.setupGlobalMiddleware()
	routes.Setup(s.router,
		&routes.Handlers{
			Health:  handlers.NewHealthHandler(pinger),
			Contact: handlers.NewContactHandler(pipeline, s.forms, deps.Recaptcha),
		},
		&routes.Middleware{
			Validation: validationMiddleware,
			Session: middleware.Session(utils.CookieOptions{
				Secure: cfg.CookieSecure,
			}),
		},
	)

	return s, nil
}

// setupGlobalMiddleware configures middleware that applies to all routes
func (s *Server) setupGlobalMiddleware() {
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.RequestID())
	s.router.Use(otelgin.Middleware(serviceName))
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(middleware.CORS(s.cfg.AllowedOrigins, !s.cfg.IsProduction()))
	s.router.Use(middleware.SecurityHeaders(s.cfg.CookieSecure))
	s.router.Use(middleware.PreserveRequestBody(middleware.BodyReaderOption{
		MaxBodySize: s.cfg.MaxBodyBytes,
	}))
	s.router.Use(s.limiter.Middleware())
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// startJanitors runs periodic cleanup of in-memory state until ctx is done
func (s *Server) startJanitors(ctx context.Context) {
	s.forms.Start(ctx, janitorInterval)
	if s.sessions != nil {
		s.sessions.StartJanitor(ctx, sessionStoreTick)
	}
	if purger, ok := s.deps.Durable.(storage.Purger); ok {
		tasks.NewStoreCleanup(purger, durableRetention, durablePurgeTick).Start(ctx)
	}
	go func() {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.limiter.Sweep(now)
			}
		}
	}()
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.startJanitors(ctx)

	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// OpenDurableStore opens the store configured by STORE_DRIVER. The returned
// close function is never nil.
func OpenDurableStore(ctx context.Context, cfg *config.Config) (storage.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreDriver {
	case config.StoreMemory:
		return storage.NewMemoryStore(0), noop, nil
	case config.StoreSQLite:
		store, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case config.StorePostgres:
		store, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewDispatcher builds the dispatcher configured by CONTACT_DISPATCHER
func NewDispatcher(cfg *config.Config) (contact.Dispatcher, error) {
	switch cfg.Dispatcher {
	case config.DispatcherSimulated:
		return dispatch.NewSimulatedDispatcher(cfg.SimulatedLatency, cfg.SimulatedFailureRate), nil
	case config.DispatcherEndpoint:
		return dispatch.NewEndpointDispatcher(cfg.EndpointURL, nil), nil
	case config.DispatcherTelegram:
		return dispatch.NewTelegramDispatcher(cfg.TelegramBotToken, cfg.TelegramChatID), nil
	default:
		return nil, fmt.Errorf("unknown dispatcher %q", cfg.Dispatcher)
	}
}

// Build wires a server from configuration. The returned close function
// releases the durable store.
func Build(ctx context.Context, cfg *config.Config) (*Server, func() error, error) {
	durable, closeStore, err := OpenDurableStore(ctx, cfg)
	if err != nil {
		return nil, closeStore, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}

	dispatcher, err := NewDispatcher(cfg)
	if err != nil {
		_ = closeStore()
		return nil, func() error { return nil }, err
	}

	var recaptcha *service.RecaptchaService
	if cfg.RecaptchaSecretKey != "" {
		recaptcha = service.NewRecaptchaService(cfg.RecaptchaSecretKey, cfg.RecaptchaMinScore)
	}

	srv, err := NewServer(cfg, Dependencies{
		Durable:    durable,
		Session:    storage.NewMemoryStore(cfg.SessionTTL),
		Dispatcher: dispatcher,
		Recaptcha:  recaptcha,
	})
	if err != nil {
		_ = closeStore()
		return nil, func() error { return nil }, err
	}
	return srv, closeStore, nil
}
