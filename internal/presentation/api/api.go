package api

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/openmentor/relay/internal/infrastructure/configs"
	"github.com/openmentor/relay/internal/infrastructure/logging"
	"github.com/openmentor/relay/internal/infrastructure/ratelimiter"
	dashboardHandler "github.com/openmentor/relay/internal/presentation/handler/dashboard"
	healthHandler "github.com/openmentor/relay/internal/presentation/handler/health"
	sessionsHandler "github.com/openmentor/relay/internal/presentation/handler/sessions"
)

type Application struct {
	config           configs.Config
	sessionsHandler  sessionsHandler.Handler
	dashboardHandler dashboardHandler.Handler
	healthHandler    healthHandler.Handler
	logger           logging.Logger
	ratelimiter      ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	sessionsHandler sessionsHandler.Handler,
	dashboardHandler dashboardHandler.Handler,
	healthHandler healthHandler.Handler,
	logger logging.Logger,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:           config,
		sessionsHandler:  sessionsHandler,
		dashboardHandler: dashboardHandler,
		healthHandler:    healthHandler,
		logger:           logger,
		ratelimiter:      ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(app.loggerMiddleware)
	r.Use(app.enableCors)

	r.Route("/api", func(r chi.Router) {
		r.Use(app.rateLimiterMiddleware)
		// 60s covers the slowest snapshot queries; WebSocket routes live
		// outside this subtree and must not be time-bounded.
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/sessions/{roomCode}/presence", app.sessionsHandler.GetPresenceHandler)

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	r.Route("/ws", func(r chi.Router) {
		r.Use(app.rateLimiterMiddleware)

		r.Get("/session/{roomCode}", app.sessionsHandler.JoinSessionHandler)
		r.Get("/dashboard/{userID}", app.dashboardHandler.ConnectHandler)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/debug/vars", expvar.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return otelhttp.NewHandler(r, "relay")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:     mux,
		ReadTimeout: app.config.HTTP.ReadTimeout,
		// No write timeout: WebSocket connections outlive any sane value and
		// enforce their own deadlines per frame.
		IdleTimeout: time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}
