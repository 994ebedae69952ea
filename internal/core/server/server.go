package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/geomap-resolver/internal/core/config"
	"github.com/mohammed-shakir/geomap-resolver/internal/core/health"
	middleware "github.com/mohammed-shakir/geomap-resolver/internal/core/middleware"
	"github.com/mohammed-shakir/geomap-resolver/internal/core/router"
)

// Planner is what the server needs from the map spec builder.
type Planner interface {
	router.Planner
	health.ReadinessReporter
}

// Routes builds the chi router; split from Run so tests can serve it.
func Routes(logger *slog.Logger, p Planner) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(p))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	h := router.HandleMapSpec(logger, p)
	r.Get("/mapspec", h)
	r.Post("/mapspec", h)
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, p Planner) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           Routes(logger, p),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
