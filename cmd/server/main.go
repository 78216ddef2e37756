package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"

	specpkg "github.com/daap14/imsweb/api"
	"github.com/daap14/imsweb/internal/api"
	"github.com/daap14/imsweb/internal/api/handler"
	"github.com/daap14/imsweb/internal/api/middleware"
	"github.com/daap14/imsweb/internal/audit"
	"github.com/daap14/imsweb/internal/backend"
	"github.com/daap14/imsweb/internal/config"
	"github.com/daap14/imsweb/internal/metrics"
	"github.com/daap14/imsweb/internal/relay"
	"github.com/daap14/imsweb/internal/session"
	"github.com/daap14/imsweb/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	m := metrics.New()
	client := backend.NewClient(cfg.APIBaseURL, cfg.APITimeout, backend.WithObserver(m.ObserveBackend))
	store := session.NewStore(cfg.SessionCookieName, cfg.IsProduction())

	recorder, sink, closeAudit := initAudit(cfg)
	defer closeAudit()

	actions := relay.New(client, store,
		relay.WithAuditRecorder(recorder),
		relay.WithCounter(m),
		relay.WithRequestID(middleware.GetRequestID),
	)

	csrfKey, err := loadCSRFKey(cfg.CSRFKey)
	if err != nil {
		slog.Error("invalid CSRF_KEY", "error", err)
		os.Exit(1)
	}

	pages, err := web.New(actions, csrfKey, cfg.IsProduction())
	if err != nil {
		slog.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterDeps{
		Backend:     client,
		Audit:       sink,
		Version:     cfg.Version,
		OpenAPISpec: specpkg.OpenAPISpec,
		Sessions:    session.NewReader(store),
		Relay:       actions,
		Metrics:     m,
		Pages:       pages,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting IMS dashboard", "port", cfg.Port, "version", cfg.Version, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		closeAudit()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		closeAudit()
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// initAudit builds the audit trail from the configured sinks. A database
// that cannot be reached is logged and skipped; the dashboard still serves.
func initAudit(cfg *config.Config) (audit.Recorder, handler.AuditSink, func()) {
	var (
		recorders []audit.Recorder
		sink      handler.AuditSink
		closeFn   = func() {}
	)

	if cfg.AuditDatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pg, err := audit.NewPostgresRecorder(ctx, cfg.AuditDatabaseURL)
		if err != nil {
			slog.Warn("audit database unavailable; database audit disabled", "error", err)
		} else {
			recorders = append(recorders, pg)
			sink = pg
			closeFn = pg.Close
		}
	}

	if cfg.AuditLogFile != "" {
		recorders = append(recorders, audit.NewFileRecorder(cfg.AuditLogFile))
	}

	if len(recorders) == 0 {
		return audit.Nop{}, nil, closeFn
	}
	return audit.Multi(recorders...), sink, closeFn
}

// loadCSRFKey decodes the configured hex key, or generates an ephemeral one.
func loadCSRFKey(raw string) ([]byte, error) {
	if raw == "" {
		slog.Warn("CSRF_KEY not set; generating an ephemeral key, forms break across restarts")
		return securecookie.GenerateRandomKey(32), nil
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, err
	}
	if len(key) < 32 {
		return nil, fmt.Errorf("key must be at least 32 bytes, got %d", len(key))
	}
	return key, nil
}
