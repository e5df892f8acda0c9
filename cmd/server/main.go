// Package main is the entry point for the Worknest server binary.
// It dispatches three subcommands (serve, migrate and version) via a switch on
// os.Args. The serve command migrates the schema on startup so a freshly
// deployed container never needs a separate migration step.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108 -- only served on the dedicated profiling port, never on the API listener
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/worknest/worknest/internal/api"
	"github.com/worknest/worknest/internal/config"
	"github.com/worknest/worknest/internal/db"
	"github.com/worknest/worknest/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if command == "version" {
		fmt.Printf("Worknest v%s\n", version)
		return nil
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level, cfg.Telemetry.ServiceName)

	switch command {
	case "serve":
		return serve(cfg)
	case "migrate":
		if len(os.Args) < 3 {
			return fmt.Errorf("usage: %s migrate <up|down>", os.Args[0])
		}
		return runMigrations(cfg, os.Args[2])
	default:
		return fmt.Errorf("unknown command: %s\nAvailable commands: serve, migrate, version", command)
	}
}

func initSentry(cfg config.SentryConfig) error {
	if !cfg.Enabled {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          "worknest@" + version,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	slog.Info("sentry enabled", "environment", cfg.Environment)
	return nil
}

// sideServer serves handler on a dedicated port so it is never reachable
// through the public API listener.
func sideServer(name string, port int, handler http.Handler, timeout time.Duration) {
	addr := fmt.Sprintf(":%d", port)
	go func() {
		slog.Info("starting "+name+" server", "addr", addr)
		srv := &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error(name+" server error", "error", err)
		}
	}()
}

func serve(cfg *config.Config) error {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := initSentry(cfg.Telemetry.Sentry); err != nil {
		return err
	}
	defer sentry.Flush(2 * time.Second)

	slog.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"user", cfg.Database.User,
		"dbname", cfg.Database.Name,
		"sslmode", cfg.Database.SSLMode,
	)
	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	telemetry.StartDBStatsCollector(database.DB)

	slog.Info("running database migrations")
	if err := db.RunMigrations(database.DB, "up"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if v, dirty, err := db.GetMigrationVersion(database.DB); err != nil {
		slog.Warn("failed to get migration version", "error", err)
	} else {
		slog.Info("database schema ready", "version", v, "dirty", dirty)
	}

	if cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		sideServer("metrics", cfg.Telemetry.Metrics.PrometheusPort, mux, 10*time.Second)
	}
	if cfg.Telemetry.Profiling.Enabled {
		// net/http/pprof registers on http.DefaultServeMux at init.
		sideServer("pprof", cfg.Telemetry.Profiling.Port, http.DefaultServeMux, 30*time.Second)
	}

	api.Version = version
	router, bgServices, err := api.NewRouter(cfg, database)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", cfg.Server.GetAddress(),
			"public_url", cfg.Server.GetPublicURL(),
			"storage", cfg.Storage.DefaultBackend,
			"tls", cfg.Security.TLS.Enabled,
		)

		var err error
		if cfg.Security.TLS.Enabled {
			err = server.ListenAndServeTLS(cfg.Security.TLS.CertFile, cfg.Security.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		bgServices.Shutdown()
		return fmt.Errorf("failed to start server: %w", err)
	}

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Rate limiter sweeps, the token sweeper and the redis client
	bgServices.Shutdown()

	slog.Info("server stopped gracefully")
	return nil
}

func runMigrations(cfg *config.Config, direction string) error {
	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	slog.Info("running migrations", "direction", direction)
	if err := db.RunMigrations(database.DB, direction); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	v, dirty, err := db.GetMigrationVersion(database.DB)
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	slog.Info("migration completed", "version", v, "dirty", dirty)
	return nil
}
