package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-finder/internal/client"
	"github.com/kjstillabower/weather-finder/internal/config"
	httphandler "github.com/kjstillabower/weather-finder/internal/http"
	"github.com/kjstillabower/weather-finder/internal/lifecycle"
	"github.com/kjstillabower/weather-finder/internal/observability"
	"github.com/kjstillabower/weather-finder/internal/service"
	"github.com/kjstillabower/weather-finder/internal/store"
	"github.com/kjstillabower/weather-finder/internal/ui"
	"github.com/kjstillabower/weather-finder/internal/webclient"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := newApp(startCtx, cfg, logger)
	startCancel()
	if err != nil {
		logger.Fatal("startup", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.BeginDrain()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	a.Close()

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// app is the wired service: the root handler plus whatever must be closed on exit.
type app struct {
	handler http.Handler
	pool    *pgxpool.Pool
}

// newApp wires config into the store, upstream client, API handlers and page. Missing
// secrets are logged and leave the service running; affected endpoints fail per request.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	readiness := cfg.Readiness()
	for _, key := range readiness.Missing {
		logger.Warn("required configuration missing", zap.String("key", key))
	}
	if !readiness.Ready {
		logger.Warn("service starting without full configuration", zap.Strings("missing", readiness.Missing))
	}
	if len(cfg.TrackedLocations) > 0 {
		observability.SetTrackedLocations(cfg.TrackedLocations)
	}

	weatherClient, err := client.NewOpenWeatherClient(
		cfg.Secrets.WeatherAPIKey,
		cfg.WeatherAPIURL,
		cfg.DefaultCountry,
		cfg.WeatherAPITimeout,
	)
	if err != nil {
		return nil, fmt.Errorf("weather client: %w", err)
	}
	if cfg.Secrets.WeatherAPIKey != "" {
		logger.Info("weather client configured",
			zap.String("api_key", observability.RedactSecret(cfg.Secrets.WeatherAPIKey)),
			zap.String("country", cfg.DefaultCountry))
	}

	a := &app{}
	var st store.Store = store.NotConfigured{}
	if cfg.Secrets.DatabaseURL != "" {
		pool, err := store.NewPool(ctx, cfg.Secrets.DatabaseURL, cfg.DatabaseMaxConns)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.pool = pool
		pg := store.NewPostgresStore(pool)
		if err := pg.Ping(ctx); err != nil {
			logger.Warn("database unreachable at startup", zap.Error(err))
		} else if cfg.DatabaseAutoMigrate {
			if err := store.Migrate(ctx, pool, logger); err != nil {
				logger.Error("database migration failed", zap.Error(err))
			}
		}
		st = pg
	}

	weatherService := service.NewWeatherService(weatherClient, st)
	handler := httphandler.NewHandler(weatherService, readiness, logger)

	api, err := webclient.New(cfg.UIAPIBaseURL, cfg.UITimeout)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("web client: %w", err)
	}
	page := ui.NewHandler(api, logger)

	a.handler = httphandler.NewRouter(handler, page, logger, cfg.RequestTimeout)
	return a, nil
}

// Close releases the database pool, if any.
func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
