//go:build integration
// +build integration

package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/weather-finder/internal/client"
	"github.com/kjstillabower/weather-finder/internal/store"
	"go.uber.org/zap"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	APIKey      string
	APIURL      string
	DatabaseURL string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips the test when OPENWEATHER_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	apiKey := os.Getenv("OPENWEATHER_API_KEY")
	if apiKey == "" {
		t.Skip("OPENWEATHER_API_KEY not set, skipping integration test")
	}

	apiURL := os.Getenv("WEATHER_API_URL")
	if apiURL == "" {
		apiURL = "https://api.openweathermap.org/data/2.5/weather"
	}

	return IntegrationTestConfig{
		APIKey:      apiKey,
		APIURL:      apiURL,
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
}

// SetupIntegrationClient creates a real OpenWeatherMap client scoped to IN.
func SetupIntegrationClient(t *testing.T, cfg IntegrationTestConfig) *client.OpenWeatherClient {
	t.Helper()
	c, err := client.NewOpenWeatherClient(cfg.APIKey, cfg.APIURL, "IN", 5*time.Second)
	if err != nil {
		t.Fatalf("NewOpenWeatherClient() error = %v", err)
	}
	return c
}

// SetupIntegrationStore connects to DATABASE_URL and applies migrations.
// Skips the test when DATABASE_URL is not set. The pool is closed on cleanup.
func SetupIntegrationStore(t *testing.T) *store.PostgresStore {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := store.NewPool(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	t.Cleanup(pool.Close)

	if err := store.Migrate(ctx, pool, zap.NewNop()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return store.NewPostgresStore(pool)
}
