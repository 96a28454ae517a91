//go:build integration
// +build integration

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-finder/internal/config"
	"github.com/kjstillabower/weather-finder/internal/models"
	"github.com/kjstillabower/weather-finder/internal/observability"
	"github.com/kjstillabower/weather-finder/internal/service"
	testhelpers "github.com/kjstillabower/weather-finder/internal/testhelpers"
)

var testLogger *zap.Logger

func init() {
	var err error
	testLogger, err = observability.NewLogger()
	if err != nil {
		panic(err)
	}
}

// setupIntegrationRouter builds the full stack against the live provider and DATABASE_URL.
func setupIntegrationRouter(t *testing.T) http.Handler {
	cfg := testhelpers.GetIntegrationConfig(t)
	st := testhelpers.SetupIntegrationStore(t)
	weatherClient := testhelpers.SetupIntegrationClient(t, cfg)

	h := NewHandler(service.NewWeatherService(weatherClient, st), config.Readiness{Ready: true}, testLogger)
	return NewRouter(h, nil, testLogger, 0)
}

func makeIntegrationRequest(router http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestIntegration_WeatherThenHistory verifies a live lookup is persisted and shows up first
// in the city's history.
func TestIntegration_WeatherThenHistory(t *testing.T) {
	router := setupIntegrationRouter(t)

	w := makeIntegrationRequest(router, "/api/weather?city=Pune")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d. Body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var weather models.WeatherResponse
	if err := json.NewDecoder(w.Body).Decode(&weather); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !strings.EqualFold(weather.Weather.CityName, "pune") || weather.Weather.Country != "IN" {
		t.Errorf("weather = %+v, want Pune, IN", weather.Weather)
	}

	w = makeIntegrationRequest(router, "/api/history?city="+weather.Weather.CityName)
	if w.Code != http.StatusOK {
		t.Fatalf("history Status = %d. Body: %s", w.Code, w.Body.String())
	}
	var history models.HistoryResponse
	if err := json.NewDecoder(w.Body).Decode(&history); err != nil {
		t.Fatalf("Failed to decode history: %v", err)
	}
	if len(history.History) == 0 || len(history.History) > 10 {
		t.Fatalf("history rows = %d, want 1..10", len(history.History))
	}
	if history.History[0].ID != weather.Weather.ID {
		t.Errorf("newest history id = %s, want %s", history.History[0].ID, weather.Weather.ID)
	}
}

// TestIntegration_UnknownCity verifies the provider's 404 is relayed and nothing is logged.
func TestIntegration_UnknownCity(t *testing.T) {
	router := setupIntegrationRouter(t)

	w := makeIntegrationRequest(router, "/api/weather?city=NoSuchPlaceXYZ")
	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404. Body: %s", w.Code, w.Body.String())
	}

	w = makeIntegrationRequest(router, "/api/history?city=NoSuchPlaceXYZ")
	if got := strings.TrimSpace(w.Body.String()); got != `{"success":true,"history":[]}` {
		t.Errorf("history body = %s, want empty", got)
	}
}

// TestIntegration_GetMetrics_Format verifies /metrics exposes the request counters.
func TestIntegration_GetMetrics_Format(t *testing.T) {
	router := setupIntegrationRouter(t)
	makeIntegrationRequest(router, "/api/health")

	w := makeIntegrationRequest(router, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	for _, name := range []string{"httpRequestsTotal", "storeOperationsTotal", "weatherApiCallsTotal"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("metrics missing %s", name)
		}
	}
}
