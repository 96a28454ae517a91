package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-finder/internal/client"
	"github.com/kjstillabower/weather-finder/internal/config"
	"github.com/kjstillabower/weather-finder/internal/lifecycle"
	"github.com/kjstillabower/weather-finder/internal/models"
	"github.com/kjstillabower/weather-finder/internal/observability"
	"github.com/kjstillabower/weather-finder/internal/service"
	"github.com/kjstillabower/weather-finder/internal/validation"
)

const (
	healthMessage     = "Backend is running"
	insertFailedError = "DB insert failed"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weatherService *service.WeatherService
	readiness      config.Readiness
	logger         *zap.Logger
}

// NewHandler returns a new Handler. readiness is the startup configuration check; it is
// computed once because configuration is read once.
func NewHandler(weatherService *service.WeatherService, readiness config.Readiness, logger *zap.Logger) *Handler {
	if readiness.Missing == nil {
		readiness.Missing = []string{}
	}
	return &Handler{
		weatherService: weatherService,
		readiness:      readiness,
		logger:         logger,
	}
}

// GetHealth handles GET /api/health. It never touches a dependency.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{OK: true, Message: healthMessage})
}

// GetWeather handles GET /api/weather?city=.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	obs, err := h.weatherService.FetchAndLog(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		if errors.Is(err, service.ErrPersistence) {
			logger(r).Error("weather insert failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
				Error:   insertFailedError,
				Details: err.Error(),
			})
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.WeatherResponse{Success: true, Weather: obs})
}

// GetHistory handles GET /api/history?city=.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.weatherService.History(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.HistoryResponse{Success: true, History: rows})
}

// GetReady handles GET /api/ready. 503 while a required key is missing or the process drains.
func (h *Handler) GetReady(w http.ResponseWriter, r *http.Request) {
	draining := lifecycle.Draining()
	resp := models.ReadinessResponse{
		Ready:        h.readiness.Ready && !draining,
		Missing:      h.readiness.Missing,
		ShuttingDown: draining,
	}
	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the {"error": message} envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

// writeServiceError maps a service error onto a status and body:
// validation 400, upstream its own status, everything else 500 with the error text.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *client.UpstreamError
	switch {
	case errors.Is(err, validation.ErrCityEmpty):
		logger(r).Debug("rejected request", zap.Error(err))
		writeError(w, http.StatusBadRequest, validation.ErrCityEmpty.Error())
	case errors.Is(err, client.ErrAPIKeyMissing):
		logger(r).Error("weather API key missing")
		writeError(w, http.StatusInternalServerError, client.ErrAPIKeyMissing.Error())
	case errors.As(err, &upstream):
		logger(r).Warn("upstream error", zap.Int("upstream_status", upstream.StatusCode), zap.Error(err))
		writeError(w, relayStatus(upstream.StatusCode), upstream.Message)
	default:
		logger(r).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// relayStatus passes an upstream error status through. Codes net/http cannot write become 502.
func relayStatus(code int) int {
	if code < 400 || code > 599 {
		return http.StatusBadGateway
	}
	return code
}

func logger(r *http.Request) *zap.Logger {
	return observability.LoggerFromContext(r.Context())
}
