package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-finder/internal/observability"
)

// NewRouter wires the API, /metrics and, when page is non-nil, the web page at /.
// requestTimeout bounds /api handlers; 0 disables it. CORS wraps the whole router so
// preflight requests never reach mux method matching.
func NewRouter(h *Handler, page http.Handler, logger *zap.Logger, requestTimeout time.Duration) http.Handler {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.Use(RecoverMiddleware)
	router.NotFoundHandler = notFoundHandler
	router.MethodNotAllowedHandler = methodNotAllowedHandler

	// Subrouters answer their own misses; the root handlers never see them.
	api := router.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = notFoundHandler
	api.MethodNotAllowedHandler = methodNotAllowedHandler
	api.Use(TimeoutMiddleware(requestTimeout))
	api.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	api.HandleFunc("/weather", h.GetWeather).Methods(http.MethodGet)
	api.HandleFunc("/history", h.GetHistory).Methods(http.MethodGet)
	api.HandleFunc("/ready", h.GetReady).Methods(http.MethodGet)

	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	if page != nil {
		router.Handle("/", page).Methods(http.MethodGet)
	}

	return CORS().Handler(router)
}

var (
	notFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	methodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
)

// CORS allows any origin to issue GET requests and read the correlation header.
func CORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", correlationHeader},
		ExposedHeaders: []string{correlationHeader},
	})
}
