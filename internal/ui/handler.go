package ui

import (
	"bytes"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-finder/internal/observability"
)

// Handler serves the search page. GET / renders the empty page; GET /?city=X runs one
// search and renders the result with its history.
type Handler struct {
	api    API
	logger *zap.Logger
}

// NewHandler returns a page handler backed by api.
func NewHandler(api API, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{api: api, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	state := NewState()

	if city != "" {
		logger := h.logger
		if corrID := observability.CorrelationID(r.Context()); corrID != "" {
			logger = logger.With(zap.String("correlation_id", corrID))
		}
		ctrl := NewController(h.api, state, logger)
		ctrl.Search(r.Context(), city)
		ctrl.Wait()
	}

	page := Page{Query: city, View: state.Snapshot()}
	var buf bytes.Buffer
	if err := Render(&buf, page); err != nil {
		h.logger.Error("render page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	observability.PageRendersTotal.WithLabelValues(page.Panel()).Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
