package models

// HealthResponse is the static payload of GET /api/health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// WeatherResponse wraps the observation inserted by GET /api/weather.
type WeatherResponse struct {
	Success bool        `json:"success"`
	Weather Observation `json:"weather"`
}

// HistoryResponse wraps the recent observations for a city. History is never nil.
type HistoryResponse struct {
	Success bool          `json:"success"`
	History []Observation `json:"history"`
}

// ErrorResponse is the body of every 4xx/5xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ReadinessResponse reports whether startup configuration is complete.
type ReadinessResponse struct {
	Ready        bool     `json:"ready"`
	Missing      []string `json:"missing"`
	ShuttingDown bool     `json:"shutting_down"`
}
