package models

import "time"

// Observation is one persisted weather reading. Rows are immutable once inserted.
// Readings the upstream omitted stay nil and serialize as JSON null.
type Observation struct {
	ID          string    `json:"id"`
	CityName    string    `json:"city_name"`
	Country     string    `json:"country"`
	Description string    `json:"description"`
	Temperature *float64  `json:"temperature"`
	Humidity    *float64  `json:"humidity"`
	Timezone    *int      `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewObservation is the normalized record handed to the store for insert.
type NewObservation struct {
	CityName    string   `json:"city_name"`
	Country     string   `json:"country"`
	Description string   `json:"description"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Timezone    *int     `json:"timezone"`
}
