package models

import "time"

// SensorReading is a single sample reported by a greenhouse's sensor board.
// Immutable once stored, except for the optional health score annotation
// written back by the prediction adapter.
type SensorReading struct {
	ID           string    `json:"id"`
	GreenhouseID string    `json:"greenhouse_id"`
	AirTemp      float64   `json:"air_temperature"`  // °C
	AirHumidity  float64   `json:"air_humidity"`     // %
	SoilMoisture float64   `json:"soil_moisture"`    // % (0–100)
	SoilTemp     float64   `json:"soil_temperature"` // °C
	HealthScore  *float64  `json:"health_score,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// CurrentValues is the greenhouse's cached snapshot of its latest reading.
// Overwritten unconditionally on every ingest (last-writer-wins).
type CurrentValues struct {
	AirTemp      float64   `json:"air_temperature"`
	AirHumidity  float64   `json:"air_humidity"`
	SoilMoisture float64   `json:"soil_moisture"`
	SoilTemp     float64   `json:"soil_temperature"`
	UpdatedAt    time.Time `json:"updated_at"`
}
