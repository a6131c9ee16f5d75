package models

import "time"

// Notification type tags. AI prediction notifications reuse the prediction
// type as their tag so the dedup window applies per prediction kind.
const (
	NotifPumpActivated       = "pump_activated"
	NotifPumpFailed          = "pump_failed"
	NotifIrrigationDetected  = "irrigation_detected"
	NotifIrrigationConfirmed = "irrigation_confirmed"

	PredictionMoistureDrop    = "moisture_drop"
	PredictionTemperatureRise = "temperature_rise"
	PredictionHumidityDrop    = "humidity_drop"
	PredictionOptimal         = "optimal_conditions"
)

// Notification is a persisted message for one user, created only by the
// dispatcher and mutated only by read-state toggles or owner deletion.
type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"created_at"`
}
