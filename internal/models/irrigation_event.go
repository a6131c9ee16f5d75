package models

import "time"

// Irrigation event types. A "detected" event is provisional and stays pending
// until a user confirms it as manual or rain.
const (
	IrrigationManual    = "manual"
	IrrigationAutomatic = "automatic"
	IrrigationDetected  = "detected"
	IrrigationRain      = "rain"
)

// IrrigationEvent records one watering of a greenhouse, whether commanded,
// reported by the automation agent, or inferred from a soil moisture rise.
type IrrigationEvent struct {
	ID           string    `json:"id"`
	GreenhouseID string    `json:"greenhouse_id"`
	Type         string    `json:"type"`
	WaterAmountL *float64  `json:"water_amount_l,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	UserID       string    `json:"user_id,omitempty"`    // set on confirmation
	ReadingID    string    `json:"reading_id,omitempty"` // reading that triggered a detection
	CreatedAt    time.Time `json:"created_at"`
}
