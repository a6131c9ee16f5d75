package models

import "time"

// Pump operation lifecycle statuses. An operation is created "active" and
// transitions exactly once to a terminal status; it is never reactivated.
const (
	OpStatusActive    = "active"
	OpStatusCompleted = "completed"
	OpStatusCancelled = "cancelled"
	OpStatusError     = "error"
)

// PumpOperation is one commanded run of a greenhouse's water pump.
// At most one active operation may exist per greenhouse at any instant;
// the storage layer enforces this with a partial unique index.
type PumpOperation struct {
	ID             string     `json:"id"`
	GreenhouseID   string     `json:"greenhouse_id"`
	DurationSec    int        `json:"duration_seconds"`
	WaterAmountL   *float64   `json:"water_amount_l,omitempty"` // target volume, litres
	Reason         string     `json:"reason,omitempty"`         // origin tag: manual | automation | schedule
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	DeviceResponse string     `json:"device_response,omitempty"` // raw body from the control device
}

// Terminal reports whether the operation has reached a final status.
func (o PumpOperation) Terminal() bool {
	return o.Status != OpStatusActive
}

// ExpectedEnd is the projected end of the run based on requested duration.
func (o PumpOperation) ExpectedEnd() time.Time {
	return o.StartedAt.Add(time.Duration(o.DurationSec) * time.Second)
}
