package service

import "time"

// ReadingParams carries one inbound sensor sample.
type ReadingParams struct {
	AirTemp      float64
	AirHumidity  float64
	SoilMoisture float64
	SoilTemp     float64
	RecordedAt   time.Time // zero means "now"
}

// ActivationParams configures a pump activation request.
type ActivationParams struct {
	DurationSec  int
	WaterAmountL *float64
	Reason       string // defaults to "manual"
}

// ConfirmParams resolves a provisional detected irrigation event.
type ConfirmParams struct {
	Type         string // manual | rain
	WaterAmountL *float64
	Notes        string
}

// ReportParams is the automation agent's account of a pump cycle it ran
// itself, bypassing the orchestrator.
type ReportParams struct {
	Status         string // completed | failed
	DurationMS     int
	PulseCount     *int
	MoistureBefore *float64
	MoistureAfter  *float64
	TargetMoisture *float64
	ErrorMessage   string
}

// PredictionParams is an AI model's forward-looking assessment.
type PredictionParams struct {
	Type              string // moisture_drop | temperature_rise | humidity_drop | optimal_conditions
	CurrentMoisture   float64
	PredictedMoisture float64
	Confidence        float64
	HoursAhead        int
	Recommendation    string
}
