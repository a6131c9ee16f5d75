package service

import (
	"context"
	"fmt"
	"time"

	"smart_greenhouse/internal/logger"
	"smart_greenhouse/internal/models"
	"smart_greenhouse/internal/repository"

	"github.com/google/uuid"
)

// pumpFlowRateLPS estimates delivered volume from run time when the agent
// doesn't report one (calibrated for the 5V peristaltic pump).
const pumpFlowRateLPS = 0.04

// Automation is the ingress for the on-site agent: after-the-fact pump
// reports and forward-looking AI predictions.
type Automation interface {
	Report(ctx context.Context, greenhouseID string, p ReportParams) (*models.IrrigationEvent, error)
	Predict(ctx context.Context, greenhouseID string, p PredictionParams) (DispatchResult, error)
}

type AutomationService struct {
	greenhouses repository.Greenhouses
	irrigations repository.Irrigations
	dispatcher  Dispatcher
	log         *logger.Logger
}

func NewAutomationService(
	greenhouses repository.Greenhouses,
	irrigations repository.Irrigations,
	dispatcher Dispatcher,
	log *logger.Logger,
) *AutomationService {
	return &AutomationService{
		greenhouses: greenhouses,
		irrigations: irrigations,
		dispatcher:  dispatcher,
		log:         log,
	}
}

var _ Automation = (*AutomationService)(nil)

// Report records a pump cycle the agent already ran on its own. A completed
// cycle becomes an automatic irrigation event; a failed one only produces a
// failure notification.
func (s *AutomationService) Report(ctx context.Context, greenhouseID string, p ReportParams) (*models.IrrigationEvent, error) {
	if p.Status != "completed" && p.Status != "failed" {
		return nil, invalid("status", "must be completed or failed")
	}
	if p.DurationMS < 0 {
		return nil, invalid("duration_ms", "must be non-negative")
	}

	gh, err := s.greenhouses.Get(ctx, greenhouseID)
	if err != nil {
		return nil, err
	}
	if gh == nil {
		return nil, ErrGreenhouseNotFound
	}

	if p.Status == "failed" {
		msg := p.ErrorMessage
		if msg == "" {
			msg = "the automation agent reported a pump failure"
		}
		if _, err := s.dispatcher.Dispatch(ctx, Event{
			Type:         models.NotifPumpFailed,
			UserID:       gh.UserID,
			GreenhouseID: greenhouseID,
			Payload: map[string]any{
				"greenhouse_id":    greenhouseID,
				"origin":           "automation",
				"category":         "automation_reported",
				"category_message": msg,
			},
		}); err != nil && s.log != nil {
			s.log.Errorw("automation_failure_notify_failed", "greenhouse", greenhouseID, "err", err)
		}
		return nil, nil
	}

	durSec := float64(p.DurationMS) / 1000.0
	volume := durSec * pumpFlowRateLPS
	evt := models.IrrigationEvent{
		ID:           uuid.NewString(),
		GreenhouseID: greenhouseID,
		Type:         models.IrrigationAutomatic,
		WaterAmountL: &volume,
		Notes:        buildReportNotes(p),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.irrigations.Create(ctx, evt); err != nil {
		return nil, fmt.Errorf("record automatic irrigation: %w", err)
	}

	if _, err := s.dispatcher.Dispatch(ctx, Event{
		Type:         models.NotifPumpActivated,
		UserID:       gh.UserID,
		GreenhouseID: greenhouseID,
		Payload: map[string]any{
			"greenhouse_id":    greenhouseID,
			"event_id":         evt.ID,
			"origin":           "automation",
			"duration_seconds": int(durSec),
			"water_amount_l":   volume,
		},
	}); err != nil && s.log != nil {
		s.log.Errorw("automation_report_notify_failed", "event", evt.ID, "err", err)
	}

	return &evt, nil
}

// Predict validates and dispatches an AI prediction; the dispatcher's dedup
// window keeps a chatty agent from flooding the user.
func (s *AutomationService) Predict(ctx context.Context, greenhouseID string, p PredictionParams) (DispatchResult, error) {
	switch p.Type {
	case models.PredictionMoistureDrop, models.PredictionTemperatureRise,
		models.PredictionHumidityDrop, models.PredictionOptimal:
	default:
		return "", invalid("type", "unknown prediction type")
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return "", invalid("confidence", "must be between 0 and 1")
	}
	if p.HoursAhead <= 0 {
		return "", invalid("hours_ahead", "must be positive")
	}

	gh, err := s.greenhouses.Get(ctx, greenhouseID)
	if err != nil {
		return "", err
	}
	if gh == nil {
		return "", ErrGreenhouseNotFound
	}

	return s.dispatcher.Dispatch(ctx, Event{
		Type:         p.Type,
		UserID:       gh.UserID,
		GreenhouseID: greenhouseID,
		Payload: map[string]any{
			"greenhouse_id":      greenhouseID,
			"current_moisture":   p.CurrentMoisture,
			"predicted_moisture": p.PredictedMoisture,
			"confidence":         p.Confidence,
			"hours_ahead":        p.HoursAhead,
			"recommendation":     p.Recommendation,
		},
	})
}

func buildReportNotes(p ReportParams) string {
	notes := fmt.Sprintf("automation cycle: %d ms", p.DurationMS)
	if p.PulseCount != nil {
		notes += fmt.Sprintf(", %d pulses", *p.PulseCount)
	}
	if p.MoistureBefore != nil && p.MoistureAfter != nil {
		notes += fmt.Sprintf(", moisture %.1f%% -> %.1f%%", *p.MoistureBefore, *p.MoistureAfter)
	}
	if p.TargetMoisture != nil {
		notes += fmt.Sprintf(" (target %.1f%%)", *p.TargetMoisture)
	}
	return notes
}
