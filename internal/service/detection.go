package service

import (
	"context"
	"fmt"
	"time"

	"smart_greenhouse/internal/logger"
	"smart_greenhouse/internal/metrics"
	"smart_greenhouse/internal/models"
	"smart_greenhouse/internal/repository"

	"github.com/google/uuid"
)

const (
	// moistureRiseThreshold separates a genuine watering event from sensor
	// noise: an unexplained rise above this many percentage points raises a
	// provisional detection.
	moistureRiseThreshold = 15.0

	// detectionCooldown suppresses repeat detections while successive
	// readings keep reporting the same physical irrigation.
	detectionCooldown = 2 * time.Hour
)

// Detector evaluates a freshly persisted reading for unexplained soil
// moisture rises.
type Detector interface {
	Evaluate(ctx context.Context, r models.SensorReading) error
}

type DetectionService struct {
	readings    repository.Readings
	irrigations repository.Irrigations
	pumpOps     repository.PumpOps
	greenhouses repository.Greenhouses
	dispatcher  Dispatcher
	metrics     *metrics.Metrics
	log         *logger.Logger
}

func NewDetectionService(
	readings repository.Readings,
	irrigations repository.Irrigations,
	pumpOps repository.PumpOps,
	greenhouses repository.Greenhouses,
	dispatcher Dispatcher,
	m *metrics.Metrics,
	log *logger.Logger,
) *DetectionService {
	return &DetectionService{
		readings:    readings,
		irrigations: irrigations,
		pumpOps:     pumpOps,
		greenhouses: greenhouses,
		dispatcher:  dispatcher,
		metrics:     m,
		log:         log,
	}
}

var _ Detector = (*DetectionService)(nil)

// Evaluate compares the reading against the most recent strictly earlier one
// and raises a detected irrigation event on an unexplained moisture rise.
// Takes no terminal action on the pump.
func (s *DetectionService) Evaluate(ctx context.Context, r models.SensorReading) error {
	prev, err := s.readings.LatestBefore(ctx, r.GreenhouseID, r.RecordedAt)
	if err != nil {
		return fmt.Errorf("load previous reading: %w", err)
	}
	if prev == nil {
		// first reading for this greenhouse, nothing to compare against
		return nil
	}

	delta := r.SoilMoisture - prev.SoilMoisture
	if delta <= moistureRiseThreshold {
		return nil
	}

	// A rise caused by our own pump is explained, not detected. Any operation
	// overlapping the window between the two readings claims the rise.
	overlap, err := s.pumpOverlaps(ctx, r.GreenhouseID, prev.RecordedAt, r.RecordedAt)
	if err != nil {
		return fmt.Errorf("check pump overlap: %w", err)
	}
	if overlap {
		if s.log != nil {
			s.log.Debugw("moisture_rise_attributed_to_pump", "greenhouse", r.GreenhouseID, "delta", delta)
		}
		return nil
	}

	// Cooldown: one physical irrigation must not produce a detection per
	// polling cycle.
	recent, err := s.irrigations.LatestDetectedSince(ctx, r.GreenhouseID, time.Now().UTC().Add(-detectionCooldown))
	if err != nil {
		return fmt.Errorf("check detection cooldown: %w", err)
	}
	if recent != nil {
		return nil
	}

	evt := models.IrrigationEvent{
		GreenhouseID: r.GreenhouseID,
		Type:         models.IrrigationDetected,
		Notes:        fmt.Sprintf("soil moisture rose by %.1f points (%.1f%% -> %.1f%%)", delta, prev.SoilMoisture, r.SoilMoisture),
		ReadingID:    r.ID,
		CreatedAt:    time.Now().UTC(),
	}
	evt.ID = uuid.NewString()
	if err := s.irrigations.Create(ctx, evt); err != nil {
		return fmt.Errorf("create detected irrigation event: %w", err)
	}
	if s.metrics != nil {
		s.metrics.IrrigationsDetected.Inc()
	}
	if s.log != nil {
		s.log.Infow("irrigation_detected", "greenhouse", r.GreenhouseID, "delta", delta, "event", evt.ID)
	}

	gh, err := s.greenhouses.Get(ctx, r.GreenhouseID)
	if err != nil || gh == nil {
		// event is persisted; only the notification is lost
		if s.log != nil {
			s.log.Errorw("detection_owner_lookup_failed", "greenhouse", r.GreenhouseID, "err", err)
		}
		return nil
	}

	if _, err := s.dispatcher.Dispatch(ctx, Event{
		Type:         models.NotifIrrigationDetected,
		UserID:       gh.UserID,
		GreenhouseID: r.GreenhouseID,
		Payload: map[string]any{
			"event_id":      evt.ID,
			"greenhouse_id": r.GreenhouseID,
			"reading_id":    r.ID,
			"delta":         delta,
			"action":        "confirm_irrigation",
		},
	}); err != nil && s.log != nil {
		s.log.Errorw("detection_notify_failed", "event", evt.ID, "err", err)
	}
	return nil
}

// pumpOverlaps reports whether any pump operation was running at some point
// inside [from, to]. A still-active operation counts; a finished one counts
// when its end (recorded or projected from duration) falls after the window
// start.
func (s *DetectionService) pumpOverlaps(ctx context.Context, greenhouseID string, from, to time.Time) (bool, error) {
	ops, err := s.pumpOps.ListSince(ctx, greenhouseID, from)
	if err != nil {
		return false, err
	}
	for _, op := range ops {
		if op.StartedAt.After(to) {
			continue
		}
		if op.Status == models.OpStatusActive {
			return true, nil
		}
		end := op.ExpectedEnd()
		if op.EndedAt != nil {
			end = *op.EndedAt
		}
		if !end.Before(from) {
			return true, nil
		}
	}
	return false, nil
}
