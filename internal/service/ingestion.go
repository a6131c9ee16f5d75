package service

import (
	"context"
	"time"

	"smart_greenhouse/internal/logger"
	"smart_greenhouse/internal/metrics"
	"smart_greenhouse/internal/models"
	"smart_greenhouse/internal/repository"
	"smart_greenhouse/internal/timeseries"

	"github.com/google/uuid"
)

// Sensor validation bounds (DHT22 air sensor, capacitive soil probe).
const (
	minTempC      = -40.0
	maxTempC      = 85.0
	minPercent    = 0.0
	maxPercent    = 100.0
	predictorWait = 3 * time.Second
)

// Ingestion accepts sensor readings and fans out the follow-up side effects.
type Ingestion interface {
	Ingest(ctx context.Context, greenhouseID string, p ReadingParams) (*models.SensorReading, error)
	Readings(ctx context.Context, greenhouseID string, limit int) ([]models.SensorReading, error)
}

// HealthPredictor scores a reading against the external AI model.
type HealthPredictor interface {
	Score(ctx context.Context, r models.SensorReading) (float64, error)
}

type IngestionService struct {
	greenhouses repository.Greenhouses
	readings    repository.Readings
	detector    Detector
	predictor   HealthPredictor
	mirror      *timeseries.Mirror
	metrics     *metrics.Metrics
	log         *logger.Logger
}

func NewIngestionService(
	greenhouses repository.Greenhouses,
	readings repository.Readings,
	detector Detector,
	predictor HealthPredictor,
	mirror *timeseries.Mirror,
	m *metrics.Metrics,
	log *logger.Logger,
) *IngestionService {
	return &IngestionService{
		greenhouses: greenhouses,
		readings:    readings,
		detector:    detector,
		predictor:   predictor,
		mirror:      mirror,
		metrics:     m,
		log:         log,
	}
}

var _ Ingestion = (*IngestionService)(nil)

// Ingest validates and persists a reading, refreshes the greenhouse snapshot,
// then triggers detection (fault-isolated) and the prediction adapter
// (detached, best-effort). Neither side effect can fail the ingest.
func (s *IngestionService) Ingest(ctx context.Context, greenhouseID string, p ReadingParams) (*models.SensorReading, error) {
	if err := validateReading(p); err != nil {
		if s.metrics != nil {
			s.metrics.ReadingsRejected.Inc()
		}
		return nil, err
	}

	gh, err := s.greenhouses.Get(ctx, greenhouseID)
	if err != nil {
		return nil, err
	}
	if gh == nil {
		return nil, ErrGreenhouseNotFound
	}

	recordedAt := p.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	} else {
		recordedAt = recordedAt.UTC()
	}
	reading := models.SensorReading{
		ID:           uuid.NewString(),
		GreenhouseID: greenhouseID,
		AirTemp:      p.AirTemp,
		AirHumidity:  p.AirHumidity,
		SoilMoisture: p.SoilMoisture,
		SoilTemp:     p.SoilTemp,
		RecordedAt:   recordedAt,
	}

	if err := s.readings.Create(ctx, reading); err != nil {
		return nil, err
	}

	snapshot := models.CurrentValues{
		AirTemp:      p.AirTemp,
		AirHumidity:  p.AirHumidity,
		SoilMoisture: p.SoilMoisture,
		SoilTemp:     p.SoilTemp,
		UpdatedAt:    recordedAt,
	}
	if err := s.greenhouses.UpdateSnapshot(ctx, greenhouseID, snapshot, recordedAt); err != nil {
		// snapshot is a cache; the reading is already durable
		if s.log != nil {
			s.log.Errorw("snapshot_update_failed", "greenhouse", greenhouseID, "err", err)
		}
	}

	s.runDetection(ctx, reading)
	go s.predictHealth(reading)
	s.mirror.Write(reading)

	if s.metrics != nil {
		s.metrics.ReadingsIngested.Inc()
	}
	return &reading, nil
}

func (s *IngestionService) Readings(ctx context.Context, greenhouseID string, limit int) ([]models.SensorReading, error) {
	gh, err := s.greenhouses.Get(ctx, greenhouseID)
	if err != nil {
		return nil, err
	}
	if gh == nil {
		return nil, ErrGreenhouseNotFound
	}
	return s.readings.List(ctx, greenhouseID, clampLimit(limit))
}

// runDetection invokes the engine synchronously but fault-isolated: an engine
// error or panic is logged and swallowed, never propagated to the caller.
func (s *IngestionService) runDetection(ctx context.Context, r models.SensorReading) {
	defer func() {
		if rec := recover(); rec != nil && s.log != nil {
			s.log.Errorw("detection_panic", "greenhouse", r.GreenhouseID, "panic", rec)
		}
	}()
	if s.detector == nil {
		return
	}
	if err := s.detector.Evaluate(ctx, r); err != nil && s.log != nil {
		s.log.Errorw("detection_failed", "greenhouse", r.GreenhouseID, "err", err)
	}
}

// predictHealth calls the external adapter with its own short timeout,
// detached from the request. Failures are logged, never surfaced, never
// retried.
func (s *IngestionService) predictHealth(r models.SensorReading) {
	if s.predictor == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), predictorWait)
	defer cancel()

	score, err := s.predictor.Score(ctx, r)
	if err != nil {
		if s.log != nil {
			s.log.Debugw("health_prediction_failed", "greenhouse", r.GreenhouseID, "err", err)
		}
		return
	}
	if err := s.readings.SetHealthScore(ctx, r.ID, score); err != nil && s.log != nil {
		s.log.Errorw("health_score_store_failed", "reading", r.ID, "err", err)
	}
}

func validateReading(p ReadingParams) error {
	switch {
	case p.SoilMoisture < minPercent || p.SoilMoisture > maxPercent:
		return invalid("soil_moisture", "must be between 0 and 100")
	case p.AirHumidity < minPercent || p.AirHumidity > maxPercent:
		return invalid("air_humidity", "must be between 0 and 100")
	case p.AirTemp < minTempC || p.AirTemp > maxTempC:
		return invalid("air_temperature", "must be between -40 and 85")
	case p.SoilTemp < minTempC || p.SoilTemp > maxTempC:
		return invalid("soil_temperature", "must be between -40 and 85")
	}
	return nil
}

// clampLimit bounds caller-supplied list limits.
func clampLimit(limit int) int {
	const (
		defaultLimit = 20
		maxLimit     = 100
	)
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
