package service

import (
	"context"
	"time"

	"smart_greenhouse/internal/device"
	"smart_greenhouse/internal/logger"
	"smart_greenhouse/internal/metrics"
	"smart_greenhouse/internal/models"
	"smart_greenhouse/internal/repository"

	"github.com/google/uuid"
)

const (
	minPumpDurationSec = 1
	maxPumpDurationSec = 3600

	defaultPumpReason = "manual"
)

// PumpStatus is the orchestrator's answer to a status query. Remaining time
// and estimated end are only meaningful while an operation is active.
type PumpStatus struct {
	Active       bool                  `json:"active"`
	Operation    *models.PumpOperation `json:"operation,omitempty"`
	RemainingSec int                   `json:"remaining_seconds,omitempty"`
	EstimatedEnd *time.Time            `json:"estimated_end,omitempty"`
}

// Pump owns the exclusive-activation invariant and the operation lifecycle.
type Pump interface {
	Activate(ctx context.Context, greenhouseID string, p ActivationParams) (*models.PumpOperation, error)
	Stop(ctx context.Context, greenhouseID string) (*models.PumpOperation, error)
	Status(ctx context.Context, greenhouseID string) (*PumpStatus, error)
	History(ctx context.Context, greenhouseID string, limit int) ([]models.PumpOperation, error)
}

type PumpService struct {
	pumpOps     repository.PumpOps
	devices     repository.Devices
	greenhouses repository.Greenhouses
	client      device.Client
	dispatcher  Dispatcher
	metrics     *metrics.Metrics
	log         *logger.Logger
}

func NewPumpService(
	pumpOps repository.PumpOps,
	devices repository.Devices,
	greenhouses repository.Greenhouses,
	client device.Client,
	dispatcher Dispatcher,
	m *metrics.Metrics,
	log *logger.Logger,
) *PumpService {
	return &PumpService{
		pumpOps:     pumpOps,
		devices:     devices,
		greenhouses: greenhouses,
		client:      client,
		dispatcher:  dispatcher,
		metrics:     m,
		log:         log,
	}
}

var _ Pump = (*PumpService)(nil)

// Activate creates the operation record first (the conditional insert is the
// atomic claim on the greenhouse's pump) and only then contacts the device.
// Whatever happens to the network call, the record always reaches a terminal
// status or stays legitimately active; it is never orphaned.
func (s *PumpService) Activate(ctx context.Context, greenhouseID string, p ActivationParams) (*models.PumpOperation, error) {
	if p.DurationSec < minPumpDurationSec || p.DurationSec > maxPumpDurationSec {
		return nil, invalid("duration_seconds", "must be between 1 and 3600")
	}
	if p.WaterAmountL != nil && *p.WaterAmountL <= 0 {
		return nil, invalid("water_amount_l", "must be positive")
	}

	gh, err := s.greenhouses.Get(ctx, greenhouseID)
	if err != nil {
		return nil, err
	}
	if gh == nil {
		return nil, ErrGreenhouseNotFound
	}

	reason := p.Reason
	if reason == "" {
		reason = defaultPumpReason
	}
	op := models.PumpOperation{
		ID:           uuid.NewString(),
		GreenhouseID: greenhouseID,
		DurationSec:  p.DurationSec,
		WaterAmountL: p.WaterAmountL,
		Reason:       reason,
		Status:       models.OpStatusActive,
		StartedAt:    time.Now().UTC(),
	}
	if err := s.pumpOps.CreateActive(ctx, op); err != nil {
		if err == repository.ErrDuplicateActive {
			s.countActivation("conflict")
			return nil, ErrPumpActive
		}
		return nil, err
	}

	dev, err := s.devices.GetOnline(ctx, greenhouseID)
	if err != nil {
		s.finalizeError(ctx, op.ID, "device lookup failed: "+err.Error())
		return nil, err
	}
	if dev == nil {
		s.finalizeError(ctx, op.ID, "no online device")
		s.countActivation("no_device")
		return nil, ErrDeviceNotFound
	}

	callCtx, cancel := context.WithTimeout(ctx, device.ActivateTimeout)
	defer cancel()
	raw, err := s.client.Activate(callCtx, dev.Address, device.ActivateCommand{
		DurationSec:  op.DurationSec,
		WaterAmountL: op.WaterAmountL,
		OperationID:  op.ID,
	})
	if err != nil {
		// Finalizing here is a correctness requirement: a record left active
		// after a failed call blocks the greenhouse forever.
		s.finalizeError(ctx, op.ID, err.Error())
		s.countActivation("device_error")
		commErr := newDeviceCommError(err)
		s.notifyFailure(ctx, gh, op, commErr.Category)
		return nil, commErr
	}

	op.DeviceResponse = raw
	if err := s.pumpOps.SetDeviceResponse(ctx, op.ID, raw); err != nil && s.log != nil {
		s.log.Errorw("store_device_response_failed", "operation", op.ID, "err", err)
	}
	s.countActivation("ok")

	if _, err := s.dispatcher.Dispatch(ctx, Event{
		Type:         models.NotifPumpActivated,
		UserID:       gh.UserID,
		GreenhouseID: greenhouseID,
		Payload: map[string]any{
			"operation_id":     op.ID,
			"greenhouse_id":    greenhouseID,
			"duration_seconds": op.DurationSec,
			"reason":           op.Reason,
		},
	}); err != nil && s.log != nil {
		s.log.Errorw("pump_activated_notify_failed", "operation", op.ID, "err", err)
	}

	return &op, nil
}

// Stop cancels the active operation. The device stop command is best-effort:
// a communication failure is logged but the local state transition is
// guaranteed either way.
func (s *PumpService) Stop(ctx context.Context, greenhouseID string) (*models.PumpOperation, error) {
	op, err := s.pumpOps.GetActive(ctx, greenhouseID)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, ErrOperationNotFound
	}

	if dev, err := s.devices.GetOnline(ctx, greenhouseID); err == nil && dev != nil {
		callCtx, cancel := context.WithTimeout(ctx, device.StopTimeout)
		defer cancel()
		if err := s.client.Stop(callCtx, dev.Address, device.StopCommand{OperationID: op.ID}); err != nil && s.log != nil {
			s.log.Warnw("pump_stop_device_failed", "operation", op.ID, "err", err)
		}
	} else if s.log != nil {
		s.log.Warnw("pump_stop_no_device", "greenhouse", greenhouseID, "err", err)
	}

	now := time.Now().UTC()
	if err := s.pumpOps.Finalize(ctx, op.ID, models.OpStatusCancelled, "", now); err != nil {
		return nil, err
	}
	op.Status = models.OpStatusCancelled
	op.EndedAt = &now
	return op, nil
}

// Status reports the active operation with its remaining runtime, or an
// inactive status when no operation is running.
func (s *PumpService) Status(ctx context.Context, greenhouseID string) (*PumpStatus, error) {
	op, err := s.pumpOps.GetActive(ctx, greenhouseID)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return &PumpStatus{Active: false}, nil
	}

	elapsed := int(time.Now().UTC().Sub(op.StartedAt).Seconds())
	remaining := op.DurationSec - elapsed
	if remaining < 0 {
		remaining = 0
	}
	end := op.ExpectedEnd()
	return &PumpStatus{
		Active:       true,
		Operation:    op,
		RemainingSec: remaining,
		EstimatedEnd: &end,
	}, nil
}

func (s *PumpService) History(ctx context.Context, greenhouseID string, limit int) ([]models.PumpOperation, error) {
	return s.pumpOps.List(ctx, greenhouseID, clampLimit(limit))
}

func (s *PumpService) finalizeError(ctx context.Context, opID, message string) {
	if err := s.pumpOps.Finalize(ctx, opID, models.OpStatusError, message, time.Now().UTC()); err != nil && s.log != nil {
		s.log.Errorw("pump_finalize_failed", "operation", opID, "err", err)
	}
}

func (s *PumpService) notifyFailure(ctx context.Context, gh *models.Greenhouse, op models.PumpOperation, category string) {
	if _, err := s.dispatcher.Dispatch(ctx, Event{
		Type:         models.NotifPumpFailed,
		UserID:       gh.UserID,
		GreenhouseID: gh.ID,
		Payload: map[string]any{
			"operation_id":     op.ID,
			"greenhouse_id":    gh.ID,
			"category":         category,
			"category_message": device.CategoryMessage(category),
		},
	}); err != nil && s.log != nil {
		s.log.Errorw("pump_failed_notify_failed", "operation", op.ID, "err", err)
	}
}

func (s *PumpService) countActivation(result string) {
	if s.metrics != nil {
		s.metrics.PumpActivations.WithLabelValues(result).Inc()
	}
}
