package service

import (
	"context"
	"fmt"

	"smart_greenhouse/internal/logger"
	"smart_greenhouse/internal/models"
	"smart_greenhouse/internal/repository"
)

// Irrigation resolves provisional detections and serves event queries.
type Irrigation interface {
	Confirm(ctx context.Context, eventID, userID string, p ConfirmParams) (*models.IrrigationEvent, error)
	Pending(ctx context.Context, limit int) ([]models.IrrigationEvent, error)
	Recent(ctx context.Context, greenhouseID string, limit int) ([]models.IrrigationEvent, error)
}

type IrrigationService struct {
	irrigations repository.Irrigations
	greenhouses repository.Greenhouses
	dispatcher  Dispatcher
	log         *logger.Logger
}

func NewIrrigationService(
	irrigations repository.Irrigations,
	greenhouses repository.Greenhouses,
	dispatcher Dispatcher,
	log *logger.Logger,
) *IrrigationService {
	return &IrrigationService{
		irrigations: irrigations,
		greenhouses: greenhouses,
		dispatcher:  dispatcher,
		log:         log,
	}
}

var _ Irrigation = (*IrrigationService)(nil)

// Confirm rewrites a detected event as manual or rain. Confirmation is a
// one-shot transition: an already-confirmed event is rejected, never
// re-confirmed.
func (s *IrrigationService) Confirm(ctx context.Context, eventID, userID string, p ConfirmParams) (*models.IrrigationEvent, error) {
	if p.Type != models.IrrigationManual && p.Type != models.IrrigationRain {
		return nil, invalid("type", "must be manual or rain")
	}
	if p.WaterAmountL != nil && *p.WaterAmountL <= 0 {
		return nil, invalid("water_amount_l", "must be positive")
	}

	evt, err := s.irrigations.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if evt == nil {
		return nil, ErrEventNotFound
	}
	if evt.Type != models.IrrigationDetected {
		return nil, ErrAlreadyConfirmed
	}

	if err := s.irrigations.Confirm(ctx, eventID, p.Type, userID, p.WaterAmountL, p.Notes); err != nil {
		return nil, fmt.Errorf("confirm irrigation event: %w", err)
	}

	evt.Type = p.Type
	evt.UserID = userID
	if p.WaterAmountL != nil {
		evt.WaterAmountL = p.WaterAmountL
	}
	if p.Notes != "" {
		evt.Notes = p.Notes
	}

	if _, err := s.dispatcher.Dispatch(ctx, Event{
		Type:         models.NotifIrrigationConfirmed,
		UserID:       userID,
		GreenhouseID: evt.GreenhouseID,
		Payload: map[string]any{
			"event_id":      evt.ID,
			"greenhouse_id": evt.GreenhouseID,
			"type":          p.Type,
		},
	}); err != nil && s.log != nil {
		s.log.Errorw("confirm_notify_failed", "event", evt.ID, "err", err)
	}

	return evt, nil
}

// Pending lists unconfirmed detected events, oldest first. Events never
// expire; a stale detection stays pending until someone resolves it.
func (s *IrrigationService) Pending(ctx context.Context, limit int) ([]models.IrrigationEvent, error) {
	return s.irrigations.ListPending(ctx, clampLimit(limit))
}

func (s *IrrigationService) Recent(ctx context.Context, greenhouseID string, limit int) ([]models.IrrigationEvent, error) {
	gh, err := s.greenhouses.Get(ctx, greenhouseID)
	if err != nil {
		return nil, err
	}
	if gh == nil {
		return nil, ErrGreenhouseNotFound
	}
	return s.irrigations.List(ctx, greenhouseID, clampLimit(limit))
}
