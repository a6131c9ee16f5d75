package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"smart_greenhouse/internal/models"
)

func newAutomation(ghs *fakeGreenhouses, irr *fakeIrrigations, d *fakeDispatcher) *AutomationService {
	return NewAutomationService(ghs, irr, d, nil)
}

func TestAutomation_CompletedReportCreatesAutomaticEvent(t *testing.T) {
	irr := &fakeIrrigations{}
	d := &fakeDispatcher{}
	s := newAutomation(singleGreenhouse("gh-1", "7"), irr, d)

	evt, err := s.Report(context.Background(), "gh-1", ReportParams{
		Status:     "completed",
		DurationMS: 5000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt == nil || evt.Type != models.IrrigationAutomatic {
		t.Fatalf("expected automatic irrigation event, got %+v", evt)
	}
	// 5 s at 0.04 L/s
	if evt.WaterAmountL == nil || math.Abs(*evt.WaterAmountL-0.2) > 1e-9 {
		t.Fatalf("expected ~0.2 L volume estimate, got %+v", evt.WaterAmountL)
	}
	if len(irr.created) != 1 {
		t.Fatalf("event must be persisted")
	}
	notif := requireDispatched(t, d, models.NotifPumpActivated)
	if notif.Payload["origin"] != "automation" {
		t.Fatalf("notification must carry automation origin: %+v", notif.Payload)
	}
}

func TestAutomation_FailedReportOnlyNotifies(t *testing.T) {
	irr := &fakeIrrigations{}
	d := &fakeDispatcher{}
	s := newAutomation(singleGreenhouse("gh-1", "7"), irr, d)

	evt, err := s.Report(context.Background(), "gh-1", ReportParams{
		Status:       "failed",
		ErrorMessage: "pump jammed",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt != nil {
		t.Fatalf("failed cycle must not create an irrigation event")
	}
	if len(irr.created) != 0 {
		t.Fatalf("no event persistence expected")
	}
	notif := requireDispatched(t, d, models.NotifPumpFailed)
	if notif.Payload["category_message"] != "pump jammed" {
		t.Fatalf("failure message lost: %+v", notif.Payload)
	}
}

func TestAutomation_ReportValidation(t *testing.T) {
	s := newAutomation(singleGreenhouse("gh-1", "7"), &fakeIrrigations{}, &fakeDispatcher{})

	_, err := s.Report(context.Background(), "gh-1", ReportParams{Status: "running"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for bad status, got %v", err)
	}

	_, err = s.Report(context.Background(), "missing", ReportParams{Status: "completed"})
	if !errors.Is(err, ErrGreenhouseNotFound) {
		t.Fatalf("expected ErrGreenhouseNotFound, got %v", err)
	}
}

func TestAutomation_PredictDispatches(t *testing.T) {
	d := &fakeDispatcher{}
	s := newAutomation(singleGreenhouse("gh-1", "7"), &fakeIrrigations{}, d)

	result, err := s.Predict(context.Background(), "gh-1", PredictionParams{
		Type:              models.PredictionMoistureDrop,
		CurrentMoisture:   55,
		PredictedMoisture: 28,
		Confidence:        0.83,
		HoursAhead:        6,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != DispatchCreated {
		t.Fatalf("expected created, got %s", result)
	}
	evt := requireDispatched(t, d, models.PredictionMoistureDrop)
	if evt.Payload["hours_ahead"] != 6 {
		t.Fatalf("prediction payload incomplete: %+v", evt.Payload)
	}
}

func TestAutomation_PredictValidation(t *testing.T) {
	s := newAutomation(singleGreenhouse("gh-1", "7"), &fakeIrrigations{}, &fakeDispatcher{})

	cases := []PredictionParams{
		{Type: "rainstorm", Confidence: 0.5, HoursAhead: 2},
		{Type: models.PredictionOptimal, Confidence: 1.5, HoursAhead: 2},
		{Type: models.PredictionOptimal, Confidence: 0.5, HoursAhead: 0},
	}
	for i, p := range cases {
		_, err := s.Predict(context.Background(), "gh-1", p)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}
