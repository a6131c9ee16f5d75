package service

import (
	"context"
	"testing"
	"time"

	"smart_greenhouse/internal/models"
)

func TestSweeper_CompletesElapsedOperations(t *testing.T) {
	now := time.Now().UTC()
	ops := &fakePumpOps{created: []models.PumpOperation{
		{
			ID:           "op-elapsed",
			GreenhouseID: "gh-1",
			DurationSec:  30,
			Status:       models.OpStatusActive,
			StartedAt:    now.Add(-2 * time.Minute),
		},
		{
			ID:           "op-running",
			GreenhouseID: "gh-2",
			DurationSec:  600,
			Status:       models.OpStatusActive,
			StartedAt:    now.Add(-time.Minute),
		},
	}}
	s := NewSweeper(ops, nil)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops.finalized) != 1 {
		t.Fatalf("expected exactly one finalize, got %+v", ops.finalized)
	}
	fin := ops.finalized[0]
	if fin.id != "op-elapsed" || fin.status != models.OpStatusCompleted {
		t.Fatalf("wrong operation finalized: %+v", fin)
	}
	// ended_at is the projected end, not the sweep instant
	want := ops.created[0].ExpectedEnd()
	if !fin.endedAt.Equal(want) {
		t.Fatalf("expected ended_at %v, got %v", want, fin.endedAt)
	}
}
