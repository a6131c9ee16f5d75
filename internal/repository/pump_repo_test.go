package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"smart_greenhouse/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func newPumpMock(t *testing.T) (*PumpOpSQLite, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	repo := NewPumpOpSQLite(db)
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return repo, mock, cleanup
}

func pumpOpColumns() []string {
	return []string{
		"id", "greenhouse_id", "duration_s", "water_amount_l", "reason",
		"status", "started_at", "ended_at", "error_message", "device_response",
	}
}

func TestPumpOpSQLite_CreateActive(t *testing.T) {
	repo, mock, cleanup := newPumpMock(t)
	defer cleanup()

	op := models.PumpOperation{
		ID:           "op-1",
		GreenhouseID: "gh-1",
		DurationSec:  30,
		Reason:       "manual",
		StartedAt:    time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
	}
	mock.ExpectExec(regexp.QuoteMeta(insertPumpOpSQL)).
		WithArgs("op-1", "gh-1", 30, nil, "manual", models.OpStatusActive, op.StartedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.CreateActive(context.Background(), op); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPumpOpSQLite_CreateActive_DuplicateMapsToSentinel(t *testing.T) {
	repo, mock, cleanup := newPumpMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(insertPumpOpSQL)).
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: pump_operations.greenhouse_id"))

	err := repo.CreateActive(context.Background(), models.PumpOperation{
		ID:           "op-2",
		GreenhouseID: "gh-1",
		DurationSec:  30,
		StartedAt:    time.Now().UTC(),
	})
	if !errors.Is(err, ErrDuplicateActive) {
		t.Fatalf("expected ErrDuplicateActive, got %v", err)
	}
}

func TestPumpOpSQLite_Finalize_GuardsTerminalStates(t *testing.T) {
	repo, mock, cleanup := newPumpMock(t)
	defer cleanup()

	endedAt := time.Date(2026, 4, 1, 10, 5, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(finalizePumpOpSQL)).
		WithArgs(models.OpStatusCancelled, "", endedAt, "op-1").
		WillReturnResult(sqlmock.NewResult(0, 0)) // already terminal: 0 rows

	if err := repo.Finalize(context.Background(), "op-1", models.OpStatusCancelled, "", endedAt); err != nil {
		t.Fatalf("finalizing a terminal operation must be a no-op, got %v", err)
	}
}

func TestPumpOpSQLite_GetActive_NoRows(t *testing.T) {
	repo, mock, cleanup := newPumpMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(selectActivePumpOpSQL)).
		WithArgs("gh-1").
		WillReturnRows(sqlmock.NewRows(pumpOpColumns()))

	op, err := repo.GetActive(context.Background(), "gh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op != nil {
		t.Fatalf("expected nil for no active operation, got %+v", op)
	}
}

func TestPumpOpSQLite_GetActive_ScansNullables(t *testing.T) {
	repo, mock, cleanup := newPumpMock(t)
	defer cleanup()

	started := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(pumpOpColumns()).
		AddRow("op-1", "gh-1", 30, nil, "manual", models.OpStatusActive, started, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta(selectActivePumpOpSQL)).
		WithArgs("gh-1").
		WillReturnRows(rows)

	op, err := repo.GetActive(context.Background(), "gh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op == nil || op.ID != "op-1" {
		t.Fatalf("unexpected operation: %+v", op)
	}
	if op.WaterAmountL != nil || op.EndedAt != nil || op.ErrorMessage != "" {
		t.Fatalf("null columns must map to zero values: %+v", op)
	}
}

func TestPumpOpSQLite_ListElapsedActive_FiltersByProjectedEnd(t *testing.T) {
	repo, mock, cleanup := newPumpMock(t)
	defer cleanup()

	now := time.Date(2026, 4, 1, 10, 10, 0, 0, time.UTC)
	rows := sqlmock.NewRows(pumpOpColumns()).
		AddRow("op-done", "gh-1", 30, nil, "manual", models.OpStatusActive, now.Add(-2*time.Minute), nil, nil, nil).
		AddRow("op-running", "gh-2", 600, nil, "manual", models.OpStatusActive, now.Add(-time.Minute), nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta(selectElapsedActiveSQL)).WillReturnRows(rows)

	ops, err := repo.ListElapsedActive(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 1 || ops[0].ID != "op-done" {
		t.Fatalf("expected only the elapsed operation, got %+v", ops)
	}
}
