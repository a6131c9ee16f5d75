package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"smart_greenhouse/internal/models"

	"github.com/google/uuid"
)

type IrrigationSQLite struct {
	db *sql.DB
}

func NewIrrigationSQLite(db *sql.DB) *IrrigationSQLite { return &IrrigationSQLite{db: db} }

var _ Irrigations = (*IrrigationSQLite)(nil)

const (
	insertIrrigationSQL = `
		INSERT INTO irrigation_events (id, greenhouse_id, type, water_amount_l, notes, user_id, reading_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectIrrigationCols = `id, greenhouse_id, type, water_amount_l, notes, user_id, reading_id, created_at`

	selectIrrigationByIDSQL = `SELECT ` + selectIrrigationCols + ` FROM irrigation_events WHERE id = ?`

	confirmIrrigationSQL = `
		UPDATE irrigation_events
		SET type = ?, user_id = ?, water_amount_l = COALESCE(?, water_amount_l),
		    notes = COALESCE(NULLIF(?, ''), notes)
		WHERE id = ?
	`

	selectLatestDetectedSQL = `
		SELECT ` + selectIrrigationCols + `
		FROM irrigation_events
		WHERE greenhouse_id = ? AND type = 'detected' AND created_at >= ?
		ORDER BY created_at DESC
		LIMIT 1
	`

	selectPendingSQL = `
		SELECT ` + selectIrrigationCols + `
		FROM irrigation_events
		WHERE type = 'detected'
		ORDER BY created_at DESC
		LIMIT ?
	`

	selectIrrigationsSQL = `
		SELECT ` + selectIrrigationCols + `
		FROM irrigation_events
		WHERE greenhouse_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
)

func (r *IrrigationSQLite) Create(ctx context.Context, e models.IrrigationEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	} else {
		e.CreatedAt = e.CreatedAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertIrrigationSQL,
		e.ID,
		e.GreenhouseID,
		e.Type,
		e.WaterAmountL,
		e.Notes,
		nullIfEmpty(e.UserID),
		nullIfEmpty(e.ReadingID),
		e.CreatedAt,
	)
	return err
}

func (r *IrrigationSQLite) Get(ctx context.Context, id string) (*models.IrrigationEvent, error) {
	e, err := scanIrrigation(r.db.QueryRowContext(ctx, selectIrrigationByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (r *IrrigationSQLite) Confirm(ctx context.Context, id, newType, userID string, waterAmount *float64, notes string) error {
	_, err := r.db.ExecContext(ctx, confirmIrrigationSQL, newType, userID, waterAmount, notes, id)
	return err
}

func (r *IrrigationSQLite) LatestDetectedSince(ctx context.Context, greenhouseID string, since time.Time) (*models.IrrigationEvent, error) {
	e, err := scanIrrigation(r.db.QueryRowContext(ctx, selectLatestDetectedSQL, greenhouseID, since.UTC()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (r *IrrigationSQLite) ListPending(ctx context.Context, limit int) ([]models.IrrigationEvent, error) {
	rows, err := r.db.QueryContext(ctx, selectPendingSQL, limit)
	if err != nil {
		return nil, err
	}
	return collectIrrigations(rows)
}

func (r *IrrigationSQLite) List(ctx context.Context, greenhouseID string, limit int) ([]models.IrrigationEvent, error) {
	rows, err := r.db.QueryContext(ctx, selectIrrigationsSQL, greenhouseID, limit)
	if err != nil {
		return nil, err
	}
	return collectIrrigations(rows)
}

func collectIrrigations(rows *sql.Rows) ([]models.IrrigationEvent, error) {
	defer rows.Close()
	out := make([]models.IrrigationEvent, 0, 16)
	for rows.Next() {
		e, err := scanIrrigation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanIrrigation(row rowScanner) (*models.IrrigationEvent, error) {
	var e models.IrrigationEvent
	var water sql.NullFloat64
	var notes, userID, readingID sql.NullString
	if err := row.Scan(
		&e.ID,
		&e.GreenhouseID,
		&e.Type,
		&water,
		&notes,
		&userID,
		&readingID,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	if water.Valid {
		e.WaterAmountL = &water.Float64
	}
	e.Notes = notes.String
	e.UserID = userID.String
	e.ReadingID = readingID.String
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
