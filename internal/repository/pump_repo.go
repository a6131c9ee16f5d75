package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"smart_greenhouse/internal/models"

	"github.com/google/uuid"
)

type PumpOpSQLite struct {
	db *sql.DB
}

func NewPumpOpSQLite(db *sql.DB) *PumpOpSQLite { return &PumpOpSQLite{db: db} }

var _ PumpOps = (*PumpOpSQLite)(nil)

const (
	insertPumpOpSQL = `
		INSERT INTO pump_operations (id, greenhouse_id, duration_s, water_amount_l, reason, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	finalizePumpOpSQL = `
		UPDATE pump_operations
		SET status = ?, error_message = ?, ended_at = ?
		WHERE id = ? AND status = 'active'
	`

	setDeviceResponseSQL = `UPDATE pump_operations SET device_response = ? WHERE id = ?`

	selectPumpOpCols = `id, greenhouse_id, duration_s, water_amount_l, reason, status, started_at, ended_at, error_message, device_response`

	selectActivePumpOpSQL = `
		SELECT ` + selectPumpOpCols + `
		FROM pump_operations
		WHERE greenhouse_id = ? AND status = 'active'
	`

	selectPumpOpByIDSQL = `SELECT ` + selectPumpOpCols + ` FROM pump_operations WHERE id = ?`

	selectPumpOpsSQL = `
		SELECT ` + selectPumpOpCols + `
		FROM pump_operations
		WHERE greenhouse_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`

	selectPumpOpsSinceSQL = `
		SELECT ` + selectPumpOpCols + `
		FROM pump_operations
		WHERE greenhouse_id = ? AND (status = 'active' OR started_at >= ? OR ended_at >= ?)
		ORDER BY started_at DESC
	`

	selectElapsedActiveSQL = `
		SELECT ` + selectPumpOpCols + `
		FROM pump_operations
		WHERE status = 'active'
	`
)

// CreateActive inserts the operation in active status. The partial unique
// index on (greenhouse_id) WHERE status='active' makes this the atomic
// check-and-create; a loser of the race gets ErrDuplicateActive.
func (r *PumpOpSQLite) CreateActive(ctx context.Context, op models.PumpOperation) error {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.StartedAt.IsZero() {
		op.StartedAt = time.Now().UTC()
	} else {
		op.StartedAt = op.StartedAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertPumpOpSQL,
		op.ID,
		op.GreenhouseID,
		op.DurationSec,
		op.WaterAmountL,
		op.Reason,
		models.OpStatusActive,
		op.StartedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateActive
	}
	return err
}

// Finalize transitions an active operation to a terminal status. The WHERE
// guard keeps terminal statuses immutable; finalizing an already-terminal
// operation is a no-op.
func (r *PumpOpSQLite) Finalize(ctx context.Context, id, status, errorMessage string, endedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, finalizePumpOpSQL, status, errorMessage, endedAt.UTC(), id)
	return err
}

func (r *PumpOpSQLite) SetDeviceResponse(ctx context.Context, id, raw string) error {
	_, err := r.db.ExecContext(ctx, setDeviceResponseSQL, raw, id)
	return err
}

func (r *PumpOpSQLite) GetActive(ctx context.Context, greenhouseID string) (*models.PumpOperation, error) {
	return r.one(r.db.QueryRowContext(ctx, selectActivePumpOpSQL, greenhouseID))
}

func (r *PumpOpSQLite) Get(ctx context.Context, id string) (*models.PumpOperation, error) {
	return r.one(r.db.QueryRowContext(ctx, selectPumpOpByIDSQL, id))
}

func (r *PumpOpSQLite) List(ctx context.Context, greenhouseID string, limit int) ([]models.PumpOperation, error) {
	rows, err := r.db.QueryContext(ctx, selectPumpOpsSQL, greenhouseID, limit)
	if err != nil {
		return nil, err
	}
	return collectPumpOps(rows)
}

func (r *PumpOpSQLite) ListSince(ctx context.Context, greenhouseID string, since time.Time) ([]models.PumpOperation, error) {
	s := since.UTC()
	rows, err := r.db.QueryContext(ctx, selectPumpOpsSinceSQL, greenhouseID, s, s)
	if err != nil {
		return nil, err
	}
	return collectPumpOps(rows)
}

// ListElapsedActive returns active operations whose requested duration has
// already elapsed at the given instant. The elapsed check runs in Go rather
// than SQL to avoid SQLite datetime arithmetic on driver-formatted timestamps.
func (r *PumpOpSQLite) ListElapsedActive(ctx context.Context, now time.Time) ([]models.PumpOperation, error) {
	rows, err := r.db.QueryContext(ctx, selectElapsedActiveSQL)
	if err != nil {
		return nil, err
	}
	ops, err := collectPumpOps(rows)
	if err != nil {
		return nil, err
	}
	out := ops[:0]
	for _, op := range ops {
		if !now.Before(op.ExpectedEnd()) {
			out = append(out, op)
		}
	}
	return out, nil
}

func (r *PumpOpSQLite) one(row *sql.Row) (*models.PumpOperation, error) {
	op, err := scanPumpOp(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return op, nil
}

func collectPumpOps(rows *sql.Rows) ([]models.PumpOperation, error) {
	defer rows.Close()
	out := make([]models.PumpOperation, 0, 16)
	for rows.Next() {
		op, err := scanPumpOp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *op)
	}
	return out, rows.Err()
}

func scanPumpOp(row rowScanner) (*models.PumpOperation, error) {
	var op models.PumpOperation
	var water sql.NullFloat64
	var reason, errMsg, devResp sql.NullString
	var ended sql.NullTime
	if err := row.Scan(
		&op.ID,
		&op.GreenhouseID,
		&op.DurationSec,
		&water,
		&reason,
		&op.Status,
		&op.StartedAt,
		&ended,
		&errMsg,
		&devResp,
	); err != nil {
		return nil, err
	}
	if water.Valid {
		op.WaterAmountL = &water.Float64
	}
	op.Reason = reason.String
	op.ErrorMessage = errMsg.String
	op.DeviceResponse = devResp.String
	op.StartedAt = op.StartedAt.UTC()
	if ended.Valid {
		t := ended.Time.UTC()
		op.EndedAt = &t
	}
	return &op, nil
}
