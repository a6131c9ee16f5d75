package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"smart_greenhouse/internal/models"

	"github.com/google/uuid"
)

type ReadingSQLite struct {
	db *sql.DB
}

func NewReadingSQLite(db *sql.DB) *ReadingSQLite { return &ReadingSQLite{db: db} }

var _ Readings = (*ReadingSQLite)(nil)

const (
	insertReadingSQL = `
		INSERT INTO sensor_readings (id, greenhouse_id, air_temp, air_humidity, soil_moisture, soil_temp, health_score, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectReadingCols = `id, greenhouse_id, air_temp, air_humidity, soil_moisture, soil_temp, health_score, recorded_at`

	selectLatestBeforeSQL = `
		SELECT ` + selectReadingCols + `
		FROM sensor_readings
		WHERE greenhouse_id = ? AND recorded_at < ?
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	selectReadingsSQL = `
		SELECT ` + selectReadingCols + `
		FROM sensor_readings
		WHERE greenhouse_id = ?
		ORDER BY recorded_at DESC
		LIMIT ?
	`

	updateHealthScoreSQL = `UPDATE sensor_readings SET health_score = ? WHERE id = ?`
)

// Create inserts a new reading. If ID or RecordedAt are empty, they're set.
func (r *ReadingSQLite) Create(ctx context.Context, rd models.SensorReading) error {
	if rd.ID == "" {
		rd.ID = uuid.NewString()
	}
	if rd.RecordedAt.IsZero() {
		rd.RecordedAt = time.Now().UTC()
	} else {
		rd.RecordedAt = rd.RecordedAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertReadingSQL,
		rd.ID,
		rd.GreenhouseID,
		rd.AirTemp,
		rd.AirHumidity,
		rd.SoilMoisture,
		rd.SoilTemp,
		rd.HealthScore,
		rd.RecordedAt,
	)
	return err
}

// LatestBefore selects by timestamp, not by insertion order, so out-of-order
// arrivals still compare against the correct neighbouring sample.
func (r *ReadingSQLite) LatestBefore(ctx context.Context, greenhouseID string, ts time.Time) (*models.SensorReading, error) {
	row := r.db.QueryRowContext(ctx, selectLatestBeforeSQL, greenhouseID, ts.UTC())
	rd, err := scanReading(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rd, nil
}

func (r *ReadingSQLite) List(ctx context.Context, greenhouseID string, limit int) ([]models.SensorReading, error) {
	rows, err := r.db.QueryContext(ctx, selectReadingsSQL, greenhouseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.SensorReading, 0, limit)
	for rows.Next() {
		rd, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rd)
	}
	return out, rows.Err()
}

func (r *ReadingSQLite) SetHealthScore(ctx context.Context, id string, score float64) error {
	_, err := r.db.ExecContext(ctx, updateHealthScoreSQL, score, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (*models.SensorReading, error) {
	var rd models.SensorReading
	var score sql.NullFloat64
	if err := row.Scan(
		&rd.ID,
		&rd.GreenhouseID,
		&rd.AirTemp,
		&rd.AirHumidity,
		&rd.SoilMoisture,
		&rd.SoilTemp,
		&score,
		&rd.RecordedAt,
	); err != nil {
		return nil, err
	}
	if score.Valid {
		rd.HealthScore = &score.Float64
	}
	rd.RecordedAt = rd.RecordedAt.UTC()
	return &rd, nil
}
