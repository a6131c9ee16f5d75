package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"smart_greenhouse/internal/models"
)

type DeviceSQLite struct {
	db *sql.DB
}

func NewDeviceSQLite(db *sql.DB) *DeviceSQLite { return &DeviceSQLite{db: db} }

var _ Devices = (*DeviceSQLite)(nil)

const (
	selectDeviceCols = `id, greenhouse_id, address, hardware_id, online, last_seen_at`

	selectOnlineDeviceSQL = `
		SELECT ` + selectDeviceCols + `
		FROM devices
		WHERE greenhouse_id = ? AND online = 1
		ORDER BY last_seen_at DESC
		LIMIT 1
	`

	selectDevicesSQL = `SELECT ` + selectDeviceCols + ` FROM devices`

	setDeviceOnlineSQL = `UPDATE devices SET online = ?, last_seen_at = ? WHERE id = ?`
)

func (r *DeviceSQLite) GetOnline(ctx context.Context, greenhouseID string) (*models.Device, error) {
	d, err := scanDevice(r.db.QueryRowContext(ctx, selectOnlineDeviceSQL, greenhouseID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

func (r *DeviceSQLite) List(ctx context.Context) ([]models.Device, error) {
	rows, err := r.db.QueryContext(ctx, selectDevicesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Device, 0, 8)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *DeviceSQLite) SetOnline(ctx context.Context, id string, online bool, seenAt time.Time) error {
	_, err := r.db.ExecContext(ctx, setDeviceOnlineSQL, online, seenAt.UTC(), id)
	return err
}

func scanDevice(row rowScanner) (*models.Device, error) {
	var d models.Device
	var seen sql.NullTime
	if err := row.Scan(&d.ID, &d.GreenhouseID, &d.Address, &d.HardwareID, &d.Online, &seen); err != nil {
		return nil, err
	}
	if seen.Valid {
		d.LastSeenAt = seen.Time.UTC()
	}
	return &d, nil
}
