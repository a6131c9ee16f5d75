package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"smart_greenhouse/internal/models"
)

type GreenhouseSQLite struct {
	db *sql.DB
}

func NewGreenhouseSQLite(db *sql.DB) *GreenhouseSQLite { return &GreenhouseSQLite{db: db} }

var _ Greenhouses = (*GreenhouseSQLite)(nil)

const (
	selectGreenhouseSQL = `
		SELECT id, user_id, name, location, online, last_seen_at, current_values
		FROM greenhouses WHERE id = ?
	`

	updateSnapshotSQL = `
		UPDATE greenhouses
		SET current_values = ?, online = 1, last_seen_at = ?
		WHERE id = ?
	`
)

func (r *GreenhouseSQLite) Get(ctx context.Context, id string) (*models.Greenhouse, error) {
	row := r.db.QueryRowContext(ctx, selectGreenhouseSQL, id)

	var g models.Greenhouse
	var location, values sql.NullString
	var seen sql.NullTime
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &location, &g.Online, &seen, &values); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	g.Location = location.String
	if seen.Valid {
		g.LastSeenAt = seen.Time.UTC()
	}
	if values.Valid && values.String != "" {
		// malformed snapshots are ignored; the next reading overwrites them
		_ = json.Unmarshal([]byte(values.String), &g.CurrentValues)
	}
	return &g, nil
}

// UpdateSnapshot overwrites the cached current values unconditionally
// (last-writer-wins) and refreshes the online flag and last-seen timestamp.
func (r *GreenhouseSQLite) UpdateSnapshot(ctx context.Context, id string, v models.CurrentValues, seenAt time.Time) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, updateSnapshotSQL, string(b), seenAt.UTC(), id)
	return err
}
