package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"smart_greenhouse/internal/models"

	"github.com/google/uuid"
)

type NotificationSQLite struct {
	db *sql.DB
}

func NewNotificationSQLite(db *sql.DB) *NotificationSQLite { return &NotificationSQLite{db: db} }

var _ Notifications = (*NotificationSQLite)(nil)

// ErrNotOwned is returned when a read/delete targets a notification that does
// not exist or belongs to another user.
var ErrNotOwned = errors.New("notification not found for this user")

const (
	insertNotificationSQL = `
		INSERT INTO notifications (id, user_id, type, title, message, payload, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
	`

	existsNotificationSinceSQL = `
		SELECT EXISTS(
			SELECT 1 FROM notifications
			WHERE user_id = ? AND type = ? AND created_at >= ?
		)
	`

	selectNotificationsSQL = `
		SELECT id, user_id, type, title, message, payload, read, created_at
		FROM notifications
		WHERE user_id = ?
	`

	markReadSQL    = `UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`
	markAllReadSQL = `UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0`
	deleteNotifSQL = `DELETE FROM notifications WHERE id = ? AND user_id = ?`
)

func (r *NotificationSQLite) Create(ctx context.Context, n models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	} else {
		n.CreatedAt = n.CreatedAt.UTC()
	}

	var payload *string
	if n.Payload != nil {
		if b, err := json.Marshal(n.Payload); err == nil {
			s := string(b)
			payload = &s
		}
	}

	_, err := r.db.ExecContext(ctx, insertNotificationSQL,
		n.ID,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		payload,
		n.CreatedAt,
	)
	return err
}

func (r *NotificationSQLite) ExistsSince(ctx context.Context, userID, typ string, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, existsNotificationSinceSQL, userID, typ, since.UTC()).Scan(&exists)
	return exists, err
}

func (r *NotificationSQLite) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	q := selectNotificationsSQL
	args := []any{userID}
	if unreadOnly {
		q += " AND read = 0"
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Notification, 0, limit)
	for rows.Next() {
		var n models.Notification
		var payload sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &payload, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		if payload.Valid && payload.String != "" {
			var m map[string]any
			if err := json.Unmarshal([]byte(payload.String), &m); err == nil {
				n.Payload = m
			}
		}
		n.CreatedAt = n.CreatedAt.UTC()
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationSQLite) MarkRead(ctx context.Context, id, userID string) error {
	return r.execOwned(ctx, markReadSQL, id, userID)
}

func (r *NotificationSQLite) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, markAllReadSQL, userID)
	return err
}

func (r *NotificationSQLite) Delete(ctx context.Context, id, userID string) error {
	return r.execOwned(ctx, deleteNotifSQL, id, userID)
}

func (r *NotificationSQLite) execOwned(ctx context.Context, query, id, userID string) error {
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotOwned
	}
	return nil
}
