package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"smart_greenhouse/internal/models"
)

// ErrDuplicateActive is returned by PumpOps.CreateActive when the greenhouse
// already has an active operation (partial unique index violation).
var ErrDuplicateActive = errors.New("an active pump operation already exists for this greenhouse")

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// Greenhouses resolves ownership and maintains the cached snapshot.
type Greenhouses interface {
	Get(ctx context.Context, id string) (*models.Greenhouse, error)
	UpdateSnapshot(ctx context.Context, id string, v models.CurrentValues, seenAt time.Time) error
}

// Readings stores the per-greenhouse sensor stream, ordered by timestamp.
type Readings interface {
	Create(ctx context.Context, r models.SensorReading) error
	// LatestBefore returns the most recent reading strictly earlier than ts,
	// or nil when the greenhouse has no earlier reading.
	LatestBefore(ctx context.Context, greenhouseID string, ts time.Time) (*models.SensorReading, error)
	List(ctx context.Context, greenhouseID string, limit int) ([]models.SensorReading, error)
	SetHealthScore(ctx context.Context, id string, score float64) error
}

// PumpOps owns the pump operation lifecycle records.
type PumpOps interface {
	// CreateActive inserts a new operation in active status. Returns
	// ErrDuplicateActive when one already exists for the greenhouse.
	CreateActive(ctx context.Context, op models.PumpOperation) error
	Finalize(ctx context.Context, id, status, errorMessage string, endedAt time.Time) error
	SetDeviceResponse(ctx context.Context, id, raw string) error
	GetActive(ctx context.Context, greenhouseID string) (*models.PumpOperation, error)
	Get(ctx context.Context, id string) (*models.PumpOperation, error)
	List(ctx context.Context, greenhouseID string, limit int) ([]models.PumpOperation, error)
	// ListSince returns operations that are still active or started/ended
	// after the given instant, newest first.
	ListSince(ctx context.Context, greenhouseID string, since time.Time) ([]models.PumpOperation, error)
	ListElapsedActive(ctx context.Context, now time.Time) ([]models.PumpOperation, error)
}

type Irrigations interface {
	Create(ctx context.Context, e models.IrrigationEvent) error
	Get(ctx context.Context, id string) (*models.IrrigationEvent, error)
	// Confirm rewrites a detected event's type and assigns the confirming user.
	Confirm(ctx context.Context, id, newType, userID string, waterAmount *float64, notes string) error
	LatestDetectedSince(ctx context.Context, greenhouseID string, since time.Time) (*models.IrrigationEvent, error)
	ListPending(ctx context.Context, limit int) ([]models.IrrigationEvent, error)
	List(ctx context.Context, greenhouseID string, limit int) ([]models.IrrigationEvent, error)
}

type Notifications interface {
	Create(ctx context.Context, n models.Notification) error
	ExistsSince(ctx context.Context, userID, typ string, since time.Time) (bool, error)
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id, userID string) error
}

type Devices interface {
	// GetOnline returns the greenhouse's online device, or nil when none is.
	GetOnline(ctx context.Context, greenhouseID string) (*models.Device, error)
	List(ctx context.Context) ([]models.Device, error)
	SetOnline(ctx context.Context, id string, online bool, seenAt time.Time) error
}

type Repository struct {
	Auth          Authorization
	Greenhouses   Greenhouses
	Readings      Readings
	PumpOps       PumpOps
	Irrigations   Irrigations
	Notifications Notifications
	Devices       Devices
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Auth:          NewUserRepository(db),
		Greenhouses:   NewGreenhouseSQLite(db),
		Readings:      NewReadingSQLite(db),
		PumpOps:       NewPumpOpSQLite(db),
		Irrigations:   NewIrrigationSQLite(db),
		Notifications: NewNotificationSQLite(db),
		Devices:       NewDeviceSQLite(db),
	}
}
