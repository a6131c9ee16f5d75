package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// InitDB opens/creates the SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

const schemaGreenhouses = `
CREATE TABLE IF NOT EXISTS greenhouses (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    location TEXT,
    online BOOLEAN NOT NULL DEFAULT 0,
    last_seen_at TIMESTAMP,
    current_values TEXT
);
`

const schemaDevices = `
CREATE TABLE IF NOT EXISTS devices (
    id TEXT PRIMARY KEY,
    greenhouse_id TEXT NOT NULL REFERENCES greenhouses(id),
    address TEXT NOT NULL,
    hardware_id TEXT NOT NULL,
    online BOOLEAN NOT NULL DEFAULT 0,
    last_seen_at TIMESTAMP
);
`

const schemaSensorReadings = `
CREATE TABLE IF NOT EXISTS sensor_readings (
    id TEXT PRIMARY KEY,
    greenhouse_id TEXT NOT NULL REFERENCES greenhouses(id),
    air_temp REAL NOT NULL,
    air_humidity REAL NOT NULL,
    soil_moisture REAL NOT NULL,
    soil_temp REAL NOT NULL,
    health_score REAL,
    recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_readings_greenhouse_time
    ON sensor_readings(greenhouse_id, recorded_at);
`

// The partial unique index is the atomic guard for the one-active-operation
// invariant: a concurrent second activation fails the insert instead of
// racing a separate existence check.
const schemaPumpOperations = `
CREATE TABLE IF NOT EXISTS pump_operations (
    id TEXT PRIMARY KEY,
    greenhouse_id TEXT NOT NULL REFERENCES greenhouses(id),
    duration_s INTEGER NOT NULL,
    water_amount_l REAL,
    reason TEXT,
    status TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    ended_at TIMESTAMP,
    error_message TEXT,
    device_response TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_pump_one_active
    ON pump_operations(greenhouse_id) WHERE status = 'active';
CREATE INDEX IF NOT EXISTS idx_pump_greenhouse_started
    ON pump_operations(greenhouse_id, started_at);
`

const schemaIrrigationEvents = `
CREATE TABLE IF NOT EXISTS irrigation_events (
    id TEXT PRIMARY KEY,
    greenhouse_id TEXT NOT NULL REFERENCES greenhouses(id),
    type TEXT NOT NULL,
    water_amount_l REAL,
    notes TEXT,
    user_id TEXT,
    reading_id TEXT,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_irrigation_greenhouse_type_time
    ON irrigation_events(greenhouse_id, type, created_at);
`

const schemaNotifications = `
CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    message TEXT NOT NULL,
    payload TEXT,
    read BOOLEAN NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_user_type_time
    ON notifications(user_id, type, created_at);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaUsers,
		schemaGreenhouses,
		schemaDevices,
		schemaSensorReadings,
		schemaPumpOperations,
		schemaIrrigationEvents,
		schemaNotifications,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
