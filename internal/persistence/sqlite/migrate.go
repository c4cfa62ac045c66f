package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		confirmed INTEGER NOT NULL DEFAULT 0,
		sleep_start TEXT NOT NULL DEFAULT '23:00',
		sleep_end TEXT NOT NULL DEFAULT '07:00',
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS medications (
		id INTEGER NOT NULL,
		patient_id INTEGER NOT NULL REFERENCES patients(id),
		name TEXT NOT NULL,
		dose_description TEXT NOT NULL DEFAULT '',
		schedule_times TEXT NOT NULL,
		mode TEXT NOT NULL,
		interval_hours INTEGER,
		category TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		notes TEXT NOT NULL DEFAULT '',
		photo_ref TEXT,
		next_dose_override TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (patient_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS confirmations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		medication_id INTEGER NOT NULL,
		patient_id INTEGER NOT NULL,
		scheduled TEXT NOT NULL,
		actual TEXT NOT NULL,
		date TEXT NOT NULL,
		adjusted_next TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		patient_id INTEGER PRIMARY KEY,
		flow TEXT NOT NULL,
		step TEXT NOT NULL,
		scratch TEXT NOT NULL DEFAULT '{}',
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_confirmations_patient ON confirmations(patient_id, id)`,
}

// Migrate applies the schema. Statements are idempotent, so Migrate is safe
// to run on every start.
func (d *DB) Migrate(ctx context.Context) error {
	return d.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("sqlite: apply schema: %w", err)
			}
		}
		return nil
	})
}
