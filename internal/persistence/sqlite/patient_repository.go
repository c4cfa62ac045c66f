package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/medication-assistant/internal/persistence"
)

// PatientRepository implements persistence.PatientRepository.
type PatientRepository struct {
	db *DB
}

// NewPatientRepository wires a repository over the shared handle.
func NewPatientRepository(db *DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// GetPatient retrieves the profile, returning ErrNotFound before first save.
func (r *PatientRepository) GetPatient(ctx context.Context, id int64) (persistence.Patient, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, name, confirmed, sleep_start, sleep_end, updated_at FROM patients WHERE id = ?`, id)

	var patient persistence.Patient
	var confirmed int
	var updatedAt string
	err := row.Scan(&patient.ID, &patient.Name, &confirmed, &patient.SleepStart, &patient.SleepEnd, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Patient{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Patient{}, fmt.Errorf("sqlite: get patient: %w", err)
	}
	patient.Confirmed = confirmed != 0
	patient.UpdatedAt = parseTime(updatedAt)
	return patient, nil
}

// SavePatient inserts or replaces the profile.
func (r *PatientRepository) SavePatient(ctx context.Context, patient persistence.Patient) error {
	patient.UpdatedAt = time.Now().UTC()

	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO patients (id, name, confirmed, sleep_start, sleep_end, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				confirmed = excluded.confirmed,
				sleep_start = excluded.sleep_start,
				sleep_end = excluded.sleep_end,
				updated_at = excluded.updated_at`,
			patient.ID,
			patient.Name,
			boolToInt(patient.Confirmed),
			patient.SleepStart,
			patient.SleepEnd,
			patient.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("sqlite: save patient: %w", err)
		}
		return nil
	})
}
