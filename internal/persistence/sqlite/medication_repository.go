package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/medication-assistant/internal/persistence"
)

// MedicationRepository implements persistence.MedicationRepository.
type MedicationRepository struct {
	db *DB
}

// NewMedicationRepository wires a repository over the shared handle.
func NewMedicationRepository(db *DB) *MedicationRepository {
	return &MedicationRepository{db: db}
}

// CreateMedication assigns the next identifier and inserts the record.
func (r *MedicationRepository) CreateMedication(ctx context.Context, medication persistence.Medication) (persistence.Medication, error) {
	now := time.Now().UTC()
	medication.CreatedAt = now
	medication.UpdatedAt = now

	err := r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(id), 0) + 1 FROM medications WHERE patient_id = ?`,
			medication.PatientID)
		if err := row.Scan(&medication.ID); err != nil {
			return fmt.Errorf("sqlite: next medication id: %w", err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO medications (
				id, patient_id, name, dose_description, schedule_times, mode,
				interval_hours, category, active, notes, photo_ref,
				next_dose_override, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			medication.ID,
			medication.PatientID,
			medication.Name,
			medication.DoseDescription,
			joinTimes(medication.ScheduleTimes),
			string(medication.Mode),
			nullInt(medication.IntervalHours),
			medication.Category,
			boolToInt(medication.Active),
			medication.Notes,
			nullString(medication.PhotoRef),
			nullString(medication.NextDoseOverride),
			medication.CreatedAt.Format(time.RFC3339),
			medication.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert medication: %w", err)
		}
		return nil
	})
	if err != nil {
		return persistence.Medication{}, err
	}
	return medication, nil
}

// UpdateMedication rewrites every mutable column of an existing record.
func (r *MedicationRepository) UpdateMedication(ctx context.Context, medication persistence.Medication) error {
	medication.UpdatedAt = time.Now().UTC()

	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE medications SET
				name = ?, dose_description = ?, schedule_times = ?, mode = ?,
				interval_hours = ?, category = ?, active = ?, notes = ?,
				photo_ref = ?, next_dose_override = ?, updated_at = ?
			WHERE patient_id = ? AND id = ?`,
			medication.Name,
			medication.DoseDescription,
			joinTimes(medication.ScheduleTimes),
			string(medication.Mode),
			nullInt(medication.IntervalHours),
			medication.Category,
			boolToInt(medication.Active),
			medication.Notes,
			nullString(medication.PhotoRef),
			nullString(medication.NextDoseOverride),
			medication.UpdatedAt.Format(time.RFC3339),
			medication.PatientID,
			medication.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: update medication: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: update medication: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// GetMedication retrieves a record by id.
func (r *MedicationRepository) GetMedication(ctx context.Context, patientID, id int64) (persistence.Medication, error) {
	row := r.db.QueryRow(ctx, medicationSelect+` WHERE patient_id = ? AND id = ?`, patientID, id)
	medication, err := scanMedication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Medication{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Medication{}, fmt.Errorf("sqlite: get medication: %w", err)
	}
	return medication, nil
}

// ListMedications returns records ordered by id.
func (r *MedicationRepository) ListMedications(ctx context.Context, patientID int64, includeInactive bool) ([]persistence.Medication, error) {
	query := medicationSelect + ` WHERE patient_id = ?`
	if !includeInactive {
		query += ` AND active = 1`
	}
	query += ` ORDER BY id`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list medications: %w", err)
	}
	defer rows.Close()

	var medications []persistence.Medication
	for rows.Next() {
		medication, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list medications: %w", err)
		}
		medications = append(medications, medication)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list medications: %w", err)
	}
	return medications, nil
}

// DeleteMedication removes the record and its confirmation history.
func (r *MedicationRepository) DeleteMedication(ctx context.Context, patientID, id int64) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM medications WHERE patient_id = ? AND id = ?`, patientID, id)
		if err != nil {
			return fmt.Errorf("sqlite: delete medication: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: delete medication: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM confirmations WHERE patient_id = ? AND medication_id = ?`, patientID, id); err != nil {
			return fmt.Errorf("sqlite: delete confirmations: %w", err)
		}
		return nil
	})
}

// AppendConfirmation records a confirmed dose.
func (r *MedicationRepository) AppendConfirmation(ctx context.Context, confirmation persistence.DoseConfirmation) (persistence.DoseConfirmation, error) {
	confirmation.CreatedAt = time.Now().UTC()

	err := r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT patient_id FROM medications WHERE id = ? LIMIT 1`, confirmation.MedicationID)
		var patientID int64
		if err := row.Scan(&patientID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return persistence.ErrNotFound
			}
			return fmt.Errorf("sqlite: resolve confirmation patient: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO confirmations (medication_id, patient_id, scheduled, actual, date, adjusted_next, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			confirmation.MedicationID,
			patientID,
			confirmation.Scheduled,
			confirmation.Actual,
			confirmation.Date,
			nullString(confirmation.AdjustedNext),
			confirmation.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert confirmation: %w", err)
		}
		confirmation.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: insert confirmation: %w", err)
		}
		return nil
	})
	if err != nil {
		return persistence.DoseConfirmation{}, err
	}
	return confirmation, nil
}

// ListConfirmations returns the most recent confirmations, oldest first.
func (r *MedicationRepository) ListConfirmations(ctx context.Context, patientID int64, limit int) ([]persistence.DoseConfirmation, error) {
	query := `
		SELECT id, medication_id, scheduled, actual, date, adjusted_next, created_at
		FROM confirmations WHERE patient_id = ? ORDER BY id DESC`
	args := []any{patientID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list confirmations: %w", err)
	}
	defer rows.Close()

	var confirmations []persistence.DoseConfirmation
	for rows.Next() {
		var confirmation persistence.DoseConfirmation
		var adjusted sql.NullString
		var createdAt string
		if err := rows.Scan(&confirmation.ID, &confirmation.MedicationID, &confirmation.Scheduled,
			&confirmation.Actual, &confirmation.Date, &adjusted, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: list confirmations: %w", err)
		}
		if adjusted.Valid {
			confirmation.AdjustedNext = &adjusted.String
		}
		confirmation.CreatedAt = parseTime(createdAt)
		confirmations = append(confirmations, confirmation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list confirmations: %w", err)
	}

	// Reverse into append order, most recent last.
	for i, j := 0, len(confirmations)-1; i < j; i, j = i+1, j-1 {
		confirmations[i], confirmations[j] = confirmations[j], confirmations[i]
	}
	return confirmations, nil
}

const medicationSelect = `
	SELECT id, patient_id, name, dose_description, schedule_times, mode,
		interval_hours, category, active, notes, photo_ref,
		next_dose_override, created_at, updated_at
	FROM medications`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedication(row rowScanner) (persistence.Medication, error) {
	var medication persistence.Medication
	var times, mode, createdAt, updatedAt string
	var interval sql.NullInt64
	var active int
	var photoRef, override sql.NullString

	err := row.Scan(
		&medication.ID,
		&medication.PatientID,
		&medication.Name,
		&medication.DoseDescription,
		&times,
		&mode,
		&interval,
		&medication.Category,
		&active,
		&medication.Notes,
		&photoRef,
		&override,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Medication{}, err
	}

	medication.ScheduleTimes = splitTimes(times)
	medication.Mode = persistence.SchedulingMode(mode)
	if interval.Valid {
		hours := int(interval.Int64)
		medication.IntervalHours = &hours
	}
	medication.Active = active != 0
	if photoRef.Valid {
		medication.PhotoRef = &photoRef.String
	}
	if override.Valid {
		medication.NextDoseOverride = &override.String
	}
	medication.CreatedAt = parseTime(createdAt)
	medication.UpdatedAt = parseTime(updatedAt)
	return medication, nil
}

func joinTimes(times []string) string {
	return strings.Join(times, ",")
}

func splitTimes(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
