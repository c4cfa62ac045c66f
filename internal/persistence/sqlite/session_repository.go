package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/medication-assistant/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository wires a repository over the shared handle.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// GetSession loads the conversation state for one patient.
func (r *SessionRepository) GetSession(ctx context.Context, patientID int64) (persistence.ConversationSession, error) {
	row := r.db.QueryRow(ctx,
		`SELECT patient_id, flow, step, scratch, updated_at FROM sessions WHERE patient_id = ?`, patientID)

	var session persistence.ConversationSession
	var scratch string
	var updatedAt string
	err := row.Scan(&session.PatientID, &session.Flow, &session.Step, &scratch, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ConversationSession{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.ConversationSession{}, fmt.Errorf("sqlite: get session: %w", err)
	}
	session.Scratch = []byte(scratch)
	session.UpdatedAt = parseTime(updatedAt)
	return session, nil
}

// SaveSession inserts or replaces the conversation state.
func (r *SessionRepository) SaveSession(ctx context.Context, session persistence.ConversationSession) error {
	session.UpdatedAt = time.Now().UTC()
	scratch := session.Scratch
	if len(scratch) == 0 {
		scratch = []byte("{}")
	}

	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (patient_id, flow, step, scratch, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(patient_id) DO UPDATE SET
				flow = excluded.flow,
				step = excluded.step,
				scratch = excluded.scratch,
				updated_at = excluded.updated_at`,
			session.PatientID,
			session.Flow,
			session.Step,
			string(scratch),
			session.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("sqlite: save session: %w", err)
		}
		return nil
	})
}

// ClearSession discards the conversation state. Clearing an absent session is
// not an error.
func (r *SessionRepository) ClearSession(ctx context.Context, patientID int64) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE patient_id = ?`, patientID); err != nil {
			return fmt.Errorf("sqlite: clear session: %w", err)
		}
		return nil
	})
}
