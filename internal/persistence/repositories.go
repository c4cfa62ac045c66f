package persistence

import "context"

// MedicationRepository exposes CRUD operations for medication records and
// their confirmation history.
type MedicationRepository interface {
	// CreateMedication assigns the next identifier (max existing + 1) and
	// stores the record.
	CreateMedication(ctx context.Context, medication Medication) (Medication, error)
	UpdateMedication(ctx context.Context, medication Medication) error
	GetMedication(ctx context.Context, patientID, id int64) (Medication, error)
	// ListMedications returns records ordered by id ascending. Inactive
	// records are included only when includeInactive is set.
	ListMedications(ctx context.Context, patientID int64, includeInactive bool) ([]Medication, error)
	DeleteMedication(ctx context.Context, patientID, id int64) error

	AppendConfirmation(ctx context.Context, confirmation DoseConfirmation) (DoseConfirmation, error)
	// ListConfirmations returns the most recent confirmations for the
	// patient, oldest first. A non-positive limit returns everything.
	ListConfirmations(ctx context.Context, patientID int64, limit int) ([]DoseConfirmation, error)
}

// PatientRepository stores the patient profile and sleep configuration.
type PatientRepository interface {
	// GetPatient returns ErrNotFound until a profile has been saved.
	GetPatient(ctx context.Context, id int64) (Patient, error)
	SavePatient(ctx context.Context, patient Patient) error
}

// SessionRepository stores the durable conversation state per patient.
type SessionRepository interface {
	// GetSession returns ErrNotFound when no conversation is in progress.
	GetSession(ctx context.Context, patientID int64) (ConversationSession, error)
	SaveSession(ctx context.Context, session ConversationSession) error
	ClearSession(ctx context.Context, patientID int64) error
}
