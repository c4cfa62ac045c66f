package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/medication-assistant/internal/persistence"
)

// MemoryStore implements the persistence repositories in memory for service
// and conversation tests. The zero value is not usable; call NewMemoryStore.
type MemoryStore struct {
	mu            sync.Mutex
	medications   map[int64]map[int64]persistence.Medication
	confirmations []persistence.DoseConfirmation
	patients      map[int64]persistence.Patient
	sessions      map[int64]persistence.ConversationSession
	nextConfID    int64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		medications: make(map[int64]map[int64]persistence.Medication),
		patients:    make(map[int64]persistence.Patient),
		sessions:    make(map[int64]persistence.ConversationSession),
	}
}

// CreateMedication assigns max(existing)+1 and stores the record.
func (s *MemoryStore) CreateMedication(ctx context.Context, medication persistence.Medication) (persistence.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.medications[medication.PatientID]
	if byID == nil {
		byID = make(map[int64]persistence.Medication)
		s.medications[medication.PatientID] = byID
	}
	var max int64
	for id := range byID {
		if id > max {
			max = id
		}
	}
	medication.ID = max + 1
	now := time.Now().UTC()
	medication.CreatedAt = now
	medication.UpdatedAt = now
	byID[medication.ID] = cloneMedication(medication)
	return medication, nil
}

// UpdateMedication replaces an existing record.
func (s *MemoryStore) UpdateMedication(ctx context.Context, medication persistence.Medication) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.medications[medication.PatientID]
	if byID == nil {
		return persistence.ErrNotFound
	}
	if _, ok := byID[medication.ID]; !ok {
		return persistence.ErrNotFound
	}
	medication.UpdatedAt = time.Now().UTC()
	byID[medication.ID] = cloneMedication(medication)
	return nil
}

// GetMedication retrieves a record by id.
func (s *MemoryStore) GetMedication(ctx context.Context, patientID, id int64) (persistence.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	medication, ok := s.medications[patientID][id]
	if !ok {
		return persistence.Medication{}, persistence.ErrNotFound
	}
	return cloneMedication(medication), nil
}

// ListMedications returns records ordered by id ascending.
func (s *MemoryStore) ListMedications(ctx context.Context, patientID int64, includeInactive bool) ([]persistence.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var medications []persistence.Medication
	for _, medication := range s.medications[patientID] {
		if !includeInactive && !medication.Active {
			continue
		}
		medications = append(medications, cloneMedication(medication))
	}
	sort.Slice(medications, func(i, j int) bool { return medications[i].ID < medications[j].ID })
	return medications, nil
}

// DeleteMedication removes the record and its confirmations.
func (s *MemoryStore) DeleteMedication(ctx context.Context, patientID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.medications[patientID]
	if byID == nil {
		return persistence.ErrNotFound
	}
	if _, ok := byID[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(byID, id)

	kept := s.confirmations[:0]
	for _, confirmation := range s.confirmations {
		if confirmation.MedicationID != id {
			kept = append(kept, confirmation)
		}
	}
	s.confirmations = kept
	return nil
}

// AppendConfirmation records a confirmed dose.
func (s *MemoryStore) AppendConfirmation(ctx context.Context, confirmation persistence.DoseConfirmation) (persistence.DoseConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextConfID++
	confirmation.ID = s.nextConfID
	confirmation.CreatedAt = time.Now().UTC()
	s.confirmations = append(s.confirmations, confirmation)
	return confirmation, nil
}

// ListConfirmations returns confirmations oldest first, trimmed to limit.
func (s *MemoryStore) ListConfirmations(ctx context.Context, patientID int64, limit int) ([]persistence.DoseConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	confirmations := append([]persistence.DoseConfirmation(nil), s.confirmations...)
	if limit > 0 && len(confirmations) > limit {
		confirmations = confirmations[len(confirmations)-limit:]
	}
	return confirmations, nil
}

// GetPatient retrieves the stored profile.
func (s *MemoryStore) GetPatient(ctx context.Context, id int64) (persistence.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patient, ok := s.patients[id]
	if !ok {
		return persistence.Patient{}, persistence.ErrNotFound
	}
	return patient, nil
}

// SavePatient stores the profile.
func (s *MemoryStore) SavePatient(ctx context.Context, patient persistence.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	patient.UpdatedAt = time.Now().UTC()
	s.patients[patient.ID] = patient
	return nil
}

// GetSession retrieves the conversation state.
func (s *MemoryStore) GetSession(ctx context.Context, patientID int64) (persistence.ConversationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[patientID]
	if !ok {
		return persistence.ConversationSession{}, persistence.ErrNotFound
	}
	session.Scratch = append([]byte(nil), session.Scratch...)
	return session, nil
}

// SaveSession stores the conversation state.
func (s *MemoryStore) SaveSession(ctx context.Context, session persistence.ConversationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.UpdatedAt = time.Now().UTC()
	session.Scratch = append([]byte(nil), session.Scratch...)
	s.sessions[session.PatientID] = session
	return nil
}

// ClearSession discards the conversation state.
func (s *MemoryStore) ClearSession(ctx context.Context, patientID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, patientID)
	return nil
}

func cloneMedication(medication persistence.Medication) persistence.Medication {
	clone := medication
	clone.ScheduleTimes = append([]string(nil), medication.ScheduleTimes...)
	if medication.IntervalHours != nil {
		hours := *medication.IntervalHours
		clone.IntervalHours = &hours
	}
	if medication.PhotoRef != nil {
		ref := *medication.PhotoRef
		clone.PhotoRef = &ref
	}
	if medication.NextDoseOverride != nil {
		override := *medication.NextDoseOverride
		clone.NextDoseOverride = &override
	}
	return clone
}
