// Package application orchestrates validation and persistence for the
// medication assistant's services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/example/medication-assistant/internal/dosing"
	"github.com/example/medication-assistant/internal/persistence"
)

// PhotoReleaser frees a stored photo blob when its record goes away.
type PhotoReleaser interface {
	Remove(ref string) error
}

// UpcomingDose points at the next dose the patient is due to take.
type UpcomingDose struct {
	Medication persistence.Medication
	Time       string
	// Tomorrow is set when no dose remains today and the schedule wrapped
	// to the earliest entry.
	Tomorrow bool
}

// AgendaEntry is one medication in the read-only schedule export.
type AgendaEntry struct {
	ID              int64
	Name            string
	DoseDescription string
	// Times carries the schedule with any pending override substituted for
	// the next occurrence.
	Times    []string
	NextTime string
	Category string
	Active   bool
	PhotoRef string
}

// Agenda is the projection polled by the bracelet and other notifiers.
type Agenda struct {
	PatientName string
	Medications []AgendaEntry
}

// MedicationService owns the durable medication collection: uniqueness,
// lookup and lifecycle operations.
type MedicationService struct {
	medications persistence.MedicationRepository
	patients    persistence.PatientRepository
	photos      PhotoReleaser
	now         func() time.Time
	logger      *slog.Logger
}

// NewMedicationService wires dependencies for medication operations.
func NewMedicationService(medications persistence.MedicationRepository, patients persistence.PatientRepository, photos PhotoReleaser, now func() time.Time, logger *slog.Logger) *MedicationService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MedicationService{
		medications: medications,
		patients:    patients,
		photos:      photos,
		now:         now,
		logger:      logger,
	}
}

// Create stores a new medication, rejecting duplicates of an active record
// with the same name and schedule times.
func (s *MedicationService) Create(ctx context.Context, medication persistence.Medication) (persistence.Medication, error) {
	if medication.PatientID == 0 {
		medication.PatientID = persistence.DefaultPatientID
	}
	medication.Name = strings.TrimSpace(medication.Name)

	active, err := s.medications.ListMedications(ctx, medication.PatientID, false)
	if err != nil {
		return persistence.Medication{}, err
	}
	for _, existing := range active {
		if strings.EqualFold(existing.Name, medication.Name) && slices.Equal(existing.ScheduleTimes, medication.ScheduleTimes) {
			return persistence.Medication{}, fmt.Errorf("%w: %s at %s", ErrDuplicateSchedule, medication.Name, strings.Join(medication.ScheduleTimes, ", "))
		}
	}

	created, err := s.medications.CreateMedication(ctx, medication)
	if err != nil {
		return persistence.Medication{}, err
	}
	s.logger.InfoContext(ctx, "medication registered",
		"id", created.ID, "name", created.Name, "times", created.ScheduleTimes)
	return created, nil
}

// Get retrieves a medication by id.
func (s *MedicationService) Get(ctx context.Context, id int64) (persistence.Medication, error) {
	medication, err := s.medications.GetMedication(ctx, persistence.DefaultPatientID, id)
	if err != nil {
		return persistence.Medication{}, mapRepoError(err)
	}
	return medication, nil
}

// Resolve maps a user supplied token (numeric id or name) to a single
// record. When several records share the name, ErrAmbiguousName is returned
// together with the candidates so callers can ask the user to pick.
func (s *MedicationService) Resolve(ctx context.Context, token string) (persistence.Medication, []persistence.Medication, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Medication{}, nil, ErrNotFound
	}

	if id, err := strconv.ParseInt(token, 10, 64); err == nil {
		medication, err := s.Get(ctx, id)
		if err != nil {
			return persistence.Medication{}, nil, err
		}
		return medication, nil, nil
	}

	all, err := s.medications.ListMedications(ctx, persistence.DefaultPatientID, true)
	if err != nil {
		return persistence.Medication{}, nil, err
	}

	exact := matchByName(all, token, strings.EqualFold)
	if len(exact) == 1 {
		return exact[0], nil, nil
	}
	if len(exact) > 1 {
		return persistence.Medication{}, exact, &AmbiguousNameError{Token: token, Candidates: exact}
	}

	partial := matchByName(all, token, containsFold)
	switch len(partial) {
	case 0:
		return persistence.Medication{}, nil, fmt.Errorf("%w: %s", ErrNotFound, token)
	case 1:
		return partial[0], nil, nil
	default:
		return persistence.Medication{}, partial, &AmbiguousNameError{Token: token, Candidates: partial}
	}
}

// Search returns records whose name contains the query, case-insensitive.
func (s *MedicationService) Search(ctx context.Context, query string) ([]persistence.Medication, error) {
	all, err := s.medications.ListMedications(ctx, persistence.DefaultPatientID, true)
	if err != nil {
		return nil, err
	}
	return matchByName(all, strings.TrimSpace(query), containsFold), nil
}

// ListActive returns active records ordered by id.
func (s *MedicationService) ListActive(ctx context.Context) ([]persistence.Medication, error) {
	return s.medications.ListMedications(ctx, persistence.DefaultPatientID, false)
}

// ListAll returns every record, paused ones included.
func (s *MedicationService) ListAll(ctx context.Context) ([]persistence.Medication, error) {
	return s.medications.ListMedications(ctx, persistence.DefaultPatientID, true)
}

// Update persists caller supplied changes to an existing record.
func (s *MedicationService) Update(ctx context.Context, medication persistence.Medication) error {
	if err := s.medications.UpdateMedication(ctx, medication); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// Pause deactivates a record without discarding it.
func (s *MedicationService) Pause(ctx context.Context, id int64) error {
	return s.setActive(ctx, id, false)
}

// Reactivate re-enables a paused record.
func (s *MedicationService) Reactivate(ctx context.Context, id int64) error {
	return s.setActive(ctx, id, true)
}

func (s *MedicationService) setActive(ctx context.Context, id int64, active bool) error {
	medication, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	medication.Active = active
	return s.Update(ctx, medication)
}

// Remove deletes a record and releases its photo resource.
func (s *MedicationService) Remove(ctx context.Context, id int64) error {
	medication, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.medications.DeleteMedication(ctx, persistence.DefaultPatientID, id); err != nil {
		return mapRepoError(err)
	}
	s.releasePhoto(ctx, medication)
	return nil
}

// ClearAll removes every record and its photo. Destructive; callers must
// have collected an explicit confirmation.
func (s *MedicationService) ClearAll(ctx context.Context) (int, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	for _, medication := range all {
		if err := s.medications.DeleteMedication(ctx, persistence.DefaultPatientID, medication.ID); err != nil {
			return 0, mapRepoError(err)
		}
		s.releasePhoto(ctx, medication)
	}
	return len(all), nil
}

func (s *MedicationService) releasePhoto(ctx context.Context, medication persistence.Medication) {
	if s.photos == nil || medication.PhotoRef == nil {
		return
	}
	if err := s.photos.Remove(*medication.PhotoRef); err != nil {
		s.logger.WarnContext(ctx, "failed to release photo",
			"medication", medication.ID, "ref", *medication.PhotoRef, "error", err)
	}
}

// SleepWindow returns the configured sleep window, or the default when the
// profile has not been saved yet.
func (s *MedicationService) SleepWindow(ctx context.Context) (dosing.Window, error) {
	patient, err := s.patients.GetPatient(ctx, persistence.DefaultPatientID)
	if err != nil {
		if isNotFound(err) {
			return dosing.Window{Start: "23:00", End: "07:00"}, nil
		}
		return dosing.Window{}, err
	}
	return dosing.Window{Start: patient.SleepStart, End: patient.SleepEnd}, nil
}

// NextUpcoming scans active records for the earliest dose at or after now,
// honouring pending overrides. When nothing remains today the schedule wraps
// to the earliest entry overall and the result is flagged as tomorrow's.
func (s *MedicationService) NextUpcoming(ctx context.Context) (UpcomingDose, bool, error) {
	active, err := s.ListActive(ctx)
	if err != nil {
		return UpcomingDose{}, false, err
	}
	if len(active) == 0 {
		return UpcomingDose{}, false, nil
	}

	now := s.now().Format("15:04")
	var today, overall *UpcomingDose
	for _, medication := range active {
		for _, candidate := range candidateTimes(medication) {
			if overall == nil || candidate < overall.Time {
				overall = &UpcomingDose{Medication: medication, Time: candidate}
			}
			if candidate >= now && (today == nil || candidate < today.Time) {
				today = &UpcomingDose{Medication: medication, Time: candidate}
			}
		}
	}
	if today != nil {
		return *today, true, nil
	}
	if overall != nil {
		overall.Tomorrow = true
		return *overall, true, nil
	}
	return UpcomingDose{}, false, nil
}

// Export builds the read-only projection polled by external notifiers.
func (s *MedicationService) Export(ctx context.Context) (Agenda, error) {
	agenda := Agenda{}
	patient, err := s.patients.GetPatient(ctx, persistence.DefaultPatientID)
	if err == nil {
		agenda.PatientName = patient.Name
	} else if !isNotFound(err) {
		return Agenda{}, err
	}

	active, err := s.ListActive(ctx)
	if err != nil {
		return Agenda{}, err
	}

	now := s.now().Format("15:04")
	for _, medication := range active {
		times := append([]string(nil), medication.ScheduleTimes...)
		if medication.NextDoseOverride != nil && len(times) > 0 {
			times[nextIndex(times, now)] = *medication.NextDoseOverride
		}
		entry := AgendaEntry{
			ID:              medication.ID,
			Name:            medication.Name,
			DoseDescription: medication.DoseDescription,
			Times:           times,
			NextTime:        times[nextIndex(times, now)],
			Category:        medication.Category,
			Active:          medication.Active,
		}
		if medication.PhotoRef != nil {
			entry.PhotoRef = *medication.PhotoRef
		}
		agenda.Medications = append(agenda.Medications, entry)
	}
	return agenda, nil
}

// candidateTimes returns the times to consider for a record's next dose: the
// pending override replaces the whole schedule until consumed.
func candidateTimes(medication persistence.Medication) []string {
	if medication.NextDoseOverride != nil {
		return []string{*medication.NextDoseOverride}
	}
	return medication.ScheduleTimes
}

// nextIndex picks the slot of the earliest time at or after now, wrapping to
// the first slot when the day is exhausted. HH:MM strings order lexically.
func nextIndex(times []string, now string) int {
	best := -1
	for i, candidate := range times {
		if candidate < now {
			continue
		}
		if best == -1 || candidate < times[best] {
			best = i
		}
	}
	if best >= 0 {
		return best
	}
	earliest := 0
	for i, candidate := range times {
		if candidate < times[earliest] {
			earliest = i
		}
	}
	return earliest
}

func matchByName(medications []persistence.Medication, token string, match func(name, token string) bool) []persistence.Medication {
	var matched []persistence.Medication
	for _, medication := range medications {
		if match(medication.Name, token) {
			matched = append(matched, medication)
		}
	}
	return matched
}

func containsFold(name, token string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(token))
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrNotFound
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, persistence.ErrNotFound)
}
