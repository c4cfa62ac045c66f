// Package testfixtures provides deterministic fixtures, an in-memory
// persistence implementation and a controllable clock for tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/medication-assistant/internal/persistence"
)

var medicationCounter uint64

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// MedicationOption configures a generated medication fixture.
type MedicationOption func(*persistence.Medication)

// WithName overrides the fixture name.
func WithName(name string) MedicationOption {
	return func(m *persistence.Medication) { m.Name = name }
}

// WithTimes overrides the fixture schedule times.
func WithTimes(times ...string) MedicationOption {
	return func(m *persistence.Medication) { m.ScheduleTimes = times }
}

// WithInterval marks the fixture as fixed-interval with the given hours.
func WithInterval(hours int) MedicationOption {
	return func(m *persistence.Medication) {
		m.Mode = persistence.ModeFixedInterval
		m.IntervalHours = &hours
	}
}

// WithCategory overrides the fixture category.
func WithCategory(category string) MedicationOption {
	return func(m *persistence.Medication) { m.Category = category }
}

// Inactive marks the fixture as paused.
func Inactive() MedicationOption {
	return func(m *persistence.Medication) { m.Active = false }
}

// NewMedicationFixture returns a deterministic medication record with
// optional overrides. The record carries no id; repositories assign one.
func NewMedicationFixture(opts ...MedicationOption) persistence.Medication {
	idx := atomic.AddUint64(&medicationCounter, 1)
	medication := persistence.Medication{
		PatientID:       persistence.DefaultPatientID,
		Name:            fmt.Sprintf("Medication %03d", idx),
		DoseDescription: "1 comprimido de 50mg",
		ScheduleTimes:   []string{"08:00"},
		Mode:            persistence.ModeDailyDistributed,
		Category:        "normal",
		Active:          true,
	}
	for _, opt := range opts {
		opt(&medication)
	}
	return medication
}

// ConfirmedPatient returns a profile that passed the name gate, with the
// default sleep window.
func ConfirmedPatient(name string) persistence.Patient {
	return persistence.Patient{
		ID:         persistence.DefaultPatientID,
		Name:       name,
		Confirmed:  true,
		SleepStart: "23:00",
		SleepEnd:   "07:00",
	}
}
