package persistence

import "time"

// DefaultPatientID identifies the single patient the assistant manages.
// Supporting more patients only requires widening the callers' key.
const DefaultPatientID int64 = 1

// SchedulingMode selects the algorithm that produced a medication's times.
type SchedulingMode string

const (
	// ModeDailyDistributed spreads N doses across one calendar day.
	ModeDailyDistributed SchedulingMode = "daily-distributed"
	// ModeFixedInterval spaces doses by a constant hour interval.
	ModeFixedInterval SchedulingMode = "fixed-interval"
)

// Medication represents a registered medication and its dose schedule.
type Medication struct {
	ID               int64
	PatientID        int64
	Name             string
	DoseDescription  string
	ScheduleTimes    []string
	Mode             SchedulingMode
	IntervalHours    *int
	Category         string
	Active           bool
	Notes            string
	PhotoRef         *string
	NextDoseOverride *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DoseConfirmation records one confirmed dose. Rows are append only.
type DoseConfirmation struct {
	ID           int64
	MedicationID int64
	Scheduled    string
	Actual       string
	Date         string
	AdjustedNext *string
	CreatedAt    time.Time
}

// Patient holds the profile and sleep configuration for one patient.
type Patient struct {
	ID         int64
	Name       string
	Confirmed  bool
	SleepStart string
	SleepEnd   string
	UpdatedAt  time.Time
}

// ConversationSession is the durable per-patient dialog state. Scratch is an
// opaque JSON document owned by the conversation layer.
type ConversationSession struct {
	PatientID int64
	Flow      string
	Step      string
	Scratch   []byte
	UpdatedAt time.Time
}
