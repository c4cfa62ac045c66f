package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/medication-assistant/internal/dosing"
	"github.com/example/medication-assistant/internal/persistence"
)

// reconcilableBelow is the interval bound above which a late confirmation
// never produces a same-day override.
const reconcilableBelow = 24

// ConfirmDoseParams carries one confirmation event from the bracelet or any
// other notifier.
type ConfirmDoseParams struct {
	MedicationName string
	Scheduled      string
	Actual         string
	// Date is the calendar day of the confirmation; today when empty.
	Date string
}

// ConfirmDoseResult reports the appended history entry and the adjusted next
// dose, when one was computed.
type ConfirmDoseResult struct {
	Medication   persistence.Medication
	Confirmation persistence.DoseConfirmation
	AdjustedNext *string
}

// ConfirmationService appends dose confirmations and repairs the schedule of
// fixed-interval medications confirmed late.
type ConfirmationService struct {
	medications *MedicationService
	now         func() time.Time
	logger      *slog.Logger
}

// NewConfirmationService wires dependencies for confirmation handling.
func NewConfirmationService(medications *MedicationService, now func() time.Time, logger *slog.Logger) *ConfirmationService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfirmationService{medications: medications, now: now, logger: logger}
}

// Confirm records the dose and, for interval-driven medications, computes the
// one-shot override for the next occurrence. At most one override is held per
// record: each confirmation cycle replaces or clears the previous one.
func (s *ConfirmationService) Confirm(ctx context.Context, params ConfirmDoseParams) (ConfirmDoseResult, error) {
	if _, err := dosing.ToMinutes(params.Actual); err != nil {
		return ConfirmDoseResult{}, err
	}

	medication, _, err := s.medications.Resolve(ctx, params.MedicationName)
	if err != nil {
		return ConfirmDoseResult{}, err
	}

	var adjusted *string
	if medication.IntervalHours != nil && *medication.IntervalHours < reconcilableBelow {
		next, ok, err := dosing.NextDoseAfter(params.Actual, *medication.IntervalHours)
		if err != nil {
			return ConfirmDoseResult{}, err
		}
		if ok {
			adjusted = &next
		}
	}

	date := params.Date
	if date == "" {
		date = s.now().Format("2006-01-02")
	}

	confirmation, err := s.medications.medications.AppendConfirmation(ctx, persistence.DoseConfirmation{
		MedicationID: medication.ID,
		Scheduled:    params.Scheduled,
		Actual:       params.Actual,
		Date:         date,
		AdjustedNext: adjusted,
	})
	if err != nil {
		return ConfirmDoseResult{}, err
	}

	medication.NextDoseOverride = adjusted
	if err := s.medications.Update(ctx, medication); err != nil {
		return ConfirmDoseResult{}, err
	}

	s.logger.InfoContext(ctx, "dose confirmed",
		"medication", medication.ID, "scheduled", params.Scheduled, "actual", params.Actual,
		"adjusted_next", adjusted)

	return ConfirmDoseResult{
		Medication:   medication,
		Confirmation: confirmation,
		AdjustedNext: adjusted,
	}, nil
}

// History returns the most recent confirmations, oldest first.
func (s *ConfirmationService) History(ctx context.Context, limit int) ([]persistence.DoseConfirmation, error) {
	return s.medications.medications.ListConfirmations(ctx, persistence.DefaultPatientID, limit)
}
