package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/medication-assistant/internal/dosing"
	"github.com/example/medication-assistant/internal/testfixtures"
)

func TestConfirmationServiceConfirm(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func(t *testing.T, interval int) (*ConfirmationService, *MedicationService) {
		t.Helper()
		clock := testfixtures.NewClock(testfixtures.ReferenceTime())
		medications, _ := newServiceForTest(t, clock)
		opts := []testfixtures.MedicationOption{
			testfixtures.WithName("Amoxicilina"),
			testfixtures.WithTimes("06:00", "12:00", "18:00"),
		}
		if interval > 0 {
			opts = append(opts, testfixtures.WithInterval(interval))
		}
		if _, err := medications.Create(ctx, testfixtures.NewMedicationFixture(opts...)); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		return NewConfirmationService(medications, clock.NowFunc(), nil), medications
	}

	t.Run("late confirmation shifts the next dose", func(t *testing.T) {
		t.Parallel()
		service, medications := setup(t, 6)

		result, err := service.Confirm(ctx, ConfirmDoseParams{
			MedicationName: "Amoxicilina",
			Scheduled:      "06:00",
			Actual:         "10:00",
		})
		if err != nil {
			t.Fatalf("Confirm returned error: %v", err)
		}
		if result.AdjustedNext == nil || *result.AdjustedNext != "16:00" {
			t.Fatalf("adjusted next = %v, want 16:00", result.AdjustedNext)
		}
		if result.Confirmation.AdjustedNext == nil || *result.Confirmation.AdjustedNext != "16:00" {
			t.Fatalf("history entry adjusted next = %v, want 16:00", result.Confirmation.AdjustedNext)
		}

		stored, err := medications.Get(ctx, result.Medication.ID)
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if stored.NextDoseOverride == nil || *stored.NextDoseOverride != "16:00" {
			t.Fatalf("stored override = %v, want 16:00", stored.NextDoseOverride)
		}
	})

	t.Run("no override when the next dose falls past midnight", func(t *testing.T) {
		t.Parallel()
		service, medications := setup(t, 6)

		result, err := service.Confirm(ctx, ConfirmDoseParams{
			MedicationName: "Amoxicilina",
			Scheduled:      "18:00",
			Actual:         "20:00",
		})
		if err != nil {
			t.Fatalf("Confirm returned error: %v", err)
		}
		if result.AdjustedNext != nil {
			t.Fatalf("adjusted next = %q, want none", *result.AdjustedNext)
		}

		stored, err := medications.Get(ctx, result.Medication.ID)
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if stored.NextDoseOverride != nil {
			t.Fatalf("stored override = %q, want cleared", *stored.NextDoseOverride)
		}
	})

	t.Run("confirmation clears a previous override", func(t *testing.T) {
		t.Parallel()
		service, medications := setup(t, 6)

		if _, err := service.Confirm(ctx, ConfirmDoseParams{
			MedicationName: "Amoxicilina", Scheduled: "06:00", Actual: "10:00",
		}); err != nil {
			t.Fatalf("Confirm returned error: %v", err)
		}
		result, err := service.Confirm(ctx, ConfirmDoseParams{
			MedicationName: "Amoxicilina", Scheduled: "18:00", Actual: "20:00",
		})
		if err != nil {
			t.Fatalf("Confirm returned error: %v", err)
		}

		stored, err := medications.Get(ctx, result.Medication.ID)
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if stored.NextDoseOverride != nil {
			t.Fatalf("stored override = %q, want cleared", *stored.NextDoseOverride)
		}
	})

	t.Run("daily medications never get an override", func(t *testing.T) {
		t.Parallel()
		service, medications := setup(t, 0)

		result, err := service.Confirm(ctx, ConfirmDoseParams{
			MedicationName: "Amoxicilina", Scheduled: "06:00", Actual: "11:00",
		})
		if err != nil {
			t.Fatalf("Confirm returned error: %v", err)
		}
		if result.AdjustedNext != nil {
			t.Fatalf("adjusted next = %q, want none", *result.AdjustedNext)
		}

		stored, err := medications.Get(ctx, result.Medication.ID)
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if stored.NextDoseOverride != nil {
			t.Fatalf("stored override = %q, want none", *stored.NextDoseOverride)
		}
	})

	t.Run("defaults the date to today", func(t *testing.T) {
		t.Parallel()
		service, _ := setup(t, 6)

		result, err := service.Confirm(ctx, ConfirmDoseParams{
			MedicationName: "Amoxicilina", Scheduled: "06:00", Actual: "06:10",
		})
		if err != nil {
			t.Fatalf("Confirm returned error: %v", err)
		}
		want := testfixtures.ReferenceTime().Format("2006-01-02")
		if result.Confirmation.Date != want {
			t.Fatalf("date = %q, want %q", result.Confirmation.Date, want)
		}
	})

	t.Run("rejects a malformed actual time", func(t *testing.T) {
		t.Parallel()
		service, _ := setup(t, 6)

		_, err := service.Confirm(ctx, ConfirmDoseParams{
			MedicationName: "Amoxicilina", Scheduled: "06:00", Actual: "25h00",
		})
		if !errors.Is(err, dosing.ErrInvalidTimeFormat) {
			t.Fatalf("error = %v, want ErrInvalidTimeFormat", err)
		}
	})

	t.Run("unknown medication", func(t *testing.T) {
		t.Parallel()
		service, _ := setup(t, 6)

		_, err := service.Confirm(ctx, ConfirmDoseParams{
			MedicationName: "Paracetamol", Scheduled: "06:00", Actual: "06:00",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestConfirmationServiceHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	medications, _ := newServiceForTest(t, clock)
	if _, err := medications.Create(ctx, testfixtures.NewMedicationFixture(
		testfixtures.WithName("Amoxicilina"), testfixtures.WithTimes("06:00"), testfixtures.WithInterval(6))); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	service := NewConfirmationService(medications, clock.NowFunc(), nil)

	actuals := []string{"06:05", "12:30", "18:00"}
	for _, actual := range actuals {
		if _, err := service.Confirm(ctx, ConfirmDoseParams{
			MedicationName: "Amoxicilina", Scheduled: "06:00", Actual: actual,
		}); err != nil {
			t.Fatalf("Confirm returned error: %v", err)
		}
		clock.Advance(time.Minute)
	}

	history, err := service.History(ctx, 2)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d entries, want 2", len(history))
	}
	// Oldest first among the most recent two.
	if history[0].Actual != "12:30" || history[1].Actual != "18:00" {
		t.Fatalf("history = [%s %s], want [12:30 18:00]", history[0].Actual, history[1].Actual)
	}
}
