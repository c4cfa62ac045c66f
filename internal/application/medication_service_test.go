package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/medication-assistant/internal/testfixtures"
)

func newServiceForTest(t *testing.T, clock *testfixtures.Clock) (*MedicationService, *testfixtures.MemoryStore) {
	t.Helper()
	store := testfixtures.NewMemoryStore()
	if clock == nil {
		clock = testfixtures.NewClock(time.Time{})
	}
	service := NewMedicationService(store, store, nil, clock.NowFunc(), nil)
	return service, store
}

func TestMedicationServiceCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("assigns sequential ids", func(t *testing.T) {
		t.Parallel()
		service, _ := newServiceForTest(t, nil)

		first, err := service.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Losartana")))
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		second, err := service.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Dipirona")))
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if first.ID != 1 || second.ID != 2 {
			t.Fatalf("ids = %d, %d, want 1, 2", first.ID, second.ID)
		}
	})

	t.Run("rejects an active duplicate", func(t *testing.T) {
		t.Parallel()
		service, _ := newServiceForTest(t, nil)

		fixture := testfixtures.NewMedicationFixture(testfixtures.WithName("Losartana"), testfixtures.WithTimes("08:00", "20:00"))
		if _, err := service.Create(ctx, fixture); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		duplicate := testfixtures.NewMedicationFixture(testfixtures.WithName("losartana"), testfixtures.WithTimes("08:00", "20:00"))
		if _, err := service.Create(ctx, duplicate); !errors.Is(err, ErrDuplicateSchedule) {
			t.Fatalf("duplicate error = %v, want ErrDuplicateSchedule", err)
		}
	})

	t.Run("accepts the duplicate once the original is paused", func(t *testing.T) {
		t.Parallel()
		service, _ := newServiceForTest(t, nil)

		original, err := service.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Losartana"), testfixtures.WithTimes("08:00")))
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if err := service.Pause(ctx, original.ID); err != nil {
			t.Fatalf("Pause returned error: %v", err)
		}
		if _, err := service.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Losartana"), testfixtures.WithTimes("08:00"))); err != nil {
			t.Fatalf("Create after pause returned error: %v", err)
		}
	})
}

func TestMedicationServiceResolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	service, _ := newServiceForTest(t, nil)

	losartana, err := service.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Losartana"), testfixtures.WithTimes("08:00")))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := service.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Losartana"), testfixtures.WithTimes("20:00"))); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	dipirona, err := service.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Dipirona"), testfixtures.WithTimes("12:00")))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	t.Run("by numeric id", func(t *testing.T) {
		t.Parallel()
		found, _, err := service.Resolve(ctx, "3")
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if found.ID != dipirona.ID {
			t.Fatalf("resolved %d, want %d", found.ID, dipirona.ID)
		}
	})

	t.Run("by unique name", func(t *testing.T) {
		t.Parallel()
		found, _, err := service.Resolve(ctx, "dipirona")
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if found.ID != dipirona.ID {
			t.Fatalf("resolved %d, want %d", found.ID, dipirona.ID)
		}
	})

	t.Run("ambiguous name surfaces candidates", func(t *testing.T) {
		t.Parallel()
		_, candidates, err := service.Resolve(ctx, "Losartana")
		if !errors.Is(err, ErrAmbiguousName) {
			t.Fatalf("error = %v, want ErrAmbiguousName", err)
		}
		if len(candidates) != 2 {
			t.Fatalf("got %d candidates, want 2", len(candidates))
		}
		if candidates[0].ID != losartana.ID {
			t.Fatalf("first candidate = %d, want %d", candidates[0].ID, losartana.ID)
		}
		var ambiguous *AmbiguousNameError
		if !errors.As(err, &ambiguous) || len(ambiguous.Candidates) != 2 {
			t.Fatalf("error = %v, want AmbiguousNameError carrying both candidates", err)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()
		if _, _, err := service.Resolve(ctx, "Paracetamol"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestMedicationServiceNextUpcoming(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("earliest dose later today", func(t *testing.T) {
		t.Parallel()
		clock := testfixtures.NewClock(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))
		service, _ := newServiceForTest(t, clock)

		if _, err := service.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Losartana"), testfixtures.WithTimes("08:00", "16:00"))); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if _, err := service.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Dipirona"), testfixtures.WithTimes("12:00"))); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}

		upcoming, ok, err := service.NextUpcoming(ctx)
		if err != nil || !ok {
			t.Fatalf("NextUpcoming = (%v, %v), want a dose", ok, err)
		}
		if upcoming.Time != "12:00" || upcoming.Medication.Name != "Dipirona" || upcoming.Tomorrow {
			t.Fatalf("upcoming = %+v, want Dipirona at 12:00 today", upcoming)
		}
	})

	t.Run("wraps to tomorrow when the day is exhausted", func(t *testing.T) {
		t.Parallel()
		clock := testfixtures.NewClock(time.Date(2024, 1, 2, 22, 0, 0, 0, time.UTC))
		service, _ := newServiceForTest(t, clock)

		if _, err := service.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Losartana"), testfixtures.WithTimes("08:00", "16:00"))); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}

		upcoming, ok, err := service.NextUpcoming(ctx)
		if err != nil || !ok {
			t.Fatalf("NextUpcoming = (%v, %v), want a dose", ok, err)
		}
		if upcoming.Time != "08:00" || !upcoming.Tomorrow {
			t.Fatalf("upcoming = %+v, want 08:00 tomorrow", upcoming)
		}
	})

	t.Run("override replaces the regular schedule", func(t *testing.T) {
		t.Parallel()
		clock := testfixtures.NewClock(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))
		service, store := newServiceForTest(t, clock)

		created, err := service.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Amoxicilina"), testfixtures.WithTimes("12:00"), testfixtures.WithInterval(8)))
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		override := "18:00"
		created.NextDoseOverride = &override
		if err := store.UpdateMedication(ctx, created); err != nil {
			t.Fatalf("UpdateMedication returned error: %v", err)
		}

		upcoming, ok, err := service.NextUpcoming(ctx)
		if err != nil || !ok {
			t.Fatalf("NextUpcoming = (%v, %v), want a dose", ok, err)
		}
		if upcoming.Time != "18:00" {
			t.Fatalf("upcoming time = %q, want the 18:00 override", upcoming.Time)
		}
	})
}

func TestMedicationServiceExport(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := testfixtures.NewClock(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))
	service, store := newServiceForTest(t, clock)

	if err := store.SavePatient(ctx, testfixtures.ConfirmedPatient("Dona Maria")); err != nil {
		t.Fatalf("SavePatient returned error: %v", err)
	}
	created, err := service.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Amoxicilina"), testfixtures.WithTimes("08:00", "16:00"), testfixtures.WithInterval(8)))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	override := "17:30"
	created.NextDoseOverride = &override
	if err := store.UpdateMedication(ctx, created); err != nil {
		t.Fatalf("UpdateMedication returned error: %v", err)
	}
	if _, err := service.Create(ctx, testfixtures.NewMedicationFixture(testfixtures.WithName("Pausado"), testfixtures.Inactive())); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	agenda, err := service.Export(ctx)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if agenda.PatientName != "Dona Maria" {
		t.Fatalf("patient name = %q, want Dona Maria", agenda.PatientName)
	}
	if len(agenda.Medications) != 1 {
		t.Fatalf("exported %d medications, want only the active one", len(agenda.Medications))
	}
	entry := agenda.Medications[0]
	// The override replaces the next occurrence after 10:00, i.e. the 16:00 slot.
	if entry.Times[0] != "08:00" || entry.Times[1] != "17:30" {
		t.Fatalf("times = %v, want [08:00 17:30]", entry.Times)
	}
	if entry.NextTime != "17:30" {
		t.Fatalf("next time = %q, want 17:30", entry.NextTime)
	}
}

func TestMedicationServiceRemoveReleasesPhoto(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := testfixtures.NewMemoryStore()
	released := make([]string, 0, 1)
	service := NewMedicationService(store, store, photoReleaserFunc(func(ref string) error {
		released = append(released, ref)
		return nil
	}), nil, nil)

	fixture := testfixtures.NewMedicationFixture(testfixtures.WithName("Losartana"))
	ref := "photo-1.jpg"
	fixture.PhotoRef = &ref
	created, err := service.Create(ctx, fixture)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := service.Remove(ctx, created.ID); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if len(released) != 1 || released[0] != "photo-1.jpg" {
		t.Fatalf("released = %v, want [photo-1.jpg]", released)
	}
	if _, err := service.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after remove error = %v, want ErrNotFound", err)
	}
}

type photoReleaserFunc func(ref string) error

func (f photoReleaserFunc) Remove(ref string) error { return f(ref) }
