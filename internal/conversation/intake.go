package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/medication-assistant/internal/application"
	"github.com/example/medication-assistant/internal/dosing"
	"github.com/example/medication-assistant/internal/persistence"
)

// promptForStep returns the question that opens each intake step.
func promptForStep(step Step) string {
	switch step {
	case stepMedName:
		return promptAskMedName
	case stepDose:
		return promptAskDose
	case stepForm:
		return promptAskForm
	case stepQuantity:
		return promptAskQuantity
	case stepFirstTime:
		return promptAskFirstTime
	case stepMode:
		return promptAskMode
	case stepCount:
		return promptAskCount
	case stepInterval:
		return promptAskInterval
	case stepTotalDoses:
		return promptAskTotalDoses
	case stepCategory:
		return promptAskCategory
	case stepNotes:
		return promptAskNotes
	case stepPhoto:
		return promptAskPhoto
	default:
		return ""
	}
}

// advanceIntake moves the session to whatever field is still missing and
// returns its prompt, or the review summary once everything is collected.
func advanceIntake(s *session) string {
	s.step = firstMissingStep(s.scratch)
	if s.step == stepReview {
		return reviewSummary(s.scratch)
	}
	return promptForStep(s.step)
}

// handleIntake runs one turn of the guided registration flow. Invalid input
// keeps the session in the same step with a corrective prompt.
func (e *Engine) handleIntake(ctx context.Context, s *session, input string) (string, error) {
	trimmed := strings.TrimSpace(input)

	switch s.step {
	case stepMedName:
		if trimmed == "" {
			return promptAskMedName, nil
		}
		s.scratch.MedName = trimmed

	case stepDose:
		if trimmed == "" {
			return promptAskDose, nil
		}
		s.scratch.Dose = trimmed

	case stepForm:
		label, ok := formLabel(trimmed)
		if !ok {
			return promptInvalidOption + "\n\n" + promptAskForm, nil
		}
		s.scratch.Form = label

	case stepQuantity:
		if trimmed == "" {
			return promptAskQuantity, nil
		}
		s.scratch.Quantity = trimmed

	case stepFirstTime:
		value, err := parseTimeOfDay(trimmed)
		if err != nil {
			return promptInvalidTime, nil
		}
		s.scratch.FirstTime = value

	case stepMode:
		switch normalize(trimmed) {
		case "1", "dia", "vezes ao dia", "distribuir":
			s.scratch.Mode = modeDaily
		case "2", "intervalo", "cada", "a cada":
			s.scratch.Mode = modeInterval
		default:
			return promptInvalidOption + "\n\n" + promptAskMode, nil
		}

	case stepCount:
		count, err := parseBounded(trimmed, 1, dosing.MaxDailyCount)
		if err != nil {
			return promptInvalidNumber + "\n\n" + promptAskCount, nil
		}
		s.scratch.CountPerDay = count

	case stepInterval:
		hours, err := parseBounded(trimmed, 1, dosing.MaxIntervalHours)
		if err != nil {
			return promptInvalidNumber + "\n\n" + promptAskInterval, nil
		}
		s.scratch.IntervalHours = hours

	case stepTotalDoses:
		total, err := parseBounded(trimmed, 1, dosing.MaxTotalDoses)
		if err != nil {
			return promptInvalidNumber + "\n\n" + promptAskTotalDoses, nil
		}
		s.scratch.TotalDoses = total

	case stepCategory:
		switch normalize(trimmed) {
		case "1", "essencial":
			s.scratch.Category = "essencial"
		case "2", "normal":
			s.scratch.Category = "normal"
		default:
			return promptInvalidOption + "\n\n" + promptAskCategory, nil
		}

	case stepNotes:
		if !isNegative(trimmed) {
			s.scratch.Notes = trimmed
		}
		s.scratch.NotesDone = true

	case stepPhoto:
		if !isNegative(trimmed) {
			s.scratch.PhotoRef = trimmed
		}
		s.scratch.PhotoDone = true

	case stepReview:
		return e.handleReview(ctx, s, trimmed)

	default:
		return "", ErrSessionState
	}

	return advanceIntake(s), nil
}

// handleReview accepts the final confirmation or reopens a single field.
func (e *Engine) handleReview(ctx context.Context, s *session, input string) (string, error) {
	if isAffirmative(input) {
		reply, err := e.commitIntake(ctx, s.scratch)
		if errors.Is(err, dosing.ErrOutOfRange) || errors.Is(err, dosing.ErrInvalidTimeFormat) {
			return promptReviewRejected + "\n\n" + reviewSummary(s.scratch), nil
		}
		if err != nil {
			return "", err
		}
		s.flow = ""
		return reply, nil
	}

	word, rest, _ := strings.Cut(normalize(input), " ")
	if word == "editar" {
		if reopenField(&s.scratch, strings.TrimSpace(rest)) {
			return advanceIntake(s), nil
		}
		return promptInvalidOption + "\n\n" + reviewSummary(s.scratch), nil
	}
	return promptInvalidOption + "\n\n" + reviewSummary(s.scratch), nil
}

// reopenField clears the numbered field so the machine re-prompts for it.
// The numbers follow the review summary.
func reopenField(sc *scratch, number string) bool {
	switch number {
	case "1":
		sc.MedName = ""
	case "2":
		sc.Dose = ""
	case "3":
		sc.Form = ""
	case "4":
		sc.Quantity = ""
	case "5":
		sc.FirstTime = ""
	case "6":
		sc.Mode = ""
		sc.CountPerDay = 0
		sc.IntervalHours = 0
		sc.TotalDoses = 0
	case "7":
		sc.Category = ""
	case "8":
		sc.Notes = ""
		sc.NotesDone = false
	case "9":
		sc.PhotoRef = ""
		sc.PhotoDone = false
	default:
		return false
	}
	return true
}

// commitIntake runs the calculator over the collected fields and stores the
// record. A duplicate rejection still ends the session.
func (e *Engine) commitIntake(ctx context.Context, sc scratch) (string, error) {
	window, err := e.medications.SleepWindow(ctx)
	if err != nil {
		return "", err
	}
	category := dosing.CategoryNormal
	if sc.Category == "essencial" {
		category = dosing.CategoryEssential
	}

	medication := persistence.Medication{
		Name:            sc.MedName,
		DoseDescription: composeDoseDescription(sc),
		Category:        sc.Category,
		Active:          true,
		Notes:           sc.Notes,
	}
	if sc.PhotoRef != "" {
		ref := sc.PhotoRef
		medication.PhotoRef = &ref
	}

	var conflicts []dosing.Conflict
	if sc.Mode == modeInterval {
		plan, err := dosing.ExpandFixedInterval(sc.FirstTime, sc.IntervalHours, sc.TotalDoses, window, category)
		if err != nil {
			return "", err
		}
		medication.Mode = persistence.ModeFixedInterval
		medication.ScheduleTimes = uniqueDoseTimes(plan.Doses)
		hours := sc.IntervalHours
		medication.IntervalHours = &hours
		conflicts = plan.Conflicts
	} else {
		plan, err := dosing.DistributeDaily(sc.FirstTime, sc.CountPerDay, window, category)
		if err != nil {
			return "", err
		}
		medication.Mode = persistence.ModeDailyDistributed
		medication.ScheduleTimes = plan.Times
		if sc.CountPerDay == 1 {
			hours := 24
			medication.IntervalHours = &hours
		}
		conflicts = plan.Conflicts
	}

	created, err := e.medications.Create(ctx, medication)
	if err != nil {
		if errors.Is(err, application.ErrDuplicateSchedule) {
			return duplicateMessage(medication.Name), nil
		}
		return "", err
	}
	return committedMessage(created, conflicts), nil
}

// quickRegisterMedication is the "Nome HH:MM dose" shortcut. It stores the
// time verbatim; only the guided flow applies sleep-window avoidance.
func (e *Engine) quickRegisterMedication(ctx context.Context, quick quickRegister) (string, error) {
	if _, err := dosing.ToMinutes(quick.Time); err != nil {
		return promptInvalidTime, nil
	}
	created, err := e.medications.Create(ctx, persistence.Medication{
		Name:            quick.Name,
		DoseDescription: quick.Dose,
		ScheduleTimes:   []string{quick.Time},
		Mode:            persistence.ModeDailyDistributed,
		Category:        "normal",
		Active:          true,
	})
	if err != nil {
		if errors.Is(err, application.ErrDuplicateSchedule) {
			return duplicateMessage(quick.Name), nil
		}
		return "", err
	}
	return quickRegistered(created), nil
}

func composeDoseDescription(sc scratch) string {
	return fmt.Sprintf("%s %s de %s", sc.Quantity, sc.Form, sc.Dose)
}

func uniqueDoseTimes(doses []dosing.Dose) []string {
	seen := make(map[string]bool, len(doses))
	var times []string
	for _, dose := range doses {
		if seen[dose.Time] {
			continue
		}
		seen[dose.Time] = true
		times = append(times, dose.Time)
	}
	return times
}

func parseTimeOfDay(input string) (string, error) {
	value := normalizeTime(input)
	if _, err := dosing.ToMinutes(value); err != nil {
		return "", err
	}
	return value, nil
}

func parseBounded(input string, min, max int) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, err
	}
	if value < min || value > max {
		return 0, fmt.Errorf("conversation: %d outside [%d,%d]", value, min, max)
	}
	return value, nil
}
