package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/medication-assistant/internal/application"
	"github.com/example/medication-assistant/internal/persistence"
)

// handleName collects and confirms the patient name. Every input funnels
// here until the profile is confirmed.
func (e *Engine) handleName(ctx context.Context, s *session, input string) (string, error) {
	switch s.step {
	case stepAskName:
		name := strings.TrimSpace(input)
		if name == "" {
			return promptAskPatientName, nil
		}
		s.scratch.PendingName = name
		s.step = stepConfirmName
		return confirmPatientName(name), nil

	case stepConfirmName:
		if isAffirmative(input) {
			name := s.scratch.PendingName
			if err := e.patients.SavePatient(ctx, persistence.Patient{
				ID:         persistence.DefaultPatientID,
				Name:       name,
				Confirmed:  true,
				SleepStart: defaultSleepStart,
				SleepEnd:   defaultSleepEnd,
			}); err != nil {
				return "", err
			}
			s.flow = ""
			return patientReady(name), nil
		}
		if isNegative(input) {
			s.scratch.PendingName = ""
			s.step = stepAskName
			return promptAskPatientName, nil
		}
		return confirmPatientName(s.scratch.PendingName), nil

	default:
		return "", ErrSessionState
	}
}

const (
	defaultSleepStart = "23:00"
	defaultSleepEnd   = "07:00"
)

// handleSleep collects the sleep window and stores it on the profile.
func (e *Engine) handleSleep(ctx context.Context, s *session, input string) (string, error) {
	switch s.step {
	case stepSleepStart:
		value, err := parseTimeOfDay(input)
		if err != nil {
			return promptInvalidTime, nil
		}
		s.scratch.SleepStart = value
		s.step = stepSleepEnd
		return promptAskSleepEnd, nil

	case stepSleepEnd:
		value, err := parseTimeOfDay(input)
		if err != nil {
			return promptInvalidTime, nil
		}
		patient, err := e.patients.GetPatient(ctx, persistence.DefaultPatientID)
		if err != nil {
			return "", err
		}
		patient.SleepStart = s.scratch.SleepStart
		patient.SleepEnd = value
		if err := e.patients.SavePatient(ctx, patient); err != nil {
			return "", err
		}
		s.flow = ""
		return fmt.Sprintf("Horario de sono configurado: %s as %s. Doses de medicamentos normais nao serao marcadas nesse periodo.",
			patient.SleepStart, patient.SleepEnd), nil

	default:
		return "", ErrSessionState
	}
}

// handleFreeText runs the extractor over one description and resumes the
// guided intake at the first field it could not fill.
func (e *Engine) handleFreeText(ctx context.Context, s *session, input string) (string, error) {
	if s.step != stepAwaitText {
		return "", ErrSessionState
	}
	s.scratch = extractFields(input)
	s.flow = FlowIntake
	return advanceIntake(s), nil
}

// handleSearch answers one search term and ends.
func (e *Engine) handleSearch(ctx context.Context, s *session, input string) (string, error) {
	if s.step != stepAwaitText {
		return "", ErrSessionState
	}
	s.flow = ""
	return e.searchMedications(ctx, input)
}

func (e *Engine) searchMedications(ctx context.Context, term string) (string, error) {
	term = strings.TrimSpace(term)
	matches, err := e.medications.Search(ctx, term)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return notFoundMessage(term), nil
	}
	return listMessage(matches), nil
}

// handlePause resolves a target and toggles its active flag.
func (e *Engine) handlePause(ctx context.Context, s *session, input string) (string, error) {
	if s.step != stepPickTarget {
		return "", ErrSessionState
	}
	medication, reply, err := e.resolveTarget(ctx, input)
	if err != nil || reply != "" {
		return reply, err
	}
	s.flow = ""
	return e.toggleActive(ctx, medication)
}

func (e *Engine) toggleActive(ctx context.Context, medication persistence.Medication) (string, error) {
	if medication.Active {
		if err := e.medications.Pause(ctx, medication.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s pausado. Os alarmes ficam suspensos ate voce reativar.", medication.Name), nil
	}
	if err := e.medications.Reactivate(ctx, medication.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s reativado. Os alarmes voltam a tocar nos horarios cadastrados.", medication.Name), nil
}

// handleRemove asks for an explicit confirmation before deleting.
func (e *Engine) handleRemove(ctx context.Context, s *session, input string) (string, error) {
	switch s.step {
	case stepPickTarget:
		medication, reply, err := e.resolveTarget(ctx, input)
		if err != nil || reply != "" {
			return reply, err
		}
		s.scratch.TargetID = medication.ID
		s.step = stepConfirm
		return fmt.Sprintf("Remover %s definitivamente? Digite \"sim\" para confirmar.", medication.Name), nil

	case stepConfirm:
		if !isAffirmative(input) {
			s.flow = ""
			return promptCancelled, nil
		}
		medication, err := e.medications.Get(ctx, s.scratch.TargetID)
		if err != nil {
			return "", err
		}
		if err := e.medications.Remove(ctx, medication.ID); err != nil {
			return "", err
		}
		s.flow = ""
		return fmt.Sprintf("%s removido.", medication.Name), nil

	default:
		return "", ErrSessionState
	}
}

// editFields maps the edit menu digits to the mutable record fields.
var editFields = map[string]string{
	"1": "nome",
	"2": "dose",
	"3": "horarios",
	"4": "categoria",
	"5": "observacoes",
}

// handleEdit picks a target, a field and a new value, then applies the edit.
func (e *Engine) handleEdit(ctx context.Context, s *session, input string) (string, error) {
	switch s.step {
	case stepPickTarget:
		medication, reply, err := e.resolveTarget(ctx, input)
		if err != nil || reply != "" {
			return reply, err
		}
		s.scratch.TargetID = medication.ID
		s.step = stepPickField
		return promptAskEditField, nil

	case stepPickField:
		field, ok := editFields[normalize(input)]
		if !ok {
			return promptInvalidOption + "\n\n" + promptAskEditField, nil
		}
		s.scratch.EditField = field
		s.step = stepNewValue
		return editValuePrompt(field), nil

	case stepNewValue:
		return e.applyEdit(ctx, s, input)

	default:
		return "", ErrSessionState
	}
}

func editValuePrompt(field string) string {
	switch field {
	case "nome":
		return "Qual o novo nome?"
	case "dose":
		return "Qual a nova dosagem?"
	case "horarios":
		return "Quais os novos horarios? Separe por virgula, por exemplo: 08:00, 20:00."
	case "categoria":
		return promptAskCategory
	case "observacoes":
		return "Qual a nova observacao? Digite \"nao\" para limpar."
	default:
		return promptInvalidOption
	}
}

func (e *Engine) applyEdit(ctx context.Context, s *session, input string) (string, error) {
	medication, err := e.medications.Get(ctx, s.scratch.TargetID)
	if err != nil {
		return "", err
	}
	trimmed := strings.TrimSpace(input)

	switch s.scratch.EditField {
	case "nome":
		if trimmed == "" {
			return editValuePrompt("nome"), nil
		}
		medication.Name = trimmed
	case "dose":
		if trimmed == "" {
			return editValuePrompt("dose"), nil
		}
		medication.DoseDescription = trimmed
	case "horarios":
		times, err := parseTimeList(trimmed)
		if err != nil {
			return promptInvalidTime, nil
		}
		medication.ScheduleTimes = times
		medication.NextDoseOverride = nil
	case "categoria":
		switch normalize(trimmed) {
		case "1", "essencial":
			medication.Category = "essencial"
		case "2", "normal":
			medication.Category = "normal"
		default:
			return promptInvalidOption + "\n\n" + promptAskCategory, nil
		}
	case "observacoes":
		if isNegative(trimmed) {
			medication.Notes = ""
		} else {
			medication.Notes = trimmed
		}
	default:
		return "", ErrSessionState
	}

	if err := e.medications.Update(ctx, medication); err != nil {
		return "", err
	}
	s.flow = ""
	return fmt.Sprintf("%s atualizado.\n%s", medication.Name, medicationLine(medication)), nil
}

// handleClear deletes everything after an explicit "sim".
func (e *Engine) handleClear(ctx context.Context, s *session, input string) (string, error) {
	if s.step != stepConfirm {
		return "", ErrSessionState
	}
	s.flow = ""
	if !isAffirmative(input) {
		return promptCancelled, nil
	}
	removed, err := e.medications.ClearAll(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Pronto, %d medicamento(s) removido(s).", removed), nil
}

// resolveTarget maps a typed token to one record. An empty reply with a zero
// error means the target was resolved; otherwise the caller relays the reply
// and stays in the same step.
func (e *Engine) resolveTarget(ctx context.Context, token string) (persistence.Medication, string, error) {
	token = strings.TrimSpace(token)
	medication, candidates, err := e.medications.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, application.ErrAmbiguousName) {
			return persistence.Medication{}, ambiguousMessage(candidates), nil
		}
		if errors.Is(err, application.ErrNotFound) {
			return persistence.Medication{}, notFoundMessage(token), nil
		}
		return persistence.Medication{}, "", err
	}
	return medication, "", nil
}

func parseTimeList(input string) ([]string, error) {
	parts := strings.Split(input, ",")
	times := make([]string, 0, len(parts))
	for _, part := range parts {
		value, err := parseTimeOfDay(part)
		if err != nil {
			return nil, err
		}
		times = append(times, value)
	}
	if len(times) == 0 {
		return nil, errors.New("conversation: empty time list")
	}
	return times, nil
}
