package conversation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/example/medication-assistant/internal/application"
	"github.com/example/medication-assistant/internal/persistence"
)

// Engine runs one conversation turn at a time. Turns are serialized by a
// mutex; each turn loads the session, mutates it and saves it back, so two
// interleaved turns can never lose each other's state.
type Engine struct {
	mu            sync.Mutex
	medications   *application.MedicationService
	confirmations *application.ConfirmationService
	patients      persistence.PatientRepository
	sessions      persistence.SessionRepository
	now           func() time.Time
	logger        *slog.Logger
}

// NewEngine wires the conversation over the application services.
func NewEngine(
	medications *application.MedicationService,
	confirmations *application.ConfirmationService,
	patients persistence.PatientRepository,
	sessions persistence.SessionRepository,
	now func() time.Time,
	logger *slog.Logger,
) *Engine {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		medications:   medications,
		confirmations: confirmations,
		patients:      patients,
		sessions:      sessions,
		now:           now,
		logger:        logger,
	}
}

// HandleTurn processes one utterance and returns the reply. Validation
// problems become corrective prompts; only storage failures surface as
// errors, with the session left unchanged so the turn can be retried.
func (e *Engine) HandleTurn(ctx context.Context, utterance string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.loadSession(ctx)
	if err != nil {
		if !errors.Is(err, ErrSessionState) {
			return "", err
		}
		if err := e.sessions.ClearSession(ctx, persistence.DefaultPatientID); err != nil {
			return "", err
		}
		s = session{}
		e.logger.WarnContext(ctx, "conversation state reset")
	}

	reply, err := e.dispatch(ctx, &s, utterance)
	if errors.Is(err, ErrSessionState) {
		if clearErr := e.sessions.ClearSession(ctx, persistence.DefaultPatientID); clearErr != nil {
			return "", clearErr
		}
		e.logger.WarnContext(ctx, "conversation state reset", "flow", s.flow, "step", s.step)
		return promptSessionReset + "\n\n" + promptMenu, nil
	}
	if err != nil {
		return "", err
	}

	if err := e.storeSession(ctx, s); err != nil {
		return "", err
	}
	return reply, nil
}

func (e *Engine) loadSession(ctx context.Context) (session, error) {
	record, err := e.sessions.GetSession(ctx, persistence.DefaultPatientID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return session{}, nil
		}
		return session{}, err
	}
	return decodeSession(record)
}

func (e *Engine) storeSession(ctx context.Context, s session) error {
	if !s.active() {
		return e.sessions.ClearSession(ctx, persistence.DefaultPatientID)
	}
	record, err := encodeSession(persistence.DefaultPatientID, s)
	if err != nil {
		return err
	}
	return e.sessions.SaveSession(ctx, record)
}

func (e *Engine) dispatch(ctx context.Context, s *session, utterance string) (string, error) {
	confirmed, err := e.patientConfirmed(ctx)
	if err != nil {
		return "", err
	}
	if !confirmed {
		// Nothing else is accepted until the profile exists.
		if s.flow != FlowName {
			*s = session{flow: FlowName, step: stepAskName}
			return promptAskPatientName, nil
		}
		return e.handleName(ctx, s, utterance)
	}

	if s.active() {
		if isCancel(utterance) {
			*s = session{}
			if normalize(utterance) == "menu" {
				return promptCancelled + "\n\n" + promptMenu, nil
			}
			return promptCancelled, nil
		}
		return e.dispatchFlow(ctx, s, utterance)
	}
	return e.dispatchCommand(ctx, s, utterance)
}

func (e *Engine) patientConfirmed(ctx context.Context) (bool, error) {
	patient, err := e.patients.GetPatient(ctx, persistence.DefaultPatientID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return patient.Confirmed, nil
}

func (e *Engine) dispatchFlow(ctx context.Context, s *session, utterance string) (string, error) {
	switch s.flow {
	case FlowName:
		return e.handleName(ctx, s, utterance)
	case FlowIntake:
		return e.handleIntake(ctx, s, utterance)
	case FlowFreeText:
		return e.handleFreeText(ctx, s, utterance)
	case FlowEdit:
		return e.handleEdit(ctx, s, utterance)
	case FlowRemove:
		return e.handleRemove(ctx, s, utterance)
	case FlowPause:
		return e.handlePause(ctx, s, utterance)
	case FlowSleep:
		return e.handleSleep(ctx, s, utterance)
	case FlowSearch:
		return e.handleSearch(ctx, s, utterance)
	case FlowClear:
		return e.handleClear(ctx, s, utterance)
	default:
		return "", ErrSessionState
	}
}

func (e *Engine) dispatchCommand(ctx context.Context, s *session, utterance string) (string, error) {
	cmd := route(utterance)
	switch cmd.kind {
	case cmdMenu:
		return promptMenu, nil
	case cmdHelp:
		return promptHelp, nil
	case cmdGreeting:
		return promptGreeting, nil
	case cmdThanks:
		return promptThanks, nil

	case cmdRegister:
		*s = session{flow: FlowIntake, step: stepMedName}
		return promptAskMedName, nil
	case cmdFreeText:
		*s = session{flow: FlowFreeText, step: stepAwaitText}
		return promptAskFreeText, nil

	case cmdList:
		medications, err := e.medications.ListAll(ctx)
		if err != nil {
			return "", err
		}
		return listMessage(medications), nil

	case cmdNext:
		return e.nextUpcoming(ctx)

	case cmdHistory:
		entries, err := e.confirmations.History(ctx, historyLimit)
		if err != nil {
			return "", err
		}
		return e.historyMessage(ctx, entries)

	case cmdStatus:
		return e.statusMessage(ctx)

	case cmdClear:
		*s = session{flow: FlowClear, step: stepConfirm}
		return promptConfirmClear, nil

	case cmdSleep:
		*s = session{flow: FlowSleep, step: stepSleepStart}
		return promptAskSleepStart, nil

	case cmdPause, cmdReactivate:
		if cmd.arg == "" {
			*s = session{flow: FlowPause, step: stepPickTarget}
			return promptAskPauseTarget, nil
		}
		medication, reply, err := e.resolveTarget(ctx, cmd.arg)
		if err != nil || reply != "" {
			return reply, err
		}
		return e.toggleActive(ctx, medication)

	case cmdSearch:
		if cmd.arg == "" {
			*s = session{flow: FlowSearch, step: stepAwaitText}
			return promptAskSearchTerm, nil
		}
		return e.searchMedications(ctx, cmd.arg)

	case cmdEdit:
		*s = session{flow: FlowEdit, step: stepPickTarget}
		if cmd.arg == "" {
			return promptAskEditTarget, nil
		}
		return e.handleEdit(ctx, s, cmd.arg)

	case cmdRemove:
		*s = session{flow: FlowRemove, step: stepPickTarget}
		if cmd.arg == "" {
			return promptAskRemoveTarget, nil
		}
		return e.handleRemove(ctx, s, cmd.arg)

	case cmdQuickRegister:
		return e.quickRegisterMedication(ctx, cmd.quick)

	default:
		return promptUnrecognized, nil
	}
}

const historyLimit = 10

func (e *Engine) nextUpcoming(ctx context.Context) (string, error) {
	dose, ok, err := e.medications.NextUpcoming(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return promptNoUpcoming, nil
	}
	return upcomingMessage(dose), nil
}

func (e *Engine) historyMessage(ctx context.Context, entries []persistence.DoseConfirmation) (string, error) {
	if len(entries) == 0 {
		return promptNoHistory, nil
	}
	names := make(map[int64]string)
	medications, err := e.medications.ListAll(ctx)
	if err != nil {
		return "", err
	}
	for _, medication := range medications {
		names[medication.ID] = medication.Name
	}
	return formatHistory(entries, names), nil
}

func (e *Engine) statusMessage(ctx context.Context) (string, error) {
	medications, err := e.medications.ListAll(ctx)
	if err != nil {
		return "", err
	}
	active := 0
	for _, medication := range medications {
		if medication.Active {
			active++
		}
	}
	next, err := e.nextUpcoming(ctx)
	if err != nil {
		return "", err
	}
	return formatStatus(len(medications), active, next), nil
}
