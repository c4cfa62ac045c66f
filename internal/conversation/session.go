// Package conversation drives the multi-turn intake dialog: a per-patient
// session state machine, a command router and a best-effort free-text field
// extractor, all producing Portuguese prompts for the surrounding transport.
package conversation

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/medication-assistant/internal/persistence"
)

// ErrSessionState reports persisted conversation state that no longer maps
// to a known flow or step. Handled as a soft reset to the menu, never fatal.
var ErrSessionState = errors.New("conversation: invalid session state")

// Flow identifies the active sub-state-machine.
type Flow string

const (
	FlowName     Flow = "nome"
	FlowIntake   Flow = "cadastrar"
	FlowFreeText Flow = "descricao"
	FlowEdit     Flow = "editar"
	FlowRemove   Flow = "remover"
	FlowPause    Flow = "pausar"
	FlowSleep    Flow = "sono"
	FlowSearch   Flow = "buscar"
	FlowClear    Flow = "limpar"
)

// Step identifies the position inside a flow.
type Step string

const (
	stepAskName     Step = "nome"
	stepConfirmName Step = "confirmar-nome"

	stepMedName    Step = "medicamento"
	stepDose       Step = "dose"
	stepForm       Step = "forma"
	stepQuantity   Step = "quantidade"
	stepFirstTime  Step = "primeiro-horario"
	stepMode       Step = "modo"
	stepCount      Step = "vezes-dia"
	stepInterval   Step = "intervalo"
	stepTotalDoses Step = "total-doses"
	stepCategory   Step = "categoria"
	stepNotes      Step = "observacoes"
	stepPhoto      Step = "foto"
	stepReview     Step = "revisao"

	stepAwaitText Step = "texto"

	stepPickTarget Step = "alvo"
	stepPickField  Step = "campo"
	stepNewValue   Step = "valor"
	stepConfirm    Step = "confirmar"

	stepSleepStart Step = "inicio"
	stepSleepEnd   Step = "fim"
)

// scratch is the per-session working record, serialized as JSON into the
// persisted session row between turns.
type scratch struct {
	PendingName string `json:"nome_paciente,omitempty"`

	MedName       string `json:"medicamento,omitempty"`
	Dose          string `json:"dose,omitempty"`
	Form          string `json:"forma,omitempty"`
	Quantity      string `json:"quantidade,omitempty"`
	FirstTime     string `json:"primeiro_horario,omitempty"`
	Mode          string `json:"modo,omitempty"`
	CountPerDay   int    `json:"vezes_dia,omitempty"`
	IntervalHours int    `json:"intervalo_horas,omitempty"`
	TotalDoses    int    `json:"total_doses,omitempty"`
	Category      string `json:"categoria,omitempty"`
	Notes         string `json:"observacoes,omitempty"`
	NotesDone     bool   `json:"observacoes_ok,omitempty"`
	PhotoRef      string `json:"foto,omitempty"`
	PhotoDone     bool   `json:"foto_ok,omitempty"`

	TargetID  int64  `json:"alvo,omitempty"`
	EditField string `json:"campo,omitempty"`

	SleepStart string `json:"sono_inicio,omitempty"`
}

// session is the in-memory view of one conversation turn's state.
type session struct {
	flow    Flow
	step    Step
	scratch scratch
}

func (s *session) active() bool { return s.flow != "" }

func decodeSession(record persistence.ConversationSession) (session, error) {
	s := session{flow: Flow(record.Flow), step: Step(record.Step)}
	if len(record.Scratch) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(record.Scratch, &s.scratch); err != nil {
		return session{}, fmt.Errorf("%w: %v", ErrSessionState, err)
	}
	return s, nil
}

func encodeSession(patientID int64, s session) (persistence.ConversationSession, error) {
	raw, err := json.Marshal(s.scratch)
	if err != nil {
		return persistence.ConversationSession{}, fmt.Errorf("conversation: encode scratch: %w", err)
	}
	return persistence.ConversationSession{
		PatientID: patientID,
		Flow:      string(s.flow),
		Step:      string(s.step),
		Scratch:   raw,
	}, nil
}

// firstMissingStep returns where the intake flow should resume: the guided
// path and the free-text path share this single precedence order.
func firstMissingStep(sc scratch) Step {
	switch {
	case sc.MedName == "":
		return stepMedName
	case sc.Dose == "":
		return stepDose
	case sc.Form == "":
		return stepForm
	case sc.Quantity == "":
		return stepQuantity
	case sc.FirstTime == "":
		return stepFirstTime
	case sc.Mode == "":
		return stepMode
	case sc.Mode == modeDaily && sc.CountPerDay == 0:
		return stepCount
	case sc.Mode == modeInterval && sc.IntervalHours == 0:
		return stepInterval
	case sc.Mode == modeInterval && sc.TotalDoses == 0:
		return stepTotalDoses
	case sc.Category == "":
		return stepCategory
	case !sc.NotesDone:
		return stepNotes
	case !sc.PhotoDone:
		return stepPhoto
	default:
		return stepReview
	}
}

const (
	modeDaily    = "daily"
	modeInterval = "interval"
)
