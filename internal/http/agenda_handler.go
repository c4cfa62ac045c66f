package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/medication-assistant/internal/application"
	"github.com/example/medication-assistant/internal/dosing"
)

type agendaService interface {
	Export(ctx context.Context) (application.Agenda, error)
	SleepWindow(ctx context.Context) (dosing.Window, error)
}

type agendaResponse struct {
	Patient     agendaPatientDTO  `json:"paciente"`
	Settings    agendaSettingsDTO `json:"configuracoes"`
	Medications []agendaEntryDTO  `json:"medicamentos"`
}

type agendaPatientDTO struct {
	Name string `json:"nome"`
}

type agendaSettingsDTO struct {
	SleepStart string `json:"horario_sono_inicio"`
	SleepEnd   string `json:"horario_sono_fim"`
}

type agendaEntryDTO struct {
	ID       int64    `json:"id"`
	Name     string   `json:"nome"`
	Dose     string   `json:"dose"`
	Times    []string `json:"horario"`
	NextTime string   `json:"proximo_horario"`
	Category string   `json:"categoria"`
	Active   bool     `json:"ativo"`
	PhotoRef string   `json:"img_arquivo,omitempty"`
}

// AgendaHandler serves the schedule projection polled by the bracelet.
type AgendaHandler struct {
	service   agendaService
	responder responder
	logger    *slog.Logger
}

func NewAgendaHandler(service agendaService, logger *slog.Logger) *AgendaHandler {
	base := defaultLogger(logger)
	return &AgendaHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AgendaHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AgendaHandler", operation, attrs...)
}

func (h *AgendaHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Get")

	agenda, err := h.service.Export(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "agenda export failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	window, err := h.service.SleepWindow(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "sleep window lookup failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := agendaResponse{
		Patient:  agendaPatientDTO{Name: agenda.PatientName},
		Settings: agendaSettingsDTO{SleepStart: window.Start, SleepEnd: window.End},
		// Medications stays non-nil so the payload always carries an array.
		Medications: make([]agendaEntryDTO, 0, len(agenda.Medications)),
	}
	for _, entry := range agenda.Medications {
		resp.Medications = append(resp.Medications, agendaEntryDTO{
			ID:       entry.ID,
			Name:     entry.Name,
			Dose:     entry.DoseDescription,
			Times:    entry.Times,
			NextTime: entry.NextTime,
			Category: entry.Category,
			Active:   entry.Active,
			PhotoRef: entry.PhotoRef,
		})
	}

	logger.InfoContext(r.Context(), "agenda exported", "medications", len(resp.Medications))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}
