package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/example/medication-assistant/internal/application"
)

type confirmationService interface {
	Confirm(ctx context.Context, params application.ConfirmDoseParams) (application.ConfirmDoseResult, error)
}

type confirmationRequest struct {
	Medication string `json:"medicamento"`
	Scheduled  string `json:"horario"`
	Actual     string `json:"horario_real"`
	Date       string `json:"data"`
}

type confirmationResponse struct {
	Status       string `json:"status"`
	AdjustedNext string `json:"proxima_dose,omitempty"`
}

// The bracelet reports the actual time with seconds attached.
var secondsSuffixPattern = regexp.MustCompile(`^([0-9]{1,2}:[0-9]{2}):[0-9]{2}$`)

// ConfirmationHandler ingests dose confirmation events from the bracelet.
type ConfirmationHandler struct {
	service   confirmationService
	responder responder
	logger    *slog.Logger
}

func NewConfirmationHandler(service confirmationService, logger *slog.Logger) *ConfirmationHandler {
	base := defaultLogger(logger)
	return &ConfirmationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ConfirmationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ConfirmationHandler", operation, attrs...)
}

func (h *ConfirmationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req confirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode confirmation", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "medication", req.Medication)

	result, err := h.service.Confirm(r.Context(), application.ConfirmDoseParams{
		MedicationName: strings.TrimSpace(req.Medication),
		Scheduled:      req.Scheduled,
		Actual:         trimSeconds(req.Actual),
		Date:           req.Date,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "confirmation failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := confirmationResponse{Status: "ok"}
	if result.AdjustedNext != nil {
		resp.AdjustedNext = *result.AdjustedNext
		logger.InfoContext(r.Context(), "confirmation recorded with adjusted next dose", "next", resp.AdjustedNext)
	} else {
		logger.InfoContext(r.Context(), "confirmation recorded")
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, resp)
}

func trimSeconds(value string) string {
	if match := secondsSuffixPattern.FindStringSubmatch(strings.TrimSpace(value)); match != nil {
		return match[1]
	}
	return strings.TrimSpace(value)
}
