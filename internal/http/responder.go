package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/medication-assistant/internal/application"
	"github.com/example/medication-assistant/internal/dosing"
	"github.com/example/medication-assistant/internal/photostore"
)

var (
	errBadRequestBody      = errors.New("formato de requisicao invalido.")
	errInvalidMedicationID = errors.New("identificador de medicamento invalido.")
	errEmptyMessage        = errors.New("a mensagem nao pode ser vazia.")
	errEmptyPhoto          = errors.New("a foto enviada esta vazia.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "Medicamento nao encontrado."})
	case errors.Is(err, application.ErrAmbiguousName):
		resp := errorResponse{
			ErrorCode: "NOME_AMBIGUO",
			Message:   "Mais de um medicamento corresponde a esse nome.",
		}
		var ambiguous *application.AmbiguousNameError
		if errors.As(err, &ambiguous) {
			for _, candidate := range ambiguous.Candidates {
				resp.Candidates = append(resp.Candidates, candidateDTO{ID: candidate.ID, Name: candidate.Name})
			}
		}
		r.writeJSON(ctx, w, http.StatusConflict, resp)
	case errors.Is(err, application.ErrDuplicateSchedule):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "CADASTRO_DUPLICADO",
			Message:   "Esse medicamento ja esta cadastrado com os mesmos horarios.",
		})
	case errors.Is(err, dosing.ErrInvalidTimeFormat):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{Message: "Horario invalido. Use o formato HH:MM."})
	case errors.Is(err, dosing.ErrOutOfRange):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{Message: "Valor fora do intervalo aceito."})
	case errors.Is(err, photostore.ErrInvalidRef):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "Imagem nao encontrada."})
	default:
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "Erro interno no servidor."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Requisicao invalida."
	case http.StatusNotFound:
		return "Recurso nao encontrado."
	case http.StatusConflict:
		return "A requisicao conflita com o estado atual do recurso."
	case http.StatusUnprocessableEntity:
		return "Os dados enviados contem erros."
	default:
		return "Erro interno no servidor."
	}
}

type errorResponse struct {
	ErrorCode  string         `json:"error_code,omitempty"`
	Message    string         `json:"message"`
	Candidates []candidateDTO `json:"candidatos,omitempty"`
}

type candidateDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}
