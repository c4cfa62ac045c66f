package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type conversationEngine interface {
	HandleTurn(ctx context.Context, utterance string) (string, error)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// ChatHandler feeds one utterance per request into the conversation engine.
type ChatHandler struct {
	engine    conversationEngine
	responder responder
	logger    *slog.Logger
}

func NewChatHandler(engine conversationEngine, logger *slog.Logger) *ChatHandler {
	base := defaultLogger(logger)
	return &ChatHandler{engine: engine, responder: newResponder(base), logger: base}
}

func (h *ChatHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ChatHandler", operation, attrs...)
}

func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.engine == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Handle", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode chat request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errEmptyMessage)
		return
	}

	logger := h.log(r.Context(), "Handle")

	reply, err := h.engine.HandleTurn(r.Context(), req.Message)
	if err != nil {
		logger.ErrorContext(r.Context(), "conversation turn failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "conversation turn handled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, chatResponse{Reply: reply})
}
