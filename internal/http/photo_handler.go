package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/medication-assistant/internal/persistence"
)

type photoStore interface {
	Save(data []byte) (string, error)
	Path(ref string) (string, error)
	Remove(ref string) error
}

type medicationPhotoService interface {
	Get(ctx context.Context, id int64) (persistence.Medication, error)
	Update(ctx context.Context, medication persistence.Medication) error
}

const maxPhotoUpload = 5 << 20

type photoAttachResponse struct {
	PhotoRef string `json:"img_arquivo"`
}

// PhotoHandler attaches photo blobs to medication records and serves them back.
type PhotoHandler struct {
	medications medicationPhotoService
	photos      photoStore
	responder   responder
	logger      *slog.Logger
}

func NewPhotoHandler(medications medicationPhotoService, photos photoStore, logger *slog.Logger) *PhotoHandler {
	base := defaultLogger(logger)
	return &PhotoHandler{medications: medications, photos: photos, responder: newResponder(base), logger: base}
}

func (h *PhotoHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PhotoHandler", operation, attrs...)
}

// Attach stores the raw photo bytes from the request body on the medication
// resolved from the path. A previously attached photo is released after the
// record points at the new one.
func (h *PhotoHandler) Attach(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.medications == nil || h.photos == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	raw, ok := MedicationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(raw) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMedicationID)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMedicationID)
		return
	}

	logger := h.log(r.Context(), "Attach", "medication_id", id)

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPhotoUpload))
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to read photo body", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if len(data) == 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errEmptyPhoto)
		return
	}

	medication, err := h.medications.Get(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "medication lookup failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	ref, err := h.photos.Save(data)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to store photo", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	previous := medication.PhotoRef
	medication.PhotoRef = &ref
	if err := h.medications.Update(r.Context(), medication); err != nil {
		logger.ErrorContext(r.Context(), "failed to update medication photo", "error", err)
		if removeErr := h.photos.Remove(ref); removeErr != nil {
			logger.WarnContext(r.Context(), "failed to discard orphaned photo", "ref", ref, "error", removeErr)
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if previous != nil && *previous != ref {
		if err := h.photos.Remove(*previous); err != nil {
			logger.WarnContext(r.Context(), "failed to release replaced photo", "ref", *previous, "error", err)
		}
	}

	logger.InfoContext(r.Context(), "photo attached", "ref", ref)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, photoAttachResponse{PhotoRef: ref})
}

// Serve streams a stored photo blob by its reference.
func (h *PhotoHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.photos == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ref, ok := PhotoRefFromContext(r.Context())
	if !ok || strings.TrimSpace(ref) == "" {
		http.NotFound(w, r)
		return
	}

	path, err := h.photos.Path(ref)
	if err != nil {
		h.log(r.Context(), "Serve", "ref", ref).WarnContext(r.Context(), "photo lookup failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	http.ServeFile(w, r, path)
}
