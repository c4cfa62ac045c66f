package http

import "context"

type contextKey string

const (
	medicationIDContextKey contextKey = "medication_id"
	photoRefContextKey     contextKey = "photo_ref"
)

// ContextWithMedicationID injects the medication identifier resolved from the request path.
func ContextWithMedicationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, medicationIDContextKey, id)
}

// MedicationIDFromContext extracts a medication identifier previously associated with the context.
func MedicationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(medicationIDContextKey).(string)
	return id, ok
}

// ContextWithPhotoRef injects the photo reference resolved from the request path.
func ContextWithPhotoRef(ctx context.Context, ref string) context.Context {
	return context.WithValue(ctx, photoRefContextKey, ref)
}

// PhotoRefFromContext extracts a photo reference previously associated with the context.
func PhotoRefFromContext(ctx context.Context) (string, bool) {
	ref, ok := ctx.Value(photoRefContextKey).(string)
	return ref, ok
}
