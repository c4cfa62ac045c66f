// Package http provides the transport surface for the assistant.
//
// The router exposes the following endpoints:
//   - POST /chat: one conversation turn. Body: {"message"}. Response:
//     {"reply"} with the Portuguese prompt or result text.
//   - GET /api/agenda: the read-only projection polled by the bracelet:
//     patient name, sleep window and every active medication with any
//     pending next-dose override substituted into the exported times.
//   - POST /api/confirmar: a dose confirmation event from the bracelet.
//     Body: {"medicamento","horario","horario_real","data"}. Response
//     includes "proxima_dose" when the confirmation produced an adjusted
//     next time.
//   - POST /api/medicamentos/{id}/foto: attaches the raw photo bytes in the
//     request body to the record and returns {"img_arquivo"} with the stored
//     reference.
//   - GET /api/imagens/{ref}: serves a stored photo blob.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
