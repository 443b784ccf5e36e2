// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventgate/internal/model"
	"eventgate/internal/service"
)

// AttendanceHandler holds all HTTP handlers for the enrollment and
// attendance surface.
type AttendanceHandler struct {
	svc *service.AttendanceService
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

// Routes mounts the attendance surface on a chi router. The caller is
// expected to wrap it with RequireAuth.
func (h *AttendanceHandler) Routes(r chi.Router) {
	// A single {id} placeholder keeps chi's wildcard names consistent across
	// the subtree; whether it names an event or a registration depends on the
	// operation.
	r.Route("/registrations", func(r chi.Router) {
		r.Get("/mine", h.MyRegistrations)
		r.Post("/scan/{id}", h.Scan)
		r.Get("/{id}/qr", h.ScanArtifact)
		r.Post("/{id}/check-in", h.ManualCheckIn)
		r.Post("/{id}/check-out", h.ManualCheckOut)
		r.Post("/{id}", h.Enroll)
		r.Delete("/{id}", h.Cancel)
	})
	r.Route("/events/{eventID}", func(r chi.Router) {
		r.Get("/participants", h.Participants)
		r.Get("/live", h.LiveCounts)
		r.Get("/history", h.History)
		r.Get("/analytics", h.Analytics)
		r.Post("/close", h.CloseOut)
	})
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// writeServiceError maps the service error taxonomy to stable HTTP statuses.
// Every state/capacity conflict surfaces as 400 with the failure kind in the
// message, never as a silent success.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrEventNotFound),
		errors.Is(err, model.ErrRegistrationNotFound),
		errors.Is(err, model.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrEventNotOpen),
		errors.Is(err, model.ErrAlreadyRegistered),
		errors.Is(err, model.ErrEventFull),
		errors.Is(err, model.ErrEventMismatch),
		errors.Is(err, model.ErrAlreadyCancelled),
		errors.Is(err, model.ErrNotInRegisteredState),
		errors.Is(err, model.ErrNotCheckedIn),
		errors.Is(err, model.ErrTerminalState):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ─── Enrollment ───────────────────────────────────────────────────────────────

// Enroll handles POST /registrations/{eventID}
// Performs a concurrency-safe enrollment for the authenticated caller.
func (h *AttendanceHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	eventID := chi.URLParam(r, "id")

	reg, err := h.svc.Enroll(r.Context(), caller, eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// Cancel handles DELETE /registrations/{eventID}
// Cancels the caller's own registration for the event.
func (h *AttendanceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	eventID := chi.URLParam(r, "id")

	if err := h.svc.Cancel(r.Context(), caller, eventID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MyRegistrations handles GET /registrations/mine
func (h *AttendanceHandler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())

	regs, err := h.svc.MyRegistrations(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// ScanArtifact handles GET /registrations/{registrationID}/qr
// Returns the registration's scan token rendered as a QR PNG.
func (h *AttendanceHandler) ScanArtifact(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	registrationID := chi.URLParam(r, "id")

	png, err := h.svc.ScanArtifact(r.Context(), caller, registrationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// ─── Attendance ───────────────────────────────────────────────────────────────

// Scan handles POST /registrations/scan/{registrationID}?event_id=…
// Cycles the registration through check-in/check-out. The optional event_id
// query parameter lets a scanning device assert which event it serves.
func (h *AttendanceHandler) Scan(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	registrationID := chi.URLParam(r, "id")
	assertedEventID := r.URL.Query().Get("event_id")

	reg, err := h.svc.Scan(r.Context(), caller, registrationID, assertedEventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// ManualCheckIn handles POST /registrations/{registrationID}/check-in
func (h *AttendanceHandler) ManualCheckIn(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	registrationID := chi.URLParam(r, "id")

	reg, err := h.svc.ManualCheckIn(r.Context(), caller, registrationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// ManualCheckOut handles POST /registrations/{registrationID}/check-out
func (h *AttendanceHandler) ManualCheckOut(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	registrationID := chi.URLParam(r, "id")

	reg, err := h.svc.ManualCheckOut(r.Context(), caller, registrationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// ─── Organizer views ──────────────────────────────────────────────────────────

// Participants handles GET /events/{eventID}/participants
func (h *AttendanceHandler) Participants(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	eventID := chi.URLParam(r, "eventID")

	roster, err := h.svc.Participants(r.Context(), caller, eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

// LiveCounts handles GET /events/{eventID}/live
func (h *AttendanceHandler) LiveCounts(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	eventID := chi.URLParam(r, "eventID")

	counts, err := h.svc.LiveCounts(r.Context(), caller, eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// History handles GET /events/{eventID}/history
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	eventID := chi.URLParam(r, "eventID")

	entries, err := h.svc.History(r.Context(), caller, eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Analytics handles GET /events/{eventID}/analytics
func (h *AttendanceHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	eventID := chi.URLParam(r, "eventID")

	a, err := h.svc.Analytics(r.Context(), caller, eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// CloseOut handles POST /events/{eventID}/close
// Marks every remaining REGISTERED participant as NO_SHOW.
func (h *AttendanceHandler) CloseOut(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	eventID := chi.URLParam(r, "eventID")

	n, err := h.svc.CloseOut(r.Context(), caller, eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"no_shows_marked": n})
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
