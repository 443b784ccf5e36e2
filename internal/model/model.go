// Package model defines the core domain types for event attendance tracking:
// registrations, their attendance state machine, and the read models the
// external event/user collaborators expose to this core.
package model

import "time"

// EventStatus mirrors the lifecycle managed by the event-management
// collaborator. This core only cares whether enrollment is open.
type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventPending   EventStatus = "PENDING"
	EventPublished EventStatus = "PUBLISHED"
	EventRejected  EventStatus = "REJECTED"
	EventCancelled EventStatus = "CANCELLED"
	EventCompleted EventStatus = "COMPLETED"
)

// Event is the read model of an event owned by the event-management
// collaborator. This core never mutates it.
type Event struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	MaxParticipants int         `json:"max_participants"`
	Status          EventStatus `json:"status"`
	OwnerID         string      `json:"owner_id"`
}

// Open reports whether the event accepts new enrollments.
func (e *Event) Open() bool {
	return e.Status == EventPublished
}

// User is the read model supplied by the identity collaborator.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Role is the caller's platform role, issued by the identity collaborator.
type Role string

const (
	RoleUser       Role = "USER"
	RoleEventOwner Role = "EVENT_OWNER"
	RoleAdmin      Role = "ADMIN"
)

// Caller is the immutable identity every operation is evaluated against.
// Capability checks live here so the state machine stays free of
// authorization concerns.
type Caller struct {
	ID   string
	Role Role
}

// Elevated reports whether the caller may act on any event or registration.
func (c Caller) Elevated() bool {
	return c.Role == RoleAdmin
}

// OwnsEvent reports whether the caller is the event's organizer.
func (c Caller) OwnsEvent(e *Event) bool {
	return e != nil && e.OwnerID == c.ID
}

// OwnsRegistration reports whether the registration belongs to the caller.
func (c Caller) OwnsRegistration(r *Registration) bool {
	return r != nil && r.UserID == c.ID
}

// Registration records one user's enrollment in one event.
//
// Invariants:
//   - UserID and EventID are immutable after creation.
//   - At most one non-CANCELLED registration exists per (user, event) pair.
//   - RegisteredAt is set once at creation; CancelledAt once on cancellation.
//   - CheckedInAt/CheckedOutAt are overwritten on every re-entry cycle; only
//     the latest in/out pair is kept on the record.
//   - CANCELLED and NO_SHOW accept no further transitions.
type Registration struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	EventID      string     `json:"event_id"`
	Status       Status     `json:"status"`
	ScanToken    string     `json:"scan_token"`
	QRCodeURL    string     `json:"qr_code_url"`
	RegisteredAt time.Time  `json:"registered_at"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
}

// ApplyScan advances the registration along the cycling scan transition,
// stamping only the timestamp of the state being entered. Terminal states
// refuse the scan instead of no-opping.
func (r *Registration) ApplyScan(now time.Time) error {
	if r.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	next, ok := r.Status.ScanNext()
	if !ok {
		return ErrTerminalState
	}
	r.Status = next
	switch next {
	case StatusCheckedIn:
		r.CheckedInAt = &now
	case StatusCheckedOut:
		r.CheckedOutAt = &now
	}
	return nil
}

// ApplyManualCheckIn is the strict operator-driven check-in: it requires the
// participant to be exactly in REGISTERED state and does not cycle.
func (r *Registration) ApplyManualCheckIn(now time.Time) error {
	if r.Status != StatusRegistered {
		return ErrNotInRegisteredState
	}
	r.Status = StatusCheckedIn
	r.CheckedInAt = &now
	return nil
}

// ApplyManualCheckOut is the strict operator-driven check-out: it requires
// the participant to be exactly in CHECKED_IN state.
func (r *Registration) ApplyManualCheckOut(now time.Time) error {
	if r.Status != StatusCheckedIn {
		return ErrNotCheckedIn
	}
	r.Status = StatusCheckedOut
	r.CheckedOutAt = &now
	return nil
}

// ApplyCancel cancels the enrollment. Permitted only before check-in;
// CANCELLED is terminal and frees the seat for subsequent admissions.
func (r *Registration) ApplyCancel(now time.Time) error {
	if r.Status != StatusRegistered {
		return ErrNotInRegisteredState
	}
	r.Status = StatusCancelled
	r.CancelledAt = &now
	return nil
}

// ApplyNoShow marks a participant who never arrived. Only REGISTERED
// registrations qualify; everyone else either attended or cancelled.
func (r *Registration) ApplyNoShow() error {
	if r.Status != StatusRegistered {
		return ErrNotInRegisteredState
	}
	r.Status = StatusNoShow
	return nil
}

// LiveCounts is the point-in-time presence snapshot for one event.
// CheckedIn + CheckedOut + NotArrived always equals TotalActive.
type LiveCounts struct {
	TotalActive int `json:"total_active"`
	CheckedIn   int `json:"checked_in"`
	CheckedOut  int `json:"checked_out"`
	NotArrived  int `json:"not_arrived"`
}

// Participant is one roster row: the registration joined with the user's
// display fields.
type Participant struct {
	RegistrationID string     `json:"id"`
	UserName       string     `json:"user_name"`
	UserEmail      string     `json:"user_email"`
	Status         Status     `json:"status"`
	RegisteredAt   time.Time  `json:"registered_at"`
	CheckedInAt    *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt   *time.Time `json:"checked_out_at,omitempty"`
}

// HistoryEntry is one audit/export row with every timestamp the record
// carries, regardless of status.
type HistoryEntry struct {
	RegistrationID string     `json:"id"`
	UserID         string     `json:"user_id"`
	UserName       string     `json:"user_name"`
	UserEmail      string     `json:"user_email"`
	Status         Status     `json:"status"`
	RegisteredAt   time.Time  `json:"registered_at"`
	CheckedInAt    *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt   *time.Time `json:"checked_out_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
}

// EventAnalytics summarises one event's attendance outcome for its
// organizer. EverCheckedIn counts participants who checked in at least once,
// whether or not they have since left.
type EventAnalytics struct {
	EventID            string  `json:"event_id"`
	EventTitle         string  `json:"event_title"`
	MaxParticipants    int     `json:"max_participants"`
	TotalRegistrations int     `json:"total_registrations"`
	EverCheckedIn      int     `json:"checked_in_count"`
	CheckedOut         int     `json:"checked_out_count"`
	NoShows            int     `json:"no_show_count"`
	FillRate           float64 `json:"fill_rate"`
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
