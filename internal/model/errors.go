package model

import "errors"

// Sentinel errors for every way a core operation can be refused.
// Handlers map these to HTTP statuses with errors.Is; no operation ever
// coerces an invalid request into a silent no-op.
var (
	// Not-found family.
	ErrEventNotFound        = errors.New("event not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrRegistrationNotFound = errors.New("registration not found")

	// Authorization.
	ErrForbidden = errors.New("caller is not allowed to perform this action")

	// Admission conflicts.
	ErrEventNotOpen      = errors.New("event is not open for enrollment")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrEventFull         = errors.New("event is at capacity")

	// Transition conflicts.
	ErrEventMismatch        = errors.New("registration does not belong to this event")
	ErrAlreadyCancelled     = errors.New("registration has been cancelled")
	ErrNotInRegisteredState = errors.New("participant is not in registered state")
	ErrNotCheckedIn         = errors.New("participant is not checked in")
	ErrTerminalState        = errors.New("registration is in a terminal state")
)
