package model

// Status is the attendance state of a registration.
type Status string

const (
	StatusRegistered Status = "REGISTERED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusCancelled  Status = "CANCELLED"
	StatusNoShow     Status = "NO_SHOW"
)

// scanNext is the transition table for the cycling scan trigger.
// REGISTERED → CHECKED_IN → CHECKED_OUT → CHECKED_IN → … with no upper bound
// on the number of cycles; re-entry at multi-session events is expected.
// CANCELLED and NO_SHOW have no entry: they are terminal.
var scanNext = map[Status]Status{
	StatusRegistered: StatusCheckedIn,
	StatusCheckedIn:  StatusCheckedOut,
	StatusCheckedOut: StatusCheckedIn,
}

// ScanNext returns the state a scan moves this status to.
// ok is false for terminal states.
func (s Status) ScanNext() (next Status, ok bool) {
	next, ok = scanNext[s]
	return next, ok
}

// Terminal reports whether no further transitions are accepted from s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusNoShow
}

// Active reports whether the registration still counts against event
// capacity and shows up in presence views.
func (s Status) Active() bool {
	return s != StatusCancelled
}
