// Package store defines the persistence contracts for the attendance core:
// the registration store and the read-only directories backed by the
// external event-management and identity collaborators.
//
// Two implementations exist: memory (tests, local development) and postgres
// (production). Both uphold the same atomicity contracts, so the service
// layer never cares which one it is wired to.
package store

import (
	"context"

	"eventgate/internal/model"
)

// RegistrationStore is the durable mapping from registration id to record.
//
// Atomicity contracts:
//   - Admit performs the duplicate check, the capacity check against
//     maxParticipants, and the insert as one atomic unit scoped per event.
//     Two concurrent Admit calls for the same event can never both commit
//     past capacity.
//   - Execute runs mutate against the current record and persists the
//     result atomically; if mutate returns an error nothing is written.
//   - List and count methods read a consistent snapshot.
type RegistrationStore interface {
	// Admit stores reg (which must be in REGISTERED state) unless the user
	// already holds a non-cancelled registration for the event
	// (ErrAlreadyRegistered) or the event's non-cancelled count has reached
	// maxParticipants (ErrEventFull). ErrEventNotFound if the event row is
	// unknown to the store.
	Admit(ctx context.Context, reg *model.Registration, maxParticipants int) error

	// GetByID returns the registration or ErrRegistrationNotFound.
	GetByID(ctx context.Context, id string) (*model.Registration, error)

	// FindActiveByUserAndEvent returns the user's non-cancelled registration
	// for the event, or ErrRegistrationNotFound.
	FindActiveByUserAndEvent(ctx context.Context, userID, eventID string) (*model.Registration, error)

	// ListByEvent returns every registration for the event regardless of
	// status, ordered by registration time.
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)

	// ListByUser returns every registration belonging to the user.
	ListByUser(ctx context.Context, userID string) ([]model.Registration, error)

	// CountActiveByEvent counts registrations whose status is not CANCELLED.
	CountActiveByEvent(ctx context.Context, eventID string) (int, error)

	// Execute atomically applies mutate to the registration and persists it,
	// returning the updated record. Errors from mutate abort the write and
	// propagate unchanged. ErrRegistrationNotFound if id is unknown.
	Execute(ctx context.Context, id string, mutate func(*model.Registration) error) (*model.Registration, error)

	// MarkNoShows flips every remaining REGISTERED registration for the
	// event to NO_SHOW in one atomic sweep and reports how many changed.
	MarkNoShows(ctx context.Context, eventID string) (int, error)
}

// EventDirectory resolves event ids against the event-management
// collaborator. Read-only here.
type EventDirectory interface {
	// LookupEvent returns the event read model or ErrEventNotFound.
	LookupEvent(ctx context.Context, id string) (*model.Event, error)
}

// UserDirectory resolves user ids against the identity collaborator.
type UserDirectory interface {
	// LookupUser returns the user's display fields or ErrUserNotFound.
	LookupUser(ctx context.Context, id string) (*model.User, error)
}
