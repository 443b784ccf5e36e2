// Package memory holds in-memory store implementations used by tests and
// local development. A single mutex serialises admissions, which trivially
// satisfies the per-event atomicity contract.
package memory

import (
	"context"
	"sort"
	"sync"

	"eventgate/internal/model"
)

// RegistrationStore is the in-memory registration store.
type RegistrationStore struct {
	mu   sync.Mutex
	regs map[string]*model.Registration
}

// NewRegistrationStore constructs an empty in-memory registration store.
func NewRegistrationStore() *RegistrationStore {
	return &RegistrationStore{regs: make(map[string]*model.Registration)}
}

// Admit implements the capacity gate: duplicate check, capacity check and
// insert under one lock. Unlike the postgres store it holds no event rows,
// so it trusts the caller to have resolved the event first.
func (s *RegistrationStore) Admit(ctx context.Context, reg *model.Registration, maxParticipants int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	for _, r := range s.regs {
		if r.EventID != reg.EventID || !r.Status.Active() {
			continue
		}
		if r.UserID == reg.UserID {
			return model.ErrAlreadyRegistered
		}
		active++
	}
	if active >= maxParticipants {
		return model.ErrEventFull
	}

	cp := *reg
	s.regs[reg.ID] = &cp
	return nil
}

// GetByID returns a copy of the registration.
func (s *RegistrationStore) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.regs[id]
	if !ok {
		return nil, model.ErrRegistrationNotFound
	}
	cp := *r
	return &cp, nil
}

// FindActiveByUserAndEvent returns the user's non-cancelled registration for
// the event. At most one such record exists by the Admit invariant.
func (s *RegistrationStore) FindActiveByUserAndEvent(ctx context.Context, userID, eventID string) (*model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.regs {
		if r.UserID == userID && r.EventID == eventID && r.Status.Active() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, model.ErrRegistrationNotFound
}

// ListByEvent returns every registration for the event ordered by
// registration time, ties broken by id for determinism.
func (s *RegistrationStore) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Registration
	for _, r := range s.regs {
		if r.EventID == eventID {
			out = append(out, *r)
		}
	}
	sortRegistrations(out)
	return out, nil
}

// ListByUser returns every registration belonging to the user.
func (s *RegistrationStore) ListByUser(ctx context.Context, userID string) ([]model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Registration
	for _, r := range s.regs {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sortRegistrations(out)
	return out, nil
}

// CountActiveByEvent counts non-cancelled registrations for the event.
func (s *RegistrationStore) CountActiveByEvent(ctx context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.regs {
		if r.EventID == eventID && r.Status.Active() {
			n++
		}
	}
	return n, nil
}

// Execute applies mutate to a working copy and swaps it in only when mutate
// succeeds, so a rejected transition leaves the record untouched.
func (s *RegistrationStore) Execute(ctx context.Context, id string, mutate func(*model.Registration) error) (*model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.regs[id]
	if !ok {
		return nil, model.ErrRegistrationNotFound
	}
	work := *r
	if err := mutate(&work); err != nil {
		return nil, err
	}
	s.regs[id] = &work
	cp := work
	return &cp, nil
}

// MarkNoShows sweeps the event's remaining REGISTERED registrations.
func (s *RegistrationStore) MarkNoShows(ctx context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.regs {
		if r.EventID == eventID && r.Status == model.StatusRegistered {
			r.Status = model.StatusNoShow
			n++
		}
	}
	return n, nil
}

func sortRegistrations(regs []model.Registration) {
	sort.Slice(regs, func(i, j int) bool {
		if !regs[i].RegisteredAt.Equal(regs[j].RegisteredAt) {
			return regs[i].RegisteredAt.Before(regs[j].RegisteredAt)
		}
		return regs[i].ID < regs[j].ID
	})
}

// EventDirectory is an in-memory stand-in for the event-management
// collaborator, seeded by tests.
type EventDirectory struct {
	mu     sync.RWMutex
	events map[string]*model.Event
}

// NewEventDirectory constructs an empty event directory.
func NewEventDirectory() *EventDirectory {
	return &EventDirectory{events: make(map[string]*model.Event)}
}

// Put seeds or replaces an event.
func (d *EventDirectory) Put(e *model.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *e
	d.events[e.ID] = &cp
}

// LookupEvent returns the event read model or ErrEventNotFound.
func (d *EventDirectory) LookupEvent(ctx context.Context, id string) (*model.Event, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.events[id]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

// UserDirectory is an in-memory stand-in for the identity collaborator.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

// NewUserDirectory constructs an empty user directory.
func NewUserDirectory() *UserDirectory {
	return &UserDirectory{users: make(map[string]*model.User)}
}

// Put seeds or replaces a user.
func (d *UserDirectory) Put(u *model.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *u
	d.users[u.ID] = &cp
}

// LookupUser returns the user's display fields or ErrUserNotFound.
func (d *UserDirectory) LookupUser(ctx context.Context, id string) (*model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
