// Package service implements business logic, authorization, and
// orchestration between HTTP handlers and the store layer: the capacity
// gate, the attendance state machine, and the presence views.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"eventgate/internal/metrics"
	"eventgate/internal/model"
	"eventgate/internal/store"
	"eventgate/internal/token"
)

// AttendanceService orchestrates enrollment and attendance operations.
//
// Identifier generation and the clock are injected capabilities so tests can
// supply deterministic values; production wiring uses uuid and time.Now.
type AttendanceService struct {
	regs    store.RegistrationStore
	events  store.EventDirectory
	users   store.UserDirectory
	metrics *metrics.Metrics
	logger  *slog.Logger
	newID   func() string
	now     func() time.Time
}

// Option customises an AttendanceService.
type Option func(*AttendanceService)

// WithMetrics wires Prometheus instrumentation into the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AttendanceService) { s.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *AttendanceService) { s.logger = l }
}

// WithIDGenerator overrides registration id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *AttendanceService) { s.newID = gen }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *AttendanceService) { s.now = now }
}

// NewAttendanceService constructs an AttendanceService with its dependencies.
func NewAttendanceService(
	regs store.RegistrationStore,
	events store.EventDirectory,
	users store.UserDirectory,
	opts ...Option,
) *AttendanceService {
	s := &AttendanceService{
		regs:   regs,
		events: events,
		users:  users,
		logger: slog.Default(),
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enroll admits the caller into an event. The event must exist and be open;
// the duplicate and capacity checks happen atomically inside the store so
// concurrent enrollments can never overshoot max_participants.
func (s *AttendanceService) Enroll(ctx context.Context, caller model.Caller, eventID string) (*model.Registration, error) {
	event, err := s.events.LookupEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.Open() {
		return nil, model.ErrEventNotOpen
	}

	id := s.newID()
	reg := &model.Registration{
		ID:           id,
		UserID:       caller.ID,
		EventID:      eventID,
		Status:       model.StatusRegistered,
		ScanToken:    token.ForRegistration(id),
		QRCodeURL:    fmt.Sprintf("/registrations/%s/qr", id),
		RegisteredAt: s.now().UTC(),
	}
	if err := s.regs.Admit(ctx, reg, event.MaxParticipants); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.EnrollmentsTotal.Inc()
	}
	s.logger.InfoContext(ctx, "registration created",
		"registration_id", reg.ID,
		"event_id", eventID,
		"user_id", caller.ID,
	)
	return reg, nil
}

// Cancel withdraws the caller's own REGISTERED enrollment for an event.
// There is nothing to cancel once checked in, so anything else reports
// not-found, matching the enrollment surface contract.
func (s *AttendanceService) Cancel(ctx context.Context, caller model.Caller, eventID string) error {
	reg, err := s.regs.FindActiveByUserAndEvent(ctx, caller.ID, eventID)
	if err != nil {
		return err
	}
	if reg.Status != model.StatusRegistered {
		return model.ErrRegistrationNotFound
	}

	now := s.now().UTC()
	if _, err := s.regs.Execute(ctx, reg.ID, func(r *model.Registration) error {
		return r.ApplyCancel(now)
	}); err != nil {
		if errors.Is(err, model.ErrNotInRegisteredState) {
			// Checked in between the lookup and the write; same outcome.
			return model.ErrRegistrationNotFound
		}
		return err
	}

	if s.metrics != nil {
		s.metrics.CancellationsTotal.Inc()
	}
	s.logger.InfoContext(ctx, "registration cancelled",
		"registration_id", reg.ID,
		"event_id", eventID,
	)
	return nil
}

// MyRegistrations lists every registration belonging to the caller.
func (s *AttendanceService) MyRegistrations(ctx context.Context, caller model.Caller) ([]model.Registration, error) {
	return s.regs.ListByUser(ctx, caller.ID)
}

// ScanArtifact renders the registration's scan token as a QR PNG.
// Only the registration's owner or an elevated caller may fetch it.
func (s *AttendanceService) ScanArtifact(ctx context.Context, caller model.Caller, registrationID string) ([]byte, error) {
	reg, err := s.regs.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if !caller.OwnsRegistration(reg) && !caller.Elevated() {
		return nil, model.ErrForbidden
	}
	return token.RenderPNG(reg.ScanToken, 256)
}

// requireOrganizer resolves the event and checks the caller is its owner or
// holds the elevated role. All organizer-facing operations share this gate.
func (s *AttendanceService) requireOrganizer(ctx context.Context, caller model.Caller, eventID string) (*model.Event, error) {
	event, err := s.events.LookupEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !caller.OwnsEvent(event) && !caller.Elevated() {
		return nil, model.ErrForbidden
	}
	return event, nil
}
