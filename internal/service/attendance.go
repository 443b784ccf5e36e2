package service

import (
	"context"
	"time"

	"eventgate/internal/model"
)

// Scan drives the cycling check-in/check-out transition from a token read.
//
// Rules apply in order: the registration must exist; an asserted event id
// must match the registration's event (a scanning device confirming it reads
// a token for the expected event); the caller must be the event's organizer
// or elevated; terminal states refuse the scan. Otherwise the transition
// table decides: REGISTERED→CHECKED_IN, CHECKED_IN→CHECKED_OUT,
// CHECKED_OUT→CHECKED_IN, stamping only the entered state's timestamp.
func (s *AttendanceService) Scan(ctx context.Context, caller model.Caller, registrationID, assertedEventID string) (*model.Registration, error) {
	start := s.now()

	reg, err := s.regs.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if assertedEventID != "" && assertedEventID != reg.EventID {
		return nil, model.ErrEventMismatch
	}
	if _, err := s.requireOrganizer(ctx, caller, reg.EventID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updated, err := s.regs.Execute(ctx, registrationID, func(r *model.Registration) error {
		return r.ApplyScan(now)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ScansTotal.Inc()
		s.metrics.ObserveScan(start)
	}
	s.logger.InfoContext(ctx, "registration scanned",
		"registration_id", registrationID,
		"event_id", reg.EventID,
		"status", updated.Status,
	)
	return updated, nil
}

// ManualCheckIn is the strict operator correction path: it succeeds only
// from REGISTERED and does not support the re-entry cycle.
func (s *AttendanceService) ManualCheckIn(ctx context.Context, caller model.Caller, registrationID string) (*model.Registration, error) {
	return s.manualTransition(ctx, caller, registrationID, (*model.Registration).ApplyManualCheckIn)
}

// ManualCheckOut succeeds only from CHECKED_IN. There is deliberately no
// manual path back from CHECKED_OUT; only scanning supports re-entry.
func (s *AttendanceService) ManualCheckOut(ctx context.Context, caller model.Caller, registrationID string) (*model.Registration, error) {
	return s.manualTransition(ctx, caller, registrationID, (*model.Registration).ApplyManualCheckOut)
}

func (s *AttendanceService) manualTransition(
	ctx context.Context,
	caller model.Caller,
	registrationID string,
	apply func(*model.Registration, time.Time) error,
) (*model.Registration, error) {
	reg, err := s.regs.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireOrganizer(ctx, caller, reg.EventID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updated, err := s.regs.Execute(ctx, registrationID, func(r *model.Registration) error {
		return apply(r, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "manual attendance transition",
		"registration_id", registrationID,
		"status", updated.Status,
	)
	return updated, nil
}

// CloseOut marks every remaining REGISTERED registration for an event as
// NO_SHOW and reports how many were flipped. Organizer-only; typically run
// once the event has completed.
func (s *AttendanceService) CloseOut(ctx context.Context, caller model.Caller, eventID string) (int, error) {
	if _, err := s.requireOrganizer(ctx, caller, eventID); err != nil {
		return 0, err
	}

	n, err := s.regs.MarkNoShows(ctx, eventID)
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.NoShowsTotal.Add(float64(n))
	}
	s.logger.InfoContext(ctx, "event closed out",
		"event_id", eventID,
		"no_shows", n,
	)
	return n, nil
}
