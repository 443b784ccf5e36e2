package service

import (
	"context"
	"math"

	"eventgate/internal/model"
)

// Presence views are computed on demand from a single snapshot read of the
// registration store; no materialised counters. Deriving every count from
// the same slice keeps checked_in + checked_out + not_arrived == total_active
// for any one observation.

// LiveCounts returns the point-in-time presence counts for an event.
func (s *AttendanceService) LiveCounts(ctx context.Context, caller model.Caller, eventID string) (*model.LiveCounts, error) {
	if _, err := s.requireOrganizer(ctx, caller, eventID); err != nil {
		return nil, err
	}

	regs, err := s.regs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var counts model.LiveCounts
	for _, r := range regs {
		if !r.Status.Active() {
			continue
		}
		counts.TotalActive++
		switch r.Status {
		case model.StatusCheckedIn:
			counts.CheckedIn++
		case model.StatusCheckedOut:
			counts.CheckedOut++
		}
	}
	counts.NotArrived = counts.TotalActive - counts.CheckedIn - counts.CheckedOut
	return &counts, nil
}

// Participants returns the operator roster: every registration regardless of
// status, joined with the user's display fields.
func (s *AttendanceService) Participants(ctx context.Context, caller model.Caller, eventID string) ([]model.Participant, error) {
	if _, err := s.requireOrganizer(ctx, caller, eventID); err != nil {
		return nil, err
	}

	regs, err := s.regs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	participants := make([]model.Participant, 0, len(regs))
	for _, r := range regs {
		user, err := s.users.LookupUser(ctx, r.UserID)
		if err != nil {
			return nil, err
		}
		participants = append(participants, model.Participant{
			RegistrationID: r.ID,
			UserName:       user.Name,
			UserEmail:      user.Email,
			Status:         r.Status,
			RegisteredAt:   r.RegisteredAt,
			CheckedInAt:    r.CheckedInAt,
			CheckedOutAt:   r.CheckedOutAt,
		})
	}
	return participants, nil
}

// History returns every registration for an event with all its timestamps,
// for audit and export.
func (s *AttendanceService) History(ctx context.Context, caller model.Caller, eventID string) ([]model.HistoryEntry, error) {
	if _, err := s.requireOrganizer(ctx, caller, eventID); err != nil {
		return nil, err
	}

	regs, err := s.regs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	history := make([]model.HistoryEntry, 0, len(regs))
	for _, r := range regs {
		user, err := s.users.LookupUser(ctx, r.UserID)
		if err != nil {
			return nil, err
		}
		history = append(history, model.HistoryEntry{
			RegistrationID: r.ID,
			UserID:         r.UserID,
			UserName:       user.Name,
			UserEmail:      user.Email,
			Status:         r.Status,
			RegisteredAt:   r.RegisteredAt,
			CheckedInAt:    r.CheckedInAt,
			CheckedOutAt:   r.CheckedOutAt,
			CancelledAt:    r.CancelledAt,
		})
	}
	return history, nil
}

// Analytics summarises an event's attendance outcome. EverCheckedIn counts
// participants currently CHECKED_IN or CHECKED_OUT (checked in at least
// once); FillRate is active registrations against capacity, in percent.
func (s *AttendanceService) Analytics(ctx context.Context, caller model.Caller, eventID string) (*model.EventAnalytics, error) {
	event, err := s.requireOrganizer(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}

	regs, err := s.regs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	a := &model.EventAnalytics{
		EventID:         event.ID,
		EventTitle:      event.Title,
		MaxParticipants: event.MaxParticipants,
	}
	for _, r := range regs {
		if r.Status.Active() {
			a.TotalRegistrations++
		}
		switch r.Status {
		case model.StatusCheckedIn, model.StatusCheckedOut:
			a.EverCheckedIn++
		case model.StatusNoShow:
			a.NoShows++
		}
		if r.Status == model.StatusCheckedOut {
			a.CheckedOut++
		}
	}
	if event.MaxParticipants > 0 {
		rate := float64(a.TotalRegistrations) / float64(event.MaxParticipants) * 100
		a.FillRate = math.Round(rate*10) / 10
	}
	return a, nil
}
