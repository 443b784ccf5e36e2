package service

import (
	"time"

	"eventgate/internal/model"
)

// seedPresence enrolls five participants on e1: two checked in, one checked
// out (via a full in/out cycle), two never arrived.
func (s *AttendanceServiceSuite) seedPresence() (regs []*model.Registration) {
	callers := []model.Caller{alice, bob, mallory,
		{ID: "dave", Role: model.RoleUser},
		{ID: "erin", Role: model.RoleUser},
	}
	s.users.Put(&model.User{ID: "dave", Name: "Dave", Email: "dave@example.com"})
	s.users.Put(&model.User{ID: "erin", Name: "Erin", Email: "erin@example.com"})

	for _, c := range callers {
		s.advance(time.Minute)
		reg, err := s.svc.Enroll(s.ctx, c, "e1")
		s.Require().NoError(err)
		regs = append(regs, reg)
	}

	// alice and bob check in.
	for _, reg := range regs[:2] {
		s.advance(time.Minute)
		_, err := s.svc.Scan(s.ctx, organizer, reg.ID, "")
		s.Require().NoError(err)
	}
	// mallory checks in, then out.
	s.advance(time.Minute)
	_, err := s.svc.Scan(s.ctx, organizer, regs[2].ID, "")
	s.Require().NoError(err)
	s.advance(time.Minute)
	_, err = s.svc.Scan(s.ctx, organizer, regs[2].ID, "")
	s.Require().NoError(err)

	return regs
}

func (s *AttendanceServiceSuite) TestLiveCounts() {
	s.seedPresence()

	counts, err := s.svc.LiveCounts(s.ctx, organizer, "e1")
	s.Require().NoError(err)

	s.Equal(5, counts.TotalActive)
	s.Equal(2, counts.CheckedIn)
	s.Equal(1, counts.CheckedOut)
	s.Equal(2, counts.NotArrived)
}

// TestLiveCountsInvariant checks checked_in + checked_out + not_arrived ==
// total_active at every observation point of a mutation sequence.
func (s *AttendanceServiceSuite) TestLiveCountsInvariant() {
	regs := s.seedPresence()

	check := func() {
		counts, err := s.svc.LiveCounts(s.ctx, organizer, "e1")
		s.Require().NoError(err)
		s.Equal(counts.TotalActive, counts.CheckedIn+counts.CheckedOut+counts.NotArrived)
	}

	check()
	s.Require().NoError(s.svc.Cancel(s.ctx, model.Caller{ID: "dave", Role: model.RoleUser}, "e1"))
	check()
	_, err := s.svc.Scan(s.ctx, organizer, regs[0].ID, "")
	s.Require().NoError(err)
	check()
	_, err = s.svc.CloseOut(s.ctx, organizer, "e1")
	s.Require().NoError(err)
	check()
}

func (s *AttendanceServiceSuite) TestLiveCountsExcludesCancelled() {
	s.seedPresence()
	s.Require().NoError(s.svc.Cancel(s.ctx, model.Caller{ID: "erin", Role: model.RoleUser}, "e1"))

	counts, err := s.svc.LiveCounts(s.ctx, organizer, "e1")
	s.Require().NoError(err)
	s.Equal(4, counts.TotalActive)
	s.Equal(1, counts.NotArrived)
}

func (s *AttendanceServiceSuite) TestParticipants() {
	s.seedPresence()
	s.Require().NoError(s.svc.Cancel(s.ctx, model.Caller{ID: "erin", Role: model.RoleUser}, "e1"))

	roster, err := s.svc.Participants(s.ctx, organizer, "e1")
	s.Require().NoError(err)

	// Every registration regardless of status, in registration order.
	s.Require().Len(roster, 5)
	s.Equal("Alice", roster[0].UserName)
	s.Equal("alice@example.com", roster[0].UserEmail)
	s.Equal(model.StatusCheckedIn, roster[0].Status)
	s.Equal(model.StatusCancelled, roster[4].Status)
}

func (s *AttendanceServiceSuite) TestHistory() {
	regs := s.seedPresence()

	history, err := s.svc.History(s.ctx, organizer, "e1")
	s.Require().NoError(err)
	s.Require().Len(history, 5)

	// mallory completed a full visit: both timestamps present.
	var m model.HistoryEntry
	for _, e := range history {
		if e.RegistrationID == regs[2].ID {
			m = e
		}
	}
	s.Equal(model.StatusCheckedOut, m.Status)
	s.Require().NotNil(m.CheckedInAt)
	s.Require().NotNil(m.CheckedOutAt)
	s.True(!m.CheckedOutAt.Before(*m.CheckedInAt))
}

func (s *AttendanceServiceSuite) TestAnalytics() {
	s.seedPresence()
	s.events.Put(&model.Event{
		ID: "e1", Title: "GopherCon", MaxParticipants: 10,
		Status: model.EventPublished, OwnerID: organizer.ID,
	})
	_, err := s.svc.CloseOut(s.ctx, organizer, "e1")
	s.Require().NoError(err)

	a, err := s.svc.Analytics(s.ctx, organizer, "e1")
	s.Require().NoError(err)

	s.Equal("GopherCon", a.EventTitle)
	s.Equal(10, a.MaxParticipants)
	s.Equal(5, a.TotalRegistrations)
	s.Equal(3, a.EverCheckedIn) // checked in at least once
	s.Equal(1, a.CheckedOut)
	s.Equal(2, a.NoShows)
	s.InDelta(50.0, a.FillRate, 0.01)
}

func (s *AttendanceServiceSuite) TestViewsAuthorization() {
	s.seedPresence()

	_, err := s.svc.LiveCounts(s.ctx, alice, "e1")
	s.Require().ErrorIs(err, model.ErrForbidden)
	_, err = s.svc.Participants(s.ctx, alice, "e1")
	s.Require().ErrorIs(err, model.ErrForbidden)
	_, err = s.svc.History(s.ctx, alice, "e1")
	s.Require().ErrorIs(err, model.ErrForbidden)
	_, err = s.svc.Analytics(s.ctx, alice, "e1")
	s.Require().ErrorIs(err, model.ErrForbidden)

	// Elevated role sees everything.
	_, err = s.svc.LiveCounts(s.ctx, admin, "e1")
	s.Require().NoError(err)
}

func (s *AttendanceServiceSuite) TestViewsUnknownEvent() {
	_, err := s.svc.LiveCounts(s.ctx, organizer, "missing")
	s.Require().ErrorIs(err, model.ErrEventNotFound)
	_, err = s.svc.Participants(s.ctx, organizer, "missing")
	s.Require().ErrorIs(err, model.ErrEventNotFound)
	_, err = s.svc.History(s.ctx, organizer, "missing")
	s.Require().ErrorIs(err, model.ErrEventNotFound)
}
