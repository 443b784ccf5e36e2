package service

import (
	"time"

	"eventgate/internal/model"
)

// ─── Scan (cycling) ───────────────────────────────────────────────────────────

func (s *AttendanceServiceSuite) TestScanCycle() {
	reg, err := s.svc.Enroll(s.ctx, alice, "e1")
	s.Require().NoError(err)

	// Three scans in a row: CHECKED_IN, CHECKED_OUT, CHECKED_IN.
	inAt := s.advance(time.Hour)
	scanned, err := s.svc.Scan(s.ctx, organizer, reg.ID, "")
	s.Require().NoError(err)
	s.Equal(model.StatusCheckedIn, scanned.Status)
	s.Equal(inAt, *scanned.CheckedInAt)

	outAt := s.advance(time.Hour)
	scanned, err = s.svc.Scan(s.ctx, organizer, reg.ID, "")
	s.Require().NoError(err)
	s.Equal(model.StatusCheckedOut, scanned.Status)
	s.Equal(outAt, *scanned.CheckedOutAt)
	s.Equal(inAt, *scanned.CheckedInAt)

	backAt := s.advance(time.Hour)
	scanned, err = s.svc.Scan(s.ctx, organizer, reg.ID, "")
	s.Require().NoError(err)
	s.Equal(model.StatusCheckedIn, scanned.Status)
	s.Equal(backAt, *scanned.CheckedInAt)
	// Prior check-out survives as history of the last completed visit.
	s.Equal(outAt, *scanned.CheckedOutAt)
}

func (s *AttendanceServiceSuite) TestScanManyCycles() {
	reg, err := s.svc.Enroll(s.ctx, alice, "e1")
	s.Require().NoError(err)

	want := []model.Status{}
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			want = append(want, model.StatusCheckedIn)
		} else {
			want = append(want, model.StatusCheckedOut)
		}
	}
	for i, expected := range want {
		s.advance(time.Minute)
		scanned, err := s.svc.Scan(s.ctx, organizer, reg.ID, "")
		s.Require().NoError(err, "scan %d", i)
		s.Equal(expected, scanned.Status, "scan %d", i)
	}
}

func (s *AttendanceServiceSuite) TestScanEventMismatch() {
	reg, err := s.svc.Enroll(s.ctx, alice, "e1")
	s.Require().NoError(err)

	_, err = s.svc.Scan(s.ctx, organizer, reg.ID, "draft")
	s.Require().ErrorIs(err, model.ErrEventMismatch)

	// The registration is unchanged.
	stored, err := s.regs.GetByID(s.ctx, reg.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusRegistered, stored.Status)
	s.Nil(stored.CheckedInAt)
}

func (s *AttendanceServiceSuite) TestScanMatchingAssertedEvent() {
	reg, err := s.svc.Enroll(s.ctx, alice, "e1")
	s.Require().NoError(err)

	scanned, err := s.svc.Scan(s.ctx, organizer, reg.ID, "e1")
	s.Require().NoError(err)
	s.Equal(model.StatusCheckedIn, scanned.Status)
}

func (s *AttendanceServiceSuite) TestScanAuthorization() {
	reg, err := s.svc.Enroll(s.ctx, alice, "e1")
	s.Require().NoError(err)

	s.Run("participant cannot scan, not even their own", func() {
		_, err := s.svc.Scan(s.ctx, alice, reg.ID, "")
		s.Require().ErrorIs(err, model.ErrForbidden)
	})

	s.Run("a different organizer cannot scan", func() {
		other := model.Caller{ID: "other-org", Role: model.RoleEventOwner}
		_, err := s.svc.Scan(s.ctx, other, reg.ID, "")
		s.Require().ErrorIs(err, model.ErrForbidden)
	})

	s.Run("admin can scan any event", func() {
		_, err := s.svc.Scan(s.ctx, admin, reg.ID, "")
		s.Require().NoError(err)
	})
}

func (s *AttendanceServiceSuite) TestScanCancelledRegistration() {
	reg, err := s.svc.Enroll(s.ctx, alice, "e1")
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Cancel(s.ctx, alice, "e1"))

	_, err = s.svc.Scan(s.ctx, organizer, reg.ID, "")
	s.Require().ErrorIs(err, model.ErrAlreadyCancelled)
}

func (s *AttendanceServiceSuite) TestScanNoShowRegistration() {
	reg, err := s.svc.Enroll(s.ctx, alice, "e1")
	s.Require().NoError(err)
	_, err = s.svc.CloseOut(s.ctx, organizer, "e1")
	s.Require().NoError(err)

	_, err = s.svc.Scan(s.ctx, organizer, reg.ID, "")
	s.Require().ErrorIs(err, model.ErrTerminalState)
}

func (s *AttendanceServiceSuite) TestScanUnknownRegistration() {
	_, err := s.svc.Scan(s.ctx, organizer, "missing", "")
	s.Require().ErrorIs(err, model.ErrRegistrationNotFound)
}

// ─── Manual transitions ───────────────────────────────────────────────────────

func (s *AttendanceServiceSuite) TestManualCheckInAndOut() {
	reg, err := s.svc.Enroll(s.ctx, alice, "e1")
	s.Require().NoError(err)

	inAt := s.advance(time.Hour)
	checked, err := s.svc.ManualCheckIn(s.ctx, organizer, reg.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusCheckedIn, checked.Status)
	s.Equal(inAt, *checked.CheckedInAt)

	outAt := s.advance(time.Hour)
	checked, err = s.svc.ManualCheckOut(s.ctx, organizer, reg.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusCheckedOut, checked.Status)
	s.Equal(outAt, *checked.CheckedOutAt)
}

func (s *AttendanceServiceSuite) TestManualCheckInConflicts() {
	reg, err := s.svc.Enroll(s.ctx, alice, "e1")
	s.Require().NoError(err)
	_, err = s.svc.ManualCheckIn(s.ctx, organizer, reg.ID)
	s.Require().NoError(err)

	// One-shot: a second manual check-in does not cycle.
	_, err = s.svc.ManualCheckIn(s.ctx, organizer, reg.ID)
	s.Require().ErrorIs(err, model.ErrNotInRegisteredState)
}

func (s *AttendanceServiceSuite) TestManualCheckOutConflicts() {
	reg, err := s.svc.Enroll(s.ctx, alice, "e1")
	s.Require().NoError(err)

	// Not checked in yet.
	_, err = s.svc.ManualCheckOut(s.ctx, organizer, reg.ID)
	s.Require().ErrorIs(err, model.ErrNotCheckedIn)

	// No manual path back from CHECKED_OUT.
	_, err = s.svc.ManualCheckIn(s.ctx, organizer, reg.ID)
	s.Require().NoError(err)
	_, err = s.svc.ManualCheckOut(s.ctx, organizer, reg.ID)
	s.Require().NoError(err)
	_, err = s.svc.ManualCheckOut(s.ctx, organizer, reg.ID)
	s.Require().ErrorIs(err, model.ErrNotCheckedIn)
	_, err = s.svc.ManualCheckIn(s.ctx, organizer, reg.ID)
	s.Require().ErrorIs(err, model.ErrNotInRegisteredState)
}

func (s *AttendanceServiceSuite) TestManualTransitionAuthorization() {
	reg, err := s.svc.Enroll(s.ctx, alice, "e1")
	s.Require().NoError(err)

	_, err = s.svc.ManualCheckIn(s.ctx, alice, reg.ID)
	s.Require().ErrorIs(err, model.ErrForbidden)
	_, err = s.svc.ManualCheckOut(s.ctx, alice, reg.ID)
	s.Require().ErrorIs(err, model.ErrForbidden)
}

// ─── Close-out ────────────────────────────────────────────────────────────────

func (s *AttendanceServiceSuite) TestCloseOut() {
	regA, err := s.svc.Enroll(s.ctx, alice, "e1")
	s.Require().NoError(err)
	regB, err := s.svc.Enroll(s.ctx, bob, "e1")
	s.Require().NoError(err)
	_, err = s.svc.Scan(s.ctx, organizer, regB.ID, "")
	s.Require().NoError(err)

	n, err := s.svc.CloseOut(s.ctx, organizer, "e1")
	s.Require().NoError(err)
	s.Equal(1, n)

	storedA, _ := s.regs.GetByID(s.ctx, regA.ID)
	s.Equal(model.StatusNoShow, storedA.Status)
	storedB, _ := s.regs.GetByID(s.ctx, regB.ID)
	s.Equal(model.StatusCheckedIn, storedB.Status)

	s.Run("only the organizer or admin may close out", func() {
		_, err := s.svc.CloseOut(s.ctx, alice, "e1")
		s.Require().ErrorIs(err, model.ErrForbidden)
	})

	s.Run("unknown event", func() {
		_, err := s.svc.CloseOut(s.ctx, organizer, "missing")
		s.Require().ErrorIs(err, model.ErrEventNotFound)
	})
}
