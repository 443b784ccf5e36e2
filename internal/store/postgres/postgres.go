// Package postgres implements the store contracts on PostgreSQL using pgx
// directly (no ORM) for transparency and performance.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventgate/internal/model"
)

const registrationColumns = `id, user_id, event_id, status, scan_token, qr_code_url,
	registered_at, checked_in_at, checked_out_at, cancelled_at`

// RegistrationStore persists registrations in PostgreSQL.
type RegistrationStore struct {
	db *pgxpool.Pool
}

// NewRegistrationStore constructs a PostgreSQL-backed registration store.
func NewRegistrationStore(db *pgxpool.Pool) *RegistrationStore {
	return &RegistrationStore{db: db}
}

// Admit performs the concurrency-safe admission inside a single transaction.
//
// SELECT … FOR UPDATE acquires a row-level exclusive lock on the event row,
// serialising concurrent admissions for the same event: the duplicate check,
// the capacity count and the insert all happen before any competing
// transaction can observe the same counts. Without the lock, two concurrent
// admissions can both see a free seat and overshoot the cap.
func (s *RegistrationStore) Admit(ctx context.Context, reg *model.Registration, maxParticipants int) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock the event row for the duration of the transaction.
	var eventID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM events WHERE id = $1 FOR UPDATE`,
		reg.EventID,
	).Scan(&eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = model.ErrEventNotFound
			return err
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	var dupCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations
		 WHERE event_id = $1 AND user_id = $2 AND status <> 'CANCELLED'`,
		reg.EventID, reg.UserID,
	).Scan(&dupCount)
	if err != nil {
		return fmt.Errorf("check duplicate: %w", err)
	}
	if dupCount > 0 {
		err = model.ErrAlreadyRegistered
		return err
	}

	// Capacity counts live rows rather than a denormalised counter so a
	// cancellation frees its seat without compensating updates.
	var active int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations
		 WHERE event_id = $1 AND status <> 'CANCELLED'`,
		reg.EventID,
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("count active registrations: %w", err)
	}
	if active >= maxParticipants {
		err = model.ErrEventFull
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO registrations
		 (id, user_id, event_id, status, scan_token, qr_code_url, registered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		reg.ID, reg.UserID, reg.EventID, reg.Status, reg.ScanToken, reg.QRCodeURL, reg.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID returns a single registration or ErrRegistrationNotFound.
func (s *RegistrationStore) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`,
		id,
	)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

// FindActiveByUserAndEvent returns the user's non-cancelled registration for
// the event, or ErrRegistrationNotFound.
func (s *RegistrationStore) FindActiveByUserAndEvent(ctx context.Context, userID, eventID string) (*model.Registration, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE user_id = $1 AND event_id = $2 AND status <> 'CANCELLED'`,
		userID, eventID,
	)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("find active registration: %w", err)
	}
	return reg, nil
}

// ListByEvent returns all registrations for an event ordered by
// registration time.
func (s *RegistrationStore) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE event_id = $1
		 ORDER BY registered_at ASC, id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations by event: %w", err)
	}
	defer rows.Close()
	return collectRegistrations(rows)
}

// ListByUser returns all registrations belonging to a user.
func (s *RegistrationStore) ListByUser(ctx context.Context, userID string) ([]model.Registration, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE user_id = $1
		 ORDER BY registered_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations by user: %w", err)
	}
	defer rows.Close()
	return collectRegistrations(rows)
}

// CountActiveByEvent counts non-cancelled registrations for an event.
func (s *RegistrationStore) CountActiveByEvent(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations
		 WHERE event_id = $1 AND status <> 'CANCELLED'`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active registrations: %w", err)
	}
	return n, nil
}

// Execute locks the registration row, applies mutate, and writes the result
// back in the same transaction. A mutate error rolls everything back, so a
// rejected transition never changes the record.
func (s *RegistrationStore) Execute(ctx context.Context, id string, mutate func(*model.Registration) error) (*model.Registration, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	row := tx.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1 FOR UPDATE`,
		id,
	)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = model.ErrRegistrationNotFound
			return nil, err
		}
		return nil, fmt.Errorf("lock registration row: %w", err)
	}

	if err = mutate(reg); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE registrations
		 SET status = $2, checked_in_at = $3, checked_out_at = $4, cancelled_at = $5
		 WHERE id = $1`,
		reg.ID, reg.Status, reg.CheckedInAt, reg.CheckedOutAt, reg.CancelledAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return reg, nil
}

// MarkNoShows flips the event's remaining REGISTERED rows to NO_SHOW.
func (s *RegistrationStore) MarkNoShows(ctx context.Context, eventID string) (int, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE registrations SET status = 'NO_SHOW'
		 WHERE event_id = $1 AND status = 'REGISTERED'`,
		eventID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark no-shows: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(
		&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.ScanToken, &reg.QRCodeURL,
		&reg.RegisteredAt, &reg.CheckedInAt, &reg.CheckedOutAt, &reg.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func collectRegistrations(rows pgx.Rows) ([]model.Registration, error) {
	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

// EventDirectory reads the event-management collaborator's events table.
type EventDirectory struct {
	db *pgxpool.Pool
}

// NewEventDirectory constructs a PostgreSQL-backed event directory.
func NewEventDirectory(db *pgxpool.Pool) *EventDirectory {
	return &EventDirectory{db: db}
}

// LookupEvent returns the event read model or ErrEventNotFound.
func (d *EventDirectory) LookupEvent(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := d.db.QueryRow(ctx,
		`SELECT id, title, max_participants, status, owner_id FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Title, &e.MaxParticipants, &e.Status, &e.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrEventNotFound
		}
		return nil, fmt.Errorf("lookup event: %w", err)
	}
	return &e, nil
}

// UserDirectory reads the identity collaborator's users table.
type UserDirectory struct {
	db *pgxpool.Pool
}

// NewUserDirectory constructs a PostgreSQL-backed user directory.
func NewUserDirectory(db *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{db: db}
}

// LookupUser returns the user's display fields or ErrUserNotFound.
func (d *UserDirectory) LookupUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := d.db.QueryRow(ctx,
		`SELECT id, name, email FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return &u, nil
}
