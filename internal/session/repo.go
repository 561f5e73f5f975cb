package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusattend/internal/store"
)

// Repository persists sessions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const sessionColumns = `id, course_name, course_code, owner_id, owner_name, duration_minutes,
	location, start_time, end_time, active, attendee_count, created_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.CourseName, &s.CourseCode, &s.OwnerID, &s.OwnerName,
		&s.DurationMinutes, &s.Location, &s.Start, &s.End, &s.Active, &s.AttendeeCount, &s.CreatedAt)
	return s, err
}

// Insert writes a new session.
func (r *Repository) Insert(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, s.ID, s.CourseName, s.CourseCode, s.OwnerID, s.OwnerName, s.DurationMinutes,
		s.Location, s.Start, s.End, s.Active, s.AttendeeCount, s.CreatedAt)
	return err
}

// Get returns a session by id.
func (r *Repository) Get(ctx context.Context, id string) (Session, error) {
	var s Session
	err := store.Retry(ctx, func() error {
		var scanErr error
		s, scanErr = scanSession(r.db.QueryRowContext(ctx,
			`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	return s, err
}

// ListByOwner returns a lecturer's sessions, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Session, error) {
	return r.list(ctx, `SELECT `+sessionColumns+` FROM sessions
		WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
}

// ListAcceptable returns sessions open for check-in at the given instant.
func (r *Repository) ListAcceptable(ctx context.Context, now time.Time) ([]Session, error) {
	return r.list(ctx, `SELECT `+sessionColumns+` FROM sessions
		WHERE active AND end_time > $1 ORDER BY created_at DESC`, now)
}

// ListAll returns every session, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]Session, error) {
	return r.list(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC`)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Session, error) {
	var res []Session
	err := store.Retry(ctx, func() error {
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		res = res[:0]
		for rows.Next() {
			s, err := scanSession(rows)
			if err != nil {
				return err
			}
			res = append(res, s)
		}
		return rows.Err()
	})
	return res, err
}

// SetActive flips the active flag without touching the window.
func (r *Repository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a session and its attendance records in one
// transaction so no orphaned record is ever observable.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE session_id = $1`, id); err != nil {
		return fmt.Errorf("cascade attendance records: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// IncrementAttendees bumps the cached tally. Best effort; Recount is
// the source of truth.
func (r *Repository) IncrementAttendees(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET attendee_count = attendee_count + 1 WHERE id = $1`, id)
	return err
}

// RecountAttendees recomputes the tally from the record set and stores it.
func (r *Repository) RecountAttendees(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		UPDATE sessions SET attendee_count = sub.n
		FROM (SELECT COUNT(*) AS n FROM attendance_records WHERE session_id = $1) sub
		WHERE id = $1
		RETURNING attendee_count
	`, id).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return count, err
}
