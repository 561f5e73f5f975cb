package attendance

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"campusattend/internal/store"
)

// ErrRecordNotFound is returned when no record exists for the given id.
var ErrRecordNotFound = errors.New("attendance record not found")

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `id, session_id, student_id, student_name, student_number,
	student_email, recorded_at, status, confidence, attributed_by`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.SessionID, &rec.StudentID, &rec.StudentName,
		&rec.StudentNumber, &rec.StudentEmail, &rec.RecordedAt, &rec.Status,
		&rec.Confidence, &rec.AttributedBy)
	return rec, err
}

// Insert writes a new record. The unique index on (session_id,
// student_id) arbitrates concurrent attempts; a violation surfaces as
// ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, rec Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (`+recordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, rec.ID, rec.SessionID, rec.StudentID, rec.StudentName, rec.StudentNumber,
		rec.StudentEmail, rec.RecordedAt, rec.Status, rec.Confidence, rec.AttributedBy)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// Get returns a single record by id.
func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := store.Retry(ctx, func() error {
		var scanErr error
		rec, scanErr = scanRecord(r.db.QueryRowContext(ctx,
			`SELECT `+recordColumns+` FROM attendance_records WHERE id = $1`, id))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return rec, err
}

// ExistsFor reports whether the student already checked in to the
// session. Fast path only.
func (r *Repository) ExistsFor(ctx context.Context, sessionID, studentID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance_records WHERE session_id = $1 AND student_id = $2
		)
	`, sessionID, studentID).Scan(&exists)
	return exists, err
}

// ListBySession returns a session's records in ascending recorded order.
func (r *Repository) ListBySession(ctx context.Context, sessionID string) ([]Record, error) {
	return r.list(ctx, `SELECT `+recordColumns+` FROM attendance_records
		WHERE session_id = $1 ORDER BY recorded_at ASC`, sessionID)
}

// ListByStudent returns a student's records, newest first.
func (r *Repository) ListByStudent(ctx context.Context, studentID string) ([]Record, error) {
	return r.list(ctx, `SELECT `+recordColumns+` FROM attendance_records
		WHERE student_id = $1 ORDER BY recorded_at DESC`, studentID)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	var res []Record
	err := store.Retry(ctx, func() error {
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		res = res[:0]
		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				return err
			}
			res = append(res, rec)
		}
		return rows.Err()
	})
	return res, err
}
