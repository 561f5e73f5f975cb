package store

import (
	"context"
	"database/sql"
)

// The unique index on (session_id, student_id) is the authoritative
// guard against duplicate check-ins; application-level existence
// checks are only a fast path.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id               UUID PRIMARY KEY,
		course_name      TEXT NOT NULL,
		course_code      TEXT NOT NULL,
		owner_id         TEXT NOT NULL,
		owner_name       TEXT NOT NULL,
		duration_minutes INT NOT NULL,
		location         TEXT NOT NULL,
		start_time       TIMESTAMPTZ NOT NULL,
		end_time         TIMESTAMPTZ NOT NULL,
		active           BOOLEAN NOT NULL DEFAULT TRUE,
		attendee_count   INT NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_owner ON sessions (owner_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_end ON sessions (end_time) WHERE active`,
	`CREATE TABLE IF NOT EXISTS attendance_records (
		id             UUID PRIMARY KEY,
		session_id     UUID NOT NULL REFERENCES sessions(id),
		student_id     TEXT NOT NULL,
		student_name   TEXT NOT NULL,
		student_number TEXT NOT NULL,
		student_email  TEXT NOT NULL DEFAULT '',
		recorded_at    TIMESTAMPTZ NOT NULL,
		status         TEXT NOT NULL,
		confidence     DOUBLE PRECISION,
		attributed_by  TEXT NOT NULL DEFAULT 'student',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_attendance_session_student
		ON attendance_records (session_id, student_id)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance_records (student_id, recorded_at DESC)`,
}

// Migrate applies the schema. Statements are idempotent so it runs on
// every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
