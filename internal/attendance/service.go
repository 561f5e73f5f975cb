package attendance

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"campusattend/internal/clock"
	"campusattend/internal/session"
)

// Store is the persistence surface the recorder needs. Insert must be
// backed by an atomic uniqueness constraint on (session, student): the
// store is the final arbiter against concurrent duplicate check-ins,
// not the application-level existence check.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	ExistsFor(ctx context.Context, sessionID, studentID string) (bool, error)
	ListBySession(ctx context.Context, sessionID string) ([]Record, error)
	ListByStudent(ctx context.Context, studentID string) ([]Record, error)
}

// SessionStore is the slice of the lifecycle store the recorder reads
// and best-effort updates.
type SessionStore interface {
	Get(ctx context.Context, id string) (session.Session, error)
	IncrementAttendees(ctx context.Context, id string) error
}

// Service validates check-ins against the session lifecycle, produces
// the append-only record, and serves the read-side aggregations.
type Service struct {
	records  Store
	sessions SessionStore
	clk      clock.Clock
}

// NewService creates a recorder.
func NewService(records Store, sessions SessionStore, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.System()
	}
	return &Service{records: records, sessions: sessions, clk: clk}
}

// MarkInput carries one check-in attempt. Student fields come from the
// authenticated identity, never from the request body, so a student
// cannot mark on behalf of another.
type MarkInput struct {
	SessionID     string
	StudentID     string
	StudentName   string
	StudentNumber string
	StudentEmail  string
	Confidence    *float64
	AttributedBy  string
}

// Mark performs the gated, idempotent insert-or-reject of one
// attendance record and returns the classified result.
func (s *Service) Mark(ctx context.Context, in MarkInput) (Record, error) {
	if in.SessionID == "" || in.StudentID == "" {
		return Record{}, fmt.Errorf("%w: session and student required", ErrValidation)
	}
	if in.Confidence != nil && (*in.Confidence < 0 || *in.Confidence > 1) {
		return Record{}, fmt.Errorf("%w: confidence must be within [0,1]", ErrValidation)
	}
	switch in.AttributedBy {
	case "":
		in.AttributedBy = ByStudent
	case ByStudent, ByLecturer, BySystem:
	default:
		return Record{}, fmt.Errorf("%w: unknown attribution %q", ErrValidation, in.AttributedBy)
	}

	sess, err := s.sessions.Get(ctx, in.SessionID)
	if err != nil {
		return Record{}, err
	}

	// The gate re-reads the clock here; time passed since the caller
	// listed sessions.
	now := s.clk.Now()
	if !sess.Active {
		return Record{}, ErrSessionInactive
	}
	if sess.ExpiredAt(now) {
		return Record{}, ErrSessionExpired
	}

	// Fast path only; the unique index decides under concurrency.
	if exists, err := s.records.ExistsFor(ctx, in.SessionID, in.StudentID); err != nil {
		return Record{}, fmt.Errorf("existence check: %w", err)
	} else if exists {
		return Record{}, ErrDuplicate
	}

	rec := Record{
		ID:            uuid.NewString(),
		SessionID:     in.SessionID,
		StudentID:     in.StudentID,
		StudentName:   in.StudentName,
		StudentNumber: in.StudentNumber,
		StudentEmail:  in.StudentEmail,
		RecordedAt:    now,
		Status:        Classify(now.Sub(sess.Start)),
		Confidence:    in.Confidence,
		AttributedBy:  in.AttributedBy,
	}
	if err := s.records.Insert(ctx, rec); err != nil {
		return Record{}, err
	}

	// Cached tally; drift is repaired by recount, so a failed bump
	// must not fail the check-in.
	if err := s.sessions.IncrementAttendees(ctx, in.SessionID); err != nil {
		log.Printf("attendee count bump failed for session %s: %v", in.SessionID, err)
	}
	return rec, nil
}

// Get returns a single record by id.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.records.Get(ctx, id)
}

// History returns the student's own records, newest first.
func (s *Service) History(ctx context.Context, studentID string) ([]Record, error) {
	return s.records.ListByStudent(ctx, studentID)
}

// StatusCounts tallies a roster per status.
type StatusCounts struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Late    int `json:"late"`
	Absent  int `json:"absent"`
}

// Roster is the owner-facing view of a session's check-ins.
type Roster struct {
	Records []Record     `json:"records"`
	Counts  StatusCounts `json:"counts"`
}

// RosterFor returns all records for an owned session in recorded
// order, plus per-status counts.
func (s *Service) RosterFor(ctx context.Context, sessionID, callerID string) (Roster, error) {
	records, _, err := s.ownedRecords(ctx, sessionID, callerID)
	if err != nil {
		return Roster{}, err
	}
	roster := Roster{Records: records}
	roster.Counts.Total = len(records)
	for _, rec := range records {
		switch rec.Status {
		case StatusPresent:
			roster.Counts.Present++
		case StatusLate:
			roster.Counts.Late++
		case StatusAbsent:
			roster.Counts.Absent++
		}
	}
	return roster, nil
}

func (s *Service) ownedRecords(ctx context.Context, sessionID, callerID string) ([]Record, session.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, session.Session{}, err
	}
	if sess.OwnerID != callerID {
		return nil, session.Session{}, session.ErrNotOwner
	}
	records, err := s.records.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, session.Session{}, err
	}
	return records, sess, nil
}
