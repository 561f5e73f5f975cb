package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusattend/internal/clock"
)

// Store is the persistence surface the lifecycle manager needs.
type Store interface {
	Insert(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Session, error)
	ListAcceptable(ctx context.Context, now time.Time) ([]Session, error)
	ListAll(ctx context.Context) ([]Session, error)
	SetActive(ctx context.Context, id string, active bool) error
	// Delete removes the session and all its attendance records
	// atomically; a reader must never observe orphaned records.
	Delete(ctx context.Context, id string) error
	IncrementAttendees(ctx context.Context, id string) error
	RecountAttendees(ctx context.Context, id string) (int, error)
}

// Service owns session creation, the activation window, and expiry
// determination.
type Service struct {
	store Store
	clk   clock.Clock
}

// NewService creates a lifecycle manager.
func NewService(store Store, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.System()
	}
	return &Service{store: store, clk: clk}
}

// CreateInput carries the lecturer-supplied session fields.
type CreateInput struct {
	CourseName      string
	CourseCode      string
	DurationMinutes int
	Location        string
}

// Create validates input, computes the activation window and persists
// a new active session owned by the caller.
func (s *Service) Create(ctx context.Context, ownerID, ownerName string, in CreateInput) (Session, error) {
	in.CourseName = strings.TrimSpace(in.CourseName)
	in.CourseCode = strings.ToUpper(strings.TrimSpace(in.CourseCode))
	in.Location = strings.TrimSpace(in.Location)

	switch {
	case ownerID == "":
		return Session{}, fmt.Errorf("%w: owner required", ErrValidation)
	case in.CourseName == "":
		return Session{}, fmt.Errorf("%w: course name required", ErrValidation)
	case in.CourseCode == "":
		return Session{}, fmt.Errorf("%w: course code required", ErrValidation)
	case in.Location == "":
		return Session{}, fmt.Errorf("%w: location required", ErrValidation)
	case in.DurationMinutes < MinDurationMinutes || in.DurationMinutes > MaxDurationMinutes:
		return Session{}, fmt.Errorf("%w: duration must be between %d and %d minutes",
			ErrValidation, MinDurationMinutes, MaxDurationMinutes)
	}

	now := s.clk.Now()
	sess := Session{
		ID:              uuid.NewString(),
		CourseName:      in.CourseName,
		CourseCode:      in.CourseCode,
		OwnerID:         ownerID,
		OwnerName:       ownerName,
		DurationMinutes: in.DurationMinutes,
		Location:        in.Location,
		Start:           now,
		End:             now.Add(time.Duration(in.DurationMinutes) * time.Minute),
		Active:          true,
		CreatedAt:       now,
	}
	if err := s.store.Insert(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// Get returns a session by id.
func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	return s.store.Get(ctx, id)
}

// Activate turns the session's active flag on. Owner only; the
// activation window itself is never altered.
func (s *Service) Activate(ctx context.Context, id, callerID string) (Session, error) {
	return s.setActive(ctx, id, callerID, true)
}

// Deactivate forces the active flag off, closing check-ins even before
// the window elapses.
func (s *Service) Deactivate(ctx context.Context, id, callerID string) (Session, error) {
	return s.setActive(ctx, id, callerID, false)
}

func (s *Service) setActive(ctx context.Context, id, callerID string, active bool) (Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.OwnerID != callerID {
		return Session{}, ErrNotOwner
	}
	if err := s.store.SetActive(ctx, id, active); err != nil {
		return Session{}, fmt.Errorf("set active: %w", err)
	}
	sess.Active = active
	return sess, nil
}

// Delete removes an owned session together with its attendance records.
func (s *Service) Delete(ctx context.Context, id, callerID string) error {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.OwnerID != callerID {
		return ErrNotOwner
	}
	return s.store.Delete(ctx, id)
}

// ListOwned returns the caller's sessions, newest first.
func (s *Service) ListOwned(ctx context.Context, ownerID string) ([]Session, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// ListAcceptable returns sessions currently open for check-in.
func (s *Service) ListAcceptable(ctx context.Context) ([]Session, error) {
	return s.store.ListAcceptable(ctx, s.clk.Now())
}

// ListAll returns every session; admin use.
func (s *Service) ListAll(ctx context.Context) ([]Session, error) {
	return s.store.ListAll(ctx)
}

// Remaining returns display minutes left on the session's window.
func (s *Service) Remaining(sess Session) int {
	return sess.RemainingMinutes(s.clk.Now())
}

// Recount recomputes the attendee tally from the record set, repairing
// any drift in the cached counter.
func (s *Service) Recount(ctx context.Context, id, callerID string) (int, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if sess.OwnerID != callerID {
		return 0, ErrNotOwner
	}
	return s.store.RecountAttendees(ctx, id)
}
