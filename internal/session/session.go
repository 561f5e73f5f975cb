package session

import "time"

// Duration bounds for a teaching block, in minutes.
const (
	MinDurationMinutes = 15
	MaxDurationMinutes = 240
)

// Session is a lecturer-defined, time-boxed window during which
// students may check in. End is computed once at creation and never
// recomputed; Active can be forced off by the owner before End.
type Session struct {
	ID              string    `json:"id"`
	CourseName      string    `json:"course_name"`
	CourseCode      string    `json:"course_code"`
	OwnerID         string    `json:"owner_id"`
	OwnerName       string    `json:"owner_name"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location"`
	Start           time.Time `json:"start_time"`
	End             time.Time `json:"end_time"`
	Active          bool      `json:"active"`
	AttendeeCount   int       `json:"attendee_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// AcceptableAt reports whether the session accepts check-ins at the
// given instant. Callers must pass now read at the gating decision,
// not a value cached from an earlier listing.
func (s Session) AcceptableAt(now time.Time) bool {
	return s.Active && now.Before(s.End)
}

// ExpiredAt reports whether the session's window has elapsed,
// independent of the Active flag.
func (s Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.End)
}

// RemainingMinutes returns whole minutes until End, floored at zero.
// Display only; acceptability always re-derives from the clock.
func (s Session) RemainingMinutes(now time.Time) int {
	diff := s.End.Sub(now)
	if diff <= 0 {
		return 0
	}
	return int(diff / time.Minute)
}
