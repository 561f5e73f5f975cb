package attendance

import "time"

// Status classifies a check-in by how late it happened.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
)

// Who attributed the record.
const (
	ByStudent  = "student"
	ByLecturer = "lecturer"
	BySystem   = "system"
)

// Classification thresholds measured from session start.
const (
	presentWindow = 15 * time.Minute
	lateWindow    = 30 * time.Minute
)

// Classify maps elapsed time since session start to a status. Exactly
// 15 and 30 minutes land in the stricter (lower-latency) bucket. A
// check-in past 30 minutes is still recorded, with status absent; the
// source policy records the event rather than rejecting it.
func Classify(elapsed time.Duration) Status {
	switch {
	case elapsed <= presentWindow:
		return StatusPresent
	case elapsed <= lateWindow:
		return StatusLate
	default:
		return StatusAbsent
	}
}

// Record is one check-in event. Student name, number and email are
// captured at write time and immune to later profile edits. A record
// is immutable once written and deleted only when its session is.
type Record struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	StudentID     string    `json:"student_id"`
	StudentName   string    `json:"student_name"`
	StudentNumber string    `json:"student_number"`
	StudentEmail  string    `json:"student_email"`
	RecordedAt    time.Time `json:"recorded_at"`
	Status        Status    `json:"status"`
	Confidence    *float64  `json:"confidence,omitempty"`
	AttributedBy  string    `json:"attributed_by"`
}
