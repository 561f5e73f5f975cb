package main

import (
	"bytes"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusattend/internal/attendance"
	"campusattend/internal/auth"
	"campusattend/internal/config"
	"campusattend/internal/metrics"
	"campusattend/internal/queue"
	"campusattend/internal/session"
)

type handlers struct {
	cfg      config.App
	sessions *session.Service
	recorder *attendance.Service
	queue    queue.Queue
}

// sessionView augments a session with its display-only countdown.
type sessionView struct {
	session.Session
	RemainingMinutes int `json:"remaining_minutes"`
}

func (h *handlers) view(s session.Session) sessionView {
	return sessionView{Session: s, RemainingMinutes: h.sessions.Remaining(s)}
}

func (h *handlers) views(ss []session.Session) []sessionView {
	out := make([]sessionView, 0, len(ss))
	for _, s := range ss {
		out = append(out, h.view(s))
	}
	return out
}

// respondError maps domain errors onto distinct HTTP outcomes. Every
// semantic rejection keeps its own code so clients can render it;
// anything else is a generic server fault.
func respondError(c *gin.Context, err error) {
	var code string
	var status int
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, attendance.ErrRecordNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, session.ErrNotOwner):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, session.ErrValidation), errors.Is(err, attendance.ErrValidation):
		status, code = http.StatusBadRequest, "validation_failed"
	case errors.Is(err, attendance.ErrSessionInactive):
		status, code = http.StatusConflict, "session_inactive"
	case errors.Is(err, attendance.ErrSessionExpired):
		status, code = http.StatusConflict, "session_expired"
	case errors.Is(err, attendance.ErrDuplicate):
		status, code = http.StatusConflict, "duplicate_attendance"
	default:
		log.Printf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "message": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}

func (h *handlers) devToken(c *gin.Context) {
	var req struct {
		ID     string `json:"id" binding:"required"`
		Name   string `json:"name" binding:"required"`
		Number string `json:"number"`
		Email  string `json:"email"`
		Role   string `json:"role" binding:"required,oneof=student lecturer admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}
	token, exp, err := auth.Issue(auth.Identity{
		ID: req.ID, Name: req.Name, Number: req.Number, Email: req.Email, Role: req.Role,
	}, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "message": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"access_token": token, "expires_at": exp.Unix()})
}

func (h *handlers) createSession(c *gin.Context) {
	var req struct {
		CourseName      string `json:"course_name" binding:"required"`
		CourseCode      string `json:"course_code" binding:"required"`
		DurationMinutes int    `json:"duration_minutes" binding:"required"`
		Location        string `json:"location" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}
	caller := auth.CallerIdentity(c)
	sess, err := h.sessions.Create(c.Request.Context(), caller.ID, caller.Name, session.CreateInput{
		CourseName:      req.CourseName,
		CourseCode:      req.CourseCode,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.SessionsCreated.Inc()
	c.JSON(http.StatusCreated, gin.H{"session": h.view(sess)})
}

// listSessions filters by role: students see only sessions currently
// open for check-in, lecturers their own, admins everything.
func (h *handlers) listSessions(c *gin.Context) {
	caller := auth.CallerIdentity(c)
	var (
		sessions []session.Session
		err      error
	)
	switch caller.Role {
	case auth.RoleStudent:
		sessions, err = h.sessions.ListAcceptable(c.Request.Context())
	case auth.RoleLecturer:
		sessions, err = h.sessions.ListOwned(c.Request.Context(), caller.ID)
	default:
		sessions, err = h.sessions.ListAll(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(sessions), "sessions": h.views(sessions)})
}

func (h *handlers) getSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": h.view(sess)})
}

func (h *handlers) activateSession(c *gin.Context) {
	sess, err := h.sessions.Activate(c.Request.Context(), c.Param("id"), auth.CallerIdentity(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": h.view(sess)})
}

func (h *handlers) deactivateSession(c *gin.Context) {
	sess, err := h.sessions.Deactivate(c.Request.Context(), c.Param("id"), auth.CallerIdentity(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": h.view(sess)})
}

func (h *handlers) recountSession(c *gin.Context) {
	count, err := h.sessions.Recount(c.Request.Context(), c.Param("id"), auth.CallerIdentity(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendee_count": count})
}

func (h *handlers) deleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id"), auth.CallerIdentity(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session deleted"})
}

func (h *handlers) markAttendance(c *gin.Context) {
	var req struct {
		SessionID  string   `json:"session_id" binding:"required"`
		Confidence *float64 `json:"confidence" binding:"omitempty,gte=0,lte=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}
	// Student fields come from the token, so a caller cannot mark on
	// behalf of another identity.
	caller := auth.CallerIdentity(c)
	h.mark(c, attendance.MarkInput{
		SessionID:     req.SessionID,
		StudentID:     caller.ID,
		StudentName:   caller.Name,
		StudentNumber: caller.Number,
		StudentEmail:  caller.Email,
		Confidence:    req.Confidence,
		AttributedBy:  attendance.ByStudent,
	})
}

// markForStudent lets the owning lecturer record a student manually.
func (h *handlers) markForStudent(c *gin.Context) {
	var req struct {
		StudentID     string   `json:"student_id" binding:"required"`
		StudentName   string   `json:"student_name" binding:"required"`
		StudentNumber string   `json:"student_number" binding:"required"`
		StudentEmail  string   `json:"student_email"`
		Confidence    *float64 `json:"confidence" binding:"omitempty,gte=0,lte=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}
	sessionID := c.Param("id")
	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	if sess.OwnerID != auth.CallerIdentity(c).ID {
		respondError(c, session.ErrNotOwner)
		return
	}
	h.mark(c, attendance.MarkInput{
		SessionID:     sessionID,
		StudentID:     req.StudentID,
		StudentName:   req.StudentName,
		StudentNumber: req.StudentNumber,
		StudentEmail:  req.StudentEmail,
		Confidence:    req.Confidence,
		AttributedBy:  attendance.ByLecturer,
	})
}

func (h *handlers) mark(c *gin.Context, in attendance.MarkInput) {
	rec, err := h.recorder.Mark(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrSessionInactive):
			metrics.CheckinRejections.WithLabelValues("inactive").Inc()
		case errors.Is(err, attendance.ErrSessionExpired):
			metrics.CheckinRejections.WithLabelValues("expired").Inc()
		case errors.Is(err, attendance.ErrDuplicate):
			metrics.CheckinRejections.WithLabelValues("duplicate").Inc()
		}
		respondError(c, err)
		return
	}
	metrics.CheckinsTotal.WithLabelValues(string(rec.Status)).Inc()

	// Fire and forget; the worker picks this up and notifies.
	if err := h.queue.Publish(c.Request.Context(), queue.Message{Type: "checkin", Body: []byte(rec.ID)}); err != nil {
		log.Printf("queue publish failed: %v", err)
	}

	c.JSON(http.StatusCreated, gin.H{"record": rec})
}

func (h *handlers) history(c *gin.Context) {
	records, err := h.recorder.History(c.Request.Context(), auth.CallerIdentity(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "records": records})
}

func (h *handlers) roster(c *gin.Context) {
	roster, err := h.recorder.RosterFor(c.Request.Context(), c.Param("id"), auth.CallerIdentity(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, roster)
}

func (h *handlers) export(c *gin.Context) {
	var buf bytes.Buffer
	filename, err := h.recorder.ExportCSV(c.Request.Context(), c.Param("id"), auth.CallerIdentity(c).ID, &buf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
