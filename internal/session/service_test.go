package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"campusattend/internal/clock"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	// records per session id, standing in for the attendance table
	// so cascade deletion can be observed.
	records map[string]int
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]Session), records: make(map[string]int)}
}

func (m *memStore) Insert(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *memStore) ListByOwner(_ context.Context, ownerID string) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, s := range m.sessions {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListAcceptable(_ context.Context, now time.Time) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, s := range m.sessions {
		if s.AcceptableAt(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListAll(_ context.Context) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) SetActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.Active = active
	m.sessions[id] = s
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	delete(m.records, id)
	return nil
}

func (m *memStore) IncrementAttendees(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.AttendeeCount++
	m.sessions[id] = s
	return nil
}

func (m *memStore) RecountAttendees(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return 0, ErrNotFound
	}
	s.AttendeeCount = m.records[id]
	m.sessions[id] = s
	return s.AttendeeCount, nil
}

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestService() (*Service, *memStore, *clock.Fake) {
	st := newMemStore()
	clk := clock.NewFake(t0)
	return NewService(st, clk), st, clk
}

func validInput() CreateInput {
	return CreateInput{
		CourseName:      "Operating Systems",
		CourseCode:      "csc301",
		DurationMinutes: 60,
		Location:        "Lab 2",
	}
}

func TestCreateComputesWindow(t *testing.T) {
	svc, _, _ := newTestService()

	sess, err := svc.Create(context.Background(), "lect-1", "Dr. Mensah", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !sess.Start.Equal(t0) {
		t.Errorf("start = %v, want %v", sess.Start, t0)
	}
	if want := t0.Add(60 * time.Minute); !sess.End.Equal(want) {
		t.Errorf("end = %v, want %v", sess.End, want)
	}
	if !sess.Active {
		t.Error("new session should be active")
	}
	if sess.CourseCode != "CSC301" {
		t.Errorf("course code = %q, want uppercased", sess.CourseCode)
	}
	if sess.ID == "" {
		t.Error("session id should be assigned")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"empty course name", func(in *CreateInput) { in.CourseName = "  " }},
		{"empty course code", func(in *CreateInput) { in.CourseCode = "" }},
		{"empty location", func(in *CreateInput) { in.Location = "" }},
		{"duration too short", func(in *CreateInput) { in.DurationMinutes = 14 }},
		{"duration too long", func(in *CreateInput) { in.DurationMinutes = 241 }},
		{"zero duration", func(in *CreateInput) { in.DurationMinutes = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			if _, err := svc.Create(context.Background(), "lect-1", "Dr. Mensah", in); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}

	// Bounds themselves are valid.
	for _, d := range []int{15, 240} {
		in := validInput()
		in.DurationMinutes = d
		if _, err := svc.Create(context.Background(), "lect-1", "Dr. Mensah", in); err != nil {
			t.Errorf("duration %d: unexpected err %v", d, err)
		}
	}
}

func TestAcceptability(t *testing.T) {
	svc, _, clk := newTestService()
	sess, err := svc.Create(context.Background(), "lect-1", "Dr. Mensah", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !sess.AcceptableAt(clk.Now()) {
		t.Error("fresh session should be acceptable")
	}

	// Acceptability is false once now >= end, regardless of the flag.
	clk.Advance(60 * time.Minute)
	if sess.AcceptableAt(clk.Now()) {
		t.Error("session at its end instant should not be acceptable")
	}
	if !sess.ExpiredAt(clk.Now()) {
		t.Error("session at its end instant should be expired")
	}

	clk.Set(t0.Add(30 * time.Minute))
	inactive := sess
	inactive.Active = false
	if inactive.AcceptableAt(clk.Now()) {
		t.Error("deactivated session should not be acceptable before end")
	}
}

func TestRemainingMinutes(t *testing.T) {
	svc, _, clk := newTestService()
	sess, _ := svc.Create(context.Background(), "lect-1", "Dr. Mensah", validInput())

	if got := svc.Remaining(sess); got != 60 {
		t.Errorf("remaining = %d, want 60", got)
	}
	clk.Advance(25*time.Minute + 30*time.Second)
	if got := svc.Remaining(sess); got != 34 {
		t.Errorf("remaining = %d, want 34 (floored)", got)
	}
	clk.Advance(2 * time.Hour)
	if got := svc.Remaining(sess); got != 0 {
		t.Errorf("remaining = %d, want 0 after expiry", got)
	}
}

func TestActivateDeactivateOwnership(t *testing.T) {
	svc, st, _ := newTestService()
	sess, _ := svc.Create(context.Background(), "lect-1", "Dr. Mensah", validInput())

	if _, err := svc.Deactivate(context.Background(), sess.ID, "lect-2"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("deactivate by non-owner: err = %v, want ErrNotOwner", err)
	}
	if _, err := svc.Deactivate(context.Background(), "missing", "lect-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deactivate missing: err = %v, want ErrNotFound", err)
	}

	got, err := svc.Deactivate(context.Background(), sess.ID, "lect-1")
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if got.Active {
		t.Error("session should be inactive")
	}
	stored, _ := st.Get(context.Background(), sess.ID)
	if stored.Active {
		t.Error("deactivation should be persisted")
	}
	if !stored.End.Equal(sess.End) || !stored.Start.Equal(sess.Start) {
		t.Error("activation toggles must not alter the window")
	}

	got, err = svc.Activate(context.Background(), sess.ID, "lect-1")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !got.Active {
		t.Error("session should be active again")
	}
}

func TestDeleteCascades(t *testing.T) {
	svc, st, _ := newTestService()
	sess, _ := svc.Create(context.Background(), "lect-1", "Dr. Mensah", validInput())
	st.records[sess.ID] = 3

	if err := svc.Delete(context.Background(), sess.ID, "lect-2"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("delete by non-owner: err = %v, want ErrNotOwner", err)
	}
	if err := svc.Delete(context.Background(), sess.ID, "lect-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.Get(context.Background(), sess.ID); !errors.Is(err, ErrNotFound) {
		t.Error("session should be gone")
	}
	if _, ok := st.records[sess.ID]; ok {
		t.Error("attendance records should be cascaded away")
	}
}

func TestListAcceptableFiltersExpiredAndInactive(t *testing.T) {
	svc, _, clk := newTestService()

	open, _ := svc.Create(context.Background(), "lect-1", "Dr. Mensah", validInput())

	short := validInput()
	short.DurationMinutes = 15
	expired, _ := svc.Create(context.Background(), "lect-1", "Dr. Mensah", short)

	closed, _ := svc.Create(context.Background(), "lect-1", "Dr. Mensah", validInput())
	if _, err := svc.Deactivate(context.Background(), closed.ID, "lect-1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	clk.Advance(20 * time.Minute)
	got, err := svc.ListAcceptable(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != open.ID {
		t.Fatalf("acceptable = %d sessions, want only the open one", len(got))
	}
	_ = expired
}

func TestRecountRepairsDrift(t *testing.T) {
	svc, st, _ := newTestService()
	sess, _ := svc.Create(context.Background(), "lect-1", "Dr. Mensah", validInput())

	st.records[sess.ID] = 5
	// Counter drifted: only bumped twice.
	_ = st.IncrementAttendees(context.Background(), sess.ID)
	_ = st.IncrementAttendees(context.Background(), sess.ID)

	if _, err := svc.Recount(context.Background(), sess.ID, "lect-2"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("recount by non-owner: err = %v, want ErrNotOwner", err)
	}
	count, err := svc.Recount(context.Background(), sess.ID, "lect-1")
	if err != nil {
		t.Fatalf("recount: %v", err)
	}
	if count != 5 {
		t.Errorf("recount = %d, want 5", count)
	}
}
