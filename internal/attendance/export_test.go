package attendance

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"campusattend/internal/clock"
	"campusattend/internal/session"
)

func TestExportCSV(t *testing.T) {
	records := newMemRecords()
	sessions := newMemSessions(testSession())
	clk := clock.NewFake(t0.Add(5 * time.Minute))
	svc := NewService(records, sessions, clk)
	ctx := context.Background()

	conf := 0.92
	in := markOf("stud-1")
	in.Confidence = &conf
	if _, err := svc.Mark(ctx, in); err != nil {
		t.Fatalf("mark: %v", err)
	}
	clk.Advance(15 * time.Minute)
	in = markOf("stud-2")
	in.StudentName = "Kofi Annan"
	in.StudentNumber = "CSC/0031/22"
	in.StudentEmail = "kofi@students.example.edu"
	if _, err := svc.Mark(ctx, in); err != nil {
		t.Fatalf("mark: %v", err)
	}

	var buf bytes.Buffer
	filename, err := svc.ExportCSV(ctx, "sess-1", "lect-1", &buf)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(filename, "attendance_CSC301_") || !strings.HasSuffix(filename, ".csv") {
		t.Errorf("filename = %q", filename)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	wantHeader := []string{"Student Name", "Student ID", "Email", "Time Marked", "Status", "Confidence"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}

	// Ascending recorded order: stud-1 first.
	if rows[1][0] != "Ama Owusu" || rows[1][4] != "present" || rows[1][5] != "92%" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][0] != "Kofi Annan" || rows[2][4] != "late" || rows[2][5] != "N/A" {
		t.Errorf("row 2 = %v", rows[2])
	}
	if rows[1][3] != t0.Add(5*time.Minute).Format("2006-01-02 15:04:05") {
		t.Errorf("time marked = %q", rows[1][3])
	}
}

func TestExportForbiddenForNonOwner(t *testing.T) {
	svc := NewService(newMemRecords(), newMemSessions(testSession()), clock.NewFake(t0))
	var buf bytes.Buffer
	if _, err := svc.ExportCSV(context.Background(), "sess-1", "lect-2", &buf); !errors.Is(err, session.ErrNotOwner) {
		t.Errorf("err = %v, want ErrNotOwner", err)
	}
	if buf.Len() != 0 {
		t.Error("no bytes should be written on authorization failure")
	}
}
