package attendance

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

var exportHeader = []string{"Student Name", "Student ID", "Email", "Time Marked", "Status", "Confidence"}

// ExportCSV writes an owned session's roster as CSV, one row per
// record in ascending recorded order, and returns a filename derived
// from the course code.
func (s *Service) ExportCSV(ctx context.Context, sessionID, callerID string, w io.Writer) (string, error) {
	records, sess, err := s.ownedRecords(ctx, sessionID, callerID)
	if err != nil {
		return "", err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return "", err
	}
	for _, rec := range records {
		conf := "N/A"
		if rec.Confidence != nil {
			conf = strconv.FormatFloat(*rec.Confidence*100, 'f', 0, 64) + "%"
		}
		row := []string{
			rec.StudentName,
			rec.StudentNumber,
			rec.StudentEmail,
			rec.RecordedAt.Format("2006-01-02 15:04:05"),
			string(rec.Status),
			conf,
		}
		if err := cw.Write(row); err != nil {
			return "", err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("attendance_%s_%d.csv", sess.CourseCode, time.Now().Unix())
	return filename, nil
}
