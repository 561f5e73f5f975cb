package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CheckinNotice is the payload delivered to the notification service
// after a successful check-in. Delivery is best effort; a failed send
// never affects the recorded attendance.
type CheckinNotice struct {
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	CourseName   string    `json:"course_name"`
	CourseCode   string    `json:"course_code"`
	Status       string    `json:"status"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Client calls the external notification service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	skip    bool
}

// New creates a client. With skip set, Send becomes a no-op so the
// worker runs without the service in dev.
func New(baseURL string, skip bool) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		skip:    skip,
	}
}

// Health verifies the notification service is reachable.
func (c *Client) Health(ctx context.Context) error {
	if c.skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification service unhealthy: %s", resp.Status)
	}
	return nil
}

// Send delivers one notice.
func (c *Client) Send(ctx context.Context, notice CheckinNotice) error {
	if c.skip {
		return nil
	}
	body, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/notifications", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification send failed: %s", resp.Status)
	}
	return nil
}
