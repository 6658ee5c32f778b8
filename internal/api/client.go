// Package api is the typed client for the attendance REST contract. Paths,
// methods, and body shapes are frozen for compatibility with the deployed
// backend; behavioral quirks of the original UI (which endpoints check the
// response status and which surface raw body text unchecked) are preserved
// and called out per method.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartattend/teacher-console/internal/model"
)

// Client talks to the attendance backend. The embedded cookie jar carries the
// server-side session cookie set by login, matching browser behavior.
type Client struct {
	base string
	http *http.Client
	log  zerolog.Logger
}

// NewClient creates a client rooted at baseURL. A zero timeout disables the
// client-level deadline (strict parity with the original browser UI, which
// never set one); callers can still bound individual calls via context.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Jar: jar, Timeout: timeout},
		log:  log.With().Str("component", "api_client").Logger(),
	}
}

// do issues one request and returns the status code and raw body. Transport
// failures are wrapped; status interpretation is left to each endpoint.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Str("path", path).
			Str("request_id", requestID).Msg("Request failed")
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Debug().Str("method", method).Str("path", path).
		Int("status", res.StatusCode).Dur("elapsed", time.Since(start)).
		Str("request_id", requestID).Msg("Request completed")

	return res.StatusCode, raw, nil
}

// checked issues a request and converts any non-2xx status into a
// *StatusError carrying the raw body text.
func (c *Client) checked(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	status, raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{Code: status, Body: string(raw)}
	}
	return raw, nil
}

// ─── Auth ───────────────────────────────────────────────────────────────────

// Register creates a new teacher account. The success body is discarded.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) error {
	_, err := c.checked(ctx, http.MethodPost, "/api/teacher/register", req)
	return err
}

// Login authenticates a teacher. The session cookie lands in the jar.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) error {
	_, err := c.checked(ctx, http.MethodPost, "/api/teacher/login", req)
	return err
}

// ForgotPassword requests a password-reset OTP for the given address.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	_, err := c.checked(ctx, http.MethodPost, "/api/teacher/forgot-password", map[string]string{"email": email})
	return err
}

// VerifyOTP submits the emailed reset code.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) error {
	_, err := c.checked(ctx, http.MethodPost, "/api/teacher/verify-otp", map[string]string{"email": email, "otp": otp})
	return err
}

// ResetPassword sets a new password after OTP verification. The response
// status is deliberately not inspected: the original flow treats any
// completed round-trip as done and only a transport failure as an error.
func (c *Client) ResetPassword(ctx context.Context, email, newPassword string) error {
	_, _, err := c.do(ctx, http.MethodPost, "/api/teacher/reset-password", map[string]string{"email": email, "newPassword": newPassword})
	return err
}

// Logout ends the server-side session. Errors are returned for logging only;
// the caller navigates away regardless.
func (c *Client) Logout(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodPost, "/api/teacher/logout", nil)
	return err
}

// RequestDelete asks the server to delete the account for the confirmed
// email. Returns the raw response text verbatim, status unchecked.
func (c *Client) RequestDelete(ctx context.Context, email string) (string, error) {
	_, raw, err := c.do(ctx, http.MethodPost, "/api/teacher/request-delete", map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ─── Students ───────────────────────────────────────────────────────────────

// AllStudents fetches the full student collection. There is no single-record
// endpoint; edits refetch this list and search it.
func (c *Client) AllStudents(ctx context.Context) ([]model.Student, error) {
	_, raw, err := c.do(ctx, http.MethodGet, "/api/teacher/all-students", nil)
	if err != nil {
		return nil, err
	}
	var students []model.Student
	if err := json.Unmarshal(raw, &students); err != nil {
		return nil, fmt.Errorf("decode students: %w", err)
	}
	return students, nil
}

// AddStudent creates a student and returns the server's confirmation text
// verbatim, status unchecked.
func (c *Client) AddStudent(ctx context.Context, req model.AddStudentRequest) (string, error) {
	_, raw, err := c.do(ctx, http.MethodPost, "/api/teacher/add-student", req)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// UpdateStudentAttendance updates a student's name, email, and optional
// attendance override. A nil Attendance serializes as JSON null, meaning the
// override selector was not yet revealed.
func (c *Client) UpdateStudentAttendance(ctx context.Context, id int64, req model.UpdateStudentRequest) (string, error) {
	path := fmt.Sprintf("/api/teacher/update-student-attendance/%d", id)
	_, raw, err := c.do(ctx, http.MethodPut, path, req)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DeleteStudent removes a student by id and returns the raw response text.
func (c *Client) DeleteStudent(ctx context.Context, id int64) (string, error) {
	_, raw, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/teacher/%d", id), nil)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ─── Attendance ─────────────────────────────────────────────────────────────

// BroadcastOTP asks the server to email every student a short-lived
// attendance OTP. The JSON response payload carries no fields the UI needs,
// but it must parse; a non-JSON body fails the call as the original did.
func (c *Client) BroadcastOTP(ctx context.Context) error {
	_, raw, err := c.do(ctx, http.MethodPost, "/api/teacher/send-otp", nil)
	if err != nil {
		return err
	}
	var payload json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode send-otp response: %w", err)
	}
	return nil
}

// WeeklyAttendance fetches the current week's per-student report.
func (c *Client) WeeklyAttendance(ctx context.Context) ([]model.WeeklyRow, error) {
	_, raw, err := c.do(ctx, http.MethodGet, "/api/attendance/weekly", nil)
	if err != nil {
		return nil, err
	}
	var rows []model.WeeklyRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode weekly rows: %w", err)
	}
	return rows, nil
}

// ResetToday clears today's attendance column. Non-2xx counts as failure so
// the caller can hold back the day marker and retry on the next load.
func (c *Client) ResetToday(ctx context.Context) error {
	_, err := c.checked(ctx, http.MethodPost, "/api/attendance/reset-today", nil)
	return err
}
