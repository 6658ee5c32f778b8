package controller

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartattend/teacher-console/internal/api"
	"github.com/smartattend/teacher-console/internal/localstore"
	"github.com/smartattend/teacher-console/internal/model"
	"github.com/smartattend/teacher-console/internal/view"
)

// dateLayout matches JavaScript's Date.toDateString(), the format the
// browser UI stored and the state file must stay compatible with.
const dateLayout = "Mon Jan 02 2006"

// DashboardView is what the dashboard page needs from the terminal.
type DashboardView interface {
	RenderStudents(students []model.Student)
	RenderWeekly(rows []model.WeeklyRow)
	CloseWeekly()
	ShowEditForm(s model.Student)
	RevealAttendanceSelector()
	CloseEditForm()
	CloseAddForm()
	Alert(text string)
	Confirm(prompt string) bool
	Prompt(prompt string) string
	Navigate(page view.Page)
}

// Dashboard manages the student roster, the class-wide OTP attendance
// capture, the weekly report, and account actions. It owns two timers: the
// attendance-window reload after a broadcast OTP and the delayed reveal of
// the manual attendance selector in the edit form.
type Dashboard struct {
	client *api.Client
	view   DashboardView
	store  *localstore.Store
	log    zerolog.Logger

	attendanceWindow time.Duration
	revealDelay      time.Duration
	now              func() time.Time

	mu                sync.Mutex
	editID            int64
	attendanceVisible bool
	revealTimer       *time.Timer
	windowTimer       *time.Timer
}

// NewDashboard creates the dashboard controller.
func NewDashboard(client *api.Client, v DashboardView, store *localstore.Store,
	attendanceWindow, revealDelay time.Duration, log zerolog.Logger) *Dashboard {
	return &Dashboard{
		client:           client,
		view:             v,
		store:            store,
		attendanceWindow: attendanceWindow,
		revealDelay:      revealDelay,
		now:              time.Now,
		log:              log.With().Str("component", "dashboard").Logger(),
	}
}

// Close stops any pending timers. Call when leaving the dashboard.
func (c *Dashboard) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.revealTimer != nil {
		c.revealTimer.Stop()
		c.revealTimer = nil
	}
	if c.windowTimer != nil {
		c.windowTimer.Stop()
		c.windowTimer = nil
	}
}

// Load fetches the full roster and re-renders it. Rows are never cached;
// every load replaces everything.
func (c *Dashboard) Load(ctx context.Context) {
	students, err := c.client.AllStudents(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to load students")
		return
	}
	c.view.RenderStudents(students)
}

// Save adds a student. No client-side validation by contract; the server's
// confirmation text is alerted verbatim.
func (c *Dashboard) Save(ctx context.Context, name, rollNumber, email string) {
	msg, err := c.client.AddStudent(ctx, model.AddStudentRequest{
		Name:       strings.TrimSpace(name),
		RollNumber: strings.TrimSpace(rollNumber),
		Email:      strings.TrimSpace(email),
	})
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to add student")
		return
	}
	c.view.Alert(msg)
	c.view.CloseAddForm()
	c.Load(ctx)
}

// Edit opens the edit form for the student with the given id. There is no
// single-record endpoint; the whole collection is refetched and searched.
// The attendance override selector starts hidden and is revealed only after
// the configured delay elapses with the form still open; closing and
// reopening restarts the delay.
func (c *Dashboard) Edit(ctx context.Context, id int64) {
	students, err := c.client.AllStudents(ctx)
	if err != nil {
		c.log.Error().Err(err).Int64("student_id", id).Msg("Failed to fetch student")
		return
	}

	var found *model.Student
	for i := range students {
		if students[i].ID == id {
			found = &students[i]
			break
		}
	}
	if found == nil {
		c.log.Error().Int64("student_id", id).Msg("Student not in roster")
		return
	}

	c.mu.Lock()
	c.editID = id
	c.attendanceVisible = false
	if c.revealTimer != nil {
		c.revealTimer.Stop()
	}
	c.revealTimer = time.AfterFunc(c.revealDelay, func() {
		c.mu.Lock()
		stale := c.editID != id
		if !stale {
			c.attendanceVisible = true
		}
		c.mu.Unlock()
		if !stale {
			c.view.RevealAttendanceSelector()
		}
	})
	c.mu.Unlock()

	c.view.ShowEditForm(*found)
}

// CloseEdit discards the edit session. There is no undo.
func (c *Dashboard) CloseEdit() {
	c.mu.Lock()
	if c.revealTimer != nil {
		c.revealTimer.Stop()
		c.revealTimer = nil
	}
	c.editID = 0
	c.attendanceVisible = false
	c.mu.Unlock()
	c.view.CloseEditForm()
}

// Update saves the edit form. The attendance value is included only when the
// selector has been revealed; before that the body carries attendance: null.
func (c *Dashboard) Update(ctx context.Context, name, email, attendanceValue string) {
	c.mu.Lock()
	id := c.editID
	var att *string
	if c.attendanceVisible {
		v := attendanceValue
		att = &v
	}
	c.mu.Unlock()

	msg, err := c.client.UpdateStudentAttendance(ctx, id, model.UpdateStudentRequest{
		Name:       name,
		Email:      email,
		Attendance: att,
	})
	if err != nil {
		c.view.Alert("Failed to update student")
		return
	}
	c.view.Alert(msg)
	c.CloseEdit()
	c.Load(ctx)
}

// Delete removes a student after confirmation.
func (c *Dashboard) Delete(ctx context.Context, id int64) {
	if !c.view.Confirm("Delete student?") {
		return
	}
	msg, err := c.client.DeleteStudent(ctx, id)
	if err != nil {
		c.log.Error().Err(err).Int64("student_id", id).Msg("Failed to delete student")
		return
	}
	c.view.Alert(msg)
	c.Load(ctx)
}

// BroadcastOTP triggers the class-wide attendance capture: the server emails
// every student a short-lived code, and once the window closes the roster is
// reloaded to show the new marks. The wait is client-timed because the
// backend offers no status endpoint and no push channel.
func (c *Dashboard) BroadcastOTP(ctx context.Context) {
	if err := c.client.BroadcastOTP(ctx); err != nil {
		c.log.Error().Err(err).Msg("Failed to send OTP")
		c.view.Alert("Failed to send OTP. Please try again.")
		return
	}

	c.view.Alert("OTP sent to all students. Valid for 2 minutes.\n\nAttendance will be updated in 2 minutes...")

	c.mu.Lock()
	if c.windowTimer != nil {
		c.windowTimer.Stop()
	}
	c.windowTimer = time.AfterFunc(c.attendanceWindow, func() {
		c.Load(context.Background())
		c.view.Alert("Attendance updated! Check the 'Today' column.")
	})
	c.mu.Unlock()
}

// OpenWeekly fetches and renders the weekly report. The view renders the
// empty-state placeholder when there are no rows.
func (c *Dashboard) OpenWeekly(ctx context.Context) {
	rows, err := c.client.WeeklyAttendance(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to fetch weekly attendance")
		return
	}
	c.view.RenderWeekly(rows)
}

// CloseWeekly dismisses the weekly report.
func (c *Dashboard) CloseWeekly() {
	c.view.CloseWeekly()
}

// ResetTodayIfNewDay clears the server's today column on the first load of a
// calendar day. The stored day marker advances only after the reset call
// succeeds, so a failed reset is retried on the next load.
func (c *Dashboard) ResetTodayIfNewDay(ctx context.Context) {
	today := c.now().Format(dateLayout)
	if c.store.LastAttendanceDate() == today {
		return
	}

	if err := c.client.ResetToday(ctx); err != nil {
		c.log.Warn().Err(err).Msg("Reset-today failed; will retry on next load")
		return
	}
	if err := c.store.SetLastAttendanceDate(today); err != nil {
		c.log.Warn().Err(err).Msg("Failed to persist reset date")
	}
}

// Logout ends the session and navigates to login regardless of the result.
func (c *Dashboard) Logout(ctx context.Context) {
	if err := c.client.Logout(ctx); err != nil {
		c.log.Warn().Err(err).Msg("Logout request failed")
	}
	c.view.Navigate(view.PageLogin)
}

// DeleteAccount confirms, prompts for the account email, and submits the
// deletion request. The email is sent as entered; the server checks it.
func (c *Dashboard) DeleteAccount(ctx context.Context) {
	if !c.view.Confirm("Delete account permanently?") {
		return
	}
	email := c.view.Prompt("Enter your email to confirm:")
	if email == "" {
		return
	}
	msg, err := c.client.RequestDelete(ctx, email)
	if err != nil {
		c.log.Error().Err(err).Msg("Account deletion request failed")
		return
	}
	c.view.Alert(msg)
}
