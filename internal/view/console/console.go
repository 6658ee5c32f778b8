// Package console is the terminal implementation of the controller view
// interfaces: prompts on stdin, rendering on stdout, no-echo password entry.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/smartattend/teacher-console/internal/controller"
	"github.com/smartattend/teacher-console/internal/model"
	"github.com/smartattend/teacher-console/internal/view"
)

// Console implements every controller view interface over a terminal.
// Output methods may be called from timer goroutines; all writes go through
// one mutex so countdown ticks never interleave mid-line with prompts.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	reader *bufio.Reader

	resendEnabled bool
	nav           chan view.Page
}

// New creates a console over stdin/stdout.
func New() *Console {
	return &Console{
		out:    os.Stdout,
		reader: bufio.NewReader(os.Stdin),
		nav:    make(chan view.Page, 1),
	}
}

// Navigation returns the channel of requested page changes. The application
// loop consumes it.
func (c *Console) Navigation() <-chan view.Page {
	return c.nav
}

// Navigate implements the controllers' page switch. The latest request wins
// if the loop has not yet consumed the previous one.
func (c *Console) Navigate(page view.Page) {
	select {
	case c.nav <- page:
	default:
		select {
		case <-c.nav:
		default:
		}
		c.nav <- page
	}
}

// FlipTo plays the card-flip beat of the role and login screens: a fixed
// pause matching the animation length, then the navigation.
func (c *Console) FlipTo(page view.Page, pause time.Duration) {
	c.printf("...\n")
	time.Sleep(pause)
	c.Navigate(page)
}

func (c *Console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// ─── Messages and dialogs ───────────────────────────────────────────────────

// ShowMessage prints an inline status line.
func (c *Console) ShowMessage(text string, tone view.Tone) {
	switch tone {
	case view.ToneError:
		c.printf("✖ %s\n", text)
	case view.ToneSuccess:
		c.printf("✔ %s\n", text)
	default:
		c.printf("%s\n", text)
	}
}

// Alert prints a prominent notice. Unlike the browser dialog it does not
// block input: alerts can arrive from timer goroutines while a prompt is
// open, and stealing stdin there would deadlock the prompt.
func (c *Console) Alert(text string) {
	c.printf("\n== %s ==\n", text)
}

// Confirm asks a yes/no question; only "y"/"yes" confirm.
func (c *Console) Confirm(prompt string) bool {
	answer := strings.ToLower(c.Prompt(prompt + " [y/N]:"))
	return answer == "y" || answer == "yes"
}

// Prompt reads one trimmed line.
func (c *Console) Prompt(prompt string) string {
	c.printf("%s ", prompt)
	line, _ := c.reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// PromptPassword reads a line without echoing, falling back to a plain
// prompt when stdin is not a terminal (piped input in tests or scripts).
func (c *Console) PromptPassword(prompt string) string {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return c.Prompt(prompt)
	}
	c.printf("%s ", prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	c.printf("\n")
	if err != nil {
		return ""
	}
	return string(raw)
}

// ─── Password-reset page ────────────────────────────────────────────────────

// SetStage announces the reset-flow stage the form has advanced to.
func (c *Console) SetStage(stage controller.Stage) {
	c.printf("-- stage: %s --\n", stage)
}

// SetCountdownText repaints the resend-timer line in place.
func (c *Console) SetCountdownText(text string) {
	c.printf("\r%-40s", text)
	if text == "" || text == "You can resend OTP now" {
		c.printf("\n")
	}
}

// SetResendEnabled toggles the resend control.
func (c *Console) SetResendEnabled(enabled bool) {
	c.mu.Lock()
	c.resendEnabled = enabled
	c.mu.Unlock()
}

// ResendEnabled reports whether resend is currently allowed; the page loop
// uses it to accept or reject the resend action.
func (c *Console) ResendEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resendEnabled
}

// ─── Dashboard page ─────────────────────────────────────────────────────────

// RenderStudents replaces the roster table.
func (c *Console) RenderStudents(students []model.Student) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out)
	view.RenderStudentTable(c.out, students)
}

// RenderWeekly shows the weekly report grid (or its empty-state placeholder).
func (c *Console) RenderWeekly(rows []model.WeeklyRow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, "\n--- Weekly Attendance ---")
	view.RenderWeeklyTable(c.out, rows)
}

// CloseWeekly dismisses the report.
func (c *Console) CloseWeekly() {
	c.printf("--- report closed ---\n")
}

// ShowEditForm prints the record being edited. The attendance override is
// not offered here; it appears only once the reveal delay elapses.
func (c *Console) ShowEditForm(s model.Student) {
	c.printf("\nEditing student #%d\n  name:  %s\n  email: %s\n", s.ID, s.Name, s.Email)
}

// RevealAttendanceSelector announces that the manual override is now open.
func (c *Console) RevealAttendanceSelector() {
	c.printf("\n[attendance override now available: P/A]\n")
}

// CloseEditForm discards the edit session.
func (c *Console) CloseEditForm() {
	c.printf("--- edit closed ---\n")
}

// CloseAddForm dismisses the add-student form.
func (c *Console) CloseAddForm() {
	c.printf("--- add closed ---\n")
}
