package controller

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/smartattend/teacher-console/internal/api"
	"github.com/smartattend/teacher-console/internal/model"
	"github.com/smartattend/teacher-console/internal/view"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeView records every view call. It satisfies all four page-view
// interfaces so one fake serves every controller test.
type fakeView struct {
	mu sync.Mutex

	messages      []string
	tones         []view.Tone
	navigations   []view.Page
	stages        []Stage
	countdownText []string
	resendEnabled []bool
	alerts        []string

	rendered    [][]model.Student
	weekly      [][]model.WeeklyRow
	editShown   []model.Student
	revealCount int
	closedEdit  int
	closedAdd   int
	closedWeek  int

	confirmAnswer bool
	confirms      []string
	promptAnswer  string
	prompts       []string
}

func (f *fakeView) ShowMessage(text string, tone view.Tone) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	f.tones = append(f.tones, tone)
}

func (f *fakeView) Navigate(page view.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigations = append(f.navigations, page)
}

func (f *fakeView) SetStage(stage Stage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages = append(f.stages, stage)
}

func (f *fakeView) SetCountdownText(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countdownText = append(f.countdownText, text)
}

func (f *fakeView) SetResendEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resendEnabled = append(f.resendEnabled, enabled)
}

func (f *fakeView) Alert(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, text)
}

func (f *fakeView) RenderStudents(students []model.Student) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rendered = append(f.rendered, students)
}

func (f *fakeView) RenderWeekly(rows []model.WeeklyRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.weekly = append(f.weekly, rows)
}

func (f *fakeView) ShowEditForm(s model.Student) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editShown = append(f.editShown, s)
}

func (f *fakeView) RevealAttendanceSelector() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revealCount++
}

func (f *fakeView) CloseEditForm() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closedEdit++
}

func (f *fakeView) CloseAddForm() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closedAdd++
}

func (f *fakeView) CloseWeekly() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closedWeek++
}

func (f *fakeView) Confirm(prompt string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirms = append(f.confirms, prompt)
	return f.confirmAnswer
}

func (f *fakeView) Prompt(prompt string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.promptAnswer
}

func (f *fakeView) lastMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1]
}

func (f *fakeView) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeView) alertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}

func (f *fakeView) alertAt(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.alerts) {
		return ""
	}
	return f.alerts[i]
}

func (f *fakeView) renderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rendered)
}

func (f *fakeView) revealed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revealCount
}

func (f *fakeView) lastResendEnabled() (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.resendEnabled) == 0 {
		return false, false
	}
	return f.resendEnabled[len(f.resendEnabled)-1], true
}

// countingHandler answers every request with a fixed status and body while
// counting the calls and remembering the last request.
type countingHandler struct {
	mu     sync.Mutex
	count  int
	method string
	path   string
	body   string

	status   int
	response string
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)

	h.mu.Lock()
	h.count++
	h.method = r.Method
	h.path = r.URL.Path
	h.body = string(raw)
	status, response := h.status, h.response
	h.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	io.WriteString(w, response)
}

func (h *countingHandler) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func (h *countingHandler) lastBody() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.body
}

// bodyCapture wraps a handler and records request bodies per method+path.
type bodyCapture struct {
	next http.Handler

	mu     sync.Mutex
	bodies map[string][]string
}

func newBodyCapture(next http.Handler) *bodyCapture {
	return &bodyCapture{next: next, bodies: make(map[string][]string)}
}

func (b *bodyCapture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(raw))

	key := r.Method + " " + r.URL.Path
	b.mu.Lock()
	b.bodies[key] = append(b.bodies[key], string(raw))
	b.mu.Unlock()

	b.next.ServeHTTP(w, r)
}

func (b *bodyCapture) last(method, path string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	recorded := b.bodies[method+" "+path]
	if len(recorded) == 0 {
		return ""
	}
	return recorded[len(recorded)-1]
}

func newTestClient(url string) *api.Client {
	return api.NewClient(url, 5*time.Second, zerolog.Nop())
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, timeout time.Duration, what string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
