package controller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartattend/teacher-console/internal/localstore"
	"github.com/smartattend/teacher-console/internal/model"
	"github.com/smartattend/teacher-console/internal/stub"
	"github.com/smartattend/teacher-console/internal/view"
)

func newStore(t *testing.T) *localstore.Store {
	t.Helper()
	s, err := localstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("localstore.New: %v", err)
	}
	return s
}

// newDashHarness wires a dashboard controller to the in-memory backend with a
// body-capturing proxy in between.
func newDashHarness(t *testing.T, window, revealDelay time.Duration) (*Dashboard, *fakeView, *stub.Server, *bodyCapture) {
	t.Helper()

	backend := stub.New(zerolog.Nop())
	capture := newBodyCapture(backend.Router(nil))
	srv := httptest.NewServer(capture)
	t.Cleanup(srv.Close)

	fv := &fakeView{}
	d := NewDashboard(newTestClient(srv.URL), fv, newStore(t), window, revealDelay, zerolog.Nop())
	t.Cleanup(d.Close)
	return d, fv, backend, capture
}

func TestDashboardUpdateBeforeRevealSendsNullAttendance(t *testing.T) {
	d, fv, backend, capture := newDashHarness(t, time.Hour, time.Hour)
	ctx := context.Background()
	id := backend.SeedStudent("Asha", "R001", "asha@s.test", nil)

	d.Edit(ctx, id)
	if len(fv.editShown) != 1 || fv.editShown[0].Name != "Asha" {
		t.Fatalf("edit form shown with %+v", fv.editShown)
	}

	// The selector is still hidden, so the value the caller passes is
	// discarded and the body carries an explicit null.
	d.Update(ctx, "Asha", "asha@s.test", "P")

	path := fmt.Sprintf("/api/teacher/update-student-attendance/%d", id)
	want := `{"name":"Asha","email":"asha@s.test","attendance":null}`
	if got := capture.last(http.MethodPut, path); got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
	if got := fv.alertAt(0); got != "Student updated successfully" {
		t.Fatalf("alert = %q", got)
	}
	if fv.closedEdit != 1 {
		t.Fatalf("edit form closed %d times, want 1", fv.closedEdit)
	}
	if fv.renderCount() != 1 {
		t.Fatalf("roster rendered %d times after update, want 1", fv.renderCount())
	}
}

func TestDashboardUpdateAfterRevealSendsValue(t *testing.T) {
	d, fv, backend, capture := newDashHarness(t, time.Hour, 5*time.Millisecond)
	ctx := context.Background()
	id := backend.SeedStudent("Asha", "R001", "asha@s.test", nil)
	backend.AgeOTPWindow(6 * time.Minute)

	d.Edit(ctx, id)
	waitFor(t, func() bool { return fv.revealed() == 1 }, 5*time.Second, "attendance selector reveal")

	d.Update(ctx, "Asha", "asha@s.test", "P")

	path := fmt.Sprintf("/api/teacher/update-student-attendance/%d", id)
	if got := capture.last(http.MethodPut, path); !strings.Contains(got, `"attendance":"P"`) {
		t.Fatalf("body = %s, want an explicit P mark", got)
	}
	if got := fv.alertAt(0); got != "Student updated successfully" {
		t.Fatalf("alert = %q", got)
	}

	// The reload after the update carries the new mark.
	fv.mu.Lock()
	roster := fv.rendered[len(fv.rendered)-1]
	fv.mu.Unlock()
	if len(roster) != 1 || roster[0].PresentToday == nil || !*roster[0].PresentToday {
		t.Fatalf("reloaded roster = %+v, want the student present", roster)
	}
}

func TestDashboardCloseEditCancelsReveal(t *testing.T) {
	d, fv, backend, _ := newDashHarness(t, time.Hour, 10*time.Millisecond)
	ctx := context.Background()
	id := backend.SeedStudent("Asha", "R001", "asha@s.test", nil)

	d.Edit(ctx, id)
	d.CloseEdit()

	time.Sleep(50 * time.Millisecond)
	if fv.revealed() != 0 {
		t.Fatal("selector revealed after the edit form was closed")
	}
	if fv.closedEdit != 1 {
		t.Fatalf("edit form closed %d times, want 1", fv.closedEdit)
	}
}

func TestDashboardResetTodayStoresDateOnlyOnSuccess(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/attendance/reset-today", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, "reset failed")
			return
		}
		io.WriteString(w, "Daily attendance reset successfully")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := newStore(t)
	fv := &fakeView{}
	d := NewDashboard(newTestClient(srv.URL), fv, store, time.Hour, time.Hour, zerolog.Nop())
	d.now = func() time.Time { return time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC) }

	// First load of the day fails server-side: the day marker must not
	// advance, so the next load retries.
	d.ResetTodayIfNewDay(context.Background())
	if got := store.LastAttendanceDate(); got != "" {
		t.Fatalf("marker stored after a failed reset: %q", got)
	}

	d.ResetTodayIfNewDay(context.Background())
	if got := store.LastAttendanceDate(); got != "Mon Sep 01 2025" {
		t.Fatalf("marker = %q after success", got)
	}

	// Same day again: no further request.
	d.ResetTodayIfNewDay(context.Background())
	mu.Lock()
	total := calls
	mu.Unlock()
	if total != 2 {
		t.Fatalf("reset endpoint hit %d times, want 2", total)
	}
}

func TestDashboardResetTodayRunsAgainNextDay(t *testing.T) {
	h := &countingHandler{response: "Daily attendance reset successfully"}
	srv := httptest.NewServer(h)
	defer srv.Close()

	store := newStore(t)
	fv := &fakeView{}
	d := NewDashboard(newTestClient(srv.URL), fv, store, time.Hour, time.Hour, zerolog.Nop())

	day := time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return day }

	d.ResetTodayIfNewDay(context.Background())
	d.ResetTodayIfNewDay(context.Background())
	if h.calls() != 1 {
		t.Fatalf("same-day loads hit the endpoint %d times, want 1", h.calls())
	}

	day = day.AddDate(0, 0, 1)
	d.ResetTodayIfNewDay(context.Background())
	if h.calls() != 2 {
		t.Fatalf("next-day load did not reset, %d calls", h.calls())
	}
	if got := store.LastAttendanceDate(); got != "Tue Sep 02 2025" {
		t.Fatalf("marker = %q", got)
	}
}

func TestDashboardBroadcastWindowReload(t *testing.T) {
	d, fv, backend, _ := newDashHarness(t, 20*time.Millisecond, time.Hour)
	backend.SeedStudent("Asha", "R001", "asha@s.test", nil)

	d.BroadcastOTP(context.Background())

	if got := fv.alertAt(0); got != "OTP sent to all students. Valid for 2 minutes.\n\nAttendance will be updated in 2 minutes..." {
		t.Fatalf("first alert = %q", got)
	}

	waitFor(t, func() bool { return fv.alertCount() >= 2 }, 5*time.Second, "attendance-window reload")
	if got := fv.alertAt(1); got != "Attendance updated! Check the 'Today' column." {
		t.Fatalf("second alert = %q", got)
	}
	if fv.renderCount() == 0 {
		t.Fatal("window close must reload the roster")
	}
}

func TestDashboardBroadcastFailureAlerts(t *testing.T) {
	srv := httptest.NewServer(&countingHandler{})
	srv.Close() // connection refused from here on

	fv := &fakeView{}
	d := NewDashboard(newTestClient(srv.URL), fv, newStore(t), 10*time.Millisecond, time.Hour, zerolog.Nop())
	defer d.Close()

	d.BroadcastOTP(context.Background())

	if got := fv.alertAt(0); got != "Failed to send OTP. Please try again." {
		t.Fatalf("alert = %q", got)
	}

	// No window timer on failure: nothing else arrives.
	time.Sleep(50 * time.Millisecond)
	if fv.alertCount() != 1 || fv.renderCount() != 0 {
		t.Fatalf("failure path started the window: %v, %d renders", fv.alerts, fv.renderCount())
	}
}

func TestDashboardSaveAddsAndReloads(t *testing.T) {
	d, fv, _, capture := newDashHarness(t, time.Hour, time.Hour)

	d.Save(context.Background(), " Asha ", " R001 ", " asha@s.test ")

	want := `{"name":"Asha","rollNumber":"R001","email":"asha@s.test"}`
	if got := capture.last(http.MethodPost, "/api/teacher/add-student"); got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
	if got := fv.alertAt(0); got != "Student added successfully" {
		t.Fatalf("alert = %q", got)
	}
	if fv.closedAdd != 1 {
		t.Fatalf("add form closed %d times, want 1", fv.closedAdd)
	}

	fv.mu.Lock()
	roster := fv.rendered[len(fv.rendered)-1]
	fv.mu.Unlock()
	if len(roster) != 1 || roster[0].RollNumber != "R001" {
		t.Fatalf("reloaded roster = %+v", roster)
	}
}

func TestDashboardDeleteConfirmGate(t *testing.T) {
	t.Run("Declined", func(t *testing.T) {
		h := &countingHandler{}
		srv := httptest.NewServer(h)
		defer srv.Close()

		fv := &fakeView{confirmAnswer: false}
		d := NewDashboard(newTestClient(srv.URL), fv, newStore(t), time.Hour, time.Hour, zerolog.Nop())

		d.Delete(context.Background(), 1)

		if h.calls() != 0 {
			t.Fatalf("declined confirm reached the network, %d calls", h.calls())
		}
		if len(fv.confirms) != 1 || fv.confirms[0] != "Delete student?" {
			t.Fatalf("confirms = %v", fv.confirms)
		}
	})

	t.Run("Accepted", func(t *testing.T) {
		d, fv, backend, _ := newDashHarness(t, time.Hour, time.Hour)
		fv.confirmAnswer = true
		id := backend.SeedStudent("Asha", "R001", "asha@s.test", nil)

		d.Delete(context.Background(), id)

		if got := fv.alertAt(0); got != "Student Deleted Successfully" {
			t.Fatalf("alert = %q", got)
		}
		fv.mu.Lock()
		roster := fv.rendered[len(fv.rendered)-1]
		fv.mu.Unlock()
		if len(roster) != 0 {
			t.Fatalf("roster after delete = %+v, want empty", roster)
		}
	})
}

func TestDashboardWeeklyReport(t *testing.T) {
	d, fv, backend, _ := newDashHarness(t, time.Hour, time.Hour)
	backend.SeedStudent("Asha", "R001", "asha@s.test", nil)
	mark := "P"
	backend.SeedWeekly(model.WeeklyRow{RollNumber: "R001", Name: "Asha", Mon: &mark})

	d.OpenWeekly(context.Background())
	fv.mu.Lock()
	rows := fv.weekly[len(fv.weekly)-1]
	fv.mu.Unlock()
	if len(rows) != 1 || rows[0].RollNumber != "R001" || rows[0].Mon == nil || *rows[0].Mon != "P" {
		t.Fatalf("weekly rows = %+v", rows)
	}

	d.CloseWeekly()
	if fv.closedWeek != 1 {
		t.Fatalf("weekly closed %d times, want 1", fv.closedWeek)
	}
}

func TestDashboardLogoutNavigatesEvenOnFailure(t *testing.T) {
	srv := httptest.NewServer(&countingHandler{})
	srv.Close() // connection refused from here on

	fv := &fakeView{}
	d := NewDashboard(newTestClient(srv.URL), fv, newStore(t), time.Hour, time.Hour, zerolog.Nop())

	d.Logout(context.Background())

	if len(fv.navigations) != 1 || fv.navigations[0] != view.PageLogin {
		t.Fatalf("navigations = %v, want [login]", fv.navigations)
	}
}

func TestDashboardDeleteAccount(t *testing.T) {
	t.Run("EmptyEmailAborts", func(t *testing.T) {
		h := &countingHandler{}
		srv := httptest.NewServer(h)
		defer srv.Close()

		fv := &fakeView{confirmAnswer: true, promptAnswer: ""}
		d := NewDashboard(newTestClient(srv.URL), fv, newStore(t), time.Hour, time.Hour, zerolog.Nop())

		d.DeleteAccount(context.Background())

		if h.calls() != 0 {
			t.Fatalf("empty email reached the network, %d calls", h.calls())
		}
	})

	t.Run("Submits", func(t *testing.T) {
		d, fv, _, _ := newDashHarness(t, time.Hour, time.Hour)
		fv.confirmAnswer = true
		fv.promptAnswer = "priya@school.test"

		d.DeleteAccount(context.Background())

		if got := fv.alertAt(0); !strings.Contains(got, "Verification link sent") {
			t.Fatalf("alert = %q", got)
		}
		if len(fv.prompts) != 1 || fv.prompts[0] != "Enter your email to confirm:" {
			t.Fatalf("prompts = %v", fv.prompts)
		}
	})
}
