package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartattend/teacher-console/internal/api"
	"github.com/smartattend/teacher-console/internal/countdown"
	"github.com/smartattend/teacher-console/internal/validate"
	"github.com/smartattend/teacher-console/internal/view"
)

// Stage is the password-reset workflow position. The stage drives which
// controls are live; nothing is inferred from what happens to be visible.
type Stage int

const (
	StageEmailEntry Stage = iota
	StageOTPPending
	StageOTPVerified
	StageDone
)

// String implements fmt.Stringer for logs.
func (s Stage) String() string {
	switch s {
	case StageEmailEntry:
		return "EMAIL_ENTRY"
	case StageOTPPending:
		return "OTP_PENDING"
	case StageOTPVerified:
		return "OTP_VERIFIED"
	case StageDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// ResetView is what the forgot-password page needs from the terminal.
type ResetView interface {
	ShowMessage(text string, tone view.Tone)
	SetStage(stage Stage)
	SetCountdownText(text string)
	SetResendEnabled(enabled bool)
	Alert(text string)
	Navigate(page view.Page)
}

// Reset drives the three-step OTP password-reset flow and owns the resend
// countdown. It is the countdown's sink: ticks and completion arrive on the
// timer goroutine and are forwarded to the view.
type Reset struct {
	client  *api.Client
	view    ResetView
	cd      *countdown.Countdown
	seconds int
	log     zerolog.Logger

	mu    sync.Mutex
	stage Stage
	email string
}

// NewReset creates the reset controller. seconds is the resend-gate length
// (120 in production); tick is the countdown interval (1s in production,
// shorter in tests).
func NewReset(client *api.Client, v ResetView, seconds int, tick time.Duration, log zerolog.Logger) *Reset {
	c := &Reset{
		client:  client,
		view:    v,
		seconds: seconds,
		stage:   StageEmailEntry,
		log:     log.With().Str("component", "reset").Logger(),
	}
	c.cd = countdown.New(tick, c, log)
	return c
}

// Stage returns the current workflow stage.
func (c *Reset) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

func (c *Reset) setStage(s Stage) {
	c.mu.Lock()
	c.stage = s
	c.mu.Unlock()
	c.view.SetStage(s)
}

// SendOTP requests a reset code for email. Valid from EMAIL_ENTRY (first
// send) and OTP_PENDING (resend). A resend restarts the countdown; the
// cancel-before-start rule in countdown guarantees the old run dies first.
func (c *Reset) SendOTP(ctx context.Context, email string) {
	email = strings.TrimSpace(email)

	if st := c.Stage(); st != StageEmailEntry && st != StageOTPPending {
		c.log.Warn().Stringer("stage", st).Msg("SendOTP ignored outside email/OTP stages")
		return
	}

	if msg := validate.First(
		validate.Rule{Value: email, Tag: "required", Message: "Email is required"},
	); msg != "" {
		c.view.ShowMessage(msg, view.ToneError)
		return
	}

	if err := c.client.ForgotPassword(ctx, email); err != nil {
		c.view.ShowMessage(errorText(err), view.ToneError)
		return
	}

	c.mu.Lock()
	c.email = email
	c.mu.Unlock()

	c.view.ShowMessage("OTP sent to email", view.ToneSuccess)
	c.setStage(StageOTPPending)
	c.view.SetResendEnabled(false)
	c.cd.Start(c.seconds)
}

// VerifyOTP submits the emailed code. On success the countdown is stopped
// unconditionally and the flow advances to OTP_VERIFIED.
func (c *Reset) VerifyOTP(ctx context.Context, otp string) {
	otp = strings.TrimSpace(otp)

	if st := c.Stage(); st != StageOTPPending {
		c.log.Warn().Stringer("stage", st).Msg("VerifyOTP ignored outside OTP_PENDING")
		return
	}

	if msg := validate.First(
		validate.Rule{Value: otp, Tag: "len=6", Message: "OTP must be 6 digits"},
	); msg != "" {
		c.view.ShowMessage(msg, view.ToneError)
		return
	}

	c.mu.Lock()
	email := c.email
	c.mu.Unlock()

	if err := c.client.VerifyOTP(ctx, email, otp); err != nil {
		c.view.ShowMessage(errorText(err), view.ToneError)
		return
	}

	c.cd.Stop()
	c.view.SetCountdownText("")
	c.view.ShowMessage("OTP verified", view.ToneSuccess)
	c.setStage(StageOTPVerified)
}

// ResetPassword sets the new password. The response status is not part of
// the contract here: any completed round-trip confirms and navigates to
// login; only a transport failure alerts.
func (c *Reset) ResetPassword(ctx context.Context, newPassword, confirm string) {
	if st := c.Stage(); st != StageOTPVerified {
		c.log.Warn().Stringer("stage", st).Msg("ResetPassword ignored outside OTP_VERIFIED")
		return
	}

	msg := validate.First(
		validate.Rule{Value: newPassword, Tag: "required", Message: "Fill all fields"},
		validate.Rule{Value: confirm, Tag: "required", Message: "Fill all fields"},
		validate.Rule{Value: newPassword, Tag: "min=8", Message: "Password must be 8 characters"},
	)
	if msg == "" && newPassword != confirm {
		msg = "Passwords do not match"
	}
	if msg != "" {
		c.view.ShowMessage(msg, view.ToneError)
		return
	}

	c.mu.Lock()
	email := c.email
	c.mu.Unlock()

	if err := c.client.ResetPassword(ctx, email, newPassword); err != nil {
		c.view.Alert("Password reset failed")
		return
	}

	c.setStage(StageDone)
	c.view.Alert("Password updated successfully")
	c.view.Navigate(view.PageLogin)
}

// OnTick implements countdown.Sink.
func (c *Reset) OnTick(remaining int) {
	c.view.SetCountdownText("Resend OTP in " + countdown.Format(remaining))
}

// OnDone implements countdown.Sink.
func (c *Reset) OnDone() {
	c.view.SetResendEnabled(true)
	c.view.SetCountdownText("You can resend OTP now")
}

// CountdownRunning reports whether the resend gate is currently counting.
func (c *Reset) CountdownRunning() bool {
	return c.cd.Running()
}

// errorText extracts the message the UI should show: raw body text for
// status errors, the error string otherwise.
func errorText(err error) string {
	var se *api.StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}
