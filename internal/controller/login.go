package controller

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartattend/teacher-console/internal/api"
	"github.com/smartattend/teacher-console/internal/model"
	"github.com/smartattend/teacher-console/internal/validate"
	"github.com/smartattend/teacher-console/internal/view"
)

// LoginView is what the login page needs from the terminal.
type LoginView interface {
	ShowMessage(text string, tone view.Tone)
	Navigate(page view.Page)
}

// Login validates credentials and establishes the server session.
type Login struct {
	client *api.Client
	view   LoginView
	// pause is the fixed success-message display time before navigating to
	// the dashboard. A UX beat, not a network wait.
	pause time.Duration
	log   zerolog.Logger
}

// NewLogin creates the login controller.
func NewLogin(client *api.Client, v LoginView, pause time.Duration, log zerolog.Logger) *Login {
	return &Login{
		client: client,
		view:   v,
		pause:  pause,
		log:    log.With().Str("component", "login").Logger(),
	}
}

// Submit checks the id length client-side (the password is deliberately not
// length-checked here), posts the credentials, and on success navigates to
// the dashboard after the configured pause.
func (c *Login) Submit(ctx context.Context, teacherID, password string) {
	teacherID = strings.TrimSpace(teacherID)
	password = strings.TrimSpace(password)

	if msg := validate.First(
		validate.Rule{Value: teacherID, Tag: "len=6", Message: "Teacher ID must be 6 digits"},
	); msg != "" {
		c.view.ShowMessage(msg, view.ToneError)
		return
	}

	err := c.client.Login(ctx, model.LoginRequest{TeacherID: teacherID, Password: password})
	if err != nil {
		var se *api.StatusError
		if errors.As(err, &se) {
			c.view.ShowMessage(se.Message("Invalid credentials"), view.ToneError)
		} else {
			c.view.ShowMessage("Invalid credentials", view.ToneError)
		}
		return
	}

	c.view.ShowMessage("Login successful", view.ToneSuccess)
	time.Sleep(c.pause)
	c.view.Navigate(view.PageDashboard)
}
