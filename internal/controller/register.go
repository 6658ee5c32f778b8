// Package controller holds the four page-controllers of the teacher console:
// registration, login, password reset, and the dashboard. Each one owns the
// workflow logic of its page and talks to the backend through the API client
// and to the terminal through a small consumer-defined view interface.
package controller

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/smartattend/teacher-console/internal/api"
	"github.com/smartattend/teacher-console/internal/model"
	"github.com/smartattend/teacher-console/internal/validate"
	"github.com/smartattend/teacher-console/internal/view"
)

// RegisterForm carries the raw signup field values as entered.
type RegisterForm struct {
	TeacherID string
	Username  string
	Email     string
	Password  string
	Confirm   string
}

// RegisterView is what the registration page needs from the terminal.
type RegisterView interface {
	ShowMessage(text string, tone view.Tone)
}

// Register validates and submits the teacher signup form.
type Register struct {
	client *api.Client
	view   RegisterView
	log    zerolog.Logger
}

// NewRegister creates the registration controller.
func NewRegister(client *api.Client, v RegisterView, log zerolog.Logger) *Register {
	return &Register{
		client: client,
		view:   v,
		log:    log.With().Str("component", "register").Logger(),
	}
}

// Submit runs the ordered client checks and, when they pass, posts the
// signup. Check order is first-failure-wins: presence of every field, then
// id length, email shape, password length, confirmation match. No request is
// issued when a check fails. The password is intentionally not trimmed.
func (c *Register) Submit(ctx context.Context, form RegisterForm) {
	form.TeacherID = strings.TrimSpace(form.TeacherID)
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	const allRequired = "All fields are required"
	msg := validate.First(
		validate.Rule{Value: form.TeacherID, Tag: "required", Message: allRequired},
		validate.Rule{Value: form.Username, Tag: "required", Message: allRequired},
		validate.Rule{Value: form.Email, Tag: "required", Message: allRequired},
		validate.Rule{Value: form.Password, Tag: "required", Message: allRequired},
		validate.Rule{Value: form.Confirm, Tag: "required", Message: allRequired},
		validate.Rule{Value: form.TeacherID, Tag: "len=6", Message: "Teacher ID must be 6 digits"},
		validate.Rule{Value: form.Email, Tag: "simpleemail", Message: "Enter a valid email"},
		validate.Rule{Value: form.Password, Tag: "min=8", Message: "Password must be at least 8 characters"},
	)
	if msg == "" && form.Password != form.Confirm {
		msg = "Passwords do not match"
	}
	if msg != "" {
		c.view.ShowMessage(msg, view.ToneError)
		return
	}

	err := c.client.Register(ctx, model.RegisterRequest{
		TeacherID: form.TeacherID,
		Username:  form.Username,
		Email:     form.Email,
		Password:  form.Password,
	})
	if err != nil {
		var se *api.StatusError
		if errors.As(err, &se) {
			c.view.ShowMessage(se.Message("Registration failed"), view.ToneError)
		} else {
			c.view.ShowMessage("Registration failed", view.ToneError)
		}
		return
	}

	// The original page gave no visual confirmation on success; the server
	// sends the verification email. Keep the contract, log for operators.
	c.log.Info().Str("teacher_id", form.TeacherID).Msg("Registration submitted")
}
