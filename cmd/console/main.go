package main

import (
	"context"
	"strconv"
	"time"

	"github.com/smartattend/teacher-console/internal/api"
	"github.com/smartattend/teacher-console/internal/config"
	"github.com/smartattend/teacher-console/internal/controller"
	"github.com/smartattend/teacher-console/internal/localstore"
	"github.com/smartattend/teacher-console/internal/logger"
	"github.com/smartattend/teacher-console/internal/validate"
	"github.com/smartattend/teacher-console/internal/view"
	"github.com/smartattend/teacher-console/internal/view/console"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("api", cfg.APIBaseURL).
		Str("log_level", cfg.LogLevel).
		Msg("Starting teacher console")

	// ─── Initialize Validator ──────────────────────────────────────────
	validate.Setup()

	// ─── Local State ───────────────────────────────────────────────────
	store, err := localstore.New(cfg.StateDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open local state")
	}

	// ─── API Client ────────────────────────────────────────────────────
	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, log)

	// ─── Views and Controllers ─────────────────────────────────────────
	term := console.New()
	registerCtl := controller.NewRegister(client, term, log)
	loginCtl := controller.NewLogin(client, term, cfg.LoginRedirectPause, log)
	resetCtl := controller.NewReset(client, term, cfg.OTPCountdownSeconds, time.Second, log)
	dashCtl := controller.NewDashboard(client, term, store, cfg.AttendanceWindow, cfg.RevealDelay, log)
	defer dashCtl.Close()

	// ─── Page Loop ─────────────────────────────────────────────────────
	ctx := context.Background()
	app := &app{
		cfg:      cfg,
		term:     term,
		register: registerCtl,
		login:    loginCtl,
		reset:    resetCtl,
		dash:     dashCtl,
	}

	page := view.PageRole
	for page != "" {
		page = app.run(ctx, page)
	}
}

type app struct {
	cfg      *config.Config
	term     *console.Console
	register *controller.Register
	login    *controller.Login
	reset    *controller.Reset
	dash     *controller.Dashboard
}

// run drives one page until a navigation fires or the user quits. Returns
// the next page, or "" to exit.
func (a *app) run(ctx context.Context, page view.Page) view.Page {
	switch page {
	case view.PageRole:
		return a.rolePage()
	case view.PageLogin:
		return a.loginPage(ctx)
	case view.PageRegister:
		return a.registerPage(ctx)
	case view.PageForgotPassword:
		return a.forgotPage(ctx)
	case view.PageDashboard:
		return a.dashboardPage(ctx)
	case view.PageStudent:
		a.term.ShowMessage("Students mark attendance from the emailed OTP link; nothing to do here.", view.ToneInfo)
		return view.PageRole
	default:
		return ""
	}
}

// next drains a pending navigation request, falling back to the current page.
func (a *app) next(current view.Page) (view.Page, bool) {
	select {
	case p := <-a.term.Navigation():
		return p, true
	default:
		return current, false
	}
}

func (a *app) rolePage() view.Page {
	for {
		choice := a.term.Prompt("\n[role] (t)eacher, (s)tudent, (q)uit:")
		switch choice {
		case "t":
			a.term.FlipTo(view.PageLogin, a.cfg.RoleFlipPause)
		case "s":
			a.term.FlipTo(view.PageStudent, a.cfg.RoleFlipPause)
		case "q":
			return ""
		}
		if p, ok := a.next(view.PageRole); ok {
			return p
		}
	}
}

func (a *app) loginPage(ctx context.Context) view.Page {
	for {
		choice := a.term.Prompt("\n[login] (l)og in, (r)egister, (f)orgot password, (q)uit:")
		switch choice {
		case "l":
			id := a.term.Prompt("Teacher ID:")
			password := a.term.PromptPassword("Password:")
			a.login.Submit(ctx, id, password)
		case "r":
			a.term.FlipTo(view.PageRegister, a.cfg.FlipPause)
		case "f":
			a.term.FlipTo(view.PageForgotPassword, a.cfg.FlipPause)
		case "q":
			return ""
		}
		if p, ok := a.next(view.PageLogin); ok {
			return p
		}
	}
}

func (a *app) registerPage(ctx context.Context) view.Page {
	for {
		choice := a.term.Prompt("\n[register] (r)egister, (b)ack:")
		switch choice {
		case "r":
			form := controller.RegisterForm{
				TeacherID: a.term.Prompt("Teacher ID:"),
				Username:  a.term.Prompt("Username:"),
				Email:     a.term.Prompt("Email:"),
				Password:  a.term.PromptPassword("Password:"),
				Confirm:   a.term.PromptPassword("Confirm password:"),
			}
			a.register.Submit(ctx, form)
		case "b":
			return view.PageLogin
		}
		if p, ok := a.next(view.PageRegister); ok {
			return p
		}
	}
}

func (a *app) forgotPage(ctx context.Context) view.Page {
	email := ""
	for {
		choice := a.term.Prompt("\n[forgot] (s)end OTP, (v)erify OTP, (p)assword reset, (b)ack:")
		switch choice {
		case "s":
			if a.reset.Stage() == controller.StageOTPPending && !a.term.ResendEnabled() {
				a.term.ShowMessage("Resend is still locked; wait for the countdown.", view.ToneError)
				break
			}
			if email == "" {
				email = a.term.Prompt("Email:")
			}
			a.reset.SendOTP(ctx, email)
		case "v":
			a.reset.VerifyOTP(ctx, a.term.Prompt("OTP:"))
		case "p":
			newPwd := a.term.PromptPassword("New password:")
			confirm := a.term.PromptPassword("Confirm password:")
			a.reset.ResetPassword(ctx, newPwd, confirm)
		case "b":
			return view.PageLogin
		}
		if p, ok := a.next(view.PageForgotPassword); ok {
			return p
		}
	}
}

func (a *app) dashboardPage(ctx context.Context) view.Page {
	a.dash.ResetTodayIfNewDay(ctx)
	a.dash.Load(ctx)

	for {
		choice := a.term.Prompt("\n[dashboard] (l)ist, (a)dd, (e)dit, (u)pdate, (d)elete, (o)tp broadcast, (w)eekly, (c)lose report, (x) delete account, (q) logout:")
		switch choice {
		case "l":
			a.dash.Load(ctx)
		case "a":
			a.dash.Save(ctx,
				a.term.Prompt("Name:"),
				a.term.Prompt("Roll number:"),
				a.term.Prompt("Email:"))
		case "e":
			if id, ok := a.promptID(); ok {
				a.dash.Edit(ctx, id)
			}
		case "u":
			a.dash.Update(ctx,
				a.term.Prompt("Name:"),
				a.term.Prompt("Email:"),
				a.term.Prompt("Attendance (P/A, ignored until revealed):"))
		case "d":
			if id, ok := a.promptID(); ok {
				a.dash.Delete(ctx, id)
			}
		case "o":
			a.dash.BroadcastOTP(ctx)
		case "w":
			a.dash.OpenWeekly(ctx)
		case "c":
			a.dash.CloseWeekly()
		case "x":
			a.dash.DeleteAccount(ctx)
		case "q":
			a.dash.Logout(ctx)
		}
		if p, ok := a.next(view.PageDashboard); ok {
			a.dash.Close()
			return p
		}
	}
}

func (a *app) promptID() (int64, bool) {
	raw := a.term.Prompt("Student id:")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		a.term.ShowMessage("Invalid student id", view.ToneError)
		return 0, false
	}
	return id, true
}
