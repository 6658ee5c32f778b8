// Package view renders the teacher console and defines the navigation
// vocabulary the controllers speak. Markup-level concerns end here; the
// controllers never format a table themselves.
package view

// Page identifies one console screen.
type Page string

const (
	PageRole           Page = "role"
	PageLogin          Page = "login"
	PageRegister       Page = "register"
	PageForgotPassword Page = "forgot-password"
	PageDashboard      Page = "dashboard"
	PageStudent        Page = "student"
)

// Tone classifies an inline message.
type Tone int

const (
	ToneInfo Tone = iota
	ToneSuccess
	ToneError
)

// String implements fmt.Stringer.
func (t Tone) String() string {
	switch t {
	case ToneSuccess:
		return "success"
	case ToneError:
		return "error"
	default:
		return "info"
	}
}
