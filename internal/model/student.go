package model

// Student is the dashboard view of one student, mirrored from the
// all-students response. It is fetched fresh on every list or edit action and
// never cached across calls.
type Student struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
	Email      string `json:"email"`
	// PresentToday is tri-state: true = present, false = absent,
	// nil = not yet recorded today.
	PresentToday *bool `json:"presentToday"`
	OTPSent      bool  `json:"otpSent"`
}

// RegisterRequest is the signup payload for a new teacher account.
type RegisterRequest struct {
	TeacherID string `json:"teacherId"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginRequest carries teacher credentials.
type LoginRequest struct {
	TeacherID string `json:"teacherId"`
	Password  string `json:"password"`
}

// AddStudentRequest is the body for the add-student endpoint.
type AddStudentRequest struct {
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
	Email      string `json:"email"`
}

// UpdateStudentRequest is the body for update-student-attendance.
// Attendance is a pointer so an unrevealed override selector serializes as
// JSON null rather than an empty string.
type UpdateStudentRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Attendance *string `json:"attendance"`
}
