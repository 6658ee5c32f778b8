// Package stub is an in-memory implementation of the attendance backend
// contract. It exists for local development of the console and for the test
// suites; it is not the production server. Response texts and status codes
// mirror the deployed backend so the client surfaces identical messages.
package stub

import (
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartattend/teacher-console/internal/model"
)

const (
	resetOTPTTL      = 2 * time.Minute
	attendanceOTPTTL = 2 * time.Minute
	manualUpdateGate = 5 * time.Minute

	sessionCookie = "TEACHERSESSION"
)

type teacherRecord struct {
	TeacherID     string
	Username      string
	Email         string
	PasswordHash  []byte
	ClassroomCode string
	ResetOTP      string
	OTPExpiry     time.Time
}

type studentRecord struct {
	model.Student
	OTP            string
	OTPExpiry      time.Time
	OTPGeneratedAt time.Time
}

// Server holds the in-memory state behind the stub routes.
type Server struct {
	log zerolog.Logger
	now func() time.Time

	mu       sync.Mutex
	teachers map[string]*teacherRecord
	students map[int64]*studentRecord
	weekly   map[string]*model.WeeklyRow
	nextID   int64
}

// New creates an empty stub server.
func New(log zerolog.Logger) *Server {
	return &Server{
		log:      log.With().Str("component", "stub").Logger(),
		now:      time.Now,
		teachers: make(map[string]*teacherRecord),
		students: make(map[int64]*studentRecord),
		weekly:   make(map[string]*model.WeeklyRow),
		nextID:   1,
	}
}

// Router builds the gin engine with every contract route mounted.
func (s *Server) Router(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	corsCfg.AllowCredentials = len(allowedOrigins) > 0
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	teacher := r.Group("/api/teacher")
	{
		teacher.POST("/register", s.register)
		teacher.POST("/login", s.login)
		teacher.POST("/forgot-password", s.forgotPassword)
		teacher.POST("/verify-otp", s.verifyOTP)
		teacher.POST("/reset-password", s.resetPassword)
		teacher.GET("/all-students", s.allStudents)
		teacher.POST("/add-student", s.addStudent)
		teacher.PUT("/update-student-attendance/:id", s.updateStudentAttendance)
		teacher.DELETE("/:id", s.deleteStudent)
		teacher.POST("/send-otp", s.broadcastOTP)
		teacher.POST("/logout", s.logout)
		teacher.POST("/request-delete", s.requestDelete)
	}

	attendance := r.Group("/api/attendance")
	{
		attendance.GET("/weekly", s.weeklyReport)
		attendance.POST("/reset-today", s.resetToday)
		attendance.POST("/submit-otp", s.submitOTP)
	}

	return r
}

// ─── Auth ───────────────────────────────────────────────────────────────────

func (s *Server) register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teachers[req.TeacherID]; ok {
		c.String(http.StatusBadRequest, "Teacher ID already exists")
		return
	}
	for _, t := range s.teachers {
		if t.Email == req.Email {
			c.String(http.StatusBadRequest, "Email already in use")
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		c.String(http.StatusInternalServerError, "Registration failed")
		return
	}

	// The real backend gates login on an email verification link; the stub
	// has no mailer, so accounts are live immediately.
	s.teachers[req.TeacherID] = &teacherRecord{
		TeacherID:     req.TeacherID,
		Username:      req.Username,
		Email:         req.Email,
		PasswordHash:  hash,
		ClassroomCode: uuid.New().String()[:6],
	}

	c.String(http.StatusOK, "Teacher registered successfully. Verification email sent.")
}

func (s *Server) login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid payload")
		return
	}

	s.mu.Lock()
	t, ok := s.teachers[req.TeacherID]
	s.mu.Unlock()

	if !ok {
		c.String(http.StatusUnauthorized, "Teacher not found")
		return
	}
	if bcrypt.CompareHashAndPassword(t.PasswordHash, []byte(req.Password)) != nil {
		c.String(http.StatusUnauthorized, "Invalid password")
		return
	}

	c.SetCookie(sessionCookie, t.TeacherID, 0, "/", "", false, true)
	c.String(http.StatusOK, "Login successful")
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.teacherByEmail(req.Email)
	if t == nil {
		c.String(http.StatusBadRequest, "Invalid email")
		return
	}

	t.ResetOTP = sixDigitOTP()
	t.OTPExpiry = s.now().Add(resetOTPTTL)
	s.log.Info().Str("email", req.Email).Str("otp", t.ResetOTP).Msg("Reset OTP issued")

	c.String(http.StatusOK, "OTP SENT")
}

func (s *Server) verifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.teacherByEmail(req.Email)
	if t == nil {
		c.String(http.StatusBadRequest, "Invalid email")
		return
	}
	if t.ResetOTP == "" || req.OTP != t.ResetOTP {
		c.String(http.StatusBadRequest, "Invalid OTP")
		return
	}
	if t.OTPExpiry.Before(s.now()) {
		c.String(http.StatusBadRequest, "OTP expired")
		return
	}

	t.ResetOTP = ""
	c.String(http.StatusOK, "OTP VERIFIED")
}

func (s *Server) resetPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.teacherByEmail(req.Email)
	if t == nil {
		c.String(http.StatusBadRequest, "Email not found")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		c.String(http.StatusInternalServerError, "Reset failed")
		return
	}
	t.PasswordHash = hash
	t.OTPExpiry = time.Time{}

	c.String(http.StatusOK, "PASSWORD UPDATED")
}

func (s *Server) logout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) requestDelete(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.String(http.StatusBadRequest, "Email required")
		return
	}
	c.String(http.StatusOK, "Verification link sent to your email. Click it to confirm account deletion.")
}

// ─── Students ───────────────────────────────────────────────────────────────

func (s *Server) allStudents(c *gin.Context) {
	s.mu.Lock()
	out := make([]model.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, st.Student)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, out)
}

func (s *Server) addStudent(c *gin.Context) {
	var req model.AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid payload")
		return
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.students[id] = &studentRecord{Student: model.Student{
		ID:         id,
		Name:       req.Name,
		RollNumber: req.RollNumber,
		Email:      req.Email,
	}}
	s.mu.Unlock()

	c.String(http.StatusOK, "Student added successfully")
}

func (s *Server) updateStudentAttendance(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid ID")
		return
	}

	var req model.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.students[id]
	if !ok {
		c.String(http.StatusNotFound, "Student not found")
		return
	}

	st.Name = req.Name
	st.Email = req.Email

	if req.Attendance != nil {
		// Manual overrides open only after the OTP window has settled.
		if st.OTPGeneratedAt.IsZero() || s.now().Sub(st.OTPGeneratedAt) < manualUpdateGate {
			c.String(http.StatusForbidden, "Manual attendance update is only allowed 5 minutes after OTP is sent")
			return
		}
		present := *req.Attendance == "P"
		st.PresentToday = &present
		s.markWeekly(st, present)
	}

	c.String(http.StatusOK, "Student updated successfully")
}

func (s *Server) deleteStudent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid ID")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.students[id]
	if !ok {
		c.String(http.StatusNotFound, "Student not found")
		return
	}
	delete(s.weekly, st.RollNumber)
	delete(s.students, id)

	c.String(http.StatusOK, "Student Deleted Successfully")
}

// ─── Attendance ─────────────────────────────────────────────────────────────

func (s *Server) broadcastOTP(c *gin.Context) {
	s.mu.Lock()
	now := s.now()
	for _, st := range s.students {
		st.OTP = sixDigitOTP()
		st.OTPExpiry = now.Add(attendanceOTPTTL)
		st.OTPGeneratedAt = now
		st.OTPSent = true
		s.log.Info().Str("roll_number", st.RollNumber).Str("otp", st.OTP).Msg("Attendance OTP issued")
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"message": "Normal OTP sent to all students successfully"})
}

// submitOTP is the student-side entry point: it marks today's presence when
// the emailed code matches within its window.
func (s *Server) submitOTP(c *gin.Context) {
	var req struct {
		RollNumber string `json:"rollNumber"`
		OTP        string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var st *studentRecord
	for _, candidate := range s.students {
		if candidate.RollNumber == req.RollNumber {
			st = candidate
			break
		}
	}
	switch {
	case st == nil:
		c.String(http.StatusBadRequest, "Student not found")
	case st.OTP == "":
		c.String(http.StatusBadRequest, "OTP not generated")
	case req.OTP != st.OTP:
		c.String(http.StatusBadRequest, "Invalid OTP")
	case st.OTPExpiry.Before(s.now()):
		c.String(http.StatusBadRequest, "OTP expired")
	case st.PresentToday != nil && *st.PresentToday:
		c.String(http.StatusOK, "Attendance already marked")
	default:
		present := true
		st.PresentToday = &present
		st.OTP = ""
		s.markWeekly(st, true)
		c.String(http.StatusOK, "Attendance marked successfully")
	}
}

func (s *Server) weeklyReport(c *gin.Context) {
	s.mu.Lock()
	rows := make([]model.WeeklyRow, 0, len(s.weekly))
	for _, st := range s.students {
		w, ok := s.weekly[st.RollNumber]
		if !ok {
			continue
		}
		row := *w
		row.PresentToday = st.PresentToday != nil && *st.PresentToday
		rows = append(rows, row)
	}
	s.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].RollNumber < rows[j].RollNumber })
	c.JSON(http.StatusOK, rows)
}

func (s *Server) resetToday(c *gin.Context) {
	s.mu.Lock()
	for _, st := range s.students {
		st.PresentToday = nil
		st.OTPSent = false
	}
	s.mu.Unlock()

	c.String(http.StatusOK, "Daily attendance reset successfully")
}

// ─── Internals ──────────────────────────────────────────────────────────────

// markWeekly records today's mark in the student's weekly row. Sundays have
// no column and are dropped, matching the report's Mon–Sat grid.
func (s *Server) markWeekly(st *studentRecord, present bool) {
	w, ok := s.weekly[st.RollNumber]
	if !ok {
		w = &model.WeeklyRow{RollNumber: st.RollNumber, Name: st.Name}
		s.weekly[st.RollNumber] = w
	}

	mark := "A"
	if present {
		mark = "P"
	}
	switch s.now().Weekday() {
	case time.Monday:
		w.Mon = &mark
	case time.Tuesday:
		w.Tue = &mark
	case time.Wednesday:
		w.Wed = &mark
	case time.Thursday:
		w.Thu = &mark
	case time.Friday:
		w.Fri = &mark
	case time.Saturday:
		w.Sat = &mark
	}
}

func (s *Server) teacherByEmail(email string) *teacherRecord {
	for _, t := range s.teachers {
		if t.Email == email {
			return t
		}
	}
	return nil
}

func sixDigitOTP() string {
	return fmt.Sprintf("%06d", 100000+rand.Intn(900000))
}
