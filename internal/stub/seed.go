package stub

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartattend/teacher-console/internal/model"
)

// Seed helpers bypass the HTTP surface so tests and dev runs can arrange
// state directly.

// SeedTeacher registers an account.
func (s *Server) SeedTeacher(teacherID, username, email, password string) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.teachers[teacherID] = &teacherRecord{
		TeacherID:     teacherID,
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		ClassroomCode: uuid.New().String()[:6],
	}
}

// SeedStudent inserts a student and returns its id. presentToday may be nil
// for the not-yet-recorded state.
func (s *Server) SeedStudent(name, rollNumber, email string, presentToday *bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.students[id] = &studentRecord{Student: model.Student{
		ID:           id,
		Name:         name,
		RollNumber:   rollNumber,
		Email:        email,
		PresentToday: presentToday,
	}}
	return id
}

// SeedWeekly installs a weekly report row keyed by roll number.
func (s *Server) SeedWeekly(row model.WeeklyRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := row
	s.weekly[row.RollNumber] = &copied
}

// AgeOTPWindow backdates every student's OTP timestamp by age, so the manual
// attendance gate treats the window as settled.
func (s *Server) AgeOTPWindow(age time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := time.Now().Add(-age)
	for _, st := range s.students {
		st.OTPGeneratedAt = t
	}
}

// ResetOTPFor returns the pending reset OTP for a teacher email, or "".
func (s *Server) ResetOTPFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.teacherByEmail(email); t != nil {
		return t.ResetOTP
	}
	return ""
}

// StudentOTPFor returns the pending attendance OTP for a roll number, or "".
func (s *Server) StudentOTPFor(rollNumber string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.students {
		if st.RollNumber == rollNumber {
			return st.OTP
		}
	}
	return ""
}
