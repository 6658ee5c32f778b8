package model

// WeeklyRow is one row of the weekly attendance report: roll number, name,
// whether the student entered today's OTP, and per-day marks Monday through
// Saturday. Day values are "P", "A", or nil when no mark exists.
type WeeklyRow struct {
	RollNumber   string  `json:"rollNumber"`
	Name         string  `json:"name"`
	PresentToday bool    `json:"presentToday"`
	Mon          *string `json:"mon"`
	Tue          *string `json:"tue"`
	Wed          *string `json:"wed"`
	Thu          *string `json:"thu"`
	Fri          *string `json:"fri"`
	Sat          *string `json:"sat"`
}

// Days returns the six day marks in Monday..Saturday order.
func (r WeeklyRow) Days() []*string {
	return []*string{r.Mon, r.Tue, r.Wed, r.Thu, r.Fri, r.Sat}
}
