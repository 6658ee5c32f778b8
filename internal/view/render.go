package view

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/smartattend/teacher-console/internal/model"
)

// weeklyEmptyText is the placeholder row shown when no weekly marks exist
// yet. Wording matches the deployed UI.
const weeklyEmptyText = "No weekly attendance yet. Mark attendance (Send OTP / student submit) to see the report."

// PresenceBadge maps the tri-state presentToday to its display mark:
// "P" for present, "A" for absent, "-" when nothing is recorded yet.
// No other value is possible.
func PresenceBadge(present *bool) string {
	switch {
	case present == nil:
		return "-"
	case *present:
		return "P"
	default:
		return "A"
	}
}

// DayMark renders one weekly-grid cell: the mark verbatim, or a neutral dash
// when no mark exists.
func DayMark(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

// otpMark renders the weekly report's entered-OTP column.
func otpMark(entered bool) string {
	if entered {
		return "✔"
	}
	return "✘"
}

// RenderStudentTable writes the roster with the tri-state Today column and
// the row ids used by the edit/delete actions.
func RenderStudentTable(w io.Writer, students []model.Student) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tROLL NO\tEMAIL\tTODAY")
	for _, s := range students {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			s.ID, s.Name, s.RollNumber, s.Email, PresenceBadge(s.PresentToday))
	}
	tw.Flush()
}

// RenderWeeklyTable writes the 9-column weekly report: roll number, name,
// entered-OTP mark, and Monday through Saturday. An empty report renders the
// placeholder row rather than a bare header.
func RenderWeeklyTable(w io.Writer, rows []model.WeeklyRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, weeklyEmptyText)
		return
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLL NO\tNAME\tOTP\tMON\tTUE\tWED\tTHU\tFRI\tSAT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s", r.RollNumber, r.Name, otpMark(r.PresentToday))
		for _, day := range r.Days() {
			fmt.Fprintf(tw, "\t%s", DayMark(day))
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}
