package monitor

import (
	"fmt"
	"strings"

	"portalwatch/lib/textutil"

	"github.com/jedib0t/go-pretty/v6/table"
)

func subjectTable(header table.Row, rows []table.Row) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)
	return t.Render()
}

// FormatAttendanceAlert renders the low-attendance warning, calling
// out the subjects sitting below the threshold individually.
func FormatAttendanceAlert(snapshot AttendanceSnapshot, delta ChangeDelta, threshold float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Low Attendance Alert\n\n")
	fmt.Fprintf(&b, "Overall: %.1f%% (threshold %.0f%%)\n\n", snapshot.OverallPercentage, threshold)

	var low []table.Row
	for _, s := range snapshot.Subjects {
		if s.Percentage < threshold {
			low = append(low, table.Row{
				textutil.ShortSubjectName(s.Name),
				fmt.Sprintf("%d/%d", s.Attended, s.Total),
				fmt.Sprintf("%.1f%%", s.Percentage),
			})
		}
	}
	if len(low) == 0 {
		b.WriteString("All subjects are above the threshold.")
		return b.String()
	}
	fmt.Fprintf(&b, "Subjects below %.0f%%:\n", threshold)
	b.WriteString(subjectTable(table.Row{"Subject", "Classes", "%"}, low))
	return b.String()
}

// FormatAttendanceSummary renders the full subject-wise table used by
// the on-demand /attendance command and the daily digest.
func FormatAttendanceSummary(snapshot AttendanceSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Attendance Summary\n\n")
	fmt.Fprintf(&b, "Overall: %.1f%%\n\n", snapshot.OverallPercentage)

	rows := make([]table.Row, len(snapshot.Subjects))
	for i, s := range snapshot.Subjects {
		rows[i] = table.Row{
			textutil.ShortSubjectName(s.Name),
			fmt.Sprintf("%d/%d", s.Attended, s.Total),
			fmt.Sprintf("%.1f%%", s.Percentage),
		}
	}
	b.WriteString(subjectTable(table.Row{"Subject", "Classes", "%"}, rows))
	return b.String()
}

func FormatMarksAlert(snapshot MarksSnapshot, delta ChangeDelta) string {
	changed := map[string]bool{}
	for _, name := range delta.ChangedSubjects {
		changed[name] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Marks Update\n\n")
	fmt.Fprintf(&b, "CGPA: %.2f", snapshot.CGPA)
	if snapshot.SGPA > 0 {
		fmt.Fprintf(&b, "  SGPA: %.2f", snapshot.SGPA)
	}
	b.WriteString("\n\n")

	var rows []table.Row
	for _, s := range snapshot.Subjects {
		if changed[s.Name] {
			rows = append(rows, table.Row{
				textutil.ShortSubjectName(s.Name),
				s.Marks,
				s.Grade,
			})
		}
	}
	b.WriteString(subjectTable(table.Row{"Subject", "Marks", "Grade"}, rows))
	return b.String()
}

func FormatMarksSummary(snapshot MarksSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Marks Summary\n\n")
	fmt.Fprintf(&b, "CGPA: %.2f", snapshot.CGPA)
	if snapshot.SGPA > 0 {
		fmt.Fprintf(&b, "  SGPA: %.2f", snapshot.SGPA)
	}
	b.WriteString("\n\n")

	if len(snapshot.Subjects) == 0 {
		b.WriteString("No subject-wise marks released yet.")
		return b.String()
	}
	rows := make([]table.Row, len(snapshot.Subjects))
	for i, s := range snapshot.Subjects {
		rows[i] = table.Row{
			textutil.ShortSubjectName(s.Name),
			s.Marks,
			s.Grade,
			s.Credits,
		}
	}
	b.WriteString(subjectTable(table.Row{"Subject", "Marks", "Grade", "Credits"}, rows))
	return b.String()
}

func FormatNoticesAlert(fresh []Notice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New Notices (%d)\n\n", len(fresh))
	for _, n := range fresh {
		fmt.Fprintf(&b, "- %s (%s)\n", n.Title, n.PostedAt.Format("02 Jan 2006"))
	}
	return b.String()
}

func FormatNoticesSummary(snapshot NoticeSnapshot) string {
	if len(snapshot.Notices) == 0 {
		return "No notices on the portal right now."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Latest Notices\n\n")
	for _, n := range snapshot.Notices {
		fmt.Fprintf(&b, "- %s (%s)\n", n.Title, n.PostedAt.Format("02 Jan 2006"))
	}
	return b.String()
}

func FormatDegradedAlert(class FailureClass, err error) string {
	var b strings.Builder
	b.WriteString("Portal Connection Issues\n\n")
	switch class {
	case FailurePortalAuth:
		b.WriteString("The portal keeps rejecting the login. Check that the configured credentials are still valid.\n\n")
	default:
		b.WriteString("Unable to reach the portal after multiple attempts.\n\n")
	}
	b.WriteString("Monitoring stays active and will keep retrying automatically.\n")
	fmt.Fprintf(&b, "Last error: %s", err.Error())
	return b.String()
}
