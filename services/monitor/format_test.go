package monitor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatAttendanceAlertListsLowSubjects(t *testing.T) {
	snapshot := AttendanceSnapshot{
		OverallPercentage: 72.5,
		Subjects: []SubjectAttendance{
			{Name: "COMPUTER ORGANISATION AND ARCHITECTURE (15B11CI311)", Attended: 14, Total: 20, Percentage: 70.0},
			{Name: "DATABASE MANAGEMENT SYSTEMS (15B11CI312)", Attended: 27, Total: 30, Percentage: 90.0},
		},
	}

	out := FormatAttendanceAlert(snapshot, ChangeDelta{ThresholdBreached: true}, 75.0)
	require.Contains(t, out, "Overall: 72.5%")
	require.Contains(t, out, "COA")
	require.Contains(t, out, "14/20")
	require.NotContains(t, out, "DBMS")
}

func TestFormatAttendanceAlertAllAboveThreshold(t *testing.T) {
	// overall can breach while every individual subject is fine
	snapshot := AttendanceSnapshot{
		OverallPercentage: 74.0,
		Subjects: []SubjectAttendance{
			{Name: "COA", Attended: 19, Total: 25, Percentage: 76.0},
		},
	}

	out := FormatAttendanceAlert(snapshot, ChangeDelta{ThresholdBreached: true}, 75.0)
	require.Contains(t, out, "above the threshold")
}

func TestFormatMarksAlertOnlyChangedRows(t *testing.T) {
	snapshot := MarksSnapshot{
		CGPA: 8.0,
		SGPA: 8.2,
		Subjects: []SubjectMarks{
			{Name: "COA", Marks: "82", Grade: "A"},
			{Name: "DBMS", Marks: "85", Grade: "A"},
		},
	}
	delta := ChangeDelta{ChangedSubjects: []string{"COA"}}

	out := FormatMarksAlert(snapshot, delta)
	require.Contains(t, out, "CGPA: 8.00")
	require.Contains(t, out, "82")
	require.NotContains(t, out, "85")
}

func TestFormatDegradedAlertWording(t *testing.T) {
	auth := FormatDegradedAlert(FailurePortalAuth, errors.New("captcha rejected"))
	require.Contains(t, auth, "credentials")
	require.Contains(t, auth, "captcha rejected")

	transport := FormatDegradedAlert(FailurePortalTransport, errors.New("timeout"))
	require.Contains(t, transport, "Unable to reach the portal")
	require.Contains(t, transport, "timeout")
}
