package webportal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"portalwatch/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const attendanceDetailBody = `{
	"status": {"responseStatus": "Success"},
	"response": {
		"currentSem": "EVESEM 2026",
		"studentattendancelist": [
			{
				"Lsubjectcode": "COMPUTER ORGANISATION AND ARCHITECTURE (15B11CI311)",
				"Ltotalclass": 30, "Ltotalpres": 21, "Lpercentage": 70.0,
				"Ptotalclass": 10, "Ptotalpres": 9, "Ppercentage": 90.0,
				"LTpercantage": 75.0
			},
			{
				"Lsubjectcode": "DATABASE MANAGEMENT SYSTEMS (15B11CI312)",
				"Ltotalclass": 28, "Ltotalpres": 14, "Lpercentage": 50.0
			}
		]
	}
}`

const sgpaCgpaBody = `{
	"status": {"responseStatus": "Success"},
	"response": {
		"semesterList": [
			{"sgpa": 8.2, "cgpa": 7.9},
			{"sgpa": 7.6, "cgpa": 7.7}
		]
	}
}`

const noticeBoardBody = `<html><body>
	<div class="notice-item" data-id="n-301">
		<span class="notice-title">Mid-semester exam schedule</span>
		<span class="notice-date">14/02/2026</span>
		<a href="/docs/exam-schedule.pdf">download</a>
	</div>
	<div class="notice-item" data-id="n-302">
		<span class="notice-title">Library timings revised</span>
		<span class="notice-date">not a date</span>
	</div>
	<div class="notice-item" data-id="">
		<span class="notice-title">Row without an id is skipped</span>
	</div>
</body></html>`

func testServer(t *testing.T) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token/getcaptcha", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":{"responseStatus":"Success"},"response":{"captcha":{"image":"","hidden":"default"}}}`))
	})
	mux.HandleFunc("/token/generate-token1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": {"responseStatus": "Success"},
			"response": {"regdata": {
				"memberid": "MBR-1",
				"token": "tok-abc",
				"institutelist": [{"value": "INST-1"}]
			}}
		}`))
	})
	mux.HandleFunc("/StudentClassAttendance/getstudentattendancedetail", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(attendanceDetailBody))
	})
	mux.HandleFunc("/studentsgpacgpa/getallsemestersgpacgpa", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sgpaCgpaBody))
	})
	mux.HandleFunc("/studentnoticeboard", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(noticeBoardBody))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)
	return client
}

func TestLogin(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webportal")
	defer cleanup()

	client := testServer(t)
	ctx := context.Background()

	captcha, err := client.Captcha(ctx)
	require.NoError(t, err)
	require.Equal(t, "default", captcha.Hidden)

	session, err := client.Login(ctx, "student", "hunter2", captcha, "phw5n")
	require.NoError(t, err)
	require.Equal(t, "tok-abc", session.Token)
	require.Equal(t, "MBR-1", session.MemberId)
	require.Equal(t, "INST-1", session.InstituteId)
	require.NotEmpty(t, session.ClientId)
	require.Equal(t, "Bearer tok-abc", session.Headers()["Authorization"])
}

func TestLoginRejected(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webportal")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/token/generate-token1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":{"responseStatus":"Failure","errors":"Invalid credentials"}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	_, err = client.Login(context.Background(), "student", "wrong", Captcha{}, "phw5n")
	require.ErrorIs(t, err, ErrBadLogin)
}

func TestAttendance(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webportal")
	defer cleanup()

	client := testServer(t)
	session := Session{ClientId: "c-1", MemberId: "MBR-1", Token: "tok-abc"}

	report, err := client.Attendance(
		context.Background(),
		session,
		AttendanceHeader{HeaderId: "h-1"},
		Semester{RegistrationId: "r-1"},
	)
	require.NoError(t, err)
	require.Equal(t, "EVESEM 2026", report.CurrentSemester)
	require.Len(t, report.Records, 2)

	coa := report.Records[0]
	require.Equal(t, 40, coa.Total())
	require.Equal(t, 30, coa.Present())
	require.Equal(t, 75.0, coa.Percentage())

	dbms := report.Records[1]
	require.Equal(t, 50.0, dbms.Percentage())

	require.InDelta(t, 64.7, report.OverallPercentage(), 0.1)
}

func TestSgpaCgpaPicksLatest(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webportal")
	defer cleanup()

	client := testServer(t)
	result, err := client.SgpaCgpa(context.Background(), Session{Token: "tok-abc"})
	require.NoError(t, err)
	require.Equal(t, 8.2, result.SGPA)
	require.Equal(t, 7.9, result.CGPA)
}

func TestNotices(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webportal")
	defer cleanup()

	client := testServer(t)
	notices, err := client.Notices(context.Background(), Session{Token: "tok-abc"})
	require.NoError(t, err)
	require.Len(t, notices, 2)

	require.Equal(t, "n-301", notices[0].Id)
	require.Equal(t, "Mid-semester exam schedule", notices[0].Title)
	require.Equal(t, "/docs/exam-schedule.pdf", notices[0].Link)
	require.Equal(t, 2026, notices[0].PostedAt.Year())

	// bad date still yields the notice, with a zero timestamp
	require.Equal(t, "n-302", notices[1].Id)
	require.True(t, notices[1].PostedAt.IsZero())
}

func TestSessionExpired(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webportal")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	session := Session{Token: "stale"}
	_, err = client.AttendanceMeta(context.Background(), session)
	require.ErrorIs(t, err, ErrSessionExpired)

	_, err = client.Notices(context.Background(), session)
	require.ErrorIs(t, err, ErrSessionExpired)
}
