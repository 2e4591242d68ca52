package monitor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"portalwatch/lib/captcha"
	"portalwatch/lib/scrapers/webportal"
	"portalwatch/lib/timezone"
)

// WebportalAdapter implements PortalClient on top of the webportal
// scraper. It keeps the live scraper session internally and hands the
// core an opaque SessionToken, a fetch presenting a token from a
// superseded login is treated as expired.
type WebportalAdapter struct {
	client *webportal.Client

	mu        sync.Mutex
	challenge webportal.Captcha
	session   webportal.Session
}

func NewWebportalAdapter(client *webportal.Client) *WebportalAdapter {
	return &WebportalAdapter{client: client}
}

func (a *WebportalAdapter) Challenge(ctx context.Context) (captcha.Challenge, error) {
	ch, err := a.client.Captcha(ctx)
	if err != nil {
		return captcha.Challenge{}, err
	}

	a.mu.Lock()
	a.challenge = ch
	a.mu.Unlock()

	return captcha.Challenge{Image: ch.Image, Hint: ch.Hidden}, nil
}

func (a *WebportalAdapter) Login(ctx context.Context, creds Credentials, captchaAnswer string) (SessionToken, error) {
	a.mu.Lock()
	challenge := a.challenge
	a.mu.Unlock()

	session, err := a.client.Login(ctx, creds.Username, creds.Password, challenge, captchaAnswer)
	if err != nil {
		if errors.Is(err, webportal.ErrBadLogin) {
			return SessionToken{}, &AuthError{Cause: err}
		}
		return SessionToken{}, &TransportError{Cause: err}
	}

	a.mu.Lock()
	a.session = session
	a.mu.Unlock()

	return SessionToken{
		Headers:  session.Headers(),
		ClientId: session.ClientId,
		IssuedAt: session.IssuedAt,
	}, nil
}

func (a *WebportalAdapter) Fetch(ctx context.Context, kind Kind, token SessionToken) (Snapshot, error) {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()

	if session.Token == "" || session.ClientId != token.ClientId {
		return Snapshot{}, ErrSessionExpired
	}

	var snapshot Snapshot
	var err error
	switch kind {
	case KindAttendance:
		snapshot, err = a.fetchAttendance(ctx, session)
	case KindMarks:
		snapshot, err = a.fetchMarks(ctx, session)
	case KindNotices:
		snapshot, err = a.fetchNotices(ctx, session)
	default:
		return Snapshot{}, fmt.Errorf("unknown snapshot kind %q", kind)
	}
	if err != nil {
		if errors.Is(err, webportal.ErrSessionExpired) {
			return Snapshot{}, ErrSessionExpired
		}
		if IsTransportError(err) {
			return Snapshot{}, err
		}
		return Snapshot{}, &TransportError{Cause: err}
	}
	return snapshot, nil
}

func (a *WebportalAdapter) fetchAttendance(ctx context.Context, session webportal.Session) (Snapshot, error) {
	meta, err := a.client.AttendanceMeta(ctx, session)
	if err != nil {
		return Snapshot{}, err
	}
	header, err := meta.LatestHeader()
	if err != nil {
		return Snapshot{}, err
	}
	sem, err := meta.LatestSemester()
	if err != nil {
		return Snapshot{}, err
	}

	report, err := a.client.Attendance(ctx, session, header, sem)
	if err != nil {
		return Snapshot{}, err
	}

	attendance := AttendanceSnapshot{
		OverallPercentage: report.OverallPercentage(),
	}
	for _, record := range report.Records {
		attendance.Subjects = append(attendance.Subjects, SubjectAttendance{
			Name:       record.Subject(),
			Attended:   record.Present(),
			Total:      record.Total(),
			Percentage: record.Percentage(),
		})
	}

	return Snapshot{
		Kind:       KindAttendance,
		FetchedAt:  timezone.Now(),
		Attendance: &attendance,
	}, nil
}

func (a *WebportalAdapter) fetchMarks(ctx context.Context, session webportal.Session) (Snapshot, error) {
	gpa, err := a.client.SgpaCgpa(ctx, session)
	if err != nil {
		return Snapshot{}, err
	}

	marks := MarksSnapshot{
		CGPA: gpa.CGPA,
		SGPA: gpa.SGPA,
	}

	semesters, err := a.client.GradeCardSemesters(ctx, session)
	if err != nil {
		return Snapshot{}, err
	}
	if len(semesters) > 0 {
		// the grade card endpoint lists semesters oldest first
		latest := semesters[len(semesters)-1]
		entries, err := a.client.GradeCard(ctx, session, latest)
		if err != nil {
			return Snapshot{}, err
		}
		for _, entry := range entries {
			marks.Subjects = append(marks.Subjects, SubjectMarks{
				Name:    entry.Subject(),
				Marks:   strconv.FormatFloat(entry.Total, 'f', -1, 64),
				Grade:   entry.Grade,
				Credits: int(entry.Credits),
			})
		}
	}

	return Snapshot{
		Kind:      KindMarks,
		FetchedAt: timezone.Now(),
		Marks:     &marks,
	}, nil
}

func (a *WebportalAdapter) fetchNotices(ctx context.Context, session webportal.Session) (Snapshot, error) {
	raw, err := a.client.Notices(ctx, session)
	if err != nil {
		return Snapshot{}, err
	}

	notices := NoticeSnapshot{}
	for _, notice := range raw {
		notices.Notices = append(notices.Notices, Notice{
			Id:       notice.Id,
			Title:    notice.Title,
			PostedAt: notice.PostedAt,
		})
	}

	return Snapshot{
		Kind:      KindNotices,
		FetchedAt: timezone.Now(),
		Notices:   &notices,
	}, nil
}
