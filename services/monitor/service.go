package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portalwatch/lib/timezone"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Service is the entrypoint the notifier's command handlers use. It
// wraps the on-demand query path, which reads the shared baselines
// but NEVER writes them: an on-demand read must not cause the next
// scheduled cycle to under-report a change. It also skips the failure
// counters, a user asking twice during an outage should get two error
// replies, not a half-counted degraded alert.
type Service struct {
	loop    *Loop
	session *SessionManager
	portal  PortalClient

	// short-lived per-kind cache so command spam does not hammer the
	// portal, bypassed entirely by the scheduled cycle
	cache *expirable.LRU[Kind, Snapshot]

	cfg       Config
	startedAt time.Time
}

type ServiceOptions struct {
	Loop    *Loop
	Session *SessionManager
	Portal  PortalClient
	Config  Config
	// zero disables the on-demand cache
	QueryCacheTTL time.Duration
}

func NewService(opts ServiceOptions) *Service {
	var cache *expirable.LRU[Kind, Snapshot]
	if opts.QueryCacheTTL > 0 {
		cache = expirable.NewLRU[Kind, Snapshot](len(AllKinds), nil, opts.QueryCacheTTL)
	}
	return &Service{
		loop:      opts.Loop,
		session:   opts.Session,
		portal:    opts.Portal,
		cache:     cache,
		cfg:       opts.Config,
		startedAt: timezone.Now(),
	}
}

// Query fetches a fresh snapshot outside the scheduled cycle.
func (s *Service) Query(ctx context.Context, kind Kind) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "service:Query")
	defer span.End()
	span.SetAttributes(attribute.String("kind", string(kind)))

	if s.cache != nil {
		if cached, hit := s.cache.Get(kind); hit {
			return cached, nil
		}
	}

	token, err := s.session.Ensure(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session unavailable")
		return Snapshot{}, err
	}

	snapshot, err := s.portal.Fetch(ctx, kind, token)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			s.session.Invalidate()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return Snapshot{}, err
	}

	if s.cache != nil {
		s.cache.Add(kind, snapshot)
	}
	return snapshot, nil
}

func (s *Service) AttendanceSummary(ctx context.Context) (string, error) {
	snapshot, err := s.Query(ctx, KindAttendance)
	if err != nil {
		return "", err
	}
	return FormatAttendanceSummary(*snapshot.Attendance), nil
}

func (s *Service) MarksSummary(ctx context.Context) (string, error) {
	snapshot, err := s.Query(ctx, KindMarks)
	if err != nil {
		return "", err
	}
	return FormatMarksSummary(*snapshot.Marks), nil
}

func (s *Service) NoticesSummary(ctx context.Context) (string, error) {
	snapshot, err := s.Query(ctx, KindNotices)
	if err != nil {
		return "", err
	}
	return FormatNoticesSummary(*snapshot.Notices), nil
}

// DailyDigest builds the once-a-day summary message.
func (s *Service) DailyDigest(ctx context.Context) (string, error) {
	attendance, err := s.Query(ctx, KindAttendance)
	if err != nil {
		return "", err
	}
	marks, err := s.Query(ctx, KindMarks)
	if err != nil {
		return "", err
	}
	digest := fmt.Sprintf(
		"Daily Digest\n\nOverall attendance: %.1f%%\nCGPA: %.2f",
		attendance.Attendance.OverallPercentage,
		marks.Marks.CGPA,
	)
	if attendance.Attendance.OverallPercentage < s.cfg.AttendanceThreshold {
		digest += fmt.Sprintf(
			"\n\nAttendance is below the %.0f%% threshold.",
			s.cfg.AttendanceThreshold,
		)
	}
	return digest, nil
}

func (s *Service) SetInterval(minutes int) error {
	return s.loop.SetInterval(minutes)
}

type Status struct {
	SessionState     SessionState
	CheckInterval    time.Duration
	StartedAt        time.Time
	LastAttendanceAt time.Time
	LastMarksAt      time.Time
	LastNoticesAt    time.Time
}

func (s *Service) Status() Status {
	status := Status{
		SessionState:  s.session.State(),
		CheckInterval: s.loop.Interval(),
		StartedAt:     s.startedAt,
	}
	if snapshot, ok := s.loop.Baselines().Get(KindAttendance); ok {
		status.LastAttendanceAt = snapshot.FetchedAt
	}
	if snapshot, ok := s.loop.Baselines().Get(KindMarks); ok {
		status.LastMarksAt = snapshot.FetchedAt
	}
	if snapshot, ok := s.loop.Baselines().Get(KindNotices); ok {
		status.LastNoticesAt = snapshot.FetchedAt
	}
	return status
}

func (st Status) Format() string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.Format("02 Jan 15:04")
	}
	return fmt.Sprintf(
		"Monitor Status\n\n"+
			"Session: %s\n"+
			"Check interval: %d minutes\n"+
			"Running since: %s\n"+
			"Last attendance check: %s\n"+
			"Last marks check: %s\n"+
			"Last notices check: %s",
		st.SessionState,
		int(st.CheckInterval/time.Minute),
		st.StartedAt.Format("02 Jan 15:04"),
		format(st.LastAttendanceAt),
		format(st.LastMarksAt),
		format(st.LastNoticesAt),
	)
}
