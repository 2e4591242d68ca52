package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"portalwatch/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// AlertKind labels an outbound notification for the notifier.
type AlertKind string

const (
	AlertAttendance AlertKind = "attendance"
	AlertMarks      AlertKind = "marks"
	AlertNotices    AlertKind = "notices"
	AlertDegraded   AlertKind = "degraded"
	AlertStartup    AlertKind = "startup"
	AlertDigest     AlertKind = "digest"
)

// Notifier delivers a formatted alert. Fire and forget from the
// core's perspective: a delivery failure is logged here and goes no
// further, it never feeds the portal failure counters.
type Notifier interface {
	SendAlert(ctx context.Context, kind AlertKind, message string) error
}

// Loop drives the fetch, diff, notify cycle. It is the single
// recovery boundary: portal failures become counter increments and
// never escape it.
type Loop struct {
	session   *SessionManager
	portal    PortalClient
	notifier  Notifier
	baselines *Baselines
	kinds     []Kind

	diffCfg  DiffConfig
	cooldown time.Duration

	authFailures      *FailureCounter
	transportFailures *FailureCounter

	intervalMinutes atomic.Int64
	intervalChanged chan struct{}
}

type LoopOptions struct {
	Session  *SessionManager
	Portal   PortalClient
	Notifier Notifier
	// defaults to AllKinds
	Kinds  []Kind
	Config Config
}

func NewLoop(opts LoopOptions) *Loop {
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	l := &Loop{
		session:   opts.Session,
		portal:    opts.Portal,
		notifier:  opts.Notifier,
		baselines: NewBaselines(),
		kinds:     kinds,
		diffCfg: DiffConfig{
			AttendanceThreshold: opts.Config.AttendanceThreshold,
			PercentEpsilon:      opts.Config.PercentEpsilon,
		},
		cooldown:          opts.Config.FailureCooldown,
		authFailures:      NewFailureCounter(opts.Config.ConsecutiveFailureLimit),
		transportFailures: NewFailureCounter(opts.Config.ConsecutiveFailureLimit),
		intervalChanged:   make(chan struct{}, 1),
	}
	l.intervalMinutes.Store(int64(opts.Config.CheckInterval / time.Minute))
	return l
}

// Baselines exposes the shared baseline container for read-only use
// by the on-demand path.
func (l *Loop) Baselines() *Baselines {
	return l.baselines
}

func (l *Loop) Interval() time.Duration {
	return time.Duration(l.intervalMinutes.Load()) * time.Minute
}

// SetInterval adjusts the cycle interval without restarting the loop.
// A sleep already in progress is cut short or stretched to the new
// value.
func (l *Loop) SetInterval(minutes int) error {
	d := time.Duration(minutes) * time.Minute
	if d < MinCheckInterval || d > MaxCheckInterval {
		return fmt.Errorf(
			"check interval must be between %d and %d minutes",
			int(MinCheckInterval/time.Minute),
			int(MaxCheckInterval/time.Minute),
		)
	}
	l.intervalMinutes.Store(int64(minutes))
	select {
	case l.intervalChanged <- struct{}{}:
	default:
	}
	slog.Info("check interval updated", "minutes", minutes)
	return nil
}

// Run blocks until ctx is cancelled. An in-flight portal request is
// allowed to finish or fail naturally, only the between-cycle sleep
// is interrupted immediately.
func (l *Loop) Run(ctx context.Context) {
	slog.InfoContext(ctx, "monitor loop started", "interval", l.Interval())
	for {
		ok := l.runCycle(ctx)
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "monitor loop stopped")
			return
		}

		wait := l.Interval()
		if !ok {
			wait = l.cooldown
		}
		if !l.sleep(ctx, wait) {
			slog.InfoContext(ctx, "monitor loop stopped")
			return
		}
	}
}

// sleep waits out d but wakes early on shutdown or an interval
// change. Returns false when the loop should exit.
func (l *Loop) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case <-l.intervalChanged:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(l.Interval())
		}
	}
}

// runCycle performs one fetch, diff, notify pass. Returns false when
// the cycle should be followed by the failure cooldown instead of the
// full interval.
func (l *Loop) runCycle(ctx context.Context) bool {
	ctx, span := tracer.Start(ctx, "loop:runCycle")
	defer span.End()
	cycleCounter.Add(ctx, 1)

	token, err := l.session.Ensure(ctx)
	if err != nil {
		l.recordPortalFailure(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "session unavailable")
		return false
	}
	// a usable session ends an auth failure streak, transport
	// failures are judged by the fetches below
	l.authFailures.Reset()

	ok := true
	for _, kind := range l.kinds {
		// a per-kind failure never aborts the other kinds
		if !l.checkKind(ctx, kind, token) {
			ok = false
		}
	}
	if ok {
		l.transportFailures.Reset()
	}
	return ok
}

func (l *Loop) checkKind(ctx context.Context, kind Kind, token SessionToken) bool {
	ctx, span := tracer.Start(ctx, "loop:checkKind")
	defer span.End()
	span.SetAttributes(attribute.String("kind", string(kind)))

	snapshot, err := l.portal.Fetch(ctx, kind, token)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			l.session.Invalidate()
		}
		l.recordPortalFailure(ctx, err)
		slog.ErrorContext(ctx, "fetch snapshot", "kind", kind, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return false
	}

	var previous *Snapshot
	if baseline, exists := l.baselines.Get(kind); exists {
		previous = &baseline
	}
	delta := Diff(previous, snapshot, l.diffCfg)

	// the baseline is replaced even when no alert goes out so a
	// change that was observed but not notified is never re-reported
	l.baselines.Put(snapshot)

	l.dispatch(ctx, snapshot, delta)
	return true
}

func (l *Loop) dispatch(ctx context.Context, snapshot Snapshot, delta ChangeDelta) {
	switch snapshot.Kind {
	case KindAttendance:
		if delta.ThresholdBreached {
			l.send(ctx, AlertAttendance, FormatAttendanceAlert(*snapshot.Attendance, delta, l.diffCfg.AttendanceThreshold))
		}
	case KindMarks:
		if len(delta.ChangedSubjects) > 0 {
			l.send(ctx, AlertMarks, FormatMarksAlert(*snapshot.Marks, delta))
		}
	case KindNotices:
		if len(delta.NewNotices) > 0 {
			l.send(ctx, AlertNotices, FormatNoticesAlert(delta.NewNotices))
		}
	}
}

// each alert type is dispatched on its own, one failed delivery does
// not block the others
func (l *Loop) send(ctx context.Context, kind AlertKind, message string) {
	alertCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
	err := l.notifier.SendAlert(ctx, kind, message)
	if err != nil {
		// delivery trouble is counted for observability but never
		// feeds the portal failure streaks
		deliveryFailureCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("class", string(FailureNotification)),
			attribute.String("kind", string(kind)),
		))
		slog.ErrorContext(ctx, "deliver alert", "kind", kind, "err", err)
	}
}

func (l *Loop) recordPortalFailure(ctx context.Context, err error) {
	class := FailurePortalTransport
	counter := l.transportFailures
	if IsAuthError(err) {
		class = FailurePortalAuth
		counter = l.authFailures
	}
	portalFailureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("class", string(class))))

	shouldAlert := counter.Record(timezone.Now())
	slog.WarnContext(
		ctx, "portal failure",
		"class", class,
		"streak", counter.Count(),
		"err", err,
	)
	if shouldAlert {
		l.send(ctx, AlertDegraded, FormatDegradedAlert(class, err))
	}
}
