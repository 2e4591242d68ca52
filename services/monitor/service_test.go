package monitor

import (
	"context"
	"testing"
	"time"

	"portalwatch/lib/captcha"
	"portalwatch/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func testService(portal *fakePortal, notifier *fakeNotifier, cacheTTL time.Duration) (*Service, *Loop) {
	cfg := DefaultConfig()
	session := NewSessionManager(portal, captcha.DefaultSolver{}, Credentials{}, 0)
	loop := NewLoop(LoopOptions{
		Session:  session,
		Portal:   portal,
		Notifier: notifier,
		Config:   cfg,
	})
	service := NewService(ServiceOptions{
		Loop:          loop,
		Session:       session,
		Portal:        portal,
		Config:        cfg,
		QueryCacheTTL: cacheTTL,
	})
	return service, loop
}

func TestQueryNeverWritesBaselines(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:monitor")
	defer cleanup()

	portal := newFakePortal()
	notifier := &fakeNotifier{}
	service, loop := testService(portal, notifier, 0)
	ctx := context.Background()

	portal.setSnapshot(marksSnapshot(7.9, SubjectMarks{Name: "COA", Marks: "78", Grade: "B+"}))
	require.True(t, loop.runCycle(ctx))
	require.Len(t, notifier.byKind(AlertMarks), 1)

	// marks change on the portal, the user asks before the next cycle
	portal.setSnapshot(marksSnapshot(8.0, SubjectMarks{Name: "COA", Marks: "82", Grade: "A"}))
	snapshot, err := service.Query(ctx, KindMarks)
	require.NoError(t, err)
	require.Equal(t, "82", snapshot.Marks.Subjects[0].Marks)

	// the on-demand read did not advance the baseline
	baseline, exists := loop.Baselines().Get(KindMarks)
	require.True(t, exists)
	require.Equal(t, "78", baseline.Marks.Subjects[0].Marks)

	// so the scheduled cycle still reports the change
	require.True(t, loop.runCycle(ctx))
	require.Len(t, notifier.byKind(AlertMarks), 2)
}

func TestQueryErrorsBypassFailureCounters(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:monitor")
	defer cleanup()

	portal := newFakePortal()
	notifier := &fakeNotifier{}
	service, loop := testService(portal, notifier, 0)
	ctx := context.Background()

	portal.setFetchErr(KindAttendance, &TransportError{Cause: context.DeadlineExceeded})
	for i := 0; i < 5; i++ {
		_, err := service.Query(ctx, KindAttendance)
		require.Error(t, err)
	}

	// five failed on-demand reads never produce a degraded alert
	require.Empty(t, notifier.byKind(AlertDegraded))
	require.Equal(t, 0, loop.transportFailures.Count())
}

func TestQueryCacheShortCircuits(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:monitor")
	defer cleanup()

	portal := newFakePortal()
	portal.setSnapshot(attendanceSnapshot(90.0))
	service, _ := testService(portal, &fakeNotifier{}, time.Minute)
	ctx := context.Background()

	_, err := service.Query(ctx, KindAttendance)
	require.NoError(t, err)
	_, err = service.Query(ctx, KindAttendance)
	require.NoError(t, err)

	require.Equal(t, int64(1), portal.fetchCalls.Load())
}

func TestQuerySessionExpiryInvalidates(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:monitor")
	defer cleanup()

	portal := newFakePortal()
	service, _ := testService(portal, &fakeNotifier{}, 0)
	ctx := context.Background()

	portal.setSnapshot(attendanceSnapshot(90.0))
	_, err := service.Query(ctx, KindAttendance)
	require.NoError(t, err)

	portal.setFetchErr(KindAttendance, ErrSessionExpired)
	_, err = service.Query(ctx, KindAttendance)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Equal(t, StateExpired, service.session.State())
}

func TestDailyDigestFlagsLowAttendance(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:monitor")
	defer cleanup()

	portal := newFakePortal()
	portal.setSnapshot(marksSnapshot(7.9))
	service, _ := testService(portal, &fakeNotifier{}, 0)
	ctx := context.Background()

	portal.setSnapshot(attendanceSnapshot(70.0))
	digest, err := service.DailyDigest(ctx)
	require.NoError(t, err)
	require.Contains(t, digest, "Overall attendance: 70.0%")
	require.Contains(t, digest, "CGPA: 7.90")
	require.Contains(t, digest, "below the 75% threshold")

	portal.setSnapshot(attendanceSnapshot(90.0))
	digest, err = service.DailyDigest(ctx)
	require.NoError(t, err)
	require.NotContains(t, digest, "threshold")
}

func TestStatusReportsBaselineAges(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:monitor")
	defer cleanup()

	portal := newFakePortal()
	portal.setSnapshot(attendanceSnapshot(90.0))
	service, loop := testService(portal, &fakeNotifier{}, 0)

	status := service.Status()
	require.True(t, status.LastAttendanceAt.IsZero())
	require.Contains(t, status.Format(), "never")

	require.True(t, loop.runCycle(context.Background()))
	status = service.Status()
	require.False(t, status.LastAttendanceAt.IsZero())
	require.Equal(t, StateActive, status.SessionState)
	require.Equal(t, 60*time.Minute, status.CheckInterval)
}
