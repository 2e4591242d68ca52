package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"portalwatch/lib/captcha"
	"portalwatch/lib/telemetry"
	"portalwatch/lib/timezone"

	"github.com/stretchr/testify/require"
)

type fakePortal struct {
	mu sync.Mutex

	loginCalls   atomic.Int64
	loginDelay   time.Duration
	loginErr     error
	challengeErr error

	fetchCalls atomic.Int64
	fetchErr   map[Kind]error
	snapshots  map[Kind]Snapshot
}

func newFakePortal() *fakePortal {
	return &fakePortal{
		fetchErr:  map[Kind]error{},
		snapshots: map[Kind]Snapshot{},
	}
}

func (f *fakePortal) Challenge(ctx context.Context) (captcha.Challenge, error) {
	if f.challengeErr != nil {
		return captcha.Challenge{}, f.challengeErr
	}
	return captcha.Challenge{Hint: "default"}, nil
}

func (f *fakePortal) Login(ctx context.Context, creds Credentials, captchaAnswer string) (SessionToken, error) {
	calls := f.loginCalls.Add(1)
	if f.loginDelay > 0 {
		time.Sleep(f.loginDelay)
	}
	f.mu.Lock()
	err := f.loginErr
	f.mu.Unlock()
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{
		ClientId: fmt.Sprintf("client-%d", calls),
		IssuedAt: timezone.Now(),
	}, nil
}

func (f *fakePortal) Fetch(ctx context.Context, kind Kind, token SessionToken) (Snapshot, error) {
	f.fetchCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fetchErr[kind]; err != nil {
		return Snapshot{}, err
	}
	return f.snapshots[kind], nil
}

func (f *fakePortal) setLoginErr(err error) {
	f.mu.Lock()
	f.loginErr = err
	f.mu.Unlock()
}

func (f *fakePortal) setFetchErr(kind Kind, err error) {
	f.mu.Lock()
	f.fetchErr[kind] = err
	f.mu.Unlock()
}

func (f *fakePortal) setSnapshot(snapshot Snapshot) {
	f.mu.Lock()
	f.snapshots[snapshot.Kind] = snapshot
	f.mu.Unlock()
}

func TestEnsureSingleFlight(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:monitor")
	defer cleanup()

	portal := newFakePortal()
	portal.loginDelay = 50 * time.Millisecond
	manager := NewSessionManager(portal, captcha.DefaultSolver{}, Credentials{}, 0)

	const callers = 8
	tokens := make([]SessionToken, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = manager.Ensure(context.Background())
		}(i)
	}
	wg.Wait()

	require.Equal(t, int64(1), portal.loginCalls.Load())
	for i := range tokens {
		require.NoError(t, errs[i])
		require.Equal(t, tokens[0].ClientId, tokens[i].ClientId)
	}
	require.Equal(t, StateActive, manager.State())
}

func TestEnsureReusesToken(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:monitor")
	defer cleanup()

	portal := newFakePortal()
	manager := NewSessionManager(portal, captcha.DefaultSolver{}, Credentials{}, 0)

	first, err := manager.Ensure(context.Background())
	require.NoError(t, err)
	second, err := manager.Ensure(context.Background())
	require.NoError(t, err)

	require.Equal(t, first.ClientId, second.ClientId)
	require.Equal(t, int64(1), portal.loginCalls.Load())
}

func TestEnsureAuthFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:monitor")
	defer cleanup()

	portal := newFakePortal()
	portal.setLoginErr(&AuthError{Cause: errors.New("bad password")})
	manager := NewSessionManager(portal, captcha.DefaultSolver{}, Credentials{}, 0)

	_, err := manager.Ensure(context.Background())
	require.True(t, IsAuthError(err))
	require.Equal(t, StateFailed, manager.State())
	require.Error(t, manager.LastError())

	// Failed is recoverable, the next Ensure retries
	portal.setLoginErr(nil)
	_, err = manager.Ensure(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateActive, manager.State())
	require.NoError(t, manager.LastError())
}

func TestEnsureChallengeFailureIsTransport(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:monitor")
	defer cleanup()

	portal := newFakePortal()
	portal.challengeErr = errors.New("connection refused")
	manager := NewSessionManager(portal, captcha.DefaultSolver{}, Credentials{}, 0)

	_, err := manager.Ensure(context.Background())
	require.True(t, IsTransportError(err))
	require.False(t, IsAuthError(err))
}

func TestInvalidateForcesRelogin(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:monitor")
	defer cleanup()

	portal := newFakePortal()
	manager := NewSessionManager(portal, captcha.DefaultSolver{}, Credentials{}, 0)

	first, err := manager.Ensure(context.Background())
	require.NoError(t, err)

	manager.Invalidate()
	require.Equal(t, StateExpired, manager.State())

	second, err := manager.Ensure(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, first.ClientId, second.ClientId)
	require.Equal(t, int64(2), portal.loginCalls.Load())
}

func TestTokenTTLExpiry(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:monitor")
	defer cleanup()

	portal := newFakePortal()
	manager := NewSessionManager(portal, captcha.DefaultSolver{}, Credentials{}, time.Millisecond)

	_, err := manager.Ensure(context.Background())
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = manager.Ensure(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), portal.loginCalls.Load())
}
