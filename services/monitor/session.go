package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"portalwatch/lib/captcha"
	"portalwatch/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

// SessionState tracks where the single portal session currently sits.
type SessionState int

const (
	StateLoggedOut SessionState = iota
	StateLoggingIn
	StateActive
	StateExpired
	// Failed is recoverable, the next Ensure call retries the login
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateLoggedOut:
		return "logged-out"
	case StateLoggingIn:
		return "logging-in"
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// PortalClient is the capability the core consumes to talk to the
// portal. Implemented by the webportal scraper adapter, faked in
// tests.
type PortalClient interface {
	Challenge(ctx context.Context) (captcha.Challenge, error)
	Login(ctx context.Context, creds Credentials, captchaAnswer string) (SessionToken, error)
	Fetch(ctx context.Context, kind Kind, token SessionToken) (Snapshot, error)
}

// SessionManager owns the portal session lifecycle. Every caller gets
// either a usable token or a typed failure, never a half-initialized
// token. Transitions are serialized: the mutex is held across the
// whole login sequence, so a second caller arriving mid-login waits
// and then observes the outcome instead of consuming another CAPTCHA.
type SessionManager struct {
	mu sync.Mutex

	portal PortalClient
	solver captcha.Solver
	creds  Credentials

	// zero trusts the token until the portal signals expiry
	tokenTTL time.Duration

	state   SessionState
	token   SessionToken
	lastErr error
}

func NewSessionManager(portal PortalClient, solver captcha.Solver, creds Credentials, tokenTTL time.Duration) *SessionManager {
	return &SessionManager{
		portal:   portal,
		solver:   solver,
		creds:    creds,
		tokenTTL: tokenTTL,
		state:    StateLoggedOut,
	}
}

// Ensure returns the cached token while it is still trusted, and
// otherwise runs the full CAPTCHA + login sequence. Auth rejections
// are returned as *AuthError and are not retried here, the scheduler
// owns the retry policy.
func (m *SessionManager) Ensure(ctx context.Context) (SessionToken, error) {
	ctx, span := tracer.Start(ctx, "session:Ensure")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateActive {
		if m.tokenTTL <= 0 || timezone.Now().Sub(m.token.IssuedAt) < m.tokenTTL {
			return m.token, nil
		}
		m.state = StateExpired
	}

	token, err := m.login(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return SessionToken{}, err
	}
	return token, nil
}

// login runs with the lock held.
func (m *SessionManager) login(ctx context.Context) (SessionToken, error) {
	m.state = StateLoggingIn
	slog.InfoContext(ctx, "logging in to portal")

	challenge, err := m.portal.Challenge(ctx)
	if err != nil {
		m.fail(err)
		return SessionToken{}, &TransportError{Cause: err}
	}

	answer, err := m.solver.Solve(ctx, challenge)
	if err != nil {
		// solver trouble is not the portal rejecting us
		m.fail(err)
		return SessionToken{}, &TransportError{Cause: err}
	}

	token, err := m.portal.Login(ctx, m.creds, answer)
	if err != nil {
		m.fail(err)
		return SessionToken{}, err
	}

	m.state = StateActive
	m.token = token
	m.lastErr = nil
	slog.InfoContext(ctx, "portal login successful", "client_id", token.ClientId)
	return token, nil
}

func (m *SessionManager) fail(err error) {
	m.state = StateFailed
	m.lastErr = err
}

// Invalidate marks the session expired after the portal rejected it
// mid-flight. The next Ensure call logs in again transparently.
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateActive {
		m.state = StateExpired
	}
}

func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *SessionManager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}
