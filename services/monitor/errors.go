package monitor

import (
	"errors"
	"fmt"
)

// the portal rejected the session mid-flight, the session manager
// maps this to the Expired state and the next cycle logs in again
var ErrSessionExpired = errors.New("portal session expired")

// AuthError means the portal rejected the credentials or the CAPTCHA
// answer. Not retried within a single Ensure call, the scheduler
// decides whether and when to retry.
type AuthError struct {
	Cause error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("portal authentication rejected: %s", e.Cause.Error())
}

func (e *AuthError) Unwrap() error { return e.Cause }

// TransportError covers network and timeout failures talking to the
// portal.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("portal unreachable: %s", e.Cause.Error())
}

func (e *TransportError) Unwrap() error { return e.Cause }

func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
