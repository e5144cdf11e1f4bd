package realtime

import "fmt"

// AuthError means the backend (or a local token check) rejected the
// credentials. It is never retried automatically; callers redirect the user
// to re-authentication.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected: %s", e.Reason)
}

// TransportError wraps a network-level failure: a failed handshake, a
// dropped socket, a dial timeout. Transport errors feed the backoff loop and
// surface to the UI only through Health.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
