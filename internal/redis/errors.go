package redis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported marks a command that the server rejected as unknown or
// restricted. Callers degrade to a default value instead of failing.
var ErrUnsupported = errors.New("command not supported by server")

// AuthError is a recoverable authentication failure; the CLI re-prompts
// for credentials when it sees one.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("authentication failed: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// ConnError is a fatal connection-level failure.
type ConnError struct {
	Err error
}

func (e *ConnError) Error() string { return fmt.Sprintf("connection failed: %v", e.Err) }
func (e *ConnError) Unwrap() error { return e.Err }

// classify maps raw server/transport errors onto the taxonomy above.
// Unrecognized errors pass through untouched and stay evaluator-local.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "NOAUTH"),
		strings.HasPrefix(msg, "WRONGPASS"),
		strings.Contains(msg, "invalid password"),
		strings.Contains(msg, "invalid username-password pair"):
		return &AuthError{Err: err}
	case strings.HasPrefix(msg, "ERR unknown command"),
		strings.HasPrefix(msg, "NOPERM"):
		return fmt.Errorf("%w: %s", ErrUnsupported, msg)
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "i/o timeout"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "no such host"):
		return &ConnError{Err: err}
	}
	return err
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsConn reports whether err is a connection-level failure.
func IsConn(err error) bool {
	var connErr *ConnError
	return errors.As(err, &connErr)
}

// IsUnsupported reports whether err marks a missing or restricted command.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
