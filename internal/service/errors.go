package service

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindTransient covers network failures, timeouts, 429 and 5xx.
	KindTransient Kind = iota
	// KindAuthExpired is a 401 from the remote.
	KindAuthExpired
	// KindValidation is a rejected request (local validation or remote 4xx).
	KindValidation
	// KindNotFound is a 404/410 from the remote.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindAuthExpired:
		return "auth expired"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the normalized failure returned by the gateway and orchestrator.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, 0 when no response was received
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrSessionExpired is returned when a refreshed token is rejected again.
// The user has to re-authenticate.
var ErrSessionExpired = errors.New("session expired (run: tasksync login)")

// Validation returns a validation error with a formatted message.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error with a formatted message.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindTransient for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

// IsAuthExpired reports whether err is an auth-expired failure.
func IsAuthExpired(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindAuthExpired
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindValidation
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNotFound
}
