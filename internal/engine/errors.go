package engine

import (
	"errors"
	"fmt"

	"docktail/internal/apierrors"
)

// ErrorKind is the engine-adapter-local error taxonomy (§4.6). It is
// narrower than apierrors.Kind because it reflects what the engine itself
// can report; callers at the RPC boundary translate it into the broader
// wire taxonomy (§7).
type ErrorKind string

const (
	ErrNotFound            ErrorKind = "not-found"
	ErrPermissionDenied    ErrorKind = "permission-denied"
	ErrNotSwarmManager     ErrorKind = "not-swarm-manager"
	ErrUnsupportedLogDriver ErrorKind = "unsupported-log-driver"
	ErrStreamClosed        ErrorKind = "stream-closed"
	ErrTransport           ErrorKind = "transport"
)

// Error wraps an underlying transport error with an engine-level kind.
type Error struct {
	Kind  ErrorKind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// NotFound, PermissionDenied, NotSwarmManager, UnsupportedLogDriver,
// StreamClosed, and Transport build the corresponding typed errors.
func NotFound(format string, args ...interface{}) *Error {
	return newError(ErrNotFound, nil, format, args...)
}
func PermissionDenied(format string, args ...interface{}) *Error {
	return newError(ErrPermissionDenied, nil, format, args...)
}
func NotSwarmManager(format string, args ...interface{}) *Error {
	return newError(ErrNotSwarmManager, nil, format, args...)
}
func UnsupportedLogDriver(format string, args ...interface{}) *Error {
	return newError(ErrUnsupportedLogDriver, nil, format, args...)
}
func StreamClosed(format string, args ...interface{}) *Error {
	return newError(ErrStreamClosed, nil, format, args...)
}
func Transport(cause error, format string, args ...interface{}) *Error {
	return newError(ErrTransport, cause, format, args...)
}

// KindOf extracts the engine ErrorKind from err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// ToAPIError maps an engine-adapter error onto the broader wire taxonomy
// (§7) consumed by the cluster query/subscription layers and RPC handlers.
func ToAPIError(err error) error {
	if err == nil {
		return nil
	}
	kind, ok := KindOf(err)
	if !ok {
		return apierrors.NewInternalError(err, "unexpected engine response")
	}
	switch kind {
	case ErrNotFound:
		return &apierrors.TypedError{Kind: apierrors.KindNotFound, Message: err.Error(), Cause: err}
	case ErrPermissionDenied, ErrNotSwarmManager:
		return &apierrors.TypedError{Kind: apierrors.KindPermissionDenied, Message: err.Error(), Cause: err}
	case ErrUnsupportedLogDriver:
		return &apierrors.TypedError{Kind: apierrors.KindFailedPrecondition, Message: err.Error(), Cause: err}
	case ErrStreamClosed:
		return &apierrors.TypedError{Kind: apierrors.KindUnavailable, Message: err.Error(), Cause: err}
	default:
		return apierrors.NewInternalError(err, "engine transport error")
	}
}
