// Package apierrors defines the error taxonomy shared by the agent and
// cluster service: a small set of typed kinds, each with an errors.As
// predicate and per-resource constructors, the way callers at every RPC
// boundary decide which wire status class to surface.
package apierrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to branch on it (mapping
// onto wire status codes, deciding whether to retry, etc).
type Kind string

const (
	KindNotFound          Kind = "not-found"
	KindInvalidArgument   Kind = "invalid-argument"
	KindPermissionDenied  Kind = "permission-denied"
	KindFailedPrecondition Kind = "failed-precondition"
	KindUnavailable       Kind = "unavailable"
	KindInternal          Kind = "internal"
)

// TypedError is the common shape behind every constructor below.
type TypedError struct {
	Kind         Kind
	ResourceType string
	ResourceName string
	Message      string
	Cause        error
}

func (e *TypedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.ResourceType != "" {
		return fmt.Sprintf("%s %s: %s", e.ResourceType, e.ResourceName, e.Kind)
	}
	return string(e.Kind)
}

func (e *TypedError) Unwrap() error {
	return e.Cause
}

func hasKind(err error, k Kind) bool {
	var te *TypedError
	if errors.As(err, &te) {
		return te.Kind == k
	}
	return false
}

// IsNotFound reports whether err (or anything it wraps) is a not-found error.
func IsNotFound(err error) bool { return hasKind(err, KindNotFound) }

// IsInvalidArgument reports whether err is an invalid-argument error.
func IsInvalidArgument(err error) bool { return hasKind(err, KindInvalidArgument) }

// IsPermissionDenied reports whether err is a permission-denied error.
func IsPermissionDenied(err error) bool { return hasKind(err, KindPermissionDenied) }

// IsFailedPrecondition reports whether err is a failed-precondition error.
func IsFailedPrecondition(err error) bool { return hasKind(err, KindFailedPrecondition) }

// IsUnavailable reports whether err is an unavailable error.
func IsUnavailable(err error) bool { return hasKind(err, KindUnavailable) }

// NewNotFoundError builds a not-found error for the named resource.
func NewNotFoundError(resourceType, resourceName string) *TypedError {
	return &TypedError{Kind: KindNotFound, ResourceType: resourceType, ResourceName: resourceName}
}

// NewNotFoundErrorWithMessage builds a not-found error with a custom message.
func NewNotFoundErrorWithMessage(resourceType, resourceName, message string) *TypedError {
	return &TypedError{Kind: KindNotFound, ResourceType: resourceType, ResourceName: resourceName, Message: message}
}

// Per-resource not-found constructors, mirroring the shape of per-resource
// factories elsewhere in this codebase's ancestry.
var (
	NewContainerNotFoundError = func(id string) *TypedError { return NewNotFoundError("container", id) }
	NewServiceNotFoundError   = func(id string) *TypedError { return NewNotFoundError("service", id) }
	NewTaskNotFoundError      = func(id string) *TypedError { return NewNotFoundError("task", id) }
	NewNodeNotFoundError      = func(id string) *TypedError { return NewNotFoundError("node", id) }
	NewStackNotFoundError     = func(name string) *TypedError { return NewNotFoundError("stack", name) }
	NewAgentNotFoundError     = func(id string) *TypedError { return NewNotFoundError("agent", id) }
)

// NewInvalidArgumentError builds an invalid-argument error.
func NewInvalidArgumentError(format string, args ...interface{}) *TypedError {
	return &TypedError{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NewPermissionDeniedError builds a permission-denied error.
func NewPermissionDeniedError(format string, args ...interface{}) *TypedError {
	return &TypedError{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

// NewFailedPreconditionError builds a failed-precondition error.
func NewFailedPreconditionError(format string, args ...interface{}) *TypedError {
	return &TypedError{Kind: KindFailedPrecondition, Message: fmt.Sprintf(format, args...)}
}

// NewUnavailableError builds an unavailable error, optionally wrapping cause.
func NewUnavailableError(cause error, format string, args ...interface{}) *TypedError {
	return &TypedError{Kind: KindUnavailable, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// NewInternalError builds an internal error, wrapping cause.
func NewInternalError(cause error, format string, args ...interface{}) *TypedError {
	return &TypedError{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// ErrNoAgentsAvailable is returned by manager selection when the pool has no
// healthy agents at all.
var ErrNoAgentsAvailable = &TypedError{Kind: KindUnavailable, Message: "no agents available"}

// ErrNotInSwarm is returned when a manager-only operation is requested
// against an agent explicitly known not to be part of any swarm.
var ErrNotInSwarm = &TypedError{Kind: KindInvalidArgument, Message: "node is not in a swarm"}
