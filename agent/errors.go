package agent

import (
	"fmt"
)

// ErrorCode represents different types of agent errors.
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota

	// ErrAgentNotFound represents an agent not found error
	ErrAgentNotFound

	// ErrAgentNotActive represents an agent that is registered but not
	// in the active state
	ErrAgentNotActive

	// ErrInvalidAgent represents an invalid agent error
	ErrInvalidAgent

	// ErrInvalidRequest represents a request failing boundary validation
	ErrInvalidRequest

	// ErrNoAgentAvailable represents a request type no active agent can
	// handle
	ErrNoAgentAvailable

	// ErrUnsupportedRequest represents a request type an agent does not
	// implement
	ErrUnsupportedRequest

	// ErrNotInitialized represents a component used before initialization
	ErrNotInitialized
)

// String returns a string representation of the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrUnknown:
		return "unknown"
	case ErrAgentNotFound:
		return "agent_not_found"
	case ErrAgentNotActive:
		return "agent_not_active"
	case ErrInvalidAgent:
		return "invalid_agent"
	case ErrInvalidRequest:
		return "invalid_request"
	case ErrNoAgentAvailable:
		return "no_agent_available"
	case ErrUnsupportedRequest:
		return "unsupported_request"
	case ErrNotInitialized:
		return "not_initialized"
	default:
		return "unknown"
	}
}

// Error represents an error that occurred in the agent system.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// NewError creates a new agent error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorf creates a new agent error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewErrorWithCause creates a new agent error with a cause.
func NewErrorWithCause(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target error by code.
func (e *Error) Is(target error) bool {
	if targetErr, ok := target.(*Error); ok {
		return e.Code == targetErr.Code
	}
	return false
}
