package agent

import (
	"context"
	"time"
)

// Agent represents the contract every domain agent must satisfy. The Manager
// depends only on this interface, never on a concrete agent type.
type Agent interface {
	// Name returns the unique name of this agent
	Name() string

	// Capabilities returns the capability tags this agent claims to handle
	Capabilities() []string

	// CanHandle reports whether the agent declares the given capability
	CanHandle(capability string) bool

	// Initialize transitions the agent into the active state
	Initialize() error

	// Process executes a single request and returns its raw result.
	// Implementations switch on the request type and must return a
	// descriptive error for unrecognized types.
	Process(ctx context.Context, req *Request) (any, error)

	// HandleRequest wraps Process with the uniform success/failure
	// envelope. It never returns a nil response and never propagates an
	// error past the envelope boundary.
	HandleRequest(ctx context.Context, req *Request) *Response

	// State returns the agent's current lifecycle state
	State() State

	// HealthScore returns an integer percentage derived from the
	// processed/error counters
	HealthScore() int

	// Status returns a snapshot of the agent's name, capabilities, state
	// and health
	Status() Status

	// Shutdown transitions the agent into the inactive state
	Shutdown() error
}

// Logger provides structured logging capabilities.
type Logger interface {
	// Debug logs a debug message
	Debug(msg string, fields ...Field)

	// Info logs an info message
	Info(msg string, fields ...Field)

	// Warn logs a warning message
	Warn(msg string, fields ...Field)

	// Error logs an error message
	Error(msg string, fields ...Field)

	// With returns a new logger with additional fields
	With(fields ...Field) Logger
}

// Field represents a structured log field.
type Field struct {
	Key   string
	Value any
}

// RouteObserver receives a notification after every routed request. The
// Manager invokes it synchronously once the agent's envelope is available;
// implementations must be cheap and must not block.
type RouteObserver interface {
	ObserveRoute(agentName, requestType string, success bool, elapsedMillis float64)
}

// State represents the lifecycle state of an agent.
type State int

const (
	// StateInactive indicates the agent has not been initialized or has
	// been shut down
	StateInactive State = iota

	// StateActive indicates the agent is ready to process requests
	StateActive

	// StateProcessing indicates the agent is handling a request
	StateProcessing

	// StateError indicates the agent's last request failed
	StateError
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StateProcessing:
		return "processing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is a point-in-time snapshot of a single agent.
type Status struct {
	Name           string    `json:"name"`
	Capabilities   []string  `json:"capabilities"`
	State          string    `json:"state"`
	Health         int       `json:"health"`
	ProcessedCount int64     `json:"processedCount"`
	ErrorCount     int64     `json:"errorCount"`
	LastActivity   time.Time `json:"lastActivity"`
}
