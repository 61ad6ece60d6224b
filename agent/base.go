package agent

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// ProcessFunc is the request-processing entry point a concrete agent plugs
// into its BaseAgent.
type ProcessFunc func(ctx context.Context, req *Request) (any, error)

// BaseAgent provides the uniform invocation envelope, lifecycle state and
// health counters shared by every domain agent. Concrete agents embed a
// *BaseAgent and supply their Process function at construction.
//
// A BaseAgent carries a single state field; concurrent requests to the same
// agent will clobber each other's state transitions. Requests to different
// agents are fully independent.
type BaseAgent struct {
	name          string
	capabilities  []string
	capabilitySet map[string]struct{}
	state         int64 // atomic access - State type
	processed     int64
	errored       int64
	logger        Logger
	process       ProcessFunc

	mu           sync.RWMutex
	lastActivity time.Time
}

// BaseAgentConfig holds configuration for creating a BaseAgent.
type BaseAgentConfig struct {
	Name         string
	Capabilities []string
	Logger       Logger
	Process      ProcessFunc
}

// NewBaseAgent creates a new BaseAgent in the inactive state.
func NewBaseAgent(config BaseAgentConfig) *BaseAgent {
	if config.Logger == nil {
		config.Logger = NewDefaultLogger()
	}

	capabilitySet := make(map[string]struct{}, len(config.Capabilities))
	for _, capability := range config.Capabilities {
		capabilitySet[capability] = struct{}{}
	}

	agent := &BaseAgent{
		name:          config.Name,
		capabilities:  append([]string(nil), config.Capabilities...),
		capabilitySet: capabilitySet,
		logger:        config.Logger,
		process:       config.Process,
	}

	atomic.StoreInt64(&agent.state, int64(StateInactive))

	return agent
}

// SetProcess installs the request-processing function. Concrete agents that
// need their own methods bound call this from their constructor.
func (a *BaseAgent) SetProcess(process ProcessFunc) {
	a.process = process
}

// Name returns the unique name of this agent.
func (a *BaseAgent) Name() string {
	return a.name
}

// Capabilities returns a copy of the capability tags this agent handles.
func (a *BaseAgent) Capabilities() []string {
	return append([]string(nil), a.capabilities...)
}

// CanHandle reports whether the agent declares the given capability.
func (a *BaseAgent) CanHandle(capability string) bool {
	_, ok := a.capabilitySet[capability]
	return ok
}

// Initialize transitions the agent into the active state. Re-initializing
// simply re-stamps state and activity time.
func (a *BaseAgent) Initialize() error {
	atomic.StoreInt64(&a.state, int64(StateActive))
	a.touch()

	a.logger.Info("Agent initialized",
		Field{Key: "agent", Value: a.name},
		Field{Key: "capabilities", Value: a.capabilities},
	)
	return nil
}

// Process executes a single request without the envelope wrapper.
func (a *BaseAgent) Process(ctx context.Context, req *Request) (any, error) {
	if a.process == nil {
		return nil, NewErrorf(ErrUnsupportedRequest, "agent %s has no process function", a.name)
	}
	return a.process(ctx, req)
}

// HandleRequest validates the request, invokes Process and converts the
// outcome into a success or failure envelope. It is the boundary that turns
// errors (and panics) into envelopes; it never lets either escape.
func (a *BaseAgent) HandleRequest(ctx context.Context, req *Request) (resp *Response) {
	a.touch()

	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&a.errored, 1)
			atomic.StoreInt64(&a.state, int64(StateError))
			a.logger.Error("Agent panicked while processing request",
				Field{Key: "agent", Value: a.name},
				Field{Key: "panic", Value: r},
			)
			resp = failureResponse(a.name, req, fmt.Errorf("agent %s panicked: %v", a.name, r))
		}
	}()

	if err := a.validateRequest(req); err != nil {
		atomic.AddInt64(&a.errored, 1)
		atomic.StoreInt64(&a.state, int64(StateError))
		return failureResponse(a.name, req, err)
	}

	atomic.StoreInt64(&a.state, int64(StateProcessing))

	a.logger.Debug("Processing request",
		Field{Key: "agent", Value: a.name},
		Field{Key: "request_id", Value: req.ID},
		Field{Key: "type", Value: req.Type},
	)

	result, err := a.Process(ctx, req)
	if err != nil {
		atomic.AddInt64(&a.errored, 1)
		atomic.StoreInt64(&a.state, int64(StateError))
		a.logger.Error("Request processing failed",
			Field{Key: "agent", Value: a.name},
			Field{Key: "request_id", Value: req.ID},
			Field{Key: "type", Value: req.Type},
			Field{Key: "error", Value: err},
		)
		return failureResponse(a.name, req, err)
	}

	atomic.AddInt64(&a.processed, 1)
	atomic.StoreInt64(&a.state, int64(StateActive))

	return successResponse(a.name, req, result)
}

// validateRequest enforces the base request contract. Concrete agents may
// impose additional required fields inside their Process implementations.
func (a *BaseAgent) validateRequest(req *Request) error {
	if req == nil {
		return NewError(ErrInvalidRequest, "request is nil")
	}
	if req.Type == "" {
		return NewError(ErrInvalidRequest, "request type is required")
	}
	if req.RestaurantID == 0 {
		return NewError(ErrInvalidRequest, "restaurant id is required")
	}
	return nil
}

// State returns the agent's current lifecycle state.
func (a *BaseAgent) State() State {
	return State(atomic.LoadInt64(&a.state))
}

// HealthScore returns 100 for an agent that has processed nothing yet,
// otherwise the rounded percentage of successful requests.
func (a *BaseAgent) HealthScore() int {
	processed := atomic.LoadInt64(&a.processed)
	errored := atomic.LoadInt64(&a.errored)

	total := processed + errored
	if total == 0 {
		return 100
	}

	return int(math.Round(float64(processed) / float64(total) * 100))
}

// Status returns a snapshot of the agent.
func (a *BaseAgent) Status() Status {
	a.mu.RLock()
	lastActivity := a.lastActivity
	a.mu.RUnlock()

	return Status{
		Name:           a.name,
		Capabilities:   a.Capabilities(),
		State:          a.State().String(),
		Health:         a.HealthScore(),
		ProcessedCount: atomic.LoadInt64(&a.processed),
		ErrorCount:     atomic.LoadInt64(&a.errored),
		LastActivity:   lastActivity,
	}
}

// Shutdown transitions the agent into the inactive state.
func (a *BaseAgent) Shutdown() error {
	atomic.StoreInt64(&a.state, int64(StateInactive))
	a.logger.Info("Agent shut down", Field{Key: "agent", Value: a.name})
	return nil
}

// touch records an invocation attempt.
func (a *BaseAgent) touch() {
	a.mu.Lock()
	a.lastActivity = time.Now()
	a.mu.Unlock()
}
