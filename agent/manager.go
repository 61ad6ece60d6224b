package agent

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Manager owns the collection of registered agents and routes requests to
// them. It supports capability-based routing (first registered active match
// wins), direct routing by agent name, insight fan-out across every capable
// agent, and fleet-wide health and statistics reporting.
type Manager struct {
	mu     sync.RWMutex
	agents map[string]Agent
	order  []string // registration order, drives first-match routing
	logger Logger

	observer RouteObserver

	statsMu sync.Mutex
	stats   RoutingStats
}

// RoutingStats holds aggregate statistics across all routed requests.
// AverageResponseMillis is a cumulative mean over every routed request.
type RoutingStats struct {
	TotalRequests         int64   `json:"totalRequests"`
	SuccessfulRequests    int64   `json:"successfulRequests"`
	FailedRequests        int64   `json:"failedRequests"`
	AverageResponseMillis float64 `json:"averageResponseTime"`
}

// HealthReport summarizes the health of the agent fleet.
type HealthReport struct {
	Status    string         `json:"status"`
	Agents    map[string]int `json:"agents"`
	Issues    []string       `json:"issues"`
	CheckedAt time.Time      `json:"checkedAt"`
}

// Overall health statuses reported by HealthCheck.
const (
	HealthStatusHealthy  = "healthy"
	HealthStatusWarning  = "warning"
	HealthStatusCritical = "critical"
)

// ManagerStatus is a snapshot of the Manager and every registered agent.
type ManagerStatus struct {
	Agents       []Status     `json:"agents"`
	TotalAgents  int          `json:"totalAgents"`
	ActiveAgents int          `json:"activeAgents"`
	Stats        RoutingStats `json:"stats"`
}

// ManagerConfig holds configuration for creating a Manager.
type ManagerConfig struct {
	Logger   Logger
	Observer RouteObserver
}

// NewManager creates a new agent manager.
func NewManager(config ManagerConfig) *Manager {
	if config.Logger == nil {
		config.Logger = NewDefaultLogger()
	}

	return &Manager{
		agents:   make(map[string]Agent),
		order:    make([]string, 0),
		logger:   config.Logger,
		observer: config.Observer,
	}
}

// Register initializes an agent and stores it under its name.
// Re-registering an existing name overwrites the previous agent but keeps
// its position in the routing order.
func (m *Manager) Register(agent Agent) error {
	if agent == nil {
		return NewError(ErrInvalidAgent, "agent cannot be nil")
	}
	if agent.Name() == "" {
		return NewError(ErrInvalidAgent, "agent name cannot be empty")
	}

	if err := agent.Initialize(); err != nil {
		return NewErrorWithCause(ErrInvalidAgent, "failed to initialize agent "+agent.Name(), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	name := agent.Name()
	if _, exists := m.agents[name]; !exists {
		m.order = append(m.order, name)
	}
	m.agents[name] = agent

	m.logger.Info("Agent registered",
		Field{Key: "agent", Value: name},
		Field{Key: "capabilities", Value: agent.Capabilities()},
	)

	return nil
}

// Unregister shuts down and removes the named agent. It is a no-op when the
// agent is not registered.
func (m *Manager) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, exists := m.agents[name]
	if !exists {
		return
	}

	if err := agent.Shutdown(); err != nil {
		m.logger.Warn("Error shutting down agent",
			Field{Key: "agent", Value: name},
			Field{Key: "error", Value: err},
		)
	}

	delete(m.agents, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	m.logger.Info("Agent unregistered", Field{Key: "agent", Value: name})
}

// Get retrieves an agent by name.
func (m *Manager) Get(name string) (Agent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	agent, exists := m.agents[name]
	return agent, exists
}

// List returns all registered agents in registration order.
func (m *Manager) List() []Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	agents := make([]Agent, 0, len(m.agents))
	for _, name := range m.order {
		agents = append(agents, m.agents[name])
	}

	return agents
}

// Route validates the request, selects the first registered active agent
// whose capabilities cover the request type, and returns that agent's
// envelope. Routing failures are returned as failure envelopes, never as
// errors.
func (m *Manager) Route(ctx context.Context, req *Request) *Response {
	if req == nil {
		return failureResponse("", nil, NewError(ErrInvalidRequest, "request is nil"))
	}

	req.Enrich()

	if req.Type == "" {
		return failureResponse("", req, NewError(ErrInvalidRequest, "request type is required"))
	}
	if req.RestaurantID == 0 {
		return failureResponse("", req, NewError(ErrInvalidRequest, "restaurant id is required"))
	}

	started := time.Now()

	agent := m.selectAgent(req.Type)
	if agent == nil {
		m.recordRoute(false, time.Since(started))
		m.logger.Warn("No agent available for request",
			Field{Key: "type", Value: req.Type},
			Field{Key: "request_id", Value: req.ID},
		)
		return failureResponse("", req,
			NewErrorf(ErrNoAgentAvailable, "No agent available to handle request type: %s", req.Type))
	}

	resp := agent.HandleRequest(ctx, req)

	elapsed := time.Since(started)
	m.recordRoute(resp.Success, elapsed)

	if m.observer != nil {
		m.observer.ObserveRoute(agent.Name(), req.Type, resp.Success, float64(elapsed)/float64(time.Millisecond))
	}

	return resp
}

// RouteAll routes every request concurrently and returns the envelopes in
// input order. All-settle semantics: a failing request never cancels or
// blocks the others.
func (m *Manager) RouteAll(ctx context.Context, reqs []*Request) []*Response {
	responses := make([]*Response, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			responses[i] = m.Route(ctx, req)
			return nil
		})
	}
	g.Wait()

	return responses
}

// RouteTo bypasses capability matching and invokes the named agent's
// Process directly. Unlike Route, failures here surface as returned errors,
// not failure envelopes.
func (m *Manager) RouteTo(ctx context.Context, name string, req *Request) (any, error) {
	if req == nil {
		return nil, NewError(ErrInvalidRequest, "request is nil")
	}

	agent, exists := m.Get(name)
	if !exists {
		return nil, NewErrorf(ErrAgentNotFound, "agent %s not found", name)
	}
	if agent.State() != StateActive {
		return nil, NewErrorf(ErrAgentNotActive, "agent %s is not active (state: %s)", name, agent.State())
	}

	req.Enrich()

	return agent.Process(ctx, req)
}

// RestaurantInsights fans a synthesized insights request out to every agent
// declaring the generate_insights capability, concatenates the collected
// insights in registration order, and sorts them by priority (high before
// medium before low, stable within a priority).
//
// Every branch runs to completion independently; a single agent's failure
// is logged and skipped, never propagated.
func (m *Manager) RestaurantInsights(ctx context.Context, restaurantID int64) ([]Insight, error) {
	if restaurantID == 0 {
		return nil, NewError(ErrInvalidRequest, "restaurant id is required")
	}

	var capable []Agent
	for _, agent := range m.List() {
		if agent.CanHandle(CapabilityInsights) {
			capable = append(capable, agent)
		}
	}

	results := make([][]Insight, len(capable))

	g, ctx := errgroup.WithContext(ctx)
	for i, agent := range capable {
		i, agent := i, agent
		g.Go(func() error {
			req := NewRequest(CapabilityInsights).ForRestaurant(restaurantID).Build()

			resp := agent.HandleRequest(ctx, req)
			if !resp.Success {
				m.logger.Warn("Agent failed to generate insights",
					Field{Key: "agent", Value: agent.Name()},
					Field{Key: "error", Value: resp.Error},
				)
				return nil
			}

			results[i] = extractInsights(resp.Result)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var insights []Insight
	for _, part := range results {
		insights = append(insights, part...)
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return priorityWeight[insights[i].Priority] > priorityWeight[insights[j].Priority]
	})

	return insights, nil
}

// extractInsights pulls the insight list out of an agent's raw result.
func extractInsights(result any) []Insight {
	switch r := result.(type) {
	case *InsightReport:
		if r != nil {
			return r.Insights
		}
	case InsightReport:
		return r.Insights
	case []Insight:
		return r
	}
	return nil
}

// HealthCheck computes the overall fleet status: critical when more than
// two agents are unhealthy (health below 80 or error state), warning when
// one or two are, healthy otherwise.
func (m *Manager) HealthCheck() HealthReport {
	report := HealthReport{
		Status:    HealthStatusHealthy,
		Agents:    make(map[string]int),
		Issues:    make([]string, 0),
		CheckedAt: time.Now(),
	}

	unhealthy := 0
	for _, agent := range m.List() {
		health := agent.HealthScore()
		report.Agents[agent.Name()] = health

		switch {
		case agent.State() == StateError:
			unhealthy++
			report.Issues = append(report.Issues, "agent "+agent.Name()+" is in error state")
		case health < 80:
			unhealthy++
			report.Issues = append(report.Issues,
				"agent "+agent.Name()+" health degraded to "+strconv.Itoa(health)+"%")
		}
	}

	switch {
	case unhealthy > 2:
		report.Status = HealthStatusCritical
	case unhealthy > 0:
		report.Status = HealthStatusWarning
	}

	return report
}

// Statuses returns per-agent snapshots plus manager-level totals.
func (m *Manager) Statuses() ManagerStatus {
	agents := m.List()

	status := ManagerStatus{
		Agents:      make([]Status, 0, len(agents)),
		TotalAgents: len(agents),
	}

	for _, agent := range agents {
		snapshot := agent.Status()
		status.Agents = append(status.Agents, snapshot)
		if agent.State() == StateActive {
			status.ActiveAgents++
		}
	}

	status.Stats = m.Stats()

	return status
}

// Stats returns a snapshot of the aggregate routing statistics.
func (m *Manager) Stats() RoutingStats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}

// Shutdown stops every registered agent concurrently, best effort, then
// clears the registry. Individual shutdown failures are logged, not
// propagated.
func (m *Manager) Shutdown(ctx context.Context) error {
	agents := m.List()

	g, _ := errgroup.WithContext(ctx)
	for _, agent := range agents {
		agent := agent
		g.Go(func() error {
			if err := agent.Shutdown(); err != nil {
				m.logger.Warn("Error shutting down agent",
					Field{Key: "agent", Value: agent.Name()},
					Field{Key: "error", Value: err},
				)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		m.logger.Error("Error during manager shutdown", Field{Key: "error", Value: err})
	}

	m.mu.Lock()
	m.agents = make(map[string]Agent)
	m.order = m.order[:0]
	m.mu.Unlock()

	m.logger.Info("Manager shutdown complete")
	return nil
}

// selectAgent returns the first registered active agent that can handle the
// given request type. First-registered wins when multiple agents share a
// capability.
func (m *Manager) selectAgent(requestType string) Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, name := range m.order {
		agent := m.agents[name]
		if agent.CanHandle(requestType) && agent.State() == StateActive {
			return agent
		}
	}

	return nil
}

// recordRoute folds a routed request into the aggregate statistics.
func (m *Manager) recordRoute(success bool, elapsed time.Duration) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()

	m.stats.TotalRequests++
	if success {
		m.stats.SuccessfulRequests++
	} else {
		m.stats.FailedRequests++
	}

	n := float64(m.stats.TotalRequests)
	sample := float64(elapsed) / float64(time.Millisecond)
	m.stats.AverageResponseMillis = (m.stats.AverageResponseMillis*(n-1) + sample) / n
}
