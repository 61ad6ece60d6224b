package service

import (
	"context"
	"strings"
	"time"

	"github.com/akisma/CostFX-sub001/agent"
	"github.com/akisma/CostFX-sub001/agents"
)

// QueryInput is a free-text query, optionally pinned to a specific agent.
type QueryInput struct {
	RestaurantID int64          `json:"restaurantId"`
	Agent        string         `json:"agent,omitempty"`
	Query        string         `json:"query"`
	Data         map[string]any `json:"data,omitempty"`
}

// queryRule maps a query substring to a request type. Rules are evaluated
// in order; the first match wins.
type queryRule struct {
	keyword     string
	requestType string
}

var queryRules = []queryRule{
	{"recipe cost", agents.TypeCalculateRecipeCost},
	{"margin", agents.TypeAnalyzeMargins},
	{"forecast", agents.TypeForecastDemand},
	{"demand", agents.TypeForecastDemand},
	{"revenue", agents.TypePredictRevenue},
	{"optimize", agents.TypeOptimizeInventory},
	{"inventory", agents.TypeTrackInventory},
	{"stock", agents.TypeTrackInventory},
}

// classifyQuery maps free text to a request type via keyword heuristics,
// defaulting to insight generation.
func classifyQuery(query string) string {
	lowered := strings.ToLower(query)
	for _, rule := range queryRules {
		if strings.Contains(lowered, rule.keyword) {
			return rule.requestType
		}
	}
	return agent.CapabilityInsights
}

// ProcessQuery maps a free-text query onto a routed request. When a target
// agent is named, the request is force-routed to it and the raw result is
// wrapped into a success envelope; a processing error propagates as a
// returned error. Without a target, capability-based routing decides.
func (s *Service) ProcessQuery(ctx context.Context, input QueryInput) (*agent.Response, error) {
	req := agent.NewRequest(classifyQuery(input.Query)).
		ForRestaurant(input.RestaurantID).
		WithData(input.Data).
		Build()
	if req.Data == nil {
		req.Data = make(map[string]any)
	}

	if input.Agent != "" {
		result, err := s.RouteTo(ctx, input.Agent, req)
		if err != nil {
			return nil, err
		}
		return &agent.Response{
			Success:   true,
			Agent:     input.Agent,
			Result:    result,
			Timestamp: time.Now(),
			RequestID: req.ID,
		}, nil
	}

	return s.Route(ctx, req)
}
