// Package service exposes the single external-facing entry point of the
// agent layer: a lazily initialized manager wired with the fixed set of
// CostFX domain agents, plus convenience operations mapping domain calls
// onto routed requests.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/akisma/CostFX-sub001/agent"
	"github.com/akisma/CostFX-sub001/agents"
	"github.com/akisma/CostFX-sub001/square"
	"github.com/akisma/CostFX-sub001/store"
)

// defaultInsightTTL bounds how long collected insights are served from
// cache before the fan-out runs again.
const defaultInsightTTL = 5 * time.Minute

// Config holds the collaborators of a Service.
type Config struct {
	Logger     agent.Logger
	Store      store.Store
	Square     *square.Client
	Observer   agent.RouteObserver
	InsightTTL time.Duration
}

// Service is the façade in front of the agent manager. Construction is
// cheap; the manager and agents are built on first use, and a failed
// initialization is retried on the next call.
type Service struct {
	logger     agent.Logger
	store      store.Store
	square     *square.Client
	observer   agent.RouteObserver
	insightTTL time.Duration

	mu          sync.Mutex
	initialized bool
	manager     *agent.Manager
}

// New creates a service from the given configuration.
func New(config Config) *Service {
	if config.Logger == nil {
		config.Logger = agent.NewDefaultLogger()
	}
	if config.Store == nil {
		config.Store = store.NewMemoryStore()
	}
	if config.InsightTTL <= 0 {
		config.InsightTTL = defaultInsightTTL
	}

	return &Service{
		logger:     config.Logger,
		store:      config.Store,
		square:     config.Square,
		observer:   config.Observer,
		insightTTL: config.InsightTTL,
	}
}

// ensureInitialized constructs and registers the known agents exactly
// once. On failure the service stays uninitialized so the next call can
// retry.
func (s *Service) ensureInitialized() (*agent.Manager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return s.manager, nil
	}

	manager := agent.NewManager(agent.ManagerConfig{
		Logger:   s.logger,
		Observer: s.observer,
	})

	domainAgents := []agent.Agent{
		agents.NewCostAgent(s.logger),
		agents.NewInventoryAgent(agents.InventoryAgentConfig{
			Store:  s.store,
			Square: s.square,
			Logger: s.logger,
		}),
		agents.NewForecastAgent(s.logger),
	}

	for _, a := range domainAgents {
		if err := manager.Register(a); err != nil {
			manager.Shutdown(context.Background())
			return nil, agent.NewErrorWithCause(agent.ErrNotInitialized,
				"agent service initialization failed", err)
		}
	}

	s.manager = manager
	s.initialized = true
	s.logger.Info("Agent service initialized",
		agent.Field{Key: "agents", Value: len(domainAgents)},
	)

	return manager, nil
}

// Route dispatches a generic request through capability-based routing.
func (s *Service) Route(ctx context.Context, req *agent.Request) (*agent.Response, error) {
	manager, err := s.ensureInitialized()
	if err != nil {
		return nil, err
	}
	return manager.Route(ctx, req), nil
}

// RouteAll dispatches a batch of requests concurrently, returning the
// envelopes in input order.
func (s *Service) RouteAll(ctx context.Context, reqs []*agent.Request) ([]*agent.Response, error) {
	manager, err := s.ensureInitialized()
	if err != nil {
		return nil, err
	}
	return manager.RouteAll(ctx, reqs), nil
}

// RouteTo dispatches a request directly to the named agent, bypassing
// capability matching. Processing errors propagate as returned errors.
func (s *Service) RouteTo(ctx context.Context, name string, req *agent.Request) (any, error) {
	manager, err := s.ensureInitialized()
	if err != nil {
		return nil, err
	}
	return manager.RouteTo(ctx, name, req)
}

// CalculateRecipeCost prices a recipe.
func (s *Service) CalculateRecipeCost(ctx context.Context, restaurantID int64, recipe map[string]any) (*agent.Response, error) {
	return s.Route(ctx, agent.NewRequest(agents.TypeCalculateRecipeCost).
		ForRestaurant(restaurantID).
		Set("recipe", recipe).
		Build())
}

// AnalyzeMenuMargins computes margin figures for the given menu items.
func (s *Service) AnalyzeMenuMargins(ctx context.Context, restaurantID int64, items []agents.MenuItem) (*agent.Response, error) {
	return s.Route(ctx, agent.NewRequest(agents.TypeAnalyzeMargins).
		ForRestaurant(restaurantID).
		Set("items", items).
		Build())
}

// ForecastDemand projects daily demand over the horizon.
func (s *Service) ForecastDemand(ctx context.Context, restaurantID int64, history []float64, horizonDays int) (*agent.Response, error) {
	return s.Route(ctx, agent.NewRequest(agents.TypeForecastDemand).
		ForRestaurant(restaurantID).
		Set("history", history).
		Set("horizonDays", horizonDays).
		Build())
}

// PredictRevenue projects revenue over the horizon.
func (s *Service) PredictRevenue(ctx context.Context, restaurantID int64, history []float64, horizonDays int, averageTicket float64) (*agent.Response, error) {
	return s.Route(ctx, agent.NewRequest(agents.TypePredictRevenue).
		ForRestaurant(restaurantID).
		Set("history", history).
		Set("horizonDays", horizonDays).
		Set("averageTicket", averageTicket).
		Build())
}

// OptimizeInventory computes ordering plans for the given items.
func (s *Service) OptimizeInventory(ctx context.Context, restaurantID int64, items []agents.ItemParameters) (*agent.Response, error) {
	return s.Route(ctx, agent.NewRequest(agents.TypeOptimizeInventory).
		ForRestaurant(restaurantID).
		Set("items", items).
		Build())
}

// TrackInventory saves or reads inventory levels.
func (s *Service) TrackInventory(ctx context.Context, restaurantID int64, levels []store.InventoryLevel) (*agent.Response, error) {
	builder := agent.NewRequest(agents.TypeTrackInventory).ForRestaurant(restaurantID)
	if len(levels) > 0 {
		builder.Set("levels", levels)
	}
	return s.Route(ctx, builder.Build())
}

// SyncPOSInventory pulls on-hand counts from the POS provider.
func (s *Service) SyncPOSInventory(ctx context.Context, restaurantID int64, locationIDs []string) (*agent.Response, error) {
	return s.Route(ctx, agent.NewRequest(agents.TypeSyncPOSInventory).
		ForRestaurant(restaurantID).
		Set("locationIds", locationIDs).
		Build())
}

// Insights returns prioritized insights for a restaurant, serving from
// cache when a live entry exists.
func (s *Service) Insights(ctx context.Context, restaurantID int64) ([]agent.Insight, error) {
	manager, err := s.ensureInitialized()
	if err != nil {
		return nil, err
	}

	if cached, ok, err := s.store.CachedInsights(ctx, restaurantID); err == nil && ok {
		return cached, nil
	} else if err != nil {
		s.logger.Warn("Insight cache read failed",
			agent.Field{Key: "restaurant_id", Value: restaurantID},
			agent.Field{Key: "error", Value: err},
		)
	}

	insights, err := manager.RestaurantInsights(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	if err := s.store.CacheInsights(ctx, restaurantID, insights, s.insightTTL); err != nil {
		s.logger.Warn("Insight cache write failed",
			agent.Field{Key: "restaurant_id", Value: restaurantID},
			agent.Field{Key: "error", Value: err},
		)
	}

	return insights, nil
}

// HealthCheck reports fleet health.
func (s *Service) HealthCheck() (agent.HealthReport, error) {
	manager, err := s.ensureInitialized()
	if err != nil {
		return agent.HealthReport{}, err
	}
	return manager.HealthCheck(), nil
}

// Statuses reports per-agent and aggregate status.
func (s *Service) Statuses() (agent.ManagerStatus, error) {
	manager, err := s.ensureInitialized()
	if err != nil {
		return agent.ManagerStatus{}, err
	}
	return manager.Statuses(), nil
}

// Shutdown stops all agents and returns the service to its
// pre-initialization state.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil
	}

	err := s.manager.Shutdown(ctx)
	s.manager = nil
	s.initialized = false
	return err
}
