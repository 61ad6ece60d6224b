package agents

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/akisma/CostFX-sub001/agent"
	"github.com/akisma/CostFX-sub001/square"
	"github.com/akisma/CostFX-sub001/store"
)

// Request types handled by InventoryAgent.
const (
	TypeOptimizeInventory = "optimize_inventory"
	TypeTrackInventory    = "track_inventory"
	TypeSyncPOSInventory  = "sync_pos_inventory"
)

// ItemParameters describes one inventory item for optimization.
type ItemParameters struct {
	Name         string  `json:"name"`
	AnnualDemand float64 `json:"annualDemand"`
	OrderCost    float64 `json:"orderCost"`
	HoldingCost  float64 `json:"holdingCost"`
	DailyUsage   float64 `json:"dailyUsage"`
	LeadTimeDays float64 `json:"leadTimeDays"`
	SafetyStock  float64 `json:"safetyStock"`
}

// ItemPlan is the computed ordering plan for one item.
type ItemPlan struct {
	Name          string  `json:"name"`
	EOQ           float64 `json:"eoq"`
	ReorderPoint  float64 `json:"reorderPoint"`
	OrdersPerYear float64 `json:"ordersPerYear"`
}

// OptimizationResult is the outcome of an inventory optimization request.
type OptimizationResult struct {
	Items []ItemPlan `json:"items"`
}

// TrackingResult is the outcome of a tracking request.
type TrackingResult struct {
	Levels []store.InventoryLevel `json:"levels"`
	Saved  bool                   `json:"saved"`
}

// SyncResult is the outcome of a POS inventory sync.
type SyncResult struct {
	ItemsSynced int       `json:"itemsSynced"`
	SyncedAt    time.Time `json:"syncedAt"`
}

// InventoryAgent tracks stock levels, computes ordering plans and syncs
// on-hand counts from the POS provider.
type InventoryAgent struct {
	*agent.BaseAgent

	store  store.Store
	square *square.Client
}

// InventoryAgentConfig holds the collaborators of an InventoryAgent. The
// Square client is optional; sync requests fail descriptively without it.
type InventoryAgentConfig struct {
	Store  store.Store
	Square *square.Client
	Logger agent.Logger
}

// NewInventoryAgent creates the inventory management agent.
func NewInventoryAgent(config InventoryAgentConfig) *InventoryAgent {
	if config.Store == nil {
		config.Store = store.NewMemoryStore()
	}

	a := &InventoryAgent{
		store:  config.Store,
		square: config.Square,
	}
	a.BaseAgent = agent.NewBaseAgent(agent.BaseAgentConfig{
		Name: AgentInventory,
		Capabilities: []string{
			TypeOptimizeInventory,
			TypeTrackInventory,
			TypeSyncPOSInventory,
			agent.CapabilityInsights,
		},
		Logger:  config.Logger,
		Process: a.process,
	})
	return a
}

// process dispatches a request to its typed handler.
func (a *InventoryAgent) process(ctx context.Context, req *agent.Request) (any, error) {
	switch req.Type {
	case TypeOptimizeInventory:
		return a.optimize(req)
	case TypeTrackInventory:
		return a.track(ctx, req)
	case TypeSyncPOSInventory:
		return a.syncPOS(ctx, req)
	case agent.CapabilityInsights:
		return a.generateInsights(ctx, req)
	default:
		return nil, agent.NewErrorf(agent.ErrUnsupportedRequest,
			"%s cannot handle request type: %s", AgentInventory, req.Type)
	}
}

// optimize computes the economic order quantity and reorder point for each
// item: EOQ = sqrt(2*D*S/H), reorder point = daily usage * lead time +
// safety stock.
func (a *InventoryAgent) optimize(req *agent.Request) (any, error) {
	var payload struct {
		Items []ItemParameters `json:"items"`
	}
	if err := req.DecodeData(&payload); err != nil {
		return nil, err
	}
	if len(payload.Items) == 0 {
		return nil, fmt.Errorf("inventory optimization requires at least one item")
	}

	result := OptimizationResult{Items: make([]ItemPlan, 0, len(payload.Items))}

	for _, item := range payload.Items {
		if item.HoldingCost <= 0 {
			return nil, fmt.Errorf("item %q has a non-positive holding cost", item.Name)
		}

		eoq := math.Sqrt(2 * item.AnnualDemand * item.OrderCost / item.HoldingCost)

		plan := ItemPlan{
			Name:         item.Name,
			EOQ:          eoq,
			ReorderPoint: item.DailyUsage*item.LeadTimeDays + item.SafetyStock,
		}
		if eoq > 0 {
			plan.OrdersPerYear = item.AnnualDemand / eoq
		}

		result.Items = append(result.Items, plan)
	}

	return result, nil
}

// track saves inventory levels when the request carries them, otherwise
// returns the stored levels.
func (a *InventoryAgent) track(ctx context.Context, req *agent.Request) (any, error) {
	var payload struct {
		Levels []store.InventoryLevel `json:"levels"`
	}
	if err := req.DecodeData(&payload); err != nil {
		return nil, err
	}

	if len(payload.Levels) > 0 {
		now := time.Now()
		for i := range payload.Levels {
			if payload.Levels[i].UpdatedAt.IsZero() {
				payload.Levels[i].UpdatedAt = now
			}
		}
		if err := a.store.SaveInventoryLevels(ctx, req.RestaurantID, payload.Levels); err != nil {
			return nil, err
		}
		return TrackingResult{Levels: payload.Levels, Saved: true}, nil
	}

	levels, err := a.store.InventoryLevels(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	return TrackingResult{Levels: levels}, nil
}

// syncPOS pulls current counts from Square and stores them as inventory
// levels.
func (a *InventoryAgent) syncPOS(ctx context.Context, req *agent.Request) (any, error) {
	if a.square == nil {
		return nil, fmt.Errorf("%s has no POS client configured", AgentInventory)
	}

	var payload struct {
		LocationIDs []string `json:"locationIds"`
	}
	if err := req.DecodeData(&payload); err != nil {
		return nil, err
	}
	if len(payload.LocationIDs) == 0 {
		return nil, fmt.Errorf("POS sync requires at least one location id")
	}

	counts, err := a.square.BatchRetrieveInventoryCounts(ctx, payload.LocationIDs)
	if err != nil {
		return nil, err
	}

	items, err := a.square.ListCatalogItems(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
	}

	now := time.Now()
	levels := make([]store.InventoryLevel, 0, len(counts))
	for _, count := range counts {
		quantity, err := strconv.ParseFloat(count.Quantity, 64)
		if err != nil {
			continue
		}
		levels = append(levels, store.InventoryLevel{
			ItemID:    count.CatalogObjectID,
			Name:      names[count.CatalogObjectID],
			Quantity:  quantity,
			Unit:      "each",
			UpdatedAt: now,
		})
	}

	if err := a.store.SaveInventoryLevels(ctx, req.RestaurantID, levels); err != nil {
		return nil, err
	}

	return SyncResult{ItemsSynced: len(levels), SyncedAt: now}, nil
}

// generateInsights flags items at or below their reorder point.
func (a *InventoryAgent) generateInsights(ctx context.Context, req *agent.Request) (any, error) {
	levels, err := a.store.InventoryLevels(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}

	insights := agent.InsightReport{Insights: []agent.Insight{}}

	for _, level := range levels {
		if level.ReorderPoint <= 0 {
			continue
		}

		switch {
		case level.Quantity <= level.ReorderPoint:
			insights.Insights = append(insights.Insights, agent.Insight{
				Type:     "stock",
				Priority: agent.PriorityHigh,
				Message: fmt.Sprintf("%s is at %.1f %s, at or below its reorder point of %.1f",
					level.Name, level.Quantity, level.Unit, level.ReorderPoint),
				Impact:       level.ReorderPoint - level.Quantity,
				RestaurantID: req.RestaurantID,
				Source:       AgentInventory,
			})
		case level.Quantity <= level.ReorderPoint*1.5:
			insights.Insights = append(insights.Insights, agent.Insight{
				Type:     "stock",
				Priority: agent.PriorityMedium,
				Message: fmt.Sprintf("%s is at %.1f %s, approaching its reorder point of %.1f",
					level.Name, level.Quantity, level.Unit, level.ReorderPoint),
				RestaurantID: req.RestaurantID,
				Source:       AgentInventory,
			})
		}
	}

	return insights, nil
}
