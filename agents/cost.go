// Package agents contains the concrete CostFX domain agents: cost
// analysis, inventory management and demand forecasting. Each agent embeds
// an agent.BaseAgent and plugs its own Process function into the envelope
// contract.
package agents

import (
	"context"
	"fmt"
	"sync"

	"github.com/akisma/CostFX-sub001/agent"
)

// Agent names.
const (
	AgentCost      = "CostAgent"
	AgentInventory = "InventoryAgent"
	AgentForecast  = "ForecastAgent"
)

// Request types handled by CostAgent.
const (
	TypeCalculateRecipeCost = "calculate_recipe_cost"
	TypeAnalyzeMargins      = "analyze_margins"
)

// marginTarget is the margin percentage below which a menu item is flagged.
const marginTarget = 65.0

// Ingredient is one recipe component with its unit cost.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	UnitCost float64 `json:"unitCost"`
}

// IngredientCost is an ingredient with its extended cost.
type IngredientCost struct {
	Ingredient
	Cost float64 `json:"cost"`
}

// RecipeCostResult is the outcome of a recipe costing request.
type RecipeCostResult struct {
	Recipe         string           `json:"recipe"`
	Servings       int              `json:"servings"`
	TotalCost      float64          `json:"totalCost"`
	CostPerServing float64          `json:"costPerServing"`
	Ingredients    []IngredientCost `json:"ingredients"`
}

// MenuItem is a priced menu item with its plate cost.
type MenuItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Cost  float64 `json:"cost"`
}

// MarginItem is a menu item with its computed margin figures.
type MarginItem struct {
	MenuItem
	MarginPct   float64 `json:"marginPct"`
	FoodCostPct float64 `json:"foodCostPct"`
	BelowTarget bool    `json:"belowTarget"`
}

// MarginReport is the outcome of a margin analysis request.
type MarginReport struct {
	Items         []MarginItem `json:"items"`
	AverageMargin float64      `json:"averageMargin"`
}

// CostAgent computes recipe costs and menu margins. It remembers its last
// margin analysis per restaurant to back insight generation.
type CostAgent struct {
	*agent.BaseAgent

	mu           sync.Mutex
	lastAnalysis map[int64]*MarginReport
}

// NewCostAgent creates the cost analysis agent.
func NewCostAgent(logger agent.Logger) *CostAgent {
	a := &CostAgent{
		lastAnalysis: make(map[int64]*MarginReport),
	}
	a.BaseAgent = agent.NewBaseAgent(agent.BaseAgentConfig{
		Name: AgentCost,
		Capabilities: []string{
			TypeCalculateRecipeCost,
			TypeAnalyzeMargins,
			agent.CapabilityInsights,
		},
		Logger:  logger,
		Process: a.process,
	})
	return a
}

// process dispatches a request to its typed handler.
func (a *CostAgent) process(ctx context.Context, req *agent.Request) (any, error) {
	switch req.Type {
	case TypeCalculateRecipeCost:
		return a.calculateRecipeCost(req)
	case TypeAnalyzeMargins:
		return a.analyzeMargins(req)
	case agent.CapabilityInsights:
		return a.generateInsights(req)
	default:
		return nil, agent.NewErrorf(agent.ErrUnsupportedRequest,
			"%s cannot handle request type: %s", AgentCost, req.Type)
	}
}

// calculateRecipeCost sums extended ingredient costs and derives the cost
// per serving.
func (a *CostAgent) calculateRecipeCost(req *agent.Request) (any, error) {
	var payload struct {
		Recipe struct {
			Name        string       `json:"name"`
			Servings    int          `json:"servings"`
			Ingredients []Ingredient `json:"ingredients"`
		} `json:"recipe"`
	}
	if err := req.DecodeData(&payload); err != nil {
		return nil, err
	}
	if len(payload.Recipe.Ingredients) == 0 {
		return nil, fmt.Errorf("recipe %q has no ingredients", payload.Recipe.Name)
	}

	servings := payload.Recipe.Servings
	if servings <= 0 {
		servings = 1
	}

	result := RecipeCostResult{
		Recipe:      payload.Recipe.Name,
		Servings:    servings,
		Ingredients: make([]IngredientCost, 0, len(payload.Recipe.Ingredients)),
	}

	for _, ing := range payload.Recipe.Ingredients {
		cost := ing.Quantity * ing.UnitCost
		result.TotalCost += cost
		result.Ingredients = append(result.Ingredients, IngredientCost{
			Ingredient: ing,
			Cost:       cost,
		})
	}

	result.CostPerServing = result.TotalCost / float64(servings)

	return result, nil
}

// analyzeMargins computes per-item margin and food-cost percentages and
// flags items below the margin target.
func (a *CostAgent) analyzeMargins(req *agent.Request) (any, error) {
	var payload struct {
		Items []MenuItem `json:"items"`
	}
	if err := req.DecodeData(&payload); err != nil {
		return nil, err
	}
	if len(payload.Items) == 0 {
		return nil, fmt.Errorf("margin analysis requires at least one menu item")
	}

	report := &MarginReport{
		Items: make([]MarginItem, 0, len(payload.Items)),
	}

	var marginSum float64
	for _, item := range payload.Items {
		if item.Price <= 0 {
			return nil, fmt.Errorf("menu item %q has a non-positive price", item.Name)
		}

		margin := (item.Price - item.Cost) / item.Price * 100
		marginSum += margin

		report.Items = append(report.Items, MarginItem{
			MenuItem:    item,
			MarginPct:   margin,
			FoodCostPct: item.Cost / item.Price * 100,
			BelowTarget: margin < marginTarget,
		})
	}
	report.AverageMargin = marginSum / float64(len(payload.Items))

	a.mu.Lock()
	a.lastAnalysis[req.RestaurantID] = report
	a.mu.Unlock()

	return *report, nil
}

// generateInsights turns the last margin analysis for the restaurant into
// prioritized recommendations.
func (a *CostAgent) generateInsights(req *agent.Request) (any, error) {
	a.mu.Lock()
	report := a.lastAnalysis[req.RestaurantID]
	a.mu.Unlock()

	insights := agent.InsightReport{Insights: []agent.Insight{}}
	if report == nil {
		return insights, nil
	}

	for _, item := range report.Items {
		if !item.BelowTarget {
			continue
		}

		priority := agent.PriorityMedium
		if item.MarginPct < marginTarget-15 {
			priority = agent.PriorityHigh
		}

		insights.Insights = append(insights.Insights, agent.Insight{
			Type:     "margin",
			Priority: priority,
			Message: fmt.Sprintf("%s margin is %.1f%%, below the %.0f%% target",
				item.Name, item.MarginPct, marginTarget),
			Impact:       marginTarget - item.MarginPct,
			RestaurantID: req.RestaurantID,
			Source:       AgentCost,
		})
	}

	if report.AverageMargin < marginTarget {
		insights.Insights = append(insights.Insights, agent.Insight{
			Type:     "margin",
			Priority: agent.PriorityHigh,
			Message: fmt.Sprintf("average menu margin is %.1f%%, below the %.0f%% target",
				report.AverageMargin, marginTarget),
			Impact:       marginTarget - report.AverageMargin,
			RestaurantID: req.RestaurantID,
			Source:       AgentCost,
		})
	}

	return insights, nil
}
