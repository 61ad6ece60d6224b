package agents

import (
	"context"
	"fmt"
	"sync"

	"github.com/akisma/CostFX-sub001/agent"
)

// Request types handled by ForecastAgent.
const (
	TypeForecastDemand = "forecast_demand"
	TypePredictRevenue = "predict_revenue"
)

// movingAverageWindow is the number of trailing observations averaged for
// the forecast baseline.
const movingAverageWindow = 7

// Demand trends reported by the forecaster.
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendFlat    = "flat"
)

// DemandForecast is the outcome of a demand forecasting request.
type DemandForecast struct {
	Daily       []float64 `json:"daily"`
	Total       float64   `json:"total"`
	Trend       string    `json:"trend"`
	SlopePerDay float64   `json:"slopePerDay"`
}

// RevenueForecast extends a demand forecast with projected revenue.
type RevenueForecast struct {
	DemandForecast
	AverageTicket    float64 `json:"averageTicket"`
	ProjectedRevenue float64 `json:"projectedRevenue"`
}

// ForecastAgent projects demand and revenue from daily history using a
// trailing moving average with a linear trend adjustment.
type ForecastAgent struct {
	*agent.BaseAgent

	mu           sync.Mutex
	lastForecast map[int64]*DemandForecast
}

// NewForecastAgent creates the demand forecasting agent.
func NewForecastAgent(logger agent.Logger) *ForecastAgent {
	a := &ForecastAgent{
		lastForecast: make(map[int64]*DemandForecast),
	}
	a.BaseAgent = agent.NewBaseAgent(agent.BaseAgentConfig{
		Name: AgentForecast,
		Capabilities: []string{
			TypeForecastDemand,
			TypePredictRevenue,
			agent.CapabilityInsights,
		},
		Logger:  logger,
		Process: a.process,
	})
	return a
}

// process dispatches a request to its typed handler.
func (a *ForecastAgent) process(ctx context.Context, req *agent.Request) (any, error) {
	switch req.Type {
	case TypeForecastDemand:
		return a.forecastDemand(req)
	case TypePredictRevenue:
		return a.predictRevenue(req)
	case agent.CapabilityInsights:
		return a.generateInsights(req)
	default:
		return nil, agent.NewErrorf(agent.ErrUnsupportedRequest,
			"%s cannot handle request type: %s", AgentForecast, req.Type)
	}
}

type forecastPayload struct {
	History     []float64 `json:"history"`
	HorizonDays int       `json:"horizonDays"`
}

// forecastDemand projects daily demand over the horizon.
func (a *ForecastAgent) forecastDemand(req *agent.Request) (any, error) {
	var payload forecastPayload
	if err := req.DecodeData(&payload); err != nil {
		return nil, err
	}

	forecast, err := a.forecast(payload)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.lastForecast[req.RestaurantID] = forecast
	a.mu.Unlock()

	return *forecast, nil
}

// predictRevenue projects revenue as forecast demand times the average
// ticket.
func (a *ForecastAgent) predictRevenue(req *agent.Request) (any, error) {
	var payload struct {
		forecastPayload
		AverageTicket float64 `json:"averageTicket"`
	}
	if err := req.DecodeData(&payload); err != nil {
		return nil, err
	}
	if payload.AverageTicket <= 0 {
		return nil, fmt.Errorf("revenue prediction requires a positive average ticket")
	}

	forecast, err := a.forecast(payload.forecastPayload)
	if err != nil {
		return nil, err
	}

	return RevenueForecast{
		DemandForecast:   *forecast,
		AverageTicket:    payload.AverageTicket,
		ProjectedRevenue: forecast.Total * payload.AverageTicket,
	}, nil
}

// forecast builds the projection: the trailing moving average anchors the
// baseline, the least-squares slope of the history extends it per day.
func (a *ForecastAgent) forecast(payload forecastPayload) (*DemandForecast, error) {
	if len(payload.History) < 2 {
		return nil, fmt.Errorf("demand forecasting requires at least two historical observations")
	}

	horizon := payload.HorizonDays
	if horizon <= 0 {
		horizon = 7
	}

	window := movingAverageWindow
	if window > len(payload.History) {
		window = len(payload.History)
	}

	var baseline float64
	for _, v := range payload.History[len(payload.History)-window:] {
		baseline += v
	}
	baseline /= float64(window)

	slope := linearSlope(payload.History)

	forecast := &DemandForecast{
		Daily:       make([]float64, 0, horizon),
		SlopePerDay: slope,
		Trend:       TrendFlat,
	}

	switch {
	case slope > baseline*0.01:
		forecast.Trend = TrendRising
	case slope < -baseline*0.01:
		forecast.Trend = TrendFalling
	}

	for day := 1; day <= horizon; day++ {
		projected := baseline + slope*float64(day)
		if projected < 0 {
			projected = 0
		}
		forecast.Daily = append(forecast.Daily, projected)
		forecast.Total += projected
	}

	return forecast, nil
}

// generateInsights reports on the last forecast's trend for the restaurant.
func (a *ForecastAgent) generateInsights(req *agent.Request) (any, error) {
	a.mu.Lock()
	forecast := a.lastForecast[req.RestaurantID]
	a.mu.Unlock()

	insights := agent.InsightReport{Insights: []agent.Insight{}}
	if forecast == nil {
		return insights, nil
	}

	switch forecast.Trend {
	case TrendRising:
		insights.Insights = append(insights.Insights, agent.Insight{
			Type:         "demand",
			Priority:     agent.PriorityMedium,
			Message:      fmt.Sprintf("demand is trending up %.2f units/day; review prep and ordering levels", forecast.SlopePerDay),
			RestaurantID: req.RestaurantID,
			Source:       AgentForecast,
		})
	case TrendFalling:
		insights.Insights = append(insights.Insights, agent.Insight{
			Type:         "demand",
			Priority:     agent.PriorityHigh,
			Message:      fmt.Sprintf("demand is trending down %.2f units/day; reduce ordering to avoid waste", -forecast.SlopePerDay),
			RestaurantID: req.RestaurantID,
			Source:       AgentForecast,
		})
	}

	return insights, nil
}

// linearSlope returns the least-squares slope of evenly spaced values.
func linearSlope(values []float64) float64 {
	n := float64(len(values))

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}

	return (n*sumXY - sumX*sumY) / denom
}
