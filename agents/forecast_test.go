package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akisma/CostFX-sub001/agent"
)

func newTestForecastAgent(t *testing.T) *ForecastAgent {
	t.Helper()
	a := NewForecastAgent(agent.NewNoOpLogger())
	require.NoError(t, a.Initialize())
	return a
}

func forecastRequest(history []float64, horizon int) *agent.Request {
	return agent.NewRequest(TypeForecastDemand).
		ForRestaurant(1).
		Set("history", history).
		Set("horizonDays", horizon).
		Build()
}

func TestForecastDemandRisingTrend(t *testing.T) {
	a := newTestForecastAgent(t)

	result, err := a.Process(context.Background(),
		forecastRequest([]float64{100, 110, 120, 130, 140}, 3))
	require.NoError(t, err)

	forecast, ok := result.(DemandForecast)
	require.True(t, ok)
	assert.Equal(t, TrendRising, forecast.Trend)
	assert.InDelta(t, 10.0, forecast.SlopePerDay, 0.001)
	require.Len(t, forecast.Daily, 3)

	// Baseline is the 5-value average (120); each day adds the slope.
	assert.InDelta(t, 130.0, forecast.Daily[0], 0.001)
	assert.InDelta(t, 140.0, forecast.Daily[1], 0.001)
	assert.InDelta(t, 150.0, forecast.Daily[2], 0.001)
	assert.InDelta(t, 420.0, forecast.Total, 0.001)
}

func TestForecastDemandFallingTrend(t *testing.T) {
	a := newTestForecastAgent(t)

	result, err := a.Process(context.Background(),
		forecastRequest([]float64{140, 130, 120, 110, 100}, 3))
	require.NoError(t, err)

	forecast := result.(DemandForecast)
	assert.Equal(t, TrendFalling, forecast.Trend)
	assert.InDelta(t, -10.0, forecast.SlopePerDay, 0.001)
}

func TestForecastDemandFlatTrend(t *testing.T) {
	a := newTestForecastAgent(t)

	result, err := a.Process(context.Background(),
		forecastRequest([]float64{100, 100.5, 100, 100.2, 100}, 3))
	require.NoError(t, err)

	forecast := result.(DemandForecast)
	assert.Equal(t, TrendFlat, forecast.Trend)
}

func TestForecastDemandNeverNegative(t *testing.T) {
	a := newTestForecastAgent(t)

	result, err := a.Process(context.Background(),
		forecastRequest([]float64{50, 30, 10}, 10))
	require.NoError(t, err)

	forecast := result.(DemandForecast)
	for _, v := range forecast.Daily {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestForecastDemandDefaultsHorizon(t *testing.T) {
	a := newTestForecastAgent(t)

	result, err := a.Process(context.Background(), forecastRequest([]float64{10, 12}, 0))
	require.NoError(t, err)
	assert.Len(t, result.(DemandForecast).Daily, 7)
}

func TestForecastDemandRequiresHistory(t *testing.T) {
	a := newTestForecastAgent(t)

	_, err := a.Process(context.Background(), forecastRequest([]float64{42}, 7))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least two historical observations")
}

func TestPredictRevenue(t *testing.T) {
	a := newTestForecastAgent(t)

	req := agent.NewRequest(TypePredictRevenue).
		ForRestaurant(1).
		Set("history", []float64{100, 110, 120, 130, 140}).
		Set("horizonDays", 3).
		Set("averageTicket", 25.0).
		Build()

	result, err := a.Process(context.Background(), req)
	require.NoError(t, err)

	revenue, ok := result.(RevenueForecast)
	require.True(t, ok)
	assert.Equal(t, 25.0, revenue.AverageTicket)
	assert.InDelta(t, 420.0*25.0, revenue.ProjectedRevenue, 0.001)
}

func TestPredictRevenueRequiresTicket(t *testing.T) {
	a := newTestForecastAgent(t)

	req := agent.NewRequest(TypePredictRevenue).
		ForRestaurant(1).
		Set("history", []float64{10, 12}).
		Build()

	_, err := a.Process(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive average ticket")
}

func TestForecastInsightsFollowTrend(t *testing.T) {
	a := newTestForecastAgent(t)
	ctx := context.Background()

	// No forecast yet: no insights.
	result, err := a.Process(ctx, agent.NewRequest(agent.CapabilityInsights).ForRestaurant(1).Build())
	require.NoError(t, err)
	assert.Empty(t, result.(agent.InsightReport).Insights)

	_, err = a.Process(ctx, forecastRequest([]float64{140, 130, 120, 110, 100}, 7))
	require.NoError(t, err)

	result, err = a.Process(ctx, agent.NewRequest(agent.CapabilityInsights).ForRestaurant(1).Build())
	require.NoError(t, err)

	report := result.(agent.InsightReport)
	require.Len(t, report.Insights, 1)
	assert.Equal(t, agent.PriorityHigh, report.Insights[0].Priority, "falling demand is high priority")
	assert.Contains(t, report.Insights[0].Message, "trending down")
	assert.Equal(t, AgentForecast, report.Insights[0].Source)
}
