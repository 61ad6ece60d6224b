package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRouteCountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRoute("CostAgent", "analyze_margins", true, 12.5)
	m.ObserveRoute("CostAgent", "analyze_margins", true, 3.0)
	m.ObserveRoute("CostAgent", "analyze_margins", false, 1.0)

	success := testutil.ToFloat64(m.requestsTotal.WithLabelValues("CostAgent", "analyze_margins", "success"))
	failure := testutil.ToFloat64(m.requestsTotal.WithLabelValues("CostAgent", "analyze_margins", "failure"))
	assert.Equal(t, 2.0, success)
	assert.Equal(t, 1.0, failure)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "costfx_agents_requests_total")
	assert.Contains(t, names, "costfx_agents_request_duration_milliseconds")
}
