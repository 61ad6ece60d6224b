package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEchoAgent(name string, capabilities ...string) *BaseAgent {
	return NewBaseAgent(BaseAgentConfig{
		Name:         name,
		Capabilities: capabilities,
		Logger:       NewNoOpLogger(),
		Process: func(ctx context.Context, req *Request) (any, error) {
			return req.Data, nil
		},
	})
}

func TestBaseAgentLifecycle(t *testing.T) {
	a := newEchoAgent("echo", "echo_request")
	assert.Equal(t, StateInactive, a.State())

	require.NoError(t, a.Initialize())
	assert.Equal(t, StateActive, a.State())

	require.NoError(t, a.Shutdown())
	assert.Equal(t, StateInactive, a.State())
}

func TestBaseAgentCapabilities(t *testing.T) {
	a := newEchoAgent("echo", "echo_request", "generate_insights")

	assert.True(t, a.CanHandle("echo_request"))
	assert.True(t, a.CanHandle("generate_insights"))
	assert.False(t, a.CanHandle("unknown"))
	assert.Equal(t, []string{"echo_request", "generate_insights"}, a.Capabilities())
}

func TestHandleRequestSuccessEnvelope(t *testing.T) {
	a := newEchoAgent("echo", "echo_request")
	require.NoError(t, a.Initialize())

	req := NewRequest("echo_request").ForRestaurant(1).Set("k", "v").Build()
	resp := a.HandleRequest(context.Background(), req)

	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "echo", resp.Agent)
	assert.Equal(t, req.ID, resp.RequestID)
	assert.Empty(t, resp.Error)
	assert.False(t, resp.Timestamp.IsZero())
	assert.Equal(t, map[string]any{"k": "v"}, resp.Result)
	assert.Equal(t, StateActive, a.State())
}

func TestHandleRequestFailureEnvelope(t *testing.T) {
	a := NewBaseAgent(BaseAgentConfig{
		Name:         "broken",
		Capabilities: []string{"echo_request"},
		Logger:       NewNoOpLogger(),
		Process: func(ctx context.Context, req *Request) (any, error) {
			return nil, errors.New("downstream unavailable")
		},
	})
	require.NoError(t, a.Initialize())

	resp := a.HandleRequest(context.Background(), NewRequest("echo_request").ForRestaurant(1).Build())

	require.NotNil(t, resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "broken", resp.Agent)
	assert.Contains(t, resp.Error, "downstream unavailable")
	assert.Nil(t, resp.Result)
	assert.Equal(t, StateError, a.State())
}

func TestHandleRequestValidation(t *testing.T) {
	a := newEchoAgent("echo", "echo_request")
	require.NoError(t, a.Initialize())

	tests := []struct {
		name string
		req  *Request
		want string
	}{
		{"nil request", nil, "request is nil"},
		{"missing type", &Request{RestaurantID: 1}, "request type is required"},
		{"missing restaurant", &Request{Type: "echo_request"}, "restaurant id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := a.HandleRequest(context.Background(), tt.req)
			require.NotNil(t, resp)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Error, tt.want)
		})
	}
}

func TestHandleRequestRecoversPanic(t *testing.T) {
	a := NewBaseAgent(BaseAgentConfig{
		Name:         "panicky",
		Capabilities: []string{"echo_request"},
		Logger:       NewNoOpLogger(),
		Process: func(ctx context.Context, req *Request) (any, error) {
			panic("boom")
		},
	})
	require.NoError(t, a.Initialize())

	var resp *Response
	assert.NotPanics(t, func() {
		resp = a.HandleRequest(context.Background(), NewRequest("echo_request").ForRestaurant(1).Build())
	})

	require.NotNil(t, resp)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "panicked")
	assert.Equal(t, StateError, a.State())
}

func TestHealthScore(t *testing.T) {
	a := newEchoAgent("echo", "echo_request")
	require.NoError(t, a.Initialize())

	assert.Equal(t, 100, a.HealthScore(), "fresh agent scores 100")

	// Two successes and one failure: 2/3 rounds to 67.
	a.HandleRequest(context.Background(), NewRequest("echo_request").ForRestaurant(1).Build())
	a.HandleRequest(context.Background(), NewRequest("echo_request").ForRestaurant(1).Build())
	a.HandleRequest(context.Background(), &Request{Type: "echo_request"})

	assert.Equal(t, 67, a.HealthScore())
}

func TestStatusSnapshot(t *testing.T) {
	a := newEchoAgent("echo", "echo_request")
	require.NoError(t, a.Initialize())

	a.HandleRequest(context.Background(), NewRequest("echo_request").ForRestaurant(1).Build())

	status := a.Status()
	assert.Equal(t, "echo", status.Name)
	assert.Equal(t, []string{"echo_request"}, status.Capabilities)
	assert.Equal(t, "active", status.State)
	assert.Equal(t, 100, status.Health)
	assert.Equal(t, int64(1), status.ProcessedCount)
	assert.Equal(t, int64(0), status.ErrorCount)
	assert.False(t, status.LastActivity.IsZero())
}

func TestProcessWithoutFunction(t *testing.T) {
	a := NewBaseAgent(BaseAgentConfig{Name: "empty", Logger: NewNoOpLogger()})
	require.NoError(t, a.Initialize())

	_, err := a.Process(context.Background(), NewRequest("anything").ForRestaurant(1).Build())
	require.Error(t, err)
	assert.True(t, errors.Is(err, NewError(ErrUnsupportedRequest, "")))
}

func TestRequestBuilder(t *testing.T) {
	req := NewRequest("calculate_recipe_cost").
		ForRestaurant(42).
		Set("recipe", "pizza").
		Build()

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "calculate_recipe_cost", req.Type)
	assert.Equal(t, int64(42), req.RestaurantID)
	assert.Equal(t, "pizza", req.Data["recipe"])
	assert.False(t, req.Timestamp.IsZero())
}

func TestRequestEnrich(t *testing.T) {
	req := &Request{Type: "echo_request", RestaurantID: 1}
	req.Enrich()
	assert.NotEmpty(t, req.ID)
	assert.False(t, req.Timestamp.IsZero())

	id, ts := req.ID, req.Timestamp
	req.Enrich()
	assert.Equal(t, id, req.ID, "enrich must not overwrite")
	assert.Equal(t, ts, req.Timestamp)
}

func TestRequestDecodeData(t *testing.T) {
	req := NewRequest("echo_request").
		ForRestaurant(1).
		Set("name", "flour").
		Set("quantity", 2.5).
		Build()

	var payload struct {
		Name     string  `json:"name"`
		Quantity float64 `json:"quantity"`
	}
	require.NoError(t, req.DecodeData(&payload))
	assert.Equal(t, "flour", payload.Name)
	assert.Equal(t, 2.5, payload.Quantity)
}
