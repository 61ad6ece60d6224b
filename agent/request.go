package agent

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Request is the transient value dispatched to agents. RestaurantID scopes
// the request to a tenant and is required for capability-routed requests.
type Request struct {
	ID           string         `json:"id,omitempty"`
	Type         string         `json:"type"`
	RestaurantID int64          `json:"restaurantId"`
	Data         map[string]any `json:"data,omitempty"`
	Timestamp    time.Time      `json:"timestamp,omitempty"`
}

// Response is the uniform envelope produced by every request-handling
// boundary. Exactly one of Result or Error is populated, depending on
// Success.
type Response struct {
	Success   bool      `json:"success"`
	Agent     string    `json:"agent,omitempty"`
	Result    any       `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"requestId,omitempty"`
}

// RequestBuilder helps construct requests with a fluent API.
type RequestBuilder struct {
	req *Request
}

// NewRequest creates a new request builder with a generated ID and the
// current timestamp.
func NewRequest(reqType string) *RequestBuilder {
	return &RequestBuilder{
		req: &Request{
			ID:        uuid.New().String(),
			Type:      reqType,
			Timestamp: time.Now(),
			Data:      make(map[string]any),
		},
	}
}

// ForRestaurant sets the tenant scope of the request.
func (b *RequestBuilder) ForRestaurant(restaurantID int64) *RequestBuilder {
	b.req.RestaurantID = restaurantID
	return b
}

// WithData sets the request payload.
func (b *RequestBuilder) WithData(data map[string]any) *RequestBuilder {
	b.req.Data = data
	return b
}

// Set stores a single payload value.
func (b *RequestBuilder) Set(key string, value any) *RequestBuilder {
	b.req.Data[key] = value
	return b
}

// Build creates the final request.
func (b *RequestBuilder) Build() *Request {
	return b.req
}

// Enrich fills in the request ID and timestamp when absent. The Manager
// calls this at every dispatch boundary.
func (r *Request) Enrich() {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
}

// DecodeData unmarshals the request payload into a typed value via a JSON
// round trip.
func (r *Request) DecodeData(v any) error {
	raw, err := json.Marshal(r.Data)
	if err != nil {
		return NewErrorWithCause(ErrInvalidRequest, "request data is not serializable", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return NewErrorWithCause(ErrInvalidRequest, "request data does not match the expected shape", err)
	}
	return nil
}

// successResponse builds a success envelope for the given agent and request.
func successResponse(agentName string, req *Request, result any) *Response {
	return &Response{
		Success:   true,
		Agent:     agentName,
		Result:    result,
		Timestamp: time.Now(),
		RequestID: req.ID,
	}
}

// failureResponse builds a failure envelope carrying the error's message.
func failureResponse(agentName string, req *Request, err error) *Response {
	resp := &Response{
		Success:   false,
		Agent:     agentName,
		Error:     err.Error(),
		Timestamp: time.Now(),
	}
	if req != nil {
		resp.RequestID = req.ID
	}
	return resp
}

// CapabilityInsights is the fixed capability tag the Manager fans out to
// when collecting restaurant insights.
const CapabilityInsights = "generate_insights"

// Insight priorities, ordered high to low.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Insight is a single recommendation produced by an insight-capable agent.
type Insight struct {
	Type         string  `json:"type"`
	Priority     string  `json:"priority"`
	Message      string  `json:"message"`
	Impact       float64 `json:"impact,omitempty"`
	RestaurantID int64   `json:"restaurantId,omitempty"`
	Source       string  `json:"source,omitempty"`
}

// InsightReport is the result shape insight-capable agents return for
// generate_insights requests.
type InsightReport struct {
	Insights []Insight `json:"insights"`
}

// priorityWeight maps insight priorities to their sort weight.
var priorityWeight = map[string]int{
	PriorityHigh:   3,
	PriorityMedium: 2,
	PriorityLow:    1,
}
