// Package api exposes the agent service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akisma/CostFX-sub001/agent"
	"github.com/akisma/CostFX-sub001/service"
)

// Handler serves the agent endpoints.
type Handler struct {
	service *service.Service
	logger  agent.Logger
}

// NewHandler creates an API handler in front of the service façade.
func NewHandler(svc *service.Service, logger agent.Logger) *Handler {
	if logger == nil {
		logger = agent.NewDefaultLogger()
	}
	return &Handler{service: svc, logger: logger}
}

// ErrorResponse is the JSON body of a transport-level error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RouteRequest handles POST /api/v1/agents/request: a generic routed
// request returning the agent envelope verbatim.
func (h *Handler) RouteRequest(w http.ResponseWriter, r *http.Request) {
	var req agent.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Route(r.Context(), &req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Query handles POST /api/v1/agents/query: free-text queries mapped onto
// routed requests.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var input service.QueryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.RestaurantID == 0 {
		respondError(w, http.StatusBadRequest, "restaurantId is required")
		return
	}

	resp, err := h.service.ProcessQuery(r.Context(), input)
	if err != nil {
		status := http.StatusInternalServerError
		var agentErr *agent.Error
		if errors.As(err, &agentErr) && agentErr.Code == agent.ErrAgentNotFound {
			status = http.StatusNotFound
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Insights handles GET /api/v1/restaurants/{id}/insights.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || restaurantID == 0 {
		respondError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	insights, err := h.service.Insights(r.Context(), restaurantID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"restaurantId": restaurantID,
		"insights":     insights,
	})
}

// Statuses handles GET /api/v1/agents/status.
func (h *Handler) Statuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.Statuses()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, statuses)
}

// HealthCheck handles GET /health. A critical fleet reports 503.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.HealthCheck()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if report.Status == agent.HealthStatusCritical {
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, report)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
