package square

import (
	"encoding/json"
	"fmt"
)

// APIError is a structured error returned by the Square API. It carries the
// HTTP status plus the category/code/detail triple from the response body.
type APIError struct {
	Status   int
	Category string
	Code     string
	Detail   string
	Field    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("square: %d %s %s: %s", e.Status, e.Category, e.Code, e.Detail)
	}
	return fmt.Sprintf("square: %d %s %s", e.Status, e.Category, e.Code)
}

// HTTPStatus returns the HTTP status code of the failed call.
func (e *APIError) HTTPStatus() int {
	return e.Status
}

// ErrorCategory returns the Square error category.
func (e *APIError) ErrorCategory() string {
	return e.Category
}

// ErrorCode returns the Square error code.
func (e *APIError) ErrorCode() string {
	return e.Code
}

// ErrorDetail returns the human-readable error detail.
func (e *APIError) ErrorDetail() string {
	return e.Detail
}

// errorBody is the wire shape of a Square error response.
type errorBody struct {
	Errors []struct {
		Category string `json:"category"`
		Code     string `json:"code"`
		Detail   string `json:"detail"`
		Field    string `json:"field"`
	} `json:"errors"`
}

// parseAPIError builds an APIError from a non-2xx response body. The first
// entry of the errors array wins; an unparseable body degrades to a
// status-only error.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{
		Status:   status,
		Category: "API_ERROR",
		Code:     "UNKNOWN",
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		first := parsed.Errors[0]
		apiErr.Category = first.Category
		apiErr.Code = first.Code
		apiErr.Detail = first.Detail
		apiErr.Field = first.Field
	}

	return apiErr
}
