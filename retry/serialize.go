package retry

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// providerError is implemented by structured POS provider errors.
type providerError interface {
	HTTPStatus() int
	ErrorCategory() string
	ErrorCode() string
	ErrorDetail() string
}

// ErrorInfo is a stable diagnostic view of an error, used only for
// logging; it never affects control flow.
type ErrorInfo struct {
	Type       string `json:"type"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Category   string `json:"category,omitempty"`
	Code       string `json:"code,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// SerializeError produces a diagnostic object for an error. Provider API
// errors expose their structured body; generic errors expose their message
// and, when identifiable, a network error code.
func SerializeError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{}
	}

	var pe providerError
	if errors.As(err, &pe) {
		return ErrorInfo{
			Type:       "provider_api_error",
			StatusCode: pe.HTTPStatus(),
			Category:   pe.ErrorCategory(),
			Code:       pe.ErrorCode(),
			Detail:     pe.ErrorDetail(),
		}
	}

	return ErrorInfo{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
		Code:    networkCode(err),
	}
}

// networkCode maps known network-level failures to their conventional
// error code names.
func networkCode(err error) string {
	switch {
	case errors.Is(err, syscall.ECONNRESET):
		return "ECONNRESET"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "ECONNREFUSED"
	case errors.Is(err, syscall.ETIMEDOUT):
		return "ETIMEDOUT"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return "ENOTFOUND"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "ETIMEDOUT"
	}

	return ""
}
