package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingAPIKey is returned before any upstream call when no credential is configured.
var ErrMissingAPIKey = errors.New("API key is not configured")

// ErrorKind classifies an upstream failure.
type ErrorKind string

const (
	KindRateLimited    ErrorKind = "rate_limited"
	KindQuotaExhausted ErrorKind = "quota_exhausted"
	KindGatewayError   ErrorKind = "gateway_error"
)

// UpstreamError 上游非成功响应 / UpstreamError is a non-success answer from the model backend.
// Body is for server-side logs only.
type UpstreamError struct {
	Kind   ErrorKind
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("upstream %s: status %d", e.Kind, e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusPaymentRequired:
		return KindQuotaExhausted
	default:
		return KindGatewayError
	}
}

func statusError(status int, body string) *UpstreamError {
	return &UpstreamError{Kind: kindForStatus(status), Status: status, Body: body}
}

// KindOf returns the kind of an upstream failure, or GatewayError for any other error.
func KindOf(err error) ErrorKind {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindGatewayError
}

// retryable: transport failures and 5xx only. 429 and 402 go straight to the caller.
func retryable(err error) bool {
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		return false
	}
	return ue.Status == 0 || ue.Status >= 500
}
