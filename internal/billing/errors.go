package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAPIKey is returned when the gateway API key is invalid or
	// missing.
	ErrInvalidAPIKey = errors.New("billing: invalid or missing API key")

	// ErrSessionNotFound is returned when a checkout session does not exist.
	ErrSessionNotFound = errors.New("billing: checkout session not found")

	// ErrInvalidWebhookSignature is returned when webhook signature
	// verification fails.
	ErrInvalidWebhookSignature = errors.New("billing: invalid webhook signature")

	// ErrRefundFailed is returned when the gateway rejects a refund.
	ErrRefundFailed = errors.New("billing: refund failed")
)

// GatewayError wraps a gateway API error with the detail worth logging.
type GatewayError struct {
	Message       string
	Code          string // gateway error code, e.g. "charge_already_refunded"
	RequestID     string
	OriginalError error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("stripe: %s", e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.OriginalError
}

// IsTemporary reports whether the error is likely transient and retryable.
func (e *GatewayError) IsTemporary() bool {
	return e.Code == "rate_limit" || e.Code == "api_connection_error"
}
