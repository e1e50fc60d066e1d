package report

import "fmt"

// DeliveryError represents a failed report delivery attempt. Delivery
// failures are non-fatal: the batch is dropped and the error is logged,
// never propagated into request handling.
type DeliveryError struct {
	Endpoint   string // Ingestion endpoint the send was addressed to
	StatusCode int    // HTTP status code, 0 when the request never completed
	Message    string // Response body excerpt or transport error text
	Cause      error  // Underlying error, if any
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("delivery error [endpoint=%s, status=%d]: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("delivery error [endpoint=%s]: %s", e.Endpoint, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// NewDeliveryError creates a new DeliveryError.
func NewDeliveryError(endpoint string, statusCode int, message string, cause error) *DeliveryError {
	return &DeliveryError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}
