package courier

import (
	"errors"
	"fmt"
)

// CourierError represents an error from a courier integration.
type CourierError struct {
	Carrier    string
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *CourierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CourierError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for CourierError.
func (e *CourierError) Is(target error) bool {
	t, ok := target.(*CourierError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewCourierError creates a new CourierError.
func NewCourierError(carrier, code, message string) *CourierError {
	return &CourierError{
		Carrier: carrier,
		Code:    code,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *CourierError) WithCause(err error) *CourierError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *CourierError) WithStatusCode(code int) *CourierError {
	e.StatusCode = code
	return e
}

// Sentinel errors for common courier scenarios.
var (
	// ErrAuthenticationFailed indicates carrier authentication failed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrBookingFailed indicates the carrier did not return a tracking id
	// for a shipment creation request.
	ErrBookingFailed = errors.New("booking failed")

	// ErrCancellationFailed indicates the carrier did not confirm a
	// cancellation request.
	ErrCancellationFailed = errors.New("cancellation failed")

	// ErrNoTrackingIDs indicates a label request with an empty shipment set.
	ErrNoTrackingIDs = errors.New("no tracking ids provided")

	// ErrShipmentNotFound indicates no shipment record matches a tracking id.
	ErrShipmentNotFound = errors.New("shipment not found")

	// ErrCarrierNotFound indicates the requested carrier is not registered.
	ErrCarrierNotFound = errors.New("carrier not found")

	// ErrWebhookURLRequired indicates a webhook configuration attempt
	// without a callback URL.
	ErrWebhookURLRequired = errors.New("webhook url is required")
)

// Reasons a rate request can come back unavailable without being an
// operational failure.
const (
	ReasonNoShippingAddress  = "no shipping address"
	ReasonMissingCoordinates = "missing geocoordinates"
	ReasonNoCoverage         = "no coverage for route"
	ReasonNoItems            = "no items to ship"
	ReasonNoOffers           = "no delivery offers available"
	ReasonUpstreamError      = "upstream error"
)

// RateUnavailableError signals that no rate could be produced for an order.
// It is an expected business outcome, not an operational failure.
type RateUnavailableError struct {
	Reason string
	Cause  error
}

func (e *RateUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rate unavailable: %s: %v", e.Reason, e.Cause)
	}
	return "rate unavailable: " + e.Reason
}

func (e *RateUnavailableError) Unwrap() error {
	return e.Cause
}

// RateUnavailable creates a RateUnavailableError with the given reason.
func RateUnavailable(reason string) *RateUnavailableError {
	return &RateUnavailableError{Reason: reason}
}

// IsRateUnavailable returns the unavailability reason if err is a
// RateUnavailableError.
func IsRateUnavailable(err error) (string, bool) {
	var rateErr *RateUnavailableError
	if errors.As(err, &rateErr) {
		return rateErr.Reason, true
	}
	return "", false
}
