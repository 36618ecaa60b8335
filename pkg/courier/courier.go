// Package courier provides an abstraction layer for last-mile courier
// integrations.
package courier

import (
	"context"
)

// Courier defines the interface that all courier integrations must implement.
type Courier interface {
	// Name returns the carrier identifier (e.g., "pedidosya").
	Name() string

	// CheckCoverage reports whether the route between pickup and dropoff is
	// serviceable. Transport failures degrade to false, never to an error.
	CheckCoverage(ctx context.Context, pickup, dropoff Waypoint) bool

	// GetRate requests delivery offers for an order and returns the price for
	// the configured service mode. Returns a *RateUnavailableError when no
	// rate can be produced.
	GetRate(ctx context.Context, order *Order) (*RateQuote, error)

	// CreateShipment books a shipment with the carrier.
	CreateShipment(ctx context.Context, order *Order) (*Booking, error)

	// CancelShipment cancels an existing shipment.
	CancelShipment(ctx context.Context, trackingID, reason string) error

	// FetchLabels retrieves a single PDF with labels for the given shipments.
	FetchLabels(ctx context.Context, trackingIDs []string) ([]byte, error)

	// PollStatus fetches the current normalized status of a shipment.
	// Best-effort: ok is false on transport failure or an unmapped status,
	// and the caller leaves the prior status unchanged.
	PollStatus(ctx context.Context, trackingID string) (Status, bool)

	// ConfigureWebhook upserts the carrier-side webhook registration for
	// shipping status callbacks.
	ConfigureWebhook(ctx context.Context, reg WebhookRegistration) error

	// FetchWebhookConfig reads back the carrier-side webhook registration.
	FetchWebhookConfig(ctx context.Context, isTest bool) (*WebhookRegistration, error)
}
