package courier

import (
	"context"
)

// ShipmentRepository is the persistence contract for shipment records.
// The adapter makes no assumption about the storage technology behind it.
type ShipmentRepository interface {
	// Create persists a freshly booked shipment record.
	Create(ctx context.Context, s *Shipment) error

	// GetByTrackingID loads the shipment whose courier tracking id matches.
	// Returns ErrShipmentNotFound when no record matches.
	GetByTrackingID(ctx context.Context, trackingID string) (*Shipment, error)

	// UpdateStatus writes a new normalized status. Idempotent per status
	// value; last writer wins.
	UpdateStatus(ctx context.Context, trackingID string, status Status) error

	// MarkDone transitions the shipment's workflow state to done.
	MarkDone(ctx context.Context, trackingID string) error

	// AppendNote appends a human-readable audit note to the shipment history.
	AppendNote(ctx context.Context, trackingID, body string) error

	// ListOpen returns all shipments whose workflow state is still open.
	ListOpen(ctx context.Context) ([]*Shipment, error)
}
