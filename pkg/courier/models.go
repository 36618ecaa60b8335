package courier

import (
	"time"
)

// Status represents the normalized status of a shipment.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusCanceled  Status = "canceled"
)

// WorkflowState represents the local delivery workflow state of a shipment.
type WorkflowState string

const (
	WorkflowOpen WorkflowState = "open"
	WorkflowDone WorkflowState = "done"
)

// ServiceMode represents the delivery offer mode.
type ServiceMode string

const (
	ModeExpress   ServiceMode = "EXPRESS"
	ModeScheduled ServiceMode = "SCHEDULED"
)

// Environment selects between the carrier's sandbox and production APIs.
type Environment string

const (
	EnvTest       Environment = "test"
	EnvProduction Environment = "prod"
)

// ItemType is the shipping classification of an order item.
type ItemType string

const (
	ItemStandard ItemType = "STANDARD"
	ItemFragile  ItemType = "FRAGILE"
	ItemCold     ItemType = "COLD"
)

// WaypointKind distinguishes pickup from dropoff waypoints.
type WaypointKind string

const (
	WaypointPickup  WaypointKind = "PICK_UP"
	WaypointDropoff WaypointKind = "DROP_OFF"
)

// Waypoint represents a pickup or dropoff location.
type Waypoint struct {
	Kind         WaypointKind
	Name         string
	Street       string
	Additional   string
	City         string
	Phone        string
	Instructions string
	Latitude     float64
	Longitude    float64
}

// HasCoordinates reports whether the waypoint carries geocoordinates.
func (w Waypoint) HasCoordinates() bool {
	return w.Latitude != 0 && w.Longitude != 0
}

// Item represents a single order line to be shipped.
type Item struct {
	Type        ItemType
	Value       float64
	Description string
	SKU         string
	Quantity    int
	VolumeCM3   float64
	WeightKG    float64
}

// Order is the local order/picking data a rate or booking call is built from.
type Order struct {
	ReferenceID string
	Pickup      *Waypoint
	Dropoff     *Waypoint
	Items       []Item
	ScheduledAt *time.Time // Delivery time for scheduled service mode
}

// RateQuote is the price for the selected delivery offer.
type RateQuote struct {
	Mode  ServiceMode
	Price float64
}

// Booking is the result of creating a shipment with the carrier.
type Booking struct {
	TrackingID       string
	ConfirmationCode string
	TrackingURL      string
	Price            float64
}

// Shipment is the persisted shipment record. It is never deleted, only
// status-transitioned.
type Shipment struct {
	ReferenceID      string
	CarrierName      string
	TrackingID       string
	ConfirmationCode string
	TrackingURL      string
	Status           Status
	Workflow         WorkflowState
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AuditNote is a human-readable note appended to a shipment's history.
type AuditNote struct {
	ID         string
	TrackingID string
	Body       string
	CreatedAt  time.Time
}

// WebhookRegistration is the carrier-side configuration pointing status
// callbacks at this system.
type WebhookRegistration struct {
	URL    string
	Secret string
	IsTest bool
}

// CarrierConfig holds operator-managed configuration for one carrier account.
type CarrierConfig struct {
	Name          string
	Environment   Environment
	APIKey        string
	APISecret     string
	ServiceMode   ServiceMode
	WebhookURL    string
	WebhookSecret string
}

// IsTest reports whether the config targets the sandbox environment.
func (c CarrierConfig) IsTest() bool {
	return c.Environment == EnvTest
}

// WebhookEvent is a transient courier status callback. It is consumed once
// to drive a shipment transition and never persisted.
type WebhookEvent struct {
	Topic            string
	TrackingID       string
	ReferenceID      string
	ConfirmationCode string
	RawStatus        string
	CancelReason     string
	CancelCode       string
}
