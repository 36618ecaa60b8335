package pedidosya

import (
	"context"
	"time"
)

// APIClient defines the interface for PedidosYa courier API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// Authenticate exchanges API credentials for a bearer token. The HTTP
	// implementation caches the token and reuses it until expiry.
	Authenticate(ctx context.Context) (token string, expiry time.Time, err error)

	// CheckCoverage asks whether a route is serviceable
	CheckCoverage(ctx context.Context, req *CoverageRequest) (*CoverageResponse, error)

	// GetEstimates requests delivery offers for an order
	GetEstimates(ctx context.Context, req *ShippingRequest) (*EstimateResponse, error)

	// CreateShipping books a shipment
	CreateShipping(ctx context.Context, req *ShippingRequest) (*ShippingResponse, error)

	// CancelShipping cancels a booked shipment
	CancelShipping(ctx context.Context, shippingID, reasonText string) (*CancelResponse, error)

	// GetShipping fetches current shipment details
	GetShipping(ctx context.Context, shippingID string) (*ShippingStatusResponse, error)

	// GetLabels fetches a combined PDF with labels for the given shipments
	GetLabels(ctx context.Context, shippingIDs []string) ([]byte, error)

	// PutWebhookConfig upserts the webhook registration
	PutWebhookConfig(ctx context.Context, req *WebhookConfigPayload) error

	// GetWebhookConfig reads the webhook registration
	GetWebhookConfig(ctx context.Context, isTest bool) (*WebhookConfigPayload, error)
}

// ============================================================================
// API Request/Response Types (match PedidosYa courier REST API v3 structure)
// ============================================================================

// AuthRequest is the credential exchange payload.
// POST /v3/authentication/token
type AuthRequest struct {
	APIKey    string `json:"apiKey"`
	APISecret string `json:"apiSecret"`
}

// AuthResponse carries the bearer token.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
}

// Waypoint represents a pickup or dropoff point on the wire.
type Waypoint struct {
	Type              string  `json:"type"` // "PICK_UP" or "DROP_OFF"
	AddressStreet     string  `json:"addressStreet"`
	AddressAdditional string  `json:"addressAdditional,omitempty"`
	City              string  `json:"city"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	Phone             string  `json:"phone,omitempty"`
	Name              string  `json:"name,omitempty"`
	Instructions      string  `json:"instructions,omitempty"`
}

// CoverageRequest asks whether a two-point route is serviceable.
// POST /v3/estimates/coverage
type CoverageRequest struct {
	Waypoints []Waypoint `json:"waypoints"`
}

// CoverageResponse reports route serviceability. Status 200 means covered.
type CoverageResponse struct {
	Status int `json:"status"`
}

// Item represents an order line on the wire. Volume is in cubic
// centimeters, weight in kilograms.
type Item struct {
	Type        string  `json:"type"` // "STANDARD", "FRAGILE", "COLD"
	Value       float64 `json:"value"`
	Description string  `json:"description"`
	SKU         string  `json:"sku,omitempty"`
	Quantity    int     `json:"quantity"`
	Volume      float64 `json:"volume"`
	Weight      float64 `json:"weight"`
}

// ShippingRequest is the shared payload for estimates and bookings.
// POST /v3/shippings/estimates and POST /v3/shippings
type ShippingRequest struct {
	ReferenceID  string     `json:"referenceId"`
	IsTest       bool       `json:"isTest"`
	Items        []Item     `json:"items"`
	Waypoints    []Waypoint `json:"waypoints"`
	DeliveryTime string     `json:"deliveryTime,omitempty"` // UTC, scheduled mode only
}

// Pricing carries the total price of an offer or route.
type Pricing struct {
	Total float64 `json:"total"`
}

// DeliveryOffer is one offered mode with its price.
type DeliveryOffer struct {
	DeliveryMode string  `json:"deliveryMode"` // "EXPRESS" or "SCHEDULED"
	Pricing      Pricing `json:"pricing"`
}

// EstimateResponse lists the delivery offers for an order.
type EstimateResponse struct {
	DeliveryOffers []DeliveryOffer `json:"deliveryOffers"`
}

// Route carries the priced route of a booked shipment.
type Route struct {
	Pricing Pricing `json:"pricing"`
}

// ShippingResponse is the booking result.
type ShippingResponse struct {
	ShippingID       string `json:"shippingId"`
	ConfirmationCode string `json:"confirmationCode"`
	ShareLocationURL string `json:"shareLocationUrl"`
	Route            Route  `json:"route"`
	Message          string `json:"message,omitempty"`
}

// CancelRequest carries the cancellation reason.
// POST /v3/shippings/{id}/cancel
type CancelRequest struct {
	ReasonText string `json:"reasonText"`
}

// CancelResponse reports the shipment status after a cancellation attempt.
type CancelResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ShippingStatusResponse is the tracking read for one shipment.
// GET /v3/shippings/{id}
type ShippingStatusResponse struct {
	ShippingID string `json:"shippingId"`
	Status     string `json:"status"`
}

// WebhookURLEntry is one callback URL with its authorization key.
type WebhookURLEntry struct {
	URL              string `json:"url"`
	AuthorizationKey string `json:"authorizationKey"`
}

// WebhookConfigEntry is the registration for one topic.
type WebhookConfigEntry struct {
	IsTest           bool              `json:"isTest"`
	NotificationType string            `json:"notificationType"`
	Topic            string            `json:"topic"`
	URLs             []WebhookURLEntry `json:"urls"`
}

// WebhookConfigPayload is the webhook registration wrapper.
// PUT /v3/webhooks-configuration and GET /v3/webhooks-configuration?isTest=
type WebhookConfigPayload struct {
	WebhooksConfiguration []WebhookConfigEntry `json:"webhooksConfiguration"`
}

// APIError represents an error from the PedidosYa API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}
