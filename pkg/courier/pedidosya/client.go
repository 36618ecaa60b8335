// Package pedidosya provides integration with the PedidosYa courier API.
package pedidosya

import (
	"context"
	"fmt"
	"time"

	"github.com/tournevent/courier/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "pedidosya"

const (
	sandboxBaseURL    = "https://courier-api-sandbox.pedidosya.com"
	productionBaseURL = "https://courier-api.pedidosya.com"
)

// deliveryTimeLayout is the UTC timestamp format the API expects for
// scheduled deliveries.
const deliveryTimeLayout = "2006-01-02 15:04:05"

// Config holds PedidosYa configuration.
type Config struct {
	APIKey      string
	APISecret   string
	Environment courier.Environment
	ServiceMode courier.ServiceMode
	BaseURL     string // Overrides the environment-derived base URL
	UseMock     bool   // When true, uses mock API client
}

// Client is the PedidosYa courier client.
// It implements the courier.Courier interface and delegates
// API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new PedidosYa client.
// If cfg.UseMock is true, it uses a mock API client for testing.
// Otherwise, it uses the real HTTP API client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:   apiBaseURL(cfg),
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			Timeout:   30 * time.Second,
		})
	}

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// NewWithAPIClient creates a new PedidosYa client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

func apiBaseURL(cfg Config) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	if cfg.Environment == courier.EnvTest {
		return sandboxBaseURL
	}
	return productionBaseURL
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// Authenticate exchanges the configured credentials for a bearer token.
// The token is cached by the API client and reused until expiry.
func (c *Client) Authenticate(ctx context.Context) (string, time.Time, error) {
	token, expiry, err := c.apiClient.Authenticate(ctx)
	if err != nil {
		c.logger.Error("PedidosYa authentication failed", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("%w: %v", courier.ErrAuthenticationFailed, err)
	}
	return token, expiry, nil
}

// CheckCoverage reports whether the route between pickup and dropoff is
// serviceable. Any transport or HTTP failure degrades to false.
func (c *Client) CheckCoverage(ctx context.Context, pickup, dropoff courier.Waypoint) bool {
	req := &CoverageRequest{
		Waypoints: []Waypoint{
			coverageWaypoint(pickup, courier.WaypointPickup),
			coverageWaypoint(dropoff, courier.WaypointDropoff),
		},
	}

	resp, err := c.apiClient.CheckCoverage(ctx, req)
	if err != nil {
		c.logger.Warn("PedidosYa coverage check failed",
			zap.String("pickup_city", pickup.City),
			zap.String("dropoff_city", dropoff.City),
			zap.Error(err),
		)
		return false
	}
	return resp.Status == 200
}

// GetRate requests delivery offers for an order and returns the price for
// the configured service mode, falling back to the first offered mode.
// Local validation failures and unavailable routes come back as
// *courier.RateUnavailableError without surfacing an operational error.
func (c *Client) GetRate(ctx context.Context, order *courier.Order) (*courier.RateQuote, error) {
	if order.Dropoff == nil {
		return nil, courier.RateUnavailable(courier.ReasonNoShippingAddress)
	}
	if order.Pickup == nil || !order.Pickup.HasCoordinates() || !order.Dropoff.HasCoordinates() {
		return nil, courier.RateUnavailable(courier.ReasonMissingCoordinates)
	}
	if len(order.Items) == 0 {
		return nil, courier.RateUnavailable(courier.ReasonNoItems)
	}

	if !c.CheckCoverage(ctx, *order.Pickup, *order.Dropoff) {
		return nil, courier.RateUnavailable(courier.ReasonNoCoverage)
	}

	c.logger.Info("Getting PedidosYa rate",
		zap.String("reference_id", order.ReferenceID),
		zap.Int("item_count", len(order.Items)),
	)

	resp, err := c.apiClient.GetEstimates(ctx, c.shippingRequest(order))
	if err != nil {
		c.logger.Error("PedidosYa estimate error", zap.Error(err))
		return nil, &courier.RateUnavailableError{Reason: courier.ReasonUpstreamError, Cause: err}
	}

	if len(resp.DeliveryOffers) == 0 {
		return nil, courier.RateUnavailable(courier.ReasonNoOffers)
	}

	for _, offer := range resp.DeliveryOffers {
		if offer.DeliveryMode == string(c.config.ServiceMode) {
			return &courier.RateQuote{
				Mode:  courier.ServiceMode(offer.DeliveryMode),
				Price: offer.Pricing.Total,
			}, nil
		}
	}

	// No offer for the configured mode, use the first one.
	first := resp.DeliveryOffers[0]
	return &courier.RateQuote{
		Mode:  courier.ServiceMode(first.DeliveryMode),
		Price: first.Pricing.Total,
	}, nil
}

// CreateShipment books a shipment with PedidosYa.
func (c *Client) CreateShipment(ctx context.Context, order *courier.Order) (*courier.Booking, error) {
	c.logger.Info("Creating PedidosYa shipment",
		zap.String("reference_id", order.ReferenceID),
	)

	req := c.shippingRequest(order)
	if c.config.ServiceMode == courier.ModeScheduled && order.ScheduledAt != nil {
		req.DeliveryTime = order.ScheduledAt.UTC().Format(deliveryTimeLayout)
	}

	resp, err := c.apiClient.CreateShipping(ctx, req)
	if err != nil {
		c.logger.Error("PedidosYa API error", zap.Error(err))
		return nil, err
	}

	if resp.ShippingID == "" {
		msg := resp.Message
		if msg == "" {
			msg = "no shipping id in response"
		}
		return nil, fmt.Errorf("%w: %s", courier.ErrBookingFailed, msg)
	}

	return &courier.Booking{
		TrackingID:       resp.ShippingID,
		ConfirmationCode: resp.ConfirmationCode,
		TrackingURL:      resp.ShareLocationURL,
		Price:            resp.Route.Pricing.Total,
	}, nil
}

// CancelShipment cancels a shipment with PedidosYa.
func (c *Client) CancelShipment(ctx context.Context, trackingID, reason string) error {
	if reason == "" {
		reason = "Canceled by merchant"
	}

	c.logger.Info("Cancelling PedidosYa shipment",
		zap.String("tracking_id", trackingID),
		zap.String("reason", reason),
	)

	resp, err := c.apiClient.CancelShipping(ctx, trackingID, reason)
	if err != nil {
		c.logger.Error("PedidosYa API error", zap.Error(err))
		return err
	}

	if resp.Status != courier.RawCancelled {
		msg := resp.Message
		if msg == "" {
			msg = "unexpected status " + resp.Status
		}
		return fmt.Errorf("%w: %s", courier.ErrCancellationFailed, msg)
	}
	return nil
}

// FetchLabels retrieves a single PDF with labels for the given shipments.
func (c *Client) FetchLabels(ctx context.Context, trackingIDs []string) ([]byte, error) {
	if len(trackingIDs) == 0 {
		return nil, courier.ErrNoTrackingIDs
	}

	c.logger.Info("Fetching PedidosYa labels",
		zap.Int("shipment_count", len(trackingIDs)),
	)

	pdf, err := c.apiClient.GetLabels(ctx, trackingIDs)
	if err != nil {
		c.logger.Error("PedidosYa API error", zap.Error(err))
		return nil, err
	}
	return pdf, nil
}

// PollStatus fetches the current normalized status of a shipment.
// Best-effort: transport failures and unmapped statuses are logged and
// reported as not-ok so the caller keeps the prior status.
func (c *Client) PollStatus(ctx context.Context, trackingID string) (courier.Status, bool) {
	resp, err := c.apiClient.GetShipping(ctx, trackingID)
	if err != nil {
		c.logger.Warn("PedidosYa tracking poll failed",
			zap.String("tracking_id", trackingID),
			zap.Error(err),
		)
		return "", false
	}

	status, ok := courier.MapStatus(resp.Status)
	if !ok {
		c.logger.Info("Unmapped PedidosYa status, keeping prior",
			zap.String("tracking_id", trackingID),
			zap.String("raw_status", resp.Status),
		)
		return "", false
	}
	return status, true
}

// ConfigureWebhook upserts the shipping-status webhook registration.
func (c *Client) ConfigureWebhook(ctx context.Context, reg courier.WebhookRegistration) error {
	if reg.URL == "" {
		return courier.ErrWebhookURLRequired
	}

	payload := &WebhookConfigPayload{
		WebhooksConfiguration: []WebhookConfigEntry{
			{
				IsTest:           reg.IsTest,
				NotificationType: "WEBHOOK",
				Topic:            courier.TopicShippingStatus,
				URLs: []WebhookURLEntry{
					{URL: reg.URL, AuthorizationKey: reg.Secret},
				},
			},
		},
	}

	if err := c.apiClient.PutWebhookConfig(ctx, payload); err != nil {
		c.logger.Error("PedidosYa webhook configuration failed", zap.Error(err))
		return err
	}

	c.logger.Info("PedidosYa webhook configured",
		zap.String("url", reg.URL),
		zap.Bool("is_test", reg.IsTest),
	)
	return nil
}

// FetchWebhookConfig reads back the shipping-status webhook registration.
// Returns nil when no registration exists for the topic.
func (c *Client) FetchWebhookConfig(ctx context.Context, isTest bool) (*courier.WebhookRegistration, error) {
	payload, err := c.apiClient.GetWebhookConfig(ctx, isTest)
	if err != nil {
		c.logger.Error("PedidosYa webhook retrieval failed", zap.Error(err))
		return nil, err
	}

	for _, entry := range payload.WebhooksConfiguration {
		if entry.Topic != courier.TopicShippingStatus || len(entry.URLs) == 0 {
			continue
		}
		u := entry.URLs[0]
		return &courier.WebhookRegistration{
			URL:    u.URL,
			Secret: u.AuthorizationKey,
			IsTest: entry.IsTest,
		}, nil
	}
	return nil, nil
}

// ============================================================================
// Conversion helpers: courier models -> API models
// ============================================================================

func (c *Client) shippingRequest(order *courier.Order) *ShippingRequest {
	return &ShippingRequest{
		ReferenceID: order.ReferenceID,
		IsTest:      c.config.Environment == courier.EnvTest,
		Items:       itemsToAPI(order.Items),
		Waypoints: []Waypoint{
			waypointToAPI(*order.Pickup, courier.WaypointPickup),
			waypointToAPI(*order.Dropoff, courier.WaypointDropoff),
		},
	}
}

func waypointToAPI(w courier.Waypoint, kind courier.WaypointKind) Waypoint {
	return Waypoint{
		Type:              string(kind),
		AddressStreet:     w.Street,
		AddressAdditional: w.Additional,
		City:              w.City,
		Latitude:          w.Latitude,
		Longitude:         w.Longitude,
		Phone:             w.Phone,
		Name:              w.Name,
		Instructions:      w.Instructions,
	}
}

func coverageWaypoint(w courier.Waypoint, kind courier.WaypointKind) Waypoint {
	return Waypoint{
		Type:          string(kind),
		AddressStreet: w.Street,
		City:          w.City,
		Latitude:      w.Latitude,
		Longitude:     w.Longitude,
	}
}

func itemsToAPI(items []courier.Item) []Item {
	result := make([]Item, len(items))
	for i, it := range items {
		itemType := it.Type
		if itemType == "" {
			itemType = courier.ItemStandard
		}
		quantity := it.Quantity
		if quantity == 0 {
			quantity = 1
		}
		result[i] = Item{
			Type:        string(itemType),
			Value:       it.Value,
			Description: it.Description,
			SKU:         it.SKU,
			Quantity:    quantity,
			Volume:      it.VolumeCM3,
			Weight:      it.WeightKG,
		}
	}
	return result
}

// Ensure Client implements the courier interface
var _ courier.Courier = (*Client)(nil)
