// Package webhook implements the inbound endpoint receiving courier
// shipping-status callbacks.
package webhook

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tournevent/courier/internal/shipments"
	"github.com/tournevent/courier/internal/telemetry"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// payload is the callback body sent by the courier.
type payload struct {
	Topic            string `json:"topic"`
	ID               string `json:"id"`
	ReferenceID      string `json:"referenceId"`
	ConfirmationCode string `json:"confirmationCode"`
	Data             struct {
		Status       string `json:"status"`
		CancelReason string `json:"cancelReason"`
		CancelCode   string `json:"cancelCode"`
	} `json:"data"`
}

// Handler processes courier status callbacks. The callback protocol is
// fire-and-forget: once the body parses and carries the required fields,
// the response is 200 regardless of the business outcome.
type Handler struct {
	registry  *courier.Registry
	shipments *shipments.Service
	logger    *otelzap.Logger
	metrics   *telemetry.Metrics
}

// New creates a webhook handler.
func New(registry *courier.Registry, svc *shipments.Service, logger *otelzap.Logger, metrics *telemetry.Metrics) *Handler {
	return &Handler{
		registry:  registry,
		shipments: svc,
		logger:    logger,
		metrics:   metrics,
	}
}

// ServeHTTP handles POST /pedidosya/webhook.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var p payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.logger.Error("Invalid webhook body", zap.Error(err))
		h.recordOutcome("", "malformed")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if p.Topic == "" || p.ID == "" || p.Data.Status == "" {
		h.logger.Error("Webhook missing required fields",
			zap.String("topic", p.Topic),
			zap.String("id", p.ID),
		)
		h.recordOutcome(p.Topic, "missing_fields")
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	if p.Topic != courier.TopicShippingStatus {
		// Acknowledge-and-ignore: other topics are not an error.
		h.logger.Info("Ignoring webhook with unhandled topic",
			zap.String("topic", p.Topic),
		)
		h.recordOutcome(p.Topic, "ignored")
		writeOK(w)
		return
	}

	secret := r.Header.Get("Authorization")
	if secret == "" {
		secret = r.Header.Get("x-api-key")
	}
	cfg, ok := h.registry.Authorize(secret)
	if !ok {
		h.logger.Warn("Webhook secret matched no configured carrier",
			zap.String("tracking_id", p.ID),
		)
		h.recordOutcome(p.Topic, "unauthorized")
		writeError(w, http.StatusUnauthorized, "unknown authorization key")
		return
	}

	ev := &courier.WebhookEvent{
		Topic:            p.Topic,
		TrackingID:       p.ID,
		ReferenceID:      p.ReferenceID,
		ConfirmationCode: p.ConfirmationCode,
		RawStatus:        p.Data.Status,
		CancelReason:     p.Data.CancelReason,
		CancelCode:       p.Data.CancelCode,
	}

	err := h.shipments.ApplyStatusUpdate(r.Context(), ev)
	switch {
	case errors.Is(err, courier.ErrShipmentNotFound):
		// No retry storms: unknown shipment ids are acknowledged.
		h.logger.Warn("No shipment matches webhook tracking id",
			zap.String("tracking_id", p.ID),
			zap.String("carrier", cfg.Name),
		)
		h.recordOutcome(p.Topic, "unknown_shipment")
	case err != nil:
		h.logger.Error("Failed to apply webhook status update",
			zap.String("tracking_id", p.ID),
			zap.Error(err),
		)
		h.recordOutcome(p.Topic, "error")
	default:
		h.recordOutcome(p.Topic, "applied")
	}

	writeOK(w)
}

func (h *Handler) recordOutcome(topic, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordWebhook(topic, outcome)
	}
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
