// Package server wires the HTTP surface of the courier bridge: the inbound
// webhook, the shipment operations used by the host platform, and the
// operational endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/courier/internal/shipments"
	"github.com/tournevent/courier/internal/telemetry"
	"github.com/tournevent/courier/internal/webhook"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server for the courier bridge.
type Server struct {
	port      int
	registry  *courier.Registry
	shipments *shipments.Service
	webhook   *webhook.Handler
	logger    *otelzap.Logger
	metrics   *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, registry *courier.Registry, svc *shipments.Service, logger *otelzap.Logger, metrics *telemetry.Metrics) *Server {
	return &Server{
		port:      cfg.Port,
		registry:  registry,
		shipments: svc,
		webhook:   webhook.New(registry, svc, logger, metrics),
		logger:    logger,
		metrics:   metrics,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Inbound courier callbacks. Public, authenticated by shared secret.
	r.Post("/pedidosya/webhook", s.webhook.ServeHTTP)

	// Shipment operations for the host platform.
	r.Post("/shipments/rate", s.handleRate)
	r.Post("/shipments", s.handleBook)
	r.Post("/shipments/{trackingID}/cancel", s.handleCancel)
	r.Get("/shipments/labels", s.handleLabels)
	r.Post("/shipments/refresh", s.handleRefresh)

	return r
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// ============================================================================
// Request/response types
// ============================================================================

type waypointJSON struct {
	Name         string  `json:"name"`
	Street       string  `json:"street"`
	Additional   string  `json:"additional,omitempty"`
	City         string  `json:"city"`
	Phone        string  `json:"phone,omitempty"`
	Instructions string  `json:"instructions,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type itemJSON struct {
	Type        string  `json:"type,omitempty"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
	SKU         string  `json:"sku,omitempty"`
	Quantity    int     `json:"quantity"`
	VolumeCM3   float64 `json:"volumeCm3,omitempty"`
	WeightKG    float64 `json:"weightKg,omitempty"`
}

type orderJSON struct {
	ReferenceID string        `json:"referenceId"`
	Pickup      *waypointJSON `json:"pickup"`
	Dropoff     *waypointJSON `json:"dropoff"`
	Items       []itemJSON    `json:"items"`
	ScheduledAt *time.Time    `json:"scheduledAt,omitempty"`
}

type shipmentRequest struct {
	Carrier string    `json:"carrier,omitempty"`
	Order   orderJSON `json:"order"`
}

type rateResponse struct {
	Available bool    `json:"available"`
	Mode      string  `json:"mode,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

type shipmentResponse struct {
	ReferenceID      string `json:"referenceId"`
	Carrier          string `json:"carrier"`
	TrackingID       string `json:"trackingId"`
	ConfirmationCode string `json:"confirmationCode"`
	TrackingURL      string `json:"trackingUrl"`
	Status           string `json:"status"`
}

// ============================================================================
// Handlers
// ============================================================================

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req shipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	quote, err := s.shipments.Rate(r.Context(), s.carrierName(req.Carrier), toOrder(req.Order))
	if err != nil {
		if reason, ok := courier.IsRateUnavailable(err); ok {
			s.writeJSON(w, http.StatusOK, rateResponse{Available: false, Reason: reason})
			return
		}
		s.writeCourierError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, rateResponse{
		Available: true,
		Mode:      string(quote.Mode),
		Price:     quote.Price,
	})
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var req shipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sh, err := s.shipments.Book(r.Context(), s.carrierName(req.Carrier), toOrder(req.Order))
	if err != nil {
		s.writeCourierError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, shipmentResponse{
		ReferenceID:      sh.ReferenceID,
		Carrier:          sh.CarrierName,
		TrackingID:       sh.TrackingID,
		ConfirmationCode: sh.ConfirmationCode,
		TrackingURL:      sh.TrackingURL,
		Status:           string(sh.Status),
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	trackingID := chi.URLParam(r, "trackingID")

	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body means no reason
	}

	if err := s.shipments.Cancel(r.Context(), trackingID, req.Reason); err != nil {
		s.writeCourierError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	ids := splitNonEmpty(r.URL.Query().Get("ids"))

	pdf, err := s.shipments.Labels(r.Context(), s.carrierName(r.URL.Query().Get("carrier")), ids)
	if err != nil {
		s.writeCourierError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshed, err := s.shipments.RefreshAll(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"refreshed": refreshed})
}

// ============================================================================
// Helpers
// ============================================================================

// carrierName resolves an optional carrier name, defaulting to the single
// registered carrier.
func (s *Server) carrierName(name string) string {
	if name != "" {
		return name
	}
	if names := s.registry.Names(); len(names) == 1 {
		return names[0]
	}
	return name
}

func (s *Server) writeCourierError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, courier.ErrCarrierNotFound),
		errors.Is(err, courier.ErrShipmentNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, courier.ErrNoTrackingIDs),
		errors.Is(err, courier.ErrWebhookURLRequired):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, courier.ErrAuthenticationFailed):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func toOrder(o orderJSON) *courier.Order {
	order := &courier.Order{
		ReferenceID: o.ReferenceID,
		ScheduledAt: o.ScheduledAt,
	}
	if o.Pickup != nil {
		order.Pickup = toWaypoint(*o.Pickup, courier.WaypointPickup)
	}
	if o.Dropoff != nil {
		order.Dropoff = toWaypoint(*o.Dropoff, courier.WaypointDropoff)
	}
	for _, it := range o.Items {
		order.Items = append(order.Items, courier.Item{
			Type:        courier.ItemType(it.Type),
			Value:       it.Value,
			Description: it.Description,
			SKU:         it.SKU,
			Quantity:    it.Quantity,
			VolumeCM3:   it.VolumeCM3,
			WeightKG:    it.WeightKG,
		})
	}
	return order
}

func toWaypoint(w waypointJSON, kind courier.WaypointKind) *courier.Waypoint {
	return &courier.Waypoint{
		Kind:         kind,
		Name:         w.Name,
		Street:       w.Street,
		Additional:   w.Additional,
		City:         w.City,
		Phone:        w.Phone,
		Instructions: w.Instructions,
		Latitude:     w.Latitude,
		Longitude:    w.Longitude,
	}
}

func splitNonEmpty(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
