// Package shipments implements booking and status reconciliation for
// courier shipments.
package shipments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tournevent/courier/internal/telemetry"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service coordinates outbound courier calls with the shipment repository.
type Service struct {
	registry *courier.Registry
	repo     courier.ShipmentRepository
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// New creates a shipment service.
func New(registry *courier.Registry, repo courier.ShipmentRepository, logger *otelzap.Logger, metrics *telemetry.Metrics) *Service {
	return &Service{
		registry: registry,
		repo:     repo,
		logger:   logger,
		metrics:  metrics,
	}
}

// Rate returns the shipping price for an order, or a
// *courier.RateUnavailableError describing why none is available.
func (s *Service) Rate(ctx context.Context, carrierName string, order *courier.Order) (*courier.RateQuote, error) {
	client, err := s.registry.Get(carrierName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	quote, err := client.GetRate(ctx, order)
	s.record("rate", carrierName, err, start)
	return quote, err
}

// Book creates a shipment with the carrier and persists the resulting
// shipment record in waiting state.
func (s *Service) Book(ctx context.Context, carrierName string, order *courier.Order) (*courier.Shipment, error) {
	client, err := s.registry.Get(carrierName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	booking, err := client.CreateShipment(ctx, order)
	s.record("book", carrierName, err, start)
	if err != nil {
		return nil, err
	}

	sh := &courier.Shipment{
		ReferenceID:      order.ReferenceID,
		CarrierName:      carrierName,
		TrackingID:       booking.TrackingID,
		ConfirmationCode: booking.ConfirmationCode,
		TrackingURL:      booking.TrackingURL,
		Status:           courier.StatusWaiting,
		Workflow:         courier.WorkflowOpen,
	}
	if err := s.repo.Create(ctx, sh); err != nil {
		return nil, fmt.Errorf("persisting shipment %s: %w", booking.TrackingID, err)
	}

	body := fmt.Sprintf("Shipment created: shipping id %s, confirmation code %s, tracking url %s",
		booking.TrackingID, booking.ConfirmationCode, booking.TrackingURL)
	if err := s.repo.AppendNote(ctx, booking.TrackingID, body); err != nil {
		s.logger.Warn("Failed to append booking note",
			zap.String("tracking_id", booking.TrackingID),
			zap.Error(err),
		)
	}

	s.logger.Info("Shipment booked",
		zap.String("carrier", carrierName),
		zap.String("reference_id", order.ReferenceID),
		zap.String("tracking_id", booking.TrackingID),
	)
	return sh, nil
}

// Cancel cancels a booked shipment and transitions the local record.
func (s *Service) Cancel(ctx context.Context, trackingID, reason string) error {
	sh, err := s.repo.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return err
	}

	client, err := s.registry.Get(sh.CarrierName)
	if err != nil {
		return err
	}

	start := time.Now()
	err = client.CancelShipment(ctx, trackingID, reason)
	s.record("cancel", sh.CarrierName, err, start)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(ctx, trackingID, courier.StatusCanceled); err != nil {
		return err
	}
	return s.repo.AppendNote(ctx, trackingID, "Shipment canceled with carrier")
}

// Labels fetches a combined PDF with labels for the given shipments.
func (s *Service) Labels(ctx context.Context, carrierName string, trackingIDs []string) ([]byte, error) {
	client, err := s.registry.Get(carrierName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pdf, err := client.FetchLabels(ctx, trackingIDs)
	s.record("labels", carrierName, err, start)
	return pdf, err
}

// ApplyStatusUpdate reconciles a webhook event into the shipment record.
// The transition is idempotent per status value: replaying an event leaves
// the record in the same state and never re-triggers workflow completion.
// Returns courier.ErrShipmentNotFound when no record matches the event.
func (s *Service) ApplyStatusUpdate(ctx context.Context, ev *courier.WebhookEvent) error {
	sh, err := s.repo.GetByTrackingID(ctx, ev.TrackingID)
	if err != nil {
		return err
	}

	status, ok := courier.MapStatus(ev.RawStatus)
	if ok {
		if err := s.repo.UpdateStatus(ctx, ev.TrackingID, status); err != nil {
			return err
		}

		switch status {
		case courier.StatusDelivered:
			if sh.Workflow != courier.WorkflowDone {
				if err := s.repo.MarkDone(ctx, ev.TrackingID); err != nil {
					return err
				}
				s.logger.Info("Delivery workflow completed",
					zap.String("tracking_id", ev.TrackingID),
				)
			}
		case courier.StatusCanceled:
			if ev.CancelReason != "" || ev.CancelCode != "" {
				body := fmt.Sprintf("Shipment canceled by carrier. Reason: %s. Code: %s",
					ev.CancelReason, ev.CancelCode)
				if err := s.repo.AppendNote(ctx, ev.TrackingID, body); err != nil {
					return err
				}
			}
		}
	} else {
		s.logger.Info("Unmapped carrier status, keeping prior",
			zap.String("tracking_id", ev.TrackingID),
			zap.String("raw_status", ev.RawStatus),
		)
	}

	// The raw status is always recorded, even when it did not change the
	// normalized status.
	if err := s.repo.AppendNote(ctx, ev.TrackingID, "Carrier status update: "+ev.RawStatus); err != nil {
		return err
	}

	s.logger.Info("Shipment status update applied",
		zap.String("tracking_id", ev.TrackingID),
		zap.String("raw_status", ev.RawStatus),
	)
	return nil
}

// Refresh polls the carrier for one shipment and applies the result.
// Best-effort: transport failures keep the prior status.
func (s *Service) Refresh(ctx context.Context, trackingID string) error {
	sh, err := s.repo.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return err
	}

	client, err := s.registry.Get(sh.CarrierName)
	if err != nil {
		return err
	}

	status, ok := client.PollStatus(ctx, trackingID)
	if !ok {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, trackingID, status); err != nil {
		return err
	}
	return s.repo.AppendNote(ctx, trackingID, "Tracking update: "+string(status))
}

// RefreshAll polls the carrier for every open shipment in parallel.
// Individual failures are logged and do not abort the sweep.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	open, err := s.repo.ListOpen(ctx)
	if err != nil {
		return 0, err
	}

	var refreshed int
	mu := &sync.Mutex{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, sh := range open {
		sh := sh
		g.Go(func() error {
			if err := s.Refresh(ctx, sh.TrackingID); err != nil {
				s.logger.Warn("Shipment refresh failed",
					zap.String("tracking_id", sh.TrackingID),
					zap.Error(err),
				)
				return nil // keep sweeping the rest
			}
			mu.Lock()
			refreshed++
			mu.Unlock()
			return nil
		})
	}

	g.Wait()
	return refreshed, nil
}

func (s *Service) record(operation, carrierName string, err error, start time.Time) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		s.metrics.RecordError(carrierName, operation)
	}
	s.metrics.RecordRequest(operation, carrierName, status, time.Since(start).Seconds())
}
