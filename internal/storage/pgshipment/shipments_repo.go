package pgshipment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/tournevent/courier/pkg/courier"
)

func (s *Storage) Create(ctx context.Context, sh *courier.Shipment) error {
	now := time.Now().UTC()
	createdAt := sh.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := s.db.Exec(ctx, `
INSERT INTO shipments (
  tracking_id, reference_id, carrier_name, confirmation_code, tracking_url,
  status, workflow, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (tracking_id) DO NOTHING
`, sh.TrackingID, sh.ReferenceID, sh.CarrierName, sh.ConfirmationCode, sh.TrackingURL,
		sh.Status, sh.Workflow, createdAt, now)
	return errors.Wrap(err, "insert shipment")
}

func (s *Storage) GetByTrackingID(ctx context.Context, trackingID string) (*courier.Shipment, error) {
	var sh courier.Shipment
	err := s.db.QueryRow(ctx, `
SELECT
  tracking_id, reference_id, carrier_name, confirmation_code, tracking_url,
  status, workflow, created_at, updated_at
FROM shipments
WHERE tracking_id = $1
`, trackingID).Scan(
		&sh.TrackingID, &sh.ReferenceID, &sh.CarrierName, &sh.ConfirmationCode, &sh.TrackingURL,
		&sh.Status, &sh.Workflow, &sh.CreatedAt, &sh.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, courier.ErrShipmentNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select shipment")
	}
	return &sh, nil
}

func (s *Storage) UpdateStatus(ctx context.Context, trackingID string, status courier.Status) error {
	tag, err := s.db.Exec(ctx, `
UPDATE shipments SET status = $2, updated_at = now() WHERE tracking_id = $1
`, trackingID, status)
	if err != nil {
		return errors.Wrap(err, "update status")
	}
	if tag.RowsAffected() == 0 {
		return courier.ErrShipmentNotFound
	}
	return nil
}

func (s *Storage) MarkDone(ctx context.Context, trackingID string) error {
	tag, err := s.db.Exec(ctx, `
UPDATE shipments SET workflow = $2, updated_at = now() WHERE tracking_id = $1
`, trackingID, courier.WorkflowDone)
	if err != nil {
		return errors.Wrap(err, "mark done")
	}
	if tag.RowsAffected() == 0 {
		return courier.ErrShipmentNotFound
	}
	return nil
}

func (s *Storage) AppendNote(ctx context.Context, trackingID, body string) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO shipment_notes (id, tracking_id, body, created_at)
VALUES ($1,$2,$3,$4)
`, uuid.New(), trackingID, body, time.Now().UTC())
	return errors.Wrap(err, "insert note")
}

func (s *Storage) ListOpen(ctx context.Context) ([]*courier.Shipment, error) {
	rows, err := s.db.Query(ctx, `
SELECT
  tracking_id, reference_id, carrier_name, confirmation_code, tracking_url,
  status, workflow, created_at, updated_at
FROM shipments
WHERE workflow <> $1
`, courier.WorkflowDone)
	if err != nil {
		return nil, errors.Wrap(err, "select open shipments")
	}
	defer rows.Close()

	var out []*courier.Shipment
	for rows.Next() {
		var sh courier.Shipment
		if err := rows.Scan(
			&sh.TrackingID, &sh.ReferenceID, &sh.CarrierName, &sh.ConfirmationCode, &sh.TrackingURL,
			&sh.Status, &sh.Workflow, &sh.CreatedAt, &sh.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan shipment")
		}
		out = append(out, &sh)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

var _ courier.ShipmentRepository = (*Storage)(nil)
