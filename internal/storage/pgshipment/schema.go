package pgshipment

import (
	"context"

	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS shipments (
  tracking_id       TEXT PRIMARY KEY,
  reference_id      TEXT NOT NULL,
  carrier_name      TEXT NOT NULL,
  confirmation_code TEXT NOT NULL DEFAULT '',
  tracking_url      TEXT NOT NULL DEFAULT '',
  status            TEXT NOT NULL,
  workflow          TEXT NOT NULL DEFAULT 'open',
  created_at        TIMESTAMPTZ NOT NULL,
  updated_at        TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_shipments_workflow ON shipments (workflow);
CREATE INDEX IF NOT EXISTS idx_shipments_reference ON shipments (reference_id);

CREATE TABLE IF NOT EXISTS shipment_notes (
  id          UUID PRIMARY KEY,
  tracking_id TEXT NOT NULL REFERENCES shipments (tracking_id),
  body        TEXT NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_shipment_notes_tracking ON shipment_notes (tracking_id);
`

// InitSchema creates the shipment tables if they do not exist.
func (s *Storage) InitSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return errors.Wrap(err, "init schema")
}
