// Package memshipment provides an in-memory shipment repository.
// It backs tests and mock-mode deployments where no database is configured.
package memshipment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/courier/pkg/courier"
)

// Store is an in-memory implementation of courier.ShipmentRepository.
type Store struct {
	mu        sync.RWMutex
	shipments map[string]*courier.Shipment
	notes     map[string][]courier.AuditNote
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		shipments: make(map[string]*courier.Shipment),
		notes:     make(map[string][]courier.AuditNote),
	}
}

// Create persists a freshly booked shipment record.
func (s *Store) Create(ctx context.Context, sh *courier.Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	cp := *sh
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.shipments[cp.TrackingID] = &cp
	return nil
}

// GetByTrackingID loads the shipment whose tracking id matches.
func (s *Store) GetByTrackingID(ctx context.Context, trackingID string) (*courier.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.shipments[trackingID]
	if !ok {
		return nil, courier.ErrShipmentNotFound
	}
	cp := *sh
	return &cp, nil
}

// UpdateStatus writes a new normalized status, last writer wins.
func (s *Store) UpdateStatus(ctx context.Context, trackingID string, status courier.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shipments[trackingID]
	if !ok {
		return courier.ErrShipmentNotFound
	}
	sh.Status = status
	sh.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkDone transitions the shipment's workflow state to done.
func (s *Store) MarkDone(ctx context.Context, trackingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shipments[trackingID]
	if !ok {
		return courier.ErrShipmentNotFound
	}
	sh.Workflow = courier.WorkflowDone
	sh.UpdatedAt = time.Now().UTC()
	return nil
}

// AppendNote appends an audit note to the shipment history.
func (s *Store) AppendNote(ctx context.Context, trackingID, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shipments[trackingID]; !ok {
		return courier.ErrShipmentNotFound
	}
	s.notes[trackingID] = append(s.notes[trackingID], courier.AuditNote{
		ID:         uuid.New().String(),
		TrackingID: trackingID,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

// ListOpen returns all shipments whose workflow state is still open.
func (s *Store) ListOpen(ctx context.Context) ([]*courier.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*courier.Shipment, 0, len(s.shipments))
	for _, sh := range s.shipments {
		if sh.Workflow == courier.WorkflowDone {
			continue
		}
		cp := *sh
		out = append(out, &cp)
	}
	return out, nil
}

// Notes returns the audit notes recorded for a shipment.
func (s *Store) Notes(trackingID string) []courier.AuditNote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]courier.AuditNote(nil), s.notes[trackingID]...)
}

// Len returns the number of stored shipments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shipments)
}

var _ courier.ShipmentRepository = (*Store)(nil)
