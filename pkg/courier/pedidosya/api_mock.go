package pedidosya

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnAuthenticate     func(ctx context.Context) (string, time.Time, error)
	OnCheckCoverage    func(ctx context.Context, req *CoverageRequest) (*CoverageResponse, error)
	OnGetEstimates     func(ctx context.Context, req *ShippingRequest) (*EstimateResponse, error)
	OnCreateShipping   func(ctx context.Context, req *ShippingRequest) (*ShippingResponse, error)
	OnCancelShipping   func(ctx context.Context, shippingID, reasonText string) (*CancelResponse, error)
	OnGetShipping      func(ctx context.Context, shippingID string) (*ShippingStatusResponse, error)
	OnGetLabels        func(ctx context.Context, shippingIDs []string) ([]byte, error)
	OnPutWebhookConfig func(ctx context.Context, req *WebhookConfigPayload) error
	OnGetWebhookConfig func(ctx context.Context, isTest bool) (*WebhookConfigPayload, error)

	mu            sync.Mutex
	authCalls     int
	webhookConfig *WebhookConfigPayload
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// AuthCalls returns how many times Authenticate was invoked.
func (m *MockAPIClient) AuthCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authCalls
}

func (m *MockAPIClient) simulate() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}
	return nil
}

// Authenticate returns a mock bearer token.
func (m *MockAPIClient) Authenticate(ctx context.Context) (string, time.Time, error) {
	m.mu.Lock()
	m.authCalls++
	m.mu.Unlock()

	if err := m.simulate(); err != nil {
		return "", time.Time{}, &APIError{Code: "AUTH_FAILED", Message: "Simulated auth error"}
	}
	if m.OnAuthenticate != nil {
		return m.OnAuthenticate(ctx)
	}
	return "mock-token-" + uuid.New().String()[:8], time.Now().Add(time.Hour), nil
}

// CheckCoverage reports the route as covered.
func (m *MockAPIClient) CheckCoverage(ctx context.Context, req *CoverageRequest) (*CoverageResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCheckCoverage != nil {
		return m.OnCheckCoverage(ctx, req)
	}
	return &CoverageResponse{Status: 200}, nil
}

// GetEstimates returns one offer per delivery mode.
func (m *MockAPIClient) GetEstimates(ctx context.Context, req *ShippingRequest) (*EstimateResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetEstimates != nil {
		return m.OnGetEstimates(ctx, req)
	}
	return &EstimateResponse{
		DeliveryOffers: []DeliveryOffer{
			{DeliveryMode: "EXPRESS", Pricing: Pricing{Total: 250.0}},
			{DeliveryMode: "SCHEDULED", Pricing: Pricing{Total: 180.0}},
		},
	}, nil
}

// CreateShipping books a mock shipment.
func (m *MockAPIClient) CreateShipping(ctx context.Context, req *ShippingRequest) (*ShippingResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateShipping != nil {
		return m.OnCreateShipping(ctx, req)
	}

	shippingID := "py-ship-" + uuid.New().String()[:8]
	return &ShippingResponse{
		ShippingID:       shippingID,
		ConfirmationCode: fmt.Sprintf("%06d", time.Now().UnixNano()%1000000),
		ShareLocationURL: "https://tracking.pedidosya.com/share/" + shippingID,
		Route:            Route{Pricing: Pricing{Total: 250.0}},
	}, nil
}

// CancelShipping cancels a mock shipment.
func (m *MockAPIClient) CancelShipping(ctx context.Context, shippingID, reasonText string) (*CancelResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCancelShipping != nil {
		return m.OnCancelShipping(ctx, shippingID, reasonText)
	}
	return &CancelResponse{Status: "CANCELLED"}, nil
}

// GetShipping returns a confirmed mock shipment.
func (m *MockAPIClient) GetShipping(ctx context.Context, shippingID string) (*ShippingStatusResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetShipping != nil {
		return m.OnGetShipping(ctx, shippingID)
	}
	return &ShippingStatusResponse{ShippingID: shippingID, Status: "CONFIRMED"}, nil
}

// GetLabels returns a minimal PDF document.
func (m *MockAPIClient) GetLabels(ctx context.Context, shippingIDs []string) ([]byte, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetLabels != nil {
		return m.OnGetLabels(ctx, shippingIDs)
	}
	return []byte("%PDF-1.4 mock labels"), nil
}

// PutWebhookConfig stores the registration in memory.
func (m *MockAPIClient) PutWebhookConfig(ctx context.Context, req *WebhookConfigPayload) error {
	if err := m.simulate(); err != nil {
		return err
	}
	if m.OnPutWebhookConfig != nil {
		return m.OnPutWebhookConfig(ctx, req)
	}
	m.mu.Lock()
	m.webhookConfig = req
	m.mu.Unlock()
	return nil
}

// GetWebhookConfig returns the stored registration, if any.
func (m *MockAPIClient) GetWebhookConfig(ctx context.Context, isTest bool) (*WebhookConfigPayload, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetWebhookConfig != nil {
		return m.OnGetWebhookConfig(ctx, isTest)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.webhookConfig != nil {
		return m.webhookConfig, nil
	}
	return &WebhookConfigPayload{}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
