package pedidosya_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/tournevent/courier/pkg/courier/pedidosya"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(mockClient *pedidosya.MockAPIClient) *pedidosya.Client {
	logger := otelzap.New(zap.NewNop())
	return pedidosya.NewWithAPIClient(
		pedidosya.Config{
			Environment: courier.EnvTest,
			ServiceMode: courier.ModeExpress,
		},
		mockClient,
		logger,
		nil,
	)
}

func testOrder() *courier.Order {
	return &courier.Order{
		ReferenceID: "SO-1001",
		Pickup: &courier.Waypoint{
			Name:      "Warehouse",
			Street:    "Av. Corrientes 1234",
			City:      "Buenos Aires",
			Phone:     "+54 11 5555-1234",
			Latitude:  -34.603722,
			Longitude: -58.381592,
		},
		Dropoff: &courier.Waypoint{
			Name:      "Customer",
			Street:    "Av. Santa Fe 4321",
			City:      "Buenos Aires",
			Phone:     "+54 11 5555-9876",
			Latitude:  -34.595986,
			Longitude: -58.402264,
		},
		Items: []courier.Item{
			{Description: "Box of parts", Value: 1200, Quantity: 2, WeightKG: 3.5},
		},
	}
}

func TestClient_GetRate_Success(t *testing.T) {
	mockAPI := pedidosya.NewMockAPIClient()
	client := newTestClient(mockAPI)

	quote, err := client.GetRate(context.Background(), testOrder())

	require.NoError(t, err)
	assert.Equal(t, courier.ModeExpress, quote.Mode)
	assert.Equal(t, 250.0, quote.Price)
}

func TestClient_GetRate_FallsBackToFirstOffer(t *testing.T) {
	mockAPI := pedidosya.NewMockAPIClient()
	mockAPI.OnGetEstimates = func(ctx context.Context, req *pedidosya.ShippingRequest) (*pedidosya.EstimateResponse, error) {
		return &pedidosya.EstimateResponse{
			DeliveryOffers: []pedidosya.DeliveryOffer{
				{DeliveryMode: "SCHEDULED", Pricing: pedidosya.Pricing{Total: 180.0}},
			},
		}, nil
	}
	client := newTestClient(mockAPI)

	quote, err := client.GetRate(context.Background(), testOrder())

	require.NoError(t, err)
	assert.Equal(t, courier.ModeScheduled, quote.Mode)
	assert.Equal(t, 180.0, quote.Price)
}

func TestClient_GetRate_ValidationBeforeNetwork(t *testing.T) {
	networkCalls := 0
	mockAPI := pedidosya.NewMockAPIClient()
	mockAPI.OnCheckCoverage = func(ctx context.Context, req *pedidosya.CoverageRequest) (*pedidosya.CoverageResponse, error) {
		networkCalls++
		return &pedidosya.CoverageResponse{Status: 200}, nil
	}
	mockAPI.OnGetEstimates = func(ctx context.Context, req *pedidosya.ShippingRequest) (*pedidosya.EstimateResponse, error) {
		networkCalls++
		return &pedidosya.EstimateResponse{}, nil
	}
	client := newTestClient(mockAPI)
	ctx := context.Background()

	noDropoff := testOrder()
	noDropoff.Dropoff = nil
	_, err := client.GetRate(ctx, noDropoff)
	reason, ok := courier.IsRateUnavailable(err)
	require.True(t, ok)
	assert.Equal(t, courier.ReasonNoShippingAddress, reason)

	noCoords := testOrder()
	noCoords.Dropoff.Latitude = 0
	noCoords.Dropoff.Longitude = 0
	_, err = client.GetRate(ctx, noCoords)
	reason, ok = courier.IsRateUnavailable(err)
	require.True(t, ok)
	assert.Equal(t, courier.ReasonMissingCoordinates, reason)

	noItems := testOrder()
	noItems.Items = nil
	_, err = client.GetRate(ctx, noItems)
	reason, ok = courier.IsRateUnavailable(err)
	require.True(t, ok)
	assert.Equal(t, courier.ReasonNoItems, reason)

	assert.Zero(t, networkCalls)
	assert.Zero(t, mockAPI.AuthCalls())
}

func TestClient_GetRate_NoCoverage(t *testing.T) {
	mockAPI := pedidosya.NewMockAPIClient()
	mockAPI.OnCheckCoverage = func(ctx context.Context, req *pedidosya.CoverageRequest) (*pedidosya.CoverageResponse, error) {
		return &pedidosya.CoverageResponse{Status: 404}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.GetRate(context.Background(), testOrder())

	reason, ok := courier.IsRateUnavailable(err)
	require.True(t, ok)
	assert.Equal(t, courier.ReasonNoCoverage, reason)
}

func TestClient_GetRate_UpstreamError(t *testing.T) {
	mockAPI := pedidosya.NewMockAPIClient()
	mockAPI.OnGetEstimates = func(ctx context.Context, req *pedidosya.ShippingRequest) (*pedidosya.EstimateResponse, error) {
		return nil, errors.New("503 service unavailable")
	}
	client := newTestClient(mockAPI)

	_, err := client.GetRate(context.Background(), testOrder())

	reason, ok := courier.IsRateUnavailable(err)
	require.True(t, ok)
	assert.Equal(t, courier.ReasonUpstreamError, reason)

	var rateErr *courier.RateUnavailableError
	require.ErrorAs(t, err, &rateErr)
	assert.Contains(t, rateErr.Cause.Error(), "503")
}

func TestClient_GetRate_NoOffers(t *testing.T) {
	mockAPI := pedidosya.NewMockAPIClient()
	mockAPI.OnGetEstimates = func(ctx context.Context, req *pedidosya.ShippingRequest) (*pedidosya.EstimateResponse, error) {
		return &pedidosya.EstimateResponse{}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.GetRate(context.Background(), testOrder())

	reason, ok := courier.IsRateUnavailable(err)
	require.True(t, ok)
	assert.Equal(t, courier.ReasonNoOffers, reason)
}

func TestClient_CreateShipment_Success(t *testing.T) {
	mockAPI := pedidosya.NewMockAPIClient()
	client := newTestClient(mockAPI)

	booking, err := client.CreateShipment(context.Background(), testOrder())

	require.NoError(t, err)
	assert.NotEmpty(t, booking.TrackingID)
	assert.NotEmpty(t, booking.ConfirmationCode)
	assert.Contains(t, booking.TrackingURL, booking.TrackingID)
	assert.Equal(t, 250.0, booking.Price)
}

func TestClient_CreateShipment_MissingShippingID(t *testing.T) {
	mockAPI := pedidosya.NewMockAPIClient()
	mockAPI.OnCreateShipping = func(ctx context.Context, req *pedidosya.ShippingRequest) (*pedidosya.ShippingResponse, error) {
		return &pedidosya.ShippingResponse{Message: "order rejected"}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.CreateShipment(context.Background(), testOrder())

	require.ErrorIs(t, err, courier.ErrBookingFailed)
	assert.Contains(t, err.Error(), "order rejected")
}

func TestClient_CreateShipment_ScheduledDeliveryTime(t *testing.T) {
	var captured *pedidosya.ShippingRequest
	mockAPI := pedidosya.NewMockAPIClient()
	mockAPI.OnCreateShipping = func(ctx context.Context, req *pedidosya.ShippingRequest) (*pedidosya.ShippingResponse, error) {
		captured = req
		return &pedidosya.ShippingResponse{ShippingID: "py-ship-1"}, nil
	}

	logger := otelzap.New(zap.NewNop())
	client := pedidosya.NewWithAPIClient(
		pedidosya.Config{
			Environment: courier.EnvTest,
			ServiceMode: courier.ModeScheduled,
		},
		mockAPI,
		logger,
		nil,
	)

	order := testOrder()
	at := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	order.ScheduledAt = &at

	_, err := client.CreateShipment(context.Background(), order)

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "2026-03-15 14:30:00", captured.DeliveryTime)
	assert.True(t, captured.IsTest)
}

func TestClient_CancelShipment_Success(t *testing.T) {
	var capturedReason string
	mockAPI := pedidosya.NewMockAPIClient()
	mockAPI.OnCancelShipping = func(ctx context.Context, shippingID, reasonText string) (*pedidosya.CancelResponse, error) {
		capturedReason = reasonText
		return &pedidosya.CancelResponse{Status: "CANCELLED"}, nil
	}
	client := newTestClient(mockAPI)

	err := client.CancelShipment(context.Background(), "py-ship-1", "")

	require.NoError(t, err)
	assert.Equal(t, "Canceled by merchant", capturedReason)
}

func TestClient_CancelShipment_NotCancelled(t *testing.T) {
	mockAPI := pedidosya.NewMockAPIClient()
	mockAPI.OnCancelShipping = func(ctx context.Context, shippingID, reasonText string) (*pedidosya.CancelResponse, error) {
		return &pedidosya.CancelResponse{Status: "IN_PROGRESS", Message: "rider already assigned"}, nil
	}
	client := newTestClient(mockAPI)

	err := client.CancelShipment(context.Background(), "py-ship-1", "changed my mind")

	require.ErrorIs(t, err, courier.ErrCancellationFailed)
	assert.Contains(t, err.Error(), "rider already assigned")
}

func TestClient_FetchLabels(t *testing.T) {
	mockAPI := pedidosya.NewMockAPIClient()
	client := newTestClient(mockAPI)
	ctx := context.Background()

	_, err := client.FetchLabels(ctx, nil)
	assert.ErrorIs(t, err, courier.ErrNoTrackingIDs)

	pdf, err := client.FetchLabels(ctx, []string{"py-ship-1", "py-ship-2"})
	require.NoError(t, err)
	assert.Contains(t, string(pdf), "%PDF")
}

func TestClient_PollStatus(t *testing.T) {
	mockAPI := pedidosya.NewMockAPIClient()
	client := newTestClient(mockAPI)
	ctx := context.Background()

	status, ok := client.PollStatus(ctx, "py-ship-1")
	require.True(t, ok)
	assert.Equal(t, courier.StatusWaiting, status)

	mockAPI.OnGetShipping = func(ctx context.Context, shippingID string) (*pedidosya.ShippingStatusResponse, error) {
		return &pedidosya.ShippingStatusResponse{ShippingID: shippingID, Status: "RIDER_ON_LUNCH"}, nil
	}
	_, ok = client.PollStatus(ctx, "py-ship-1")
	assert.False(t, ok)

	mockAPI.OnGetShipping = func(ctx context.Context, shippingID string) (*pedidosya.ShippingStatusResponse, error) {
		return nil, errors.New("timeout")
	}
	_, ok = client.PollStatus(ctx, "py-ship-1")
	assert.False(t, ok)
}

func TestClient_ConfigureWebhook_RequiresURL(t *testing.T) {
	mockAPI := pedidosya.NewMockAPIClient()
	client := newTestClient(mockAPI)

	err := client.ConfigureWebhook(context.Background(), courier.WebhookRegistration{Secret: "s3cret"})

	assert.ErrorIs(t, err, courier.ErrWebhookURLRequired)
}

func TestClient_WebhookConfig_RoundTrip(t *testing.T) {
	mockAPI := pedidosya.NewMockAPIClient()
	client := newTestClient(mockAPI)
	ctx := context.Background()

	reg, err := client.FetchWebhookConfig(ctx, true)
	require.NoError(t, err)
	assert.Nil(t, reg)

	err = client.ConfigureWebhook(ctx, courier.WebhookRegistration{
		URL:    "https://erp.example.com/pedidosya/webhook",
		Secret: "s3cret",
		IsTest: true,
	})
	require.NoError(t, err)

	reg, err = client.FetchWebhookConfig(ctx, true)
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Equal(t, "https://erp.example.com/pedidosya/webhook", reg.URL)
	assert.Equal(t, "s3cret", reg.Secret)
	assert.True(t, reg.IsTest)
}

func TestClient_Authenticate_Error(t *testing.T) {
	mockAPI := pedidosya.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI)

	_, _, err := client.Authenticate(context.Background())

	assert.ErrorIs(t, err, courier.ErrAuthenticationFailed)
}

func TestClient_Name(t *testing.T) {
	mockAPI := pedidosya.NewMockAPIClient()
	client := newTestClient(mockAPI)

	assert.Equal(t, "pedidosya", client.Name())
}
