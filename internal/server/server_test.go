package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/internal/server"
	"github.com/tournevent/courier/internal/shipments"
	"github.com/tournevent/courier/internal/storage/memshipment"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/tournevent/courier/pkg/courier/pedidosya"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := otelzap.New(zap.NewNop())
	client := pedidosya.NewWithAPIClient(
		pedidosya.Config{Environment: courier.EnvTest, ServiceMode: courier.ModeExpress},
		pedidosya.NewMockAPIClient(),
		logger,
		nil,
	)

	registry := courier.NewRegistry()
	registry.Register(courier.CarrierConfig{
		Name:          "pedidosya",
		Environment:   courier.EnvTest,
		WebhookSecret: "s3cret",
	}, client)

	svc := shipments.New(registry, memshipment.New(), logger, nil)
	srv := server.New(server.Config{Port: 0}, registry, svc, logger, nil)
	return srv.Router()
}

const orderBody = `{
	"order": {
		"referenceId": "SO-1001",
		"pickup": {"street": "Av. Corrientes 1234", "city": "Buenos Aires", "latitude": -34.603722, "longitude": -58.381592},
		"dropoff": {"street": "Av. Santa Fe 4321", "city": "Buenos Aires", "latitude": -34.595986, "longitude": -58.402264},
		"items": [{"description": "Box of parts", "value": 1200, "quantity": 1}]
	}
}`

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestServer_Metrics(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Rate(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(router, http.MethodPost, "/shipments/rate", orderBody)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Available bool    `json:"available"`
		Mode      string  `json:"mode"`
		Price     float64 `json:"price"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Available)
	assert.Equal(t, "EXPRESS", resp.Mode)
	assert.Equal(t, 250.0, resp.Price)
}

func TestServer_Rate_Unavailable(t *testing.T) {
	router := newTestRouter(t)

	// Order without a dropoff cannot be rated, but that is not an error.
	body := `{"order": {"referenceId": "SO-1002", "items": [{"description": "Box", "quantity": 1}]}}`
	rec := doRequest(router, http.MethodPost, "/shipments/rate", body)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Available bool   `json:"available"`
		Reason    string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
	assert.Equal(t, "no shipping address", resp.Reason)
}

func TestServer_Rate_InvalidJSON(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(router, http.MethodPost, "/shipments/rate", `{broken`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_BookAndCancel(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(router, http.MethodPost, "/shipments", orderBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		TrackingID string `json:"trackingId"`
		Carrier    string `json:"carrier"`
		Status     string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TrackingID)
	assert.Equal(t, "pedidosya", resp.Carrier)
	assert.Equal(t, "waiting", resp.Status)

	rec = doRequest(router, http.MethodPost, "/shipments/"+resp.TrackingID+"/cancel",
		`{"reason": "customer changed plans"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Cancel_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(router, http.MethodPost, "/shipments/py-ship-unknown/cancel", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_UnknownCarrier(t *testing.T) {
	router := newTestRouter(t)

	body := `{"carrier": "nonexistent", "order": {"referenceId": "SO-1003"}}`
	rec := doRequest(router, http.MethodPost, "/shipments", body)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Labels(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/shipments/labels?ids=py-ship-1,py-ship-2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "%PDF")
}

func TestServer_Labels_NoIDs(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/shipments/labels", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Refresh(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(router, http.MethodPost, "/shipments", orderBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(router, http.MethodPost, "/shipments/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Refreshed int `json:"refreshed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Refreshed)
}

func TestServer_Webhook_Wired(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(router, http.MethodPost, "/shipments", orderBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var booked struct {
		TrackingID string `json:"trackingId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booked))

	req := httptest.NewRequest(http.MethodPost, "/pedidosya/webhook",
		strings.NewReader(`{"topic":"SHIPPING_STATUS","id":"`+booked.TrackingID+`","data":{"status":"PICKED_UP"}}`))
	req.Header.Set("Authorization", "s3cret")
	wrec := httptest.NewRecorder()
	router.ServeHTTP(wrec, req)

	assert.Equal(t, http.StatusOK, wrec.Code)
}
