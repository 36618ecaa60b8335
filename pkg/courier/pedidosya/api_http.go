package pedidosya

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenTTL is how long an issued bearer token stays valid. The API does not
// report an expiry, tokens last an hour.
const tokenTTL = time.Hour

// HTTPAPIClient is the production implementation of APIClient using HTTP.
// It caches the bearer token and refreshes it lazily on expiry; a stale
// token merely costs one extra authentication round-trip.
type HTTPAPIClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Authenticate returns a valid bearer token, reusing the cached one while it
// has not expired. POST /v3/authentication/token
func (c *HTTPAPIClient) Authenticate(ctx context.Context) (string, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.token != "" && c.tokenExpiry.After(now) {
		return c.token, c.tokenExpiry, nil
	}

	body, err := json.Marshal(AuthRequest{APIKey: c.apiKey, APISecret: c.apiSecret})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v3/authentication/token", bytes.NewReader(body))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, &APIError{Code: "AUTH_FAILED", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, c.parseError(resp)
	}

	var auth AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode auth response: %w", err)
	}
	if auth.AccessToken == "" {
		return "", time.Time{}, &APIError{Code: "AUTH_FAILED", Message: "empty access token in response"}
	}

	c.token = auth.AccessToken
	c.tokenExpiry = now.Add(tokenTTL)
	return c.token, c.tokenExpiry, nil
}

// CheckCoverage asks whether a route is serviceable.
// POST /v3/estimates/coverage
func (c *HTTPAPIClient) CheckCoverage(ctx context.Context, req *CoverageRequest) (*CoverageResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v3/estimates/coverage", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result CoverageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode coverage response: %w", err)
	}
	return &result, nil
}

// GetEstimates requests delivery offers for an order.
// POST /v3/shippings/estimates
func (c *HTTPAPIClient) GetEstimates(ctx context.Context, req *ShippingRequest) (*EstimateResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v3/shippings/estimates", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result EstimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode estimate response: %w", err)
	}
	return &result, nil
}

// CreateShipping books a shipment.
// POST /v3/shippings
func (c *HTTPAPIClient) CreateShipping(ctx context.Context, req *ShippingRequest) (*ShippingResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v3/shippings", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var result ShippingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode shipping response: %w", err)
	}
	return &result, nil
}

// CancelShipping cancels a booked shipment.
// POST /v3/shippings/{id}/cancel
func (c *HTTPAPIClient) CancelShipping(ctx context.Context, shippingID, reasonText string) (*CancelResponse, error) {
	path := fmt.Sprintf("/v3/shippings/%s/cancel", url.PathEscape(shippingID))

	resp, err := c.doRequest(ctx, http.MethodPost, path, &CancelRequest{ReasonText: reasonText})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result CancelResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode cancel response: %w", err)
	}
	return &result, nil
}

// GetShipping fetches current shipment details.
// GET /v3/shippings/{id}
func (c *HTTPAPIClient) GetShipping(ctx context.Context, shippingID string) (*ShippingStatusResponse, error) {
	path := fmt.Sprintf("/v3/shippings/%s", url.PathEscape(shippingID))

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result ShippingStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode shipping status response: %w", err)
	}
	if result.ShippingID == "" {
		result.ShippingID = shippingID
	}
	return &result, nil
}

// GetLabels fetches a combined PDF with labels for the given shipments.
// GET /v3/shippings/labels?values=id1,id2
func (c *HTTPAPIClient) GetLabels(ctx context.Context, shippingIDs []string) ([]byte, error) {
	path := "/v3/shippings/labels?values=" + url.QueryEscape(strings.Join(shippingIDs, ","))

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read label response: %w", err)
	}
	return pdf, nil
}

// PutWebhookConfig upserts the webhook registration.
// PUT /v3/webhooks-configuration
func (c *HTTPAPIClient) PutWebhookConfig(ctx context.Context, req *WebhookConfigPayload) error {
	resp, err := c.doRequest(ctx, http.MethodPut, "/v3/webhooks-configuration", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.parseError(resp)
	}
	return nil
}

// GetWebhookConfig reads the webhook registration.
// GET /v3/webhooks-configuration?isTest=
func (c *HTTPAPIClient) GetWebhookConfig(ctx context.Context, isTest bool) (*WebhookConfigPayload, error) {
	path := fmt.Sprintf("/v3/webhooks-configuration?isTest=%t", isTest)

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result WebhookConfigPayload
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode webhook config response: %w", err)
	}
	return &result, nil
}

// doRequest performs an authenticated HTTP request with proper headers.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	token, _, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", token) // PedidosYa expects the raw token
	req.Header.Set("User-Agent", "tournevent-courier/1.0")

	return c.httpClient.Do(req)
}

// parseError extracts error information from an HTTP response.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		return &apiErr
	}

	// Try to parse as a simple error message
	var simpleErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &simpleErr); err == nil {
		msg := simpleErr.Error
		if msg == "" {
			msg = simpleErr.Message
		}
		if msg != "" {
			return &APIError{
				Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
				Message: msg,
			}
		}
	}

	return &APIError{
		Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Message: string(body),
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
