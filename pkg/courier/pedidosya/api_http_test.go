package pedidosya_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/pkg/courier/pedidosya"
)

func TestHTTPAPIClient_TokenReuse(t *testing.T) {
	authCalls := 0
	var seenAuth []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/authentication/token":
			authCalls++
			json.NewEncoder(w).Encode(pedidosya.AuthResponse{AccessToken: "tok-123"})
		case "/v3/estimates/coverage":
			seenAuth = append(seenAuth, r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(pedidosya.CoverageResponse{Status: 200})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := pedidosya.NewHTTPAPIClient(pedidosya.HTTPAPIClientConfig{
		BaseURL:   srv.URL,
		APIKey:    "key",
		APISecret: "secret",
	})

	ctx := context.Background()
	req := &pedidosya.CoverageRequest{}

	_, err := client.CheckCoverage(ctx, req)
	require.NoError(t, err)
	_, err = client.CheckCoverage(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 1, authCalls, "token should be cached across requests")
	// The API expects the raw token, no Bearer prefix.
	require.Len(t, seenAuth, 2)
	assert.Equal(t, "tok-123", seenAuth[0])
	assert.Equal(t, "tok-123", seenAuth[1])
}

func TestHTTPAPIClient_Authenticate_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"code": "UNAUTHORIZED", "message": "bad credentials"})
	}))
	defer srv.Close()

	client := pedidosya.NewHTTPAPIClient(pedidosya.HTTPAPIClientConfig{
		BaseURL:   srv.URL,
		APIKey:    "key",
		APISecret: "wrong",
	})

	_, _, err := client.Authenticate(context.Background())

	require.Error(t, err)
	var apiErr *pedidosya.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
}

func TestHTTPAPIClient_ParseError_PlainMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v3/authentication/token" {
			json.NewEncoder(w).Encode(pedidosya.AuthResponse{AccessToken: "tok-123"})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "waypoints out of range"})
	}))
	defer srv.Close()

	client := pedidosya.NewHTTPAPIClient(pedidosya.HTTPAPIClientConfig{
		BaseURL: srv.URL,
	})

	_, err := client.GetEstimates(context.Background(), &pedidosya.ShippingRequest{})

	require.Error(t, err)
	var apiErr *pedidosya.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "HTTP_400", apiErr.Code)
	assert.Equal(t, "waypoints out of range", apiErr.Message)
}
