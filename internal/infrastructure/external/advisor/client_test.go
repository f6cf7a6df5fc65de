package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	cfg := DefaultClientConfig(serverURL)
	cfg.Timeout = 2 * time.Second
	return NewClient(cfg)
}

func TestSuggest_Success(t *testing.T) {
	var gotBody SuggestRequestDTO
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/suggest", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(SuggestResponseDTO{Suggestion: "Spend more time on Physics"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	suggestion, err := client.Suggest(context.Background(), map[string]float64{
		"Physics":   60,
		"Chemistry": 90,
	})
	require.NoError(t, err)
	assert.Equal(t, "Spend more time on Physics", suggestion)
	assert.InDelta(t, 60, gotBody.Subjects["Physics"], 1e-9)
}

func TestSuggest_SendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(SuggestResponseDTO{Suggestion: "ok"})
	}))
	defer server.Close()

	cfg := DefaultClientConfig(server.URL)
	cfg.APIKey = "secret-key"
	client := NewClient(cfg)

	_, err := client.Suggest(context.Background(), map[string]float64{"Math": 80})
	require.NoError(t, err)
}

func TestSuggest_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(APIErrorDTO{Code: "SERVER_ERROR", Message: "try later"})
			return
		}
		json.NewEncoder(w).Encode(SuggestResponseDTO{Suggestion: "recovered"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	suggestion, err := client.Suggest(context.Background(), map[string]float64{"Math": 80})
	require.NoError(t, err)
	assert.Equal(t, "recovered", suggestion)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSuggest_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(APIErrorDTO{Code: "BAD_REQUEST", Message: "unknown subject"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Suggest(context.Background(), map[string]float64{"Math": 80})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown subject")
	assert.Equal(t, int32(1), calls.Load(), "4xx не ретраится")
}

func TestIsHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.True(t, client.IsHealthy(context.Background()))
}
