package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reshiftsecurity/reshift-scanner/internal/config"
	"github.com/reshiftsecurity/reshift-scanner/internal/report"
)

func testConfig(endpoint string) *config.Config {
	return &config.Config{
		HTTPClient: config.HTTPClient{
			RetryCount:       2,
			RetryWaitTime:    time.Millisecond,
			RetryMaxWaitTime: 5 * time.Millisecond,
		},
		Upload: config.Upload{Endpoint: endpoint, Token: "secret-token"},
	}
}

func TestNewClientRequiresConfiguration(t *testing.T) {
	_, err := NewClient(&config.Config{}, hclog.NewNullLogger())
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClient(nil, hclog.NewNullLogger())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSubmit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		var got report.Bundle
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "scan-1", got.ScanID)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://reports.example.com/scan-1"}`))
	}))
	defer server.Close()

	c, err := NewClient(testConfig(server.URL), hclog.NewNullLogger())
	require.NoError(t, err)

	receipt, err := c.Submit(context.Background(), &report.Bundle{ScanID: "scan-1"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, receipt.StatusCode)
	assert.Equal(t, "scan-1", receipt.ScanID)
	assert.Equal(t, "https://reports.example.com/scan-1", receipt.URL)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSubmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer server.Close()

	c, err := NewClient(testConfig(server.URL), hclog.NewNullLogger())
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), &report.Bundle{ScanID: "scan-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid token")
}
