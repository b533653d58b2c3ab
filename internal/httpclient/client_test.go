package httpclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/reshiftsecurity/reshift-scanner/internal/config"
)

func TestApplyHTTPClientConfig(t *testing.T) {
	defaults := config.DefaultHTTPSettings()
	verify := false

	tests := []struct {
		name   string
		input  *config.HTTPClient
		assert func(t *testing.T, got config.HTTPSettings)
	}{
		{
			name:  "nil uses defaults",
			input: nil,
			assert: func(t *testing.T, got config.HTTPSettings) {
				assert.Equal(t, defaults.RetryCount, got.RetryCount)
				assert.Equal(t, defaults.Timeout, got.Timeout)
				assert.False(t, got.TLS.InsecureSkipVerify)
				assert.Empty(t, got.Proxy)
			},
		},
		{
			name: "overrides",
			input: &config.HTTPClient{
				RetryCount:      7,
				Timeout:         5 * time.Second,
				TLSClientConfig: config.TLSClientConfig{Verify: &verify},
				Proxy:           config.Proxy{Host: "proxy.local", Port: 3128},
			},
			assert: func(t *testing.T, got config.HTTPSettings) {
				assert.Equal(t, 7, got.RetryCount)
				assert.Equal(t, 5*time.Second, got.Timeout)
				assert.Equal(t, defaults.RetryWaitTime, got.RetryWaitTime)
				assert.True(t, got.TLS.InsecureSkipVerify)
				assert.Equal(t, "proxy.local:3128", got.Proxy)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.assert(t, applyHTTPClientConfig(tt.input))
		})
	}
}
