package httpclient

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/reshiftsecurity/reshift-scanner/internal/config"
)

// HclogAdapter adapts an hclog.Logger to the resty.Logger interface.
type HclogAdapter struct {
	logger hclog.Logger
}

// NewHclogAdapter creates a new adapter that will forward messages to a hclog.Logger.
func NewHclogAdapter(logger hclog.Logger) resty.Logger {
	return &HclogAdapter{logger: logger}
}

// Errorf logs a message at error level.
func (a *HclogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

// Warnf logs a message at warning level.
func (a *HclogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, v...))
}

// Debugf logs a message at debug level.
func (a *HclogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, v...))
}

// New creates a resty client configured from the http_client section of cfg.
// Server errors are retried like transport errors.
func New(logger hclog.Logger, cfg *config.Config) *resty.Client {
	client := resty.New()
	if logger != nil {
		client.SetLogger(NewHclogAdapter(logger))
	}

	var httpConfig *config.HTTPClient
	if cfg != nil {
		httpConfig = &cfg.HTTPClient
	}
	settings := applyHTTPClientConfig(httpConfig)
	client.
		SetDebug(settings.Debug).
		SetRetryCount(settings.RetryCount).
		SetRetryWaitTime(settings.RetryWaitTime).
		SetRetryMaxWaitTime(settings.RetryMaxWaitTime).
		SetTimeout(settings.Timeout).
		SetTLSClientConfig(settings.TLS).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && r.StatusCode() >= 500
		})
	if settings.Proxy != "" {
		client.SetProxy(settings.Proxy)
	}

	return client
}

// applyHTTPClientConfig overlays the configured values on the defaults.
func applyHTTPClientConfig(httpConfig *config.HTTPClient) config.HTTPSettings {
	cfg := config.DefaultHTTPSettings()
	if httpConfig == nil {
		return cfg
	}

	cfg.Debug = config.GetBoolValue(httpConfig, "Debug", cfg.Debug)
	cfg.RetryCount = config.SetThen(httpConfig.RetryCount, cfg.RetryCount)
	cfg.RetryWaitTime = config.SetThen(httpConfig.RetryWaitTime, cfg.RetryWaitTime)
	cfg.RetryMaxWaitTime = config.SetThen(httpConfig.RetryMaxWaitTime, cfg.RetryMaxWaitTime)
	cfg.Timeout = config.SetThen(httpConfig.Timeout, cfg.Timeout)
	cfg.TLS.InsecureSkipVerify = !config.GetBoolValue(httpConfig.TLSClientConfig, "Verify", true)

	if httpConfig.Proxy.Host != "" && httpConfig.Proxy.Port != 0 {
		cfg.Proxy = fmt.Sprintf("%s:%d", httpConfig.Proxy.Host, httpConfig.Proxy.Port)
	}
	return cfg
}
