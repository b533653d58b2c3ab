package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Identity schemes accepted by the identity directive.
const (
	IdentitySchemeV1     = "v1"
	IdentitySchemeLegacy = "legacy"
)

// ValidateConfig checks if the global configurations have valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML global config: http_client directive is invalid: %w", err)
	}
	if err := ValidateScanConfig(&cfg.Scan); err != nil {
		return fmt.Errorf("YAML global config: scan directive is invalid: %w", err)
	}
	if err := ValidateAnalyzerConfig(&cfg.Analyzer); err != nil {
		return fmt.Errorf("YAML global config: analyzer directive is invalid: %w", err)
	}
	if err := validateDuration(cfg.Audit.Timeout, "audit timeout", 1*time.Hour); err != nil {
		return fmt.Errorf("YAML global config: audit directive is invalid: %w", err)
	}
	if err := ValidateIdentityConfig(&cfg.Identity); err != nil {
		return fmt.Errorf("YAML global config: identity directive is invalid: %w", err)
	}
	if err := ValidateUploadConfig(&cfg.Upload); err != nil {
		return fmt.Errorf("YAML global config: upload directive is invalid: %w", err)
	}
	return nil
}

// ValidateScanConfig checks the file listing settings.
func ValidateScanConfig(scan *Scan) error {
	if scan.Concurrency < 0 || scan.Concurrency > 64 {
		return fmt.Errorf("concurrency must be between 0 and 64: %d", scan.Concurrency)
	}
	if scan.ASTMaxDepth < 0 {
		return fmt.Errorf("ast_max_depth cannot be negative: %d", scan.ASTMaxDepth)
	}
	for _, ext := range scan.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	return nil
}

// ValidateAnalyzerConfig checks the ESLint settings.
func ValidateAnalyzerConfig(analyzer *Analyzer) error {
	if analyzer.ChunkSize < 0 {
		return fmt.Errorf("chunk_size cannot be negative: %d", analyzer.ChunkSize)
	}
	if err := validateDuration(analyzer.Timeout, "timeout", 1*time.Hour); err != nil {
		return err
	}
	return validateDuration(analyzer.ParseTimeout, "parse_timeout", 5*time.Minute)
}

// ValidateIdentityConfig checks the identity scheme name.
func ValidateIdentityConfig(identity *Identity) error {
	switch identity.Scheme {
	case "", IdentitySchemeV1, IdentitySchemeLegacy:
		return nil
	default:
		return fmt.Errorf("unknown identity scheme %q", identity.Scheme)
	}
}

// ValidateUploadConfig checks the endpoint URL when one is configured.
func ValidateUploadConfig(upload *Upload) error {
	if upload.Endpoint == "" {
		return nil
	}
	u, err := url.Parse(upload.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must use http or https scheme: %q", upload.Endpoint)
	}
	return nil
}

// ValidateHTTPConfig checks if the HTTP configurations have valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"RetryMaxWaitTime": httpConfig.RetryMaxWaitTime,
		"RetryWaitTime":    httpConfig.RetryWaitTime,
		"Timeout":          httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 100*time.Second); err != nil {
			return err
		}
	}

	return validateProxy(&httpConfig.Proxy)
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %s: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%s duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if !strings.Contains(proxy.Host, "://") {
		proxy.Host = "http://" + proxy.Host
	}
	proxy.Host = strings.TrimRight(proxy.Host, "/")

	if _, err := url.Parse(proxy.Host); err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}

	if proxy.Port < 1 || proxy.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", proxy.Port)
	}
	return nil
}
