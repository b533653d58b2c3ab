package config

import (
	"crypto/tls"
	"time"
)

// Defaults used when the corresponding directive is not set.
const (
	DefaultESLintPath   = "eslint"
	DefaultNpmPath      = "npm"
	DefaultChunkSize    = 50
	DefaultConcurrency  = 4
	DefaultASTMaxDepth  = 256
	DefaultAuditTimeout = 5 * time.Minute
	DefaultLintTimeout  = 10 * time.Minute
	DefaultParseTimeout = 10 * time.Second
)

// DefaultIgnore lists paths that are never part of the file listing.
var DefaultIgnore = []string{"**/node_modules/**", "**/.git/**"}

// DefaultExtensions lists the source file extensions that are analysed.
var DefaultExtensions = []string{".js"}

// HTTPSettings is the resolved configuration of the upload HTTP client.
type HTTPSettings struct {
	Debug            bool
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	Timeout          time.Duration
	TLS              *tls.Config
	Proxy            string
}

// DefaultHTTPSettings returns the settings used for unset http_client directives.
func DefaultHTTPSettings() HTTPSettings {
	return HTTPSettings{
		RetryCount:       3,
		RetryWaitTime:    time.Second,
		RetryMaxWaitTime: 5 * time.Second,
		Timeout:          60 * time.Second,
		TLS:              &tls.Config{MinVersion: tls.VersionTLS12},
	}
}
