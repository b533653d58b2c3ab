// Package upload submits scan reports to the reporting endpoint.
package upload

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/reshiftsecurity/reshift-scanner/internal/config"
	"github.com/reshiftsecurity/reshift-scanner/internal/httpclient"
	"github.com/reshiftsecurity/reshift-scanner/internal/report"
)

// ErrNotConfigured is returned when no endpoint or token is configured.
var ErrNotConfigured = errors.New("upload endpoint or token is not configured")

// Receipt is the endpoint's answer to a submitted report.
type Receipt struct {
	StatusCode int    `json:"-"`
	ScanID     string `json:"scan_id"`
	URL        string `json:"url"`
}

// Client posts reports with a bearer token.
type Client struct {
	logger   hclog.Logger
	http     *resty.Client
	endpoint string
	token    string
}

// NewClient creates a Client from the upload and http_client sections of cfg.
func NewClient(cfg *config.Config, logger hclog.Logger) (*Client, error) {
	if cfg == nil || cfg.Upload.Endpoint == "" || cfg.Upload.Token == "" {
		return nil, ErrNotConfigured
	}
	logger = logger.Named("upload")
	return &Client{
		logger:   logger,
		http:     httpclient.New(logger, cfg),
		endpoint: cfg.Upload.Endpoint,
		token:    cfg.Upload.Token,
	}, nil
}

// Submit posts b as JSON to the endpoint.
func (c *Client) Submit(ctx context.Context, b *report.Bundle) (*Receipt, error) {
	receipt := &Receipt{}
	c.logger.Info("uploading report", "endpoint", c.endpoint, "scan_id", b.ScanID)

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.token).
		SetHeader("Content-Type", "application/json").
		SetBody(b).
		SetResult(receipt).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to upload report: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to upload report: %s: %s", resp.Status(), resp.String())
	}

	receipt.StatusCode = resp.StatusCode()
	if receipt.ScanID == "" {
		receipt.ScanID = b.ScanID
	}
	c.logger.Info("report uploaded", "status", resp.StatusCode(), "url", receipt.URL)
	return receipt, nil
}
