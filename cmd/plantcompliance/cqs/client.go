// Package cqs talks to the external safety-data source that auto-populates
// hazard attributes per material.
package cqs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/material-compliance-hub/material-compliance-hub/internal"
	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
)

const maxRetries = 3

// Client pulls per-material attribute sets over HTTP. Failures degrade: the
// caller decides between NoData and Failed, reads are never blocked.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a client for the given endpoint. The timeout bounds every
// pull including retries inside a single attempt.
func NewClient(baseURL string, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetAttributes fetches the attribute set for a material. A 404 answer means
// the source knows nothing about the material and yields an empty set without
// error. Transient failures are retried with exponential backoff.
func (c *Client) GetAttributes(ctx context.Context, materialCode string) (datamodel.CqsAttributeSet, error) {
	requestURL := fmt.Sprintf("%s/api/v1/materials/%s/attributes", c.baseURL, url.PathEscape(materialCode))

	var lastErr error
	for attempt := int64(0); attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			internal.SleepBackedOff(attempt, 100*time.Millisecond, 2*time.Second)
		}

		attributes, retryable, err := c.getAttributesOnce(ctx, requestURL)
		if err == nil {
			return attributes, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		zap.S().Warnf("CQS pull for %s failed (attempt %d): %s", internal.SanitizeString(materialCode), attempt+1, err)
	}

	return nil, lastErr
}

func (c *Client) getAttributesOnce(ctx context.Context, requestURL string) (attributes datamodel.CqsAttributeSet, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// material unknown to the source
		return datamodel.CqsAttributeSet{}, false, nil
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("CQS answered %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("CQS answered %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	err = json.Unmarshal(body, &attributes)
	if err != nil {
		return nil, false, fmt.Errorf("CQS answer not parseable: %w", err)
	}
	return attributes, false, nil
}
