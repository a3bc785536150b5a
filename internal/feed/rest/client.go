// Package rest consumes a northbound vendor-normalization API over HTTP.
package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	alarms "noc-console/internal/alarms/domain"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultRetries   = 3
	defaultRetryWait = 1 * time.Second
)

// Client fetches the current alarm set from a northbound REST endpoint.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient constructs a REST feed client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(defaultRetries).
		SetRetryWaitTime(defaultRetryWait).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{httpClient: httpClient, logger: logger}
}

type listResponse struct {
	Alarms []alarms.Alarm `json:"alarms"`
}

// Fetch implements feed.Source against GET /alarms.
func (c *Client) Fetch(ctx context.Context) ([]alarms.Alarm, error) {
	var response listResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&response).
		Get("/alarms")
	if err != nil {
		c.logger.Warn("alarm feed request failed", zap.Error(err))
		return nil, fmt.Errorf("rest feed: %w", err)
	}
	if resp.IsError() {
		c.logger.Warn("alarm feed returned error status",
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("rest feed: unexpected status %d", resp.StatusCode())
	}
	return response.Alarms, nil
}

// FetchRange implements feed.HistoricalSource against GET /alarms/history.
func (c *Client) FetchRange(ctx context.Context, start, end time.Time) ([]alarms.Alarm, error) {
	var response listResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("from", start.UTC().Format(time.RFC3339)).
		SetQueryParam("to", end.UTC().Format(time.RFC3339)).
		SetResult(&response).
		Get("/alarms/history")
	if err != nil {
		return nil, fmt.Errorf("rest feed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("rest feed: unexpected status %d", resp.StatusCode())
	}
	return response.Alarms, nil
}
