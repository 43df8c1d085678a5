package coinlore

import (
	"context"
	"fmt"
	"time"

	"cryptoview/internal/config"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ExchangeURL returns the detail endpoint path for one source id.
func ExchangeURL(sourceID string) string {
	return fmt.Sprintf("/exchange/?id=%s", sourceID)
}

// ExchangesURL returns the listing endpoint path for all sources.
func ExchangesURL() string {
	return "/exchanges/"
}

// Fetcher is the fetch-by-URL capability the ingestion pipeline consumes.
// The boolean reports whether the response carried a success status.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (ok bool, body []byte, err error)
}

// Client is the ingestion-side HTTP client for the exchange listing API.
// It implements Fetcher.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ Fetcher = (*Client)(nil)

// NewClient creates a new API client with the main ingestion timeout.
func NewClient(cfg *config.API, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSec) * time.Second)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// Fetch performs a single GET against the given path. It never retries: a
// fetch in flight that gets superseded is simply discarded by the caller.
func (c *Client) Fetch(ctx context.Context, url string) (bool, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	c.logger.Debug("Executing request", zap.String("url", c.client.BaseURL+url))
	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return false, nil, fmt.Errorf("request failed: %w", err)
	}

	return !resp.IsError(), resp.Body(), nil
}
