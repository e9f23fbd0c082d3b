// Package magiceden provides an HTTP client for the Magic Eden v2 API.
// The API is treated as an untrusted, rate-limited, occasionally malformed
// upstream: pagination tolerates mid-sequence failures by returning what
// was already accumulated.
package magiceden

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api-mainnet.magiceden.dev/v2"
	DefaultTimeout   = 30 * time.Second
	DefaultPageSize  = 500
	DefaultMaxPages  = 50
	DefaultPageDelay = 200 * time.Millisecond
)

// Client calls the Magic Eden v2 REST API.
type Client struct {
	baseURL   string
	client    *http.Client
	pageSize  int
	maxPages  int
	pageDelay time.Duration
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithPageSize sets the pagination page size.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		c.pageSize = n
	}
}

// WithPageDelay sets the delay inserted between successful page requests.
func WithPageDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.pageDelay = d
	}
}

// NewClient creates a new Magic Eden API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		client:    &http.Client{Timeout: DefaultTimeout},
		pageSize:  DefaultPageSize,
		maxPages:  DefaultMaxPages,
		pageDelay: DefaultPageDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CollectionActivities fetches activity records for a collection symbol,
// most-recent-first as returned by the API, up to limit records.
//
// Pages of pageSize are requested at increasing offsets until the source is
// exhausted (short page), limit is reached, or the page ceiling is hit. A
// short delay between successful pages respects the upstream rate limit.
//
// A page failure aborts further pagination. If at least one page was
// accumulated the partial result is returned without error; if no page ever
// succeeded the failure is propagated with its cause.
func (c *Client) CollectionActivities(ctx context.Context, symbol string, limit int) ([]*Activity, error) {
	var all []*Activity
	offset := 0

	for iteration := 0; iteration < c.maxPages; iteration++ {
		page, err := c.activitiesPage(ctx, fmt.Sprintf("collections/%s/activities", url.PathEscape(symbol)), offset, c.pageSize)
		if err != nil {
			if len(all) > 0 {
				return all, nil
			}
			return nil, fmt.Errorf("fetch activities for %s: %w", symbol, err)
		}

		if len(page) == 0 {
			break
		}
		all = append(all, page...)

		// Short page means the source is exhausted.
		if len(page) < c.pageSize || len(all) >= limit {
			break
		}
		offset += len(page)

		select {
		case <-ctx.Done():
			return all, nil
		case <-time.After(c.pageDelay):
		}
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// WalletActivities fetches activity records for a wallet address in a
// single request, up to limit records.
func (c *Client) WalletActivities(ctx context.Context, address string, limit int) ([]*Activity, error) {
	page, err := c.activitiesPage(ctx, fmt.Sprintf("wallets/%s/activities", url.PathEscape(address)), 0, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch wallet activities for %s: %w", address, err)
	}
	return page, nil
}

// activitiesPage requests a single page of activities.
func (c *Client) activitiesPage(ctx context.Context, path string, offset, limit int) ([]*Activity, error) {
	u := fmt.Sprintf("%s/%s?offset=%d&limit=%d", c.baseURL, path, offset, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page at offset %d: %w", offset, err)
	}
	defer resp.Body.Close()

	// Status >= 400 is a hard page failure, never silently skipped.
	if resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API error %d at offset %d", resp.StatusCode, offset)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read page body at offset %d: %w", offset, err)
	}

	var page []*Activity
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode page at offset %d: %w", offset, err)
	}
	return page, nil
}
