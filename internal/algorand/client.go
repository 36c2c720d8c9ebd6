package algorand

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"algo-payout-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultIndexerURL  = "https://mainnet-idx.algonode.cloud"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 2
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0

	maxErrorBody = 512
)

// HTTPClient implements Indexer over the indexer REST API.
//
// Only transport failures (no HTTP response) are retried. Any HTTP status
// other than 2xx is final and surfaces as *SourceFetchError.
type HTTPClient struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets the number of retries after a transport failure.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new indexer client. baseURL is the indexer root,
// e.g. https://mainnet-idx.algonode.cloud.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultIndexerURL
	}
	c := &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchPayments fetches one page of pay transactions.
func (c *HTTPClient) SearchPayments(ctx context.Context, q PaymentQuery) (*PaymentPage, error) {
	if q.Address == "" {
		return nil, errors.New("search payments: empty address")
	}

	params := url.Values{}
	params.Set("tx-type", "pay")
	params.Set("address", q.Address)
	role := q.Role
	if role == "" {
		role = RoleSender
	}
	params.Set("address-role", role)
	if !q.After.IsZero() {
		params.Set("after-time", q.After.UTC().Format(time.RFC3339))
	}
	if !q.Before.IsZero() {
		params.Set("before-time", q.Before.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Next != "" {
		params.Set("next", q.Next)
	}

	var resp searchResponse
	if err := c.get(ctx, "/v2/transactions?"+params.Encode(), &resp); err != nil {
		var sfe *SourceFetchError
		if errors.As(err, &sfe) {
			sfe.Account = q.Address
		}
		return nil, err
	}

	return &PaymentPage{
		Transactions: resp.Transactions,
		NextToken:    resp.NextToken,
	}, nil
}

// get performs a GET with transport-level retries and exponential backoff.
func (c *HTTPClient) get(ctx context.Context, path string, result any) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.client.Do(req)
		observability.RecordUpstreamLatency("indexer", time.Since(start).Seconds())
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &SourceFetchError{Status: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Indexer = (*HTTPClient)(nil)
