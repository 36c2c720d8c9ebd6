// Package pricing resolves historical ALGO/USD prices.
package pricing

import (
	"bytes"
	"context"
	"encoding/json"
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
	DefaultBaseURL = "https://min-api.cryptocompare.com"
	DefaultTimeout = 15 * time.Second
	DefaultSymbol  = "ALGO"
	DefaultQuote   = "USD"
)

// QuoteStatus classifies a decoded price response.
type QuoteStatus int

const (
	// QuoteOK carries a usable price.
	QuoteOK QuoteStatus = iota
	// QuoteMissing means the response had no price for the pair,
	// or the upstream answered with a non-success status.
	QuoteMissing
	// QuoteMalformed means the body was not JSON or the price was not a number.
	QuoteMalformed
)

func (s QuoteStatus) String() string {
	switch s {
	case QuoteOK:
		return "ok"
	case QuoteMissing:
		return "missing"
	case QuoteMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Quote is one historical price answer.
type Quote struct {
	Price  float64
	Status QuoteStatus
}

// Source returns the price at a unix timestamp.
// A transport failure is returned as an error; a decodable answer that carries
// no price is a Quote with a non-OK status.
type Source interface {
	HistoricalUSD(ctx context.Context, ts int64) (Quote, error)
}

// Client queries the CryptoCompare pricehistorical endpoint.
type Client struct {
	baseURL string
	apiKey  string
	symbol  string
	quote   string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithAPIKey sends the key as an Apikey authorization header.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// NewClient creates a price client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		symbol:  DefaultSymbol,
		quote:   DefaultQuote,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HistoricalUSD fetches the close price at ts (unix seconds).
func (c *Client) HistoricalUSD(ctx context.Context, ts int64) (Quote, error) {
	params := url.Values{}
	params.Set("fsym", c.symbol)
	params.Set("tsyms", c.quote)
	params.Set("ts", strconv.FormatInt(ts, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/pricehistorical?"+params.Encode(), nil)
	if err != nil {
		return Quote{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("authorization", "Apikey "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	observability.RecordUpstreamLatency("price", time.Since(start).Seconds())
	if err != nil {
		return Quote{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Quote{Status: QuoteMissing}, nil
	}
	return decodeQuote(body, c.symbol, c.quote), nil
}

// decodeQuote extracts body[symbol][quote] as a number.
func decodeQuote(body []byte, symbol, quote string) Quote {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return Quote{Status: QuoteMalformed}
	}
	rawPair, ok := top[symbol]
	if !ok {
		return Quote{Status: QuoteMissing}
	}

	var pair map[string]json.RawMessage
	if err := json.Unmarshal(rawPair, &pair); err != nil {
		return Quote{Status: QuoteMalformed}
	}
	rawPrice, ok := pair[quote]
	if !ok {
		return Quote{Status: QuoteMissing}
	}

	dec := json.NewDecoder(bytes.NewReader(rawPrice))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Quote{Status: QuoteMalformed}
	}
	n, ok := v.(json.Number)
	if !ok {
		return Quote{Status: QuoteMalformed}
	}
	price, err := n.Float64()
	if err != nil {
		return Quote{Status: QuoteMalformed}
	}
	return Quote{Price: price, Status: QuoteOK}
}

var _ Source = (*Client)(nil)
