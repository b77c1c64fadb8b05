package provider

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const searchPath = "/search"

// Options parameterise the partner API client.
type Options struct {
	BaseURL      string
	APIKey       string
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	MinInterval  time.Duration
}

// Client issues authenticated requests against the seats.aero partner
// API, retrying transient failures and pacing calls to the configured
// minimum inter-request interval. Not safe for concurrent use against
// the same rate-limited endpoint; one poll cycle owns it at a time.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// NewClient constructs a partner API client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://seats.aero/partnerapi"
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.MinInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "provider_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		baseURL: baseURL,
	}
}

// Fetch performs one paced GET against the given API path and decodes
// the page. Network failures, 429 and 5xx responses are retried up to
// MaxRetries with exponential backoff and jitter; the exhausted result
// surfaces as *TransientError. Any other non-2xx response returns
// *ClientError immediately.
func (c *Client) Fetch(ctx context.Context, path string, query url.Values) (*Page, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, retryable, err := c.doRequest(ctx, endpoint)
		if err == nil {
			return page, nil
		}
		if !retryable {
			return nil, err
		}

		lastErr = err
		if attempt < c.opts.MaxRetries {
			delay := c.backoff(attempt)
			c.logger.Warn().Err(err).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("retrying provider request")
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	return nil, &TransientError{Op: path, Err: lastErr}
}

func (c *Client) doRequest(ctx context.Context, endpoint string) (page *Page, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, &ClientError{Message: err.Error()}
	}
	req.Header.Set("Partner-Authorization", c.opts.APIKey)
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "seatwatcher/1.0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		decoded, err := decodePage(payload)
		if err != nil {
			return nil, false, &ClientError{StatusCode: resp.StatusCode, Message: "decode response: " + err.Error()}
		}
		return decoded, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, parseAPIError(resp.StatusCode, payload)
	default:
		return nil, false, parseAPIError(resp.StatusCode, payload)
	}
}

func decodePage(payload []byte) (*Page, error) {
	var res searchResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, err
	}

	// Re-decode records individually so each Availability keeps its
	// opaque payload alongside the parsed fields.
	var rawItems []json.RawMessage
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil {
		rawItems = envelope.Data
	}

	page := &Page{
		Records: make([]Availability, 0, len(res.Data)),
		Count:   res.Count,
		HasMore: res.HasMore,
		Cursor:  res.Cursor,
	}
	for i, rec := range res.Data {
		var raw json.RawMessage
		if i < len(rawItems) {
			raw = rawItems[i]
		}
		page.Records = append(page.Records, rec.toAvailability(raw))
	}
	return page, nil
}

// backoff grows exponentially with jitter: base*2^attempt + [0, base).
func (c *Client) backoff(attempt int) time.Duration {
	base := c.opts.RetryBackoff
	delay := base << uint(attempt)
	return delay + rand.N(base)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
