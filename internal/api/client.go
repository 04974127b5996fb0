// Package api provides the HTTP client for the Claude usage limits API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/j-veylop/claudewatch/internal/logger"
	"github.com/j-veylop/claudewatch/internal/models"
	"github.com/j-veylop/claudewatch/internal/version"
)

const (
	usagePath     = "/api/oauth/usage"
	anthropicBeta = "oauth-2025-04-20"

	requestTimeout = 30 * time.Second
)

// Client fetches usage limits from the Anthropic OAuth usage API.
type Client struct {
	httpClient *http.Client
	usageURL   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. Tests use this
// to inject a mock transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a usage API client for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, baseURL)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		usageURL:   u.JoinPath(usagePath).String(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// errorBody is the best-effort shape of an API error response.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// FetchUsage performs one usage fetch with the given access token.
func (c *Client) FetchUsage(ctx context.Context, token string) (*UsageResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.usageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create usage request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("anthropic-beta", anthropicBeta)
	req.Header.Set("User-Agent", "claudewatch/"+version.Short())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		httpErr := &HTTPError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			httpErr.Message = eb.Error.Message
		}
		return nil, httpErr
	}

	var usage UsageResponse
	if err := json.Unmarshal(body, &usage); err != nil {
		return nil, &DecodeError{Err: err}
	}

	return &usage, nil
}

// Validate reports whether the token can fetch usage at all. It is
// used for ad-hoc token checks and touches no cached state.
func (c *Client) Validate(ctx context.Context, token string) bool {
	_, err := c.FetchUsage(ctx, token)
	return err == nil
}

// Bucket is one quota window as reported on the wire. Utilization is a
// 0-100 percentage; ResetsAt is an ISO-8601 timestamp, with or without
// sub-second precision.
type Bucket struct {
	Utilization float64 `json:"utilization"`
	ResetsAt    string  `json:"resets_at"`
}

// ResetTime parses the resets_at string, or returns nil when absent or
// unparsable.
func (b *Bucket) ResetTime() *time.Time {
	if b == nil || b.ResetsAt == "" {
		return nil
	}
	// RFC3339 covers both accepted formats; fractional seconds are
	// tolerated by the parser.
	t, err := time.Parse(time.RFC3339, b.ResetsAt)
	if err != nil {
		logger.Warn("unparsable resets_at", "value", b.ResetsAt, "error", err)
		return nil
	}
	return &t
}

// UsageResponse is the full usage API response. Every bucket is
// optional; absent buckets decode to nil.
type UsageResponse struct {
	FiveHour          *Bucket `json:"five_hour"`
	SevenDay          *Bucket `json:"seven_day"`
	SevenDaySonnet    *Bucket `json:"seven_day_sonnet"`
	SevenDayOpus      *Bucket `json:"seven_day_opus"`
	SevenDayOAuthApps *Bucket `json:"seven_day_oauth_apps"`
}

// bucketSpec fixes the wire keys that map to domain limits, in output
// order. Model-specific buckets are suppressed when they carry neither
// utilization nor a reset time.
var bucketSpecs = []struct {
	id            string
	title         string
	modelSpecific bool
	get           func(*UsageResponse) *Bucket
}{
	{"five_hour", "Current session", false, func(r *UsageResponse) *Bucket { return r.FiveHour }},
	{"seven_day", "Weekly (all models)", false, func(r *UsageResponse) *Bucket { return r.SevenDay }},
	{"seven_day_sonnet", "Weekly (Sonnet)", true, func(r *UsageResponse) *Bucket { return r.SevenDaySonnet }},
	{"seven_day_opus", "Weekly (Opus)", true, func(r *UsageResponse) *Bucket { return r.SevenDayOpus }},
}

// Limits maps the wire response to domain usage limits. Only buckets
// present in the response produce entries; order is fixed regardless
// of response field order.
func (r *UsageResponse) Limits() []models.UsageLimit {
	var limits []models.UsageLimit
	for _, spec := range bucketSpecs {
		b := spec.get(r)
		if b == nil {
			continue
		}
		reset := b.ResetTime()
		if spec.modelSpecific && b.Utilization == 0 && reset == nil {
			continue
		}
		limits = append(limits, models.UsageLimit{
			ID:          spec.id,
			Title:       spec.title,
			Utilization: b.Utilization / 100.0,
			ResetsAt:    reset,
		})
	}
	return limits
}
