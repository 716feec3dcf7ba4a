package debate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is wrapped into the error returned by Search once every
// rate-limit retry has been spent.
var ErrRateLimited = errors.New("aggregator rate limited")

// StatusError is a non-success, non-429 aggregator response. Callers can tell
// a failed request apart from a window that genuinely held no posts.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("aggregator returned status %d: %s", e.StatusCode, e.Body)
}

// SearchRequest is the aggregator's wire payload.
type SearchRequest struct {
	Query        string `json:"query"`
	Sort         string `json:"sort"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Lang         string `json:"lang"`
	Verified     bool   `json:"verified"`
	BlueVerified bool   `json:"blue_verified"`
	IsQuote      bool   `json:"is_quote"`
	IsVideo      bool   `json:"is_video"`
	IsImage      bool   `json:"is_image"`
	MinLikes     int    `json:"min_likes,omitempty"`
}

// searchResponse accepts both the canonical `results` envelope and the legacy
// `data` envelope with its older field names.
type searchResponse struct {
	Results []Post       `json:"results"`
	Data    []legacyPost `json:"data"`
}

// ClientConfig configures an aggregator Client. Zero values fall back to the
// defaults documented per field.
type ClientConfig struct {
	// URL is the aggregator search endpoint.
	URL string

	// Token is sent verbatim in the Authorization header.
	Token string

	// Sort and Lang are forwarded in every payload (defaults "Top" and "en").
	Sort string
	Lang string

	// Window is the trailing query window (default DefaultWindow).
	Window time.Duration

	// Timeout bounds each HTTP request (default 30s).
	Timeout time.Duration

	// MaxAttempts bounds how often a rate-limited request is retried before
	// ErrRateLimited is surfaced (default 4, counting the first attempt).
	MaxAttempts int

	// RetryBaseDelay is the wait before the first retry; it doubles per
	// attempt (default 60s).
	RetryBaseDelay time.Duration

	// RequestsPerSecond and Burst feed the client-side throttle
	// (defaults 5 and 5).
	RequestsPerSecond float64
	Burst             int
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.Sort == "" {
		c.Sort = "Top"
	}
	if c.Lang == "" {
		c.Lang = "en"
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 4
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 60 * time.Second
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 5
	}
	if c.Burst <= 0 {
		c.Burst = 5
	}
	return c
}

// Client issues search requests against the aggregator. The same client serves
// both "recent posts by account" and "popular replies to a post" queries; only
// the payload differs.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter

	// sleep is swapped out in tests so retry backoff does not wall-clock wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client from cfg, applying defaults for zero fields.
func NewClient(cfg ClientConfig) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		sleep:      sleepContext,
	}
}

// SearchRecentPosts fetches the account's original posts from the trailing
// window ending at now.
func (c *Client) SearchRecentPosts(ctx context.Context, account string, now time.Time) ([]Post, error) {
	q := RecentPostsQuery(account, now, c.cfg.Window)
	return c.Search(ctx, c.payload(q))
}

// SearchPopularReplies fetches replies to parent from the trailing window
// ending at now that meet the reply-likes threshold derived from the parent's
// like count.
func (c *Client) SearchPopularReplies(ctx context.Context, parent Post, now time.Time) ([]Post, error) {
	if parent.ID == "" {
		return nil, errors.New("SearchPopularReplies: parent post has no id")
	}
	q := PopularRepliesQuery(parent.ID, ReplyLikesThreshold(parent.LikeCount), now, c.cfg.Window)
	return c.Search(ctx, c.payload(q))
}

func (c *Client) payload(q Query) SearchRequest {
	return SearchRequest{
		Query:     q.Text,
		Sort:      c.cfg.Sort,
		StartDate: q.Start.Format(time.RFC3339),
		EndDate:   q.End.Format(time.RFC3339),
		Lang:      c.cfg.Lang,
		MinLikes:  q.MinLikes,
	}
}

// Search posts req and decodes the returned post list. A 429 is retried with
// an identical payload and exponential backoff until MaxAttempts is spent;
// any other non-200 status becomes a *StatusError.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Post, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("Search: marshal request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}

		posts, err := c.once(ctx, body)
		if err == nil {
			return posts, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return nil, fmt.Errorf("Search: %w", err)
		}
		if attempt >= c.cfg.MaxAttempts-1 {
			return nil, fmt.Errorf("Search: %d attempts spent: %w", c.cfg.MaxAttempts, err)
		}
		if err := c.sleep(ctx, c.cfg.RetryBaseDelay<<attempt); err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
	}
}

func (c *Client) once(ctx context.Context, body []byte) ([]Post, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.cfg.Token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Results != nil {
		return out.Results, nil
	}
	posts := make([]Post, 0, len(out.Data))
	for _, lp := range out.Data {
		posts = append(posts, lp.canonical())
	}
	return posts, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
