// Package ethos resolves social handles to credibility scores and review
// sentiment via the Ethos API. Score resolution is two-step: a userkey batch
// lookup yields a profile id, then the score endpoint is queried by id.
// A handle with no resolvable profile yields a nil score, not an error.
package ethos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/web3-frozen/defiboard/internal/cache"
	"github.com/web3-frozen/defiboard/internal/metrics"
)

const (
	defaultBaseURL = "https://api.ethos.network"

	scoreTTL    = 2 * time.Minute
	identityTTL = 30 * time.Minute
)

// Score is the credibility score and level for one handle.
type Score struct {
	Score float64 `json:"score"`
	Level string  `json:"level"`
}

// Review is one sentiment-labeled review.
type Review struct {
	Author    string `json:"author"`
	Sentiment string `json:"sentiment"` // negative | neutral | positive
	Comment   string `json:"comment"`
	CreatedAt int64  `json:"createdAt"`
}

// Distribution counts reviews per sentiment. It sums to the number of
// reviews fetched, which is bounded by the page limit, not the true total.
type Distribution struct {
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Positive int `json:"positive"`
}

// ReviewPage is one page of reviews plus the upstream total.
type ReviewPage struct {
	Reviews      []Review     `json:"reviews"`
	Total        int          `json:"total"`
	Distribution Distribution `json:"distribution"`
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	cache       *cache.Cache
	logger      *slog.Logger
	apiKey      string
	lazyLimiter *rate.Limiter
}

// New builds a client. The limiter guards the lazy per-handle path only;
// the bulk aggregation path issues lookups in parallel without it.
func New(c *cache.Cache, logger *slog.Logger, apiKey string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 3 * time.Second
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil
	return &Client{
		baseURL:     defaultBaseURL,
		httpClient:  rc.StandardClient(),
		cache:       c,
		logger:      logger,
		apiKey:      apiKey,
		lazyLimiter: rate.NewLimiter(rate.Limit(1), 1),
	}
}

func userkey(handle string) string {
	return "service:x.com:username:" + handle
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues("ethos").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("ethos", "error").Inc()
		return fmt.Errorf("ethos %s: %w", path, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequestsTotal.WithLabelValues("ethos", strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ethos %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type profileEntry struct {
	Userkey   string `json:"userkey"`
	ProfileID int64  `json:"profileId"`
}

// profileID resolves a handle to a profile id via the batch userkey
// endpoint, called with a single-element batch here. Returns 0 when the
// handle has no profile.
func (c *Client) profileID(ctx context.Context, handle string) (int64, error) {
	return cache.GetOrFetch(ctx, c.cache, "ethos:profile:"+handle, identityTTL, func(ctx context.Context) (int64, error) {
		var entries []profileEntry
		body := map[string][]string{"userkeys": {userkey(handle)}}
		if err := c.do(ctx, http.MethodPost, "/api/v2/profiles/userkeys", body, &entries); err != nil {
			return 0, err
		}
		for _, e := range entries {
			if e.Userkey == userkey(handle) {
				return e.ProfileID, nil
			}
		}
		return 0, nil
	})
}

// ScoreByHandle resolves a handle to its score and level. A handle without
// a resolvable profile returns (nil, nil); callers render that as score 0.
func (c *Client) ScoreByHandle(ctx context.Context, handle string) (*Score, error) {
	if handle == "" {
		return nil, nil
	}

	id, err := c.profileID(ctx, handle)
	if err != nil {
		metrics.ReputationLookupsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if id == 0 {
		metrics.ReputationLookupsTotal.WithLabelValues("unresolved").Inc()
		return nil, nil
	}

	s, err := cache.GetOrFetch(ctx, c.cache, "ethos:score:"+strconv.FormatInt(id, 10), scoreTTL, func(ctx context.Context) (Score, error) {
		var s Score
		err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v2/score/profile/%d", id), nil, &s)
		return s, err
	})
	if err != nil {
		metrics.ReputationLookupsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ReputationLookupsTotal.WithLabelValues("ok").Inc()
	return &s, nil
}

// ScoreByHandleThrottled is ScoreByHandle behind the shared token bucket.
// Used by the incremental display path so a burst of newly visible entities
// cannot exceed the upstream rate limit.
func (c *Client) ScoreByHandleThrottled(ctx context.Context, handle string) (*Score, error) {
	if err := c.lazyLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.ScoreByHandle(ctx, handle)
}
