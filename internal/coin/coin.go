// Package coin looks up coin metadata (social handle, logo) by coin id.
// Chains carry no social handle in the registry, so their handles come from
// here. The upstream is aggressively rate limited; all calls share a token
// bucket and callers keep a fixed per-request budget.
package coin

import (
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
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	metadataTTL    = 30 * time.Minute

	// LookupBudget caps how many uncached coin lookups one aggregation
	// pass may issue.
	LookupBudget = 10
)

// Coin is the subset of coin metadata the board needs.
type Coin struct {
	ID      string `json:"id"`
	Handle  string `json:"handle"`
	LogoURL string `json:"logoUrl"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
	logger     *slog.Logger
	apiKey     string
	limiter    *rate.Limiter
}

func New(c *cache.Cache, logger *slog.Logger, apiKey string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 1
	rc.RetryWaitMin = 2 * time.Second
	rc.RetryWaitMax = 10 * time.Second
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: rc.StandardClient(),
		cache:      c,
		logger:     logger,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

type coinResponse struct {
	ID    string `json:"id"`
	Links struct {
		TwitterScreenName string `json:"twitter_screen_name"`
	} `json:"links"`
	Image struct {
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"image"`
}

// Lookup resolves one coin id. Cached results bypass the limiter, so the
// budget only burns on genuinely new ids.
func (c *Client) Lookup(ctx context.Context, id string) (*Coin, error) {
	if id == "" {
		return nil, nil
	}
	coin, err := cache.GetOrFetch(ctx, c.cache, "coin:"+id, metadataTTL, func(ctx context.Context) (Coin, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return Coin{}, err
		}
		return c.fetch(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &coin, nil
}

func (c *Client) fetch(ctx context.Context, id string) (Coin, error) {
	url := fmt.Sprintf("%s/coins/%s?localization=false&tickers=false&market_data=false", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Coin{}, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues("coin").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("coin", "error").Inc()
		return Coin{}, fmt.Errorf("coin %s: %w", id, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequestsTotal.WithLabelValues("coin", strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		return Coin{}, fmt.Errorf("coin %s: status %d", id, resp.StatusCode)
	}

	var body coinResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Coin{}, fmt.Errorf("decode coin %s: %w", id, err)
	}

	logo := body.Image.Small
	if logo == "" {
		logo = body.Image.Large
	}
	return Coin{ID: body.ID, Handle: body.Links.TwitterScreenName, LogoURL: logo}, nil
}
