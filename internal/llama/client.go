// Package llama fetches protocol, chain and category-overview datasets from
// the public DefiLlama APIs. Every fetch goes through the shared TTL cache;
// callers that aggregate across datasets convert errors to empty results at
// the fan-out boundary.
package llama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/web3-frozen/defiboard/internal/cache"
	"github.com/web3-frozen/defiboard/internal/metrics"
)

const (
	defaultBaseURL        = "https://api.llama.fi"
	defaultStablecoinsURL = "https://stablecoins.llama.fi"

	registryTTL = 2 * time.Minute
)

// OverviewKind selects a category-overview dataset.
type OverviewKind string

const (
	OverviewDexs        OverviewKind = "dexs"
	OverviewDerivatives OverviewKind = "derivatives"
	OverviewFees        OverviewKind = "fees"
	OverviewOptions     OverviewKind = "options"
)

// Protocol is one registry entry from the list-all-protocols endpoint.
type Protocol struct {
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Category string  `json:"category"`
	TVL      float64 `json:"tvl"`
	Logo     string  `json:"logo"`
	Twitter  string  `json:"twitter"`
}

// Chain is one entry from the chain list endpoint.
type Chain struct {
	Name        string  `json:"name"`
	TVL         float64 `json:"tvl"`
	GeckoID     string  `json:"gecko_id"`
	TokenSymbol string  `json:"tokenSymbol"`
}

// OverviewRow is one protocol row inside a category overview. The open
// interest field is only populated for derivatives and options.
type OverviewRow struct {
	Name         string  `json:"name"`
	DisplayName  string  `json:"displayName"`
	Total24h     float64 `json:"total24h"`
	Total7d      float64 `json:"total7d"`
	OpenInterest float64 `json:"openInterest"`
}

// StablecoinChain is the stablecoin market cap aggregate for one chain.
type StablecoinChain struct {
	Name            string `json:"name"`
	TotalCirculating struct {
		PeggedUSD float64 `json:"peggedUSD"`
	} `json:"totalCirculatingUSD"`
}

// Mcap returns the USD stablecoin market cap on the chain.
func (s StablecoinChain) Mcap() float64 { return s.TotalCirculating.PeggedUSD }

// RevenuePoint is one day of a chain revenue series.
type RevenuePoint struct {
	Day   int64
	Value float64
}

type Client struct {
	baseURL        string
	stablecoinsURL string
	httpClient     *http.Client
	cache          *cache.Cache
	logger         *slog.Logger
}

func New(c *cache.Cache, logger *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 3 * time.Second
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil
	return &Client{
		baseURL:        defaultBaseURL,
		stablecoinsURL: defaultStablecoinsURL,
		httpClient:     rc.StandardClient(),
		cache:          c,
		logger:         logger,
	}
}

// getJSON fetches url and decodes the body into T, recording upstream
// metrics under the dataset label. The request inherits ctx, so the caller's
// deadline bounds the whole call including retries.
func getJSON[T any](ctx context.Context, c *Client, dataset, url string) (T, error) {
	var out T

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return out, fmt.Errorf("%s: build request: %w", dataset, err)
	}

	resp, err := c.httpClient.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(dataset).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(dataset, "error").Inc()
		return out, fmt.Errorf("%s: %w", dataset, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequestsTotal.WithLabelValues(dataset, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("%s: status %d", dataset, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode %s: %w", dataset, err)
	}
	return out, nil
}

// Protocols returns the full protocol registry.
func (c *Client) Protocols(ctx context.Context) ([]Protocol, error) {
	return cache.GetOrFetch(ctx, c.cache, "llama:protocols", registryTTL, func(ctx context.Context) ([]Protocol, error) {
		return getJSON[[]Protocol](ctx, c, "protocols", c.baseURL+"/protocols")
	})
}

// Chains returns the chain list with TVL.
func (c *Client) Chains(ctx context.Context) ([]Chain, error) {
	return cache.GetOrFetch(ctx, c.cache, "llama:chains", registryTTL, func(ctx context.Context) ([]Chain, error) {
		return getJSON[[]Chain](ctx, c, "chains", c.baseURL+"/v2/chains")
	})
}

type overviewResponse struct {
	Protocols []OverviewRow `json:"protocols"`
}

// Overview returns the per-protocol rows of a category overview. The fees
// overview is queried for daily revenue rather than gross fees.
func (c *Client) Overview(ctx context.Context, kind OverviewKind) ([]OverviewRow, error) {
	return cache.GetOrFetch(ctx, c.cache, "llama:overview:"+string(kind), registryTTL, func(ctx context.Context) ([]OverviewRow, error) {
		url := fmt.Sprintf("%s/overview/%s?excludeTotalDataChart=true&excludeTotalDataChartBreakdown=true", c.baseURL, kind)
		if kind == OverviewFees {
			url += "&dataType=dailyRevenue"
		}
		resp, err := getJSON[overviewResponse](ctx, c, "overview_"+string(kind), url)
		if err != nil {
			return nil, err
		}
		return resp.Protocols, nil
	})
}

// Options returns options open-interest rows, falling back to the
// derivatives overview when the options endpoint fails. The fallback rows
// keep the derivatives shape; the matching layer reads the same fields
// either way.
func (c *Client) Options(ctx context.Context) ([]OverviewRow, error) {
	rows, err := c.Overview(ctx, OverviewOptions)
	if err == nil {
		return rows, nil
	}
	c.logger.Warn("options overview failed, falling back to derivatives", "error", err)
	return c.Overview(ctx, OverviewDerivatives)
}

// StablecoinChains returns the stablecoin market cap per chain.
func (c *Client) StablecoinChains(ctx context.Context) ([]StablecoinChain, error) {
	return cache.GetOrFetch(ctx, c.cache, "llama:stablecoinchains", registryTTL, func(ctx context.Context) ([]StablecoinChain, error) {
		return getJSON[[]StablecoinChain](ctx, c, "stablecoinchains", c.stablecoinsURL+"/stablecoinchains")
	})
}

type feesSummaryResponse struct {
	TotalDataChart [][2]float64 `json:"totalDataChart"`
}

// ChainRevenueSeries returns the daily revenue series for one chain in
// chronological order.
func (c *Client) ChainRevenueSeries(ctx context.Context, chain string) ([]RevenuePoint, error) {
	key := "llama:chainrevenue:" + chain
	return cache.GetOrFetch(ctx, c.cache, key, registryTTL, func(ctx context.Context) ([]RevenuePoint, error) {
		url := fmt.Sprintf("%s/summary/fees/%s?dataType=dailyRevenue", c.baseURL, chain)
		resp, err := getJSON[feesSummaryResponse](ctx, c, "chain_revenue", url)
		if err != nil {
			return nil, err
		}
		points := make([]RevenuePoint, 0, len(resp.TotalDataChart))
		for _, p := range resp.TotalDataChart {
			points = append(points, RevenuePoint{Day: int64(p[0]), Value: p[1]})
		}
		return points, nil
	})
}
