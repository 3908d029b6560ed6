// Package hyperliquid reads open interest and volume from the exchange's
// own info endpoint. Used only by the diagnostics surface to cross-check
// the aggregated derivatives numbers, never by the card pipeline.
package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/web3-frozen/defiboard/internal/metrics"
)

const defaultBaseURL = "https://api.hyperliquid.xyz"

// AssetStat is the per-asset readout from the info endpoint.
type AssetStat struct {
	Coin         string  `json:"coin"`
	OpenInterest float64 `json:"openInterest"`
	DayVolume    float64 `json:"dayNtlVlm"`
	MarkPrice    float64 `json:"markPx"`
}

// Summary aggregates the per-asset stats.
type Summary struct {
	Assets            []AssetStat `json:"assets"`
	TotalOpenInterest float64     `json:"totalOpenInterestUsd"`
	TotalDayVolume    float64     `json:"totalDayVolumeUsd"`
	FetchedAt         time.Time   `json:"fetchedAt"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New() *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 1
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil
	return &Client{baseURL: defaultBaseURL, httpClient: rc.StandardClient()}
}

// metaAndAssetCtxs returns a two-element array: universe metadata, then the
// per-asset contexts in the same order.
type infoMeta struct {
	Universe []struct {
		Name string `json:"name"`
	} `json:"universe"`
}

type assetCtx struct {
	OpenInterest string `json:"openInterest"`
	DayNtlVlm    string `json:"dayNtlVlm"`
	MarkPx       string `json:"markPx"`
}

// Fetch queries the info endpoint and converts the string-encoded numbers.
func (c *Client) Fetch(ctx context.Context) (*Summary, error) {
	body := bytes.NewBufferString(`{"type":"metaAndAssetCtxs"}`)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/info", body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues("hyperliquid").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("hyperliquid", "error").Inc()
		return nil, fmt.Errorf("hyperliquid info: %w", err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequestsTotal.WithLabelValues("hyperliquid", strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hyperliquid info: status %d", resp.StatusCode)
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode hyperliquid info: %w", err)
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("hyperliquid info: expected [meta, ctxs], got %d elements", len(raw))
	}

	var meta infoMeta
	if err := json.Unmarshal(raw[0], &meta); err != nil {
		return nil, fmt.Errorf("decode hyperliquid meta: %w", err)
	}
	var ctxs []assetCtx
	if err := json.Unmarshal(raw[1], &ctxs); err != nil {
		return nil, fmt.Errorf("decode hyperliquid asset ctxs: %w", err)
	}

	sum := &Summary{FetchedAt: time.Now()}
	for i, ac := range ctxs {
		if i >= len(meta.Universe) {
			break
		}
		oi, _ := strconv.ParseFloat(ac.OpenInterest, 64)
		vlm, _ := strconv.ParseFloat(ac.DayNtlVlm, 64)
		px, _ := strconv.ParseFloat(ac.MarkPx, 64)
		stat := AssetStat{
			Coin:         meta.Universe[i].Name,
			OpenInterest: oi * px, // upstream reports OI in contracts
			DayVolume:    vlm,
			MarkPrice:    px,
		}
		sum.Assets = append(sum.Assets, stat)
		sum.TotalOpenInterest += stat.OpenInterest
		sum.TotalDayVolume += stat.DayVolume
	}
	return sum, nil
}
