package llama

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/web3-frozen/defiboard/internal/cache"
)

func testClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(cache.New(cache.NewMemory(), slog.Default()), slog.Default())
	c.baseURL = srv.URL
	c.stablecoinsURL = srv.URL
	c.httpClient = srv.Client()
	return c
}

func TestProtocols(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/protocols" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode([]Protocol{
			{Name: "Aave V3", Slug: "aave-v3", Category: "Lending", TVL: 1.2e10, Twitter: "aave"},
		})
	}))

	got, err := c.Protocols(context.Background())
	if err != nil {
		t.Fatalf("Protocols error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Aave V3" || got[0].TVL != 1.2e10 {
		t.Errorf("Protocols = %+v", got)
	}
}

func TestProtocolsCached(t *testing.T) {
	var calls int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode([]Protocol{{Name: "Aave"}})
	}))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.Protocols(ctx); err != nil {
			t.Fatalf("Protocols error: %v", err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("upstream called %d times within TTL, want 1", n)
	}
}

func TestProtocolsUpstreamError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	if _, err := c.Protocols(context.Background()); err == nil {
		t.Error("expected error for 502 upstream, got nil")
	}
}

func TestOverviewFeesQueriesDailyRevenue(t *testing.T) {
	var gotDataType string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDataType = r.URL.Query().Get("dataType")
		json.NewEncoder(w).Encode(overviewResponse{Protocols: []OverviewRow{{Name: "Aave", Total24h: 500000}}})
	}))

	rows, err := c.Overview(context.Background(), OverviewFees)
	if err != nil {
		t.Fatalf("Overview error: %v", err)
	}
	if gotDataType != "dailyRevenue" {
		t.Errorf("dataType = %q, want dailyRevenue", gotDataType)
	}
	if len(rows) != 1 || rows[0].Total24h != 500000 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestOptionsFallsBackToDerivatives(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/overview/options":
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		case "/overview/derivatives":
			json.NewEncoder(w).Encode(overviewResponse{Protocols: []OverviewRow{
				{Name: "Hyperliquid", Total24h: 9e9, OpenInterest: 4e9},
			}})
		default:
			http.NotFound(w, r)
		}
	}))

	rows, err := c.Options(context.Background())
	if err != nil {
		t.Fatalf("Options error: %v", err)
	}
	if len(rows) != 1 || rows[0].OpenInterest != 4e9 {
		t.Errorf("fallback rows = %+v", rows)
	}
}

func TestStablecoinChains(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"Ethereum","totalCirculatingUSD":{"peggedUSD":80000000000}}]`))
	}))

	got, err := c.StablecoinChains(context.Background())
	if err != nil {
		t.Fatalf("StablecoinChains error: %v", err)
	}
	if len(got) != 1 || got[0].Mcap() != 8e10 {
		t.Errorf("StablecoinChains = %+v", got)
	}
}

func TestChainRevenueSeries(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(feesSummaryResponse{TotalDataChart: [][2]float64{
			{1700000000, 100}, {1700086400, 200},
		}})
	}))

	got, err := c.ChainRevenueSeries(context.Background(), "arbitrum")
	if err != nil {
		t.Fatalf("ChainRevenueSeries error: %v", err)
	}
	if len(got) != 2 || got[0].Day != 1700000000 || got[1].Value != 200 {
		t.Errorf("series = %+v", got)
	}
}

func TestContextDeadlineBoundsFetch(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Chains(ctx); err == nil {
		t.Error("expected deadline error, got nil")
	}
}
