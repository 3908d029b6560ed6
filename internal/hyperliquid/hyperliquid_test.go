package hyperliquid

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/info" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"type":"metaAndAssetCtxs"}` {
			t.Errorf("request body = %s", body)
		}
		w.Write([]byte(`[
			{"universe":[{"name":"BTC"},{"name":"ETH"}]},
			[
				{"openInterest":"100","dayNtlVlm":"5000000","markPx":"50000"},
				{"openInterest":"2000","dayNtlVlm":"3000000","markPx":"3000"}
			]
		]`))
	}))
	defer srv.Close()

	c := &Client{baseURL: srv.URL, httpClient: srv.Client()}
	sum, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(sum.Assets) != 2 {
		t.Fatalf("got %d assets, want 2", len(sum.Assets))
	}
	if sum.Assets[0].Coin != "BTC" || sum.Assets[0].OpenInterest != 100*50000 {
		t.Errorf("BTC stat = %+v", sum.Assets[0])
	}
	if sum.TotalDayVolume != 8000000 {
		t.Errorf("TotalDayVolume = %v, want 8000000", sum.TotalDayVolume)
	}
	wantOI := 100*50000.0 + 2000*3000.0
	if sum.TotalOpenInterest != wantOI {
		t.Errorf("TotalOpenInterest = %v, want %v", sum.TotalOpenInterest, wantOI)
	}
}

func TestFetchMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"universe":[]}]`))
	}))
	defer srv.Close()

	c := &Client{baseURL: srv.URL, httpClient: srv.Client()}
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Error("expected error for single-element response")
	}
}

func TestFetchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := &Client{baseURL: srv.URL, httpClient: srv.Client()}
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Error("expected error for 503 upstream")
	}
}
