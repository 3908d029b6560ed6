package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/web3-frozen/defiboard/internal/hyperliquid"
)

// PerpExchangeAPI provides the alternative open-interest/volume readout.
type PerpExchangeAPI interface {
	Fetch(ctx context.Context) (*hyperliquid.Summary, error)
}

// HyperliquidDiagnostics cross-checks the aggregated derivatives numbers
// against the exchange's own API. Unlike the card pipeline this surface
// reports upstream failures directly: it exists to see them.
func HyperliquidDiagnostics(client PerpExchangeAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		sum, err := client.Fetch(ctx)
		if err != nil {
			http.Error(w, `{"error":"hyperliquid upstream unavailable"}`, http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sum)
	}
}
