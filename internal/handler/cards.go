package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/web3-frozen/defiboard/internal/board"
)

const (
	defaultMinTVL = 1e9

	// Bulk aggregation fans out across every upstream; the deadline bounds
	// the whole request even when an upstream hangs.
	cardsTimeout = 30 * time.Second
)

// CardProvider is the slice of the board engine the handlers consume.
type CardProvider interface {
	ProtocolCards(ctx context.Context, minTVL float64) []board.Card
	ChainCards(ctx context.Context, minTVL float64) []board.Card
}

type cardsResponse struct {
	Kind        string       `json:"kind"`
	MinTVL      float64      `json:"minTvl"`
	Cards       []board.Card `json:"cards"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

func Cards(engine CardProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := r.URL.Query().Get("kind")
		if kind == "" {
			kind = "protocols"
		}
		if kind != "protocols" && kind != "chains" {
			http.Error(w, `{"error":"kind must be protocols or chains"}`, http.StatusBadRequest)
			return
		}

		minTVL := defaultMinTVL
		if raw := r.URL.Query().Get("minTvl"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || v < 0 {
				http.Error(w, `{"error":"invalid minTvl"}`, http.StatusBadRequest)
				return
			}
			minTVL = v
		}

		ctx, cancel := context.WithTimeout(r.Context(), cardsTimeout)
		defer cancel()

		var cards []board.Card
		if kind == "chains" {
			cards = engine.ChainCards(ctx, minTVL)
		} else {
			cards = engine.ProtocolCards(ctx, minTVL)
		}
		if cards == nil {
			cards = []board.Card{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cardsResponse{
			Kind:        kind,
			MinTVL:      minTVL,
			Cards:       cards,
			GeneratedAt: time.Now().UTC(),
		})
	}
}
