package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/web3-frozen/defiboard/internal/ethos"
)

const reputationTimeout = 15 * time.Second

// ReputationProvider is the slice of the ethos client the handlers consume.
// The score path is the throttled one: this endpoint serves the incremental
// display path, which must respect the upstream rate limit.
type ReputationProvider interface {
	ScoreByHandleThrottled(ctx context.Context, handle string) (*ethos.Score, error)
	ReviewsByHandle(ctx context.Context, handle string, limit, offset int) (*ethos.ReviewPage, error)
}

type reputationResponse struct {
	Handle string  `json:"handle"`
	Score  float64 `json:"score"`
	Level  string  `json:"level,omitempty"`
}

func Reputation(client ReputationProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle := r.URL.Query().Get("handle")
		if handle == "" {
			http.Error(w, `{"error":"handle is required"}`, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), reputationTimeout)
		defer cancel()

		resp := reputationResponse{Handle: handle}
		// Absent reputation resolves to score 0, never an error response.
		if s, err := client.ScoreByHandleThrottled(ctx, handle); err == nil && s != nil {
			resp.Score = s.Score
			resp.Level = s.Level
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func Reviews(client ReputationProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle := r.URL.Query().Get("handle")
		if handle == "" {
			http.Error(w, `{"error":"handle is required"}`, http.StatusBadRequest)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		if offset < 0 {
			offset = 0
		}

		ctx, cancel := context.WithTimeout(r.Context(), reputationTimeout)
		defer cancel()

		page, err := client.ReviewsByHandle(ctx, handle, limit, offset)
		if err != nil {
			// Transport failure degrades to an empty page, same as an
			// unresolvable handle.
			page = &ethos.ReviewPage{Reviews: []ethos.Review{}}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}
}
