package ethos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/web3-frozen/defiboard/internal/cache"
)

type accountResponse struct {
	ProfileID int64 `json:"profileId"`
}

// accountID resolves a handle via the single-step account-by-handle lookup
// used by the reviews path.
func (c *Client) accountID(ctx context.Context, handle string) (int64, error) {
	return cache.GetOrFetch(ctx, c.cache, "ethos:account:"+handle, identityTTL, func(ctx context.Context) (int64, error) {
		var acct accountResponse
		if err := c.do(ctx, http.MethodGet, "/api/v2/user/by/x/"+handle, nil, &acct); err != nil {
			return 0, err
		}
		return acct.ProfileID, nil
	})
}

type activityItem struct {
	Type   string `json:"type"`
	Author struct {
		Name string `json:"name"`
	} `json:"author"`
	Data struct {
		Comment   string `json:"comment"`
		Metadata  string `json:"metadata"`
		Score     string `json:"score"` // sentiment: positive | neutral | negative
		CreatedAt int64  `json:"createdAt"`
	} `json:"data"`
}

type activityResponse struct {
	Values []activityItem `json:"values"`
	Total  int            `json:"total"`
}

// reviewText prefers the structured metadata description over the raw
// comment. The metadata field is JSON-encoded by upstream; a parse failure
// falls back to the comment.
func reviewText(item activityItem) string {
	if item.Data.Metadata != "" {
		var meta struct {
			Description string `json:"description"`
		}
		if err := json.Unmarshal([]byte(item.Data.Metadata), &meta); err == nil && meta.Description != "" {
			return meta.Description
		}
	}
	return item.Data.Comment
}

func sentiment(raw string) string {
	switch raw {
	case "positive", "negative", "neutral":
		return raw
	default:
		return "neutral"
	}
}

// ReviewsByHandle returns one page of reviews for a handle together with
// the sentiment distribution of that page. A handle with no resolvable
// account returns an empty page, not an error.
func (c *Client) ReviewsByHandle(ctx context.Context, handle string, limit, offset int) (*ReviewPage, error) {
	if limit <= 0 {
		limit = 20
	}

	id, err := c.accountID(ctx, handle)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return &ReviewPage{Reviews: []Review{}}, nil
	}

	var resp activityResponse
	body := map[string]any{
		"filter":      []string{"review"},
		"excludeSpam": true,
		"limit":       limit,
		"offset":      offset,
	}
	path := fmt.Sprintf("/api/v2/activities/profile/%d/received", id)
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}

	page := &ReviewPage{Reviews: make([]Review, 0, len(resp.Values)), Total: resp.Total}
	for _, item := range resp.Values {
		if item.Type != "review" {
			continue
		}
		r := Review{
			Author:    item.Author.Name,
			Sentiment: sentiment(item.Data.Score),
			Comment:   reviewText(item),
			CreatedAt: item.Data.CreatedAt,
		}
		switch r.Sentiment {
		case "negative":
			page.Distribution.Negative++
		case "positive":
			page.Distribution.Positive++
		default:
			page.Distribution.Neutral++
		}
		page.Reviews = append(page.Reviews, r)
	}
	return page, nil
}
