package search

import (
	"context"

	"github.com/sells-group/sitefinder/internal/model"
	"github.com/sells-group/sitefinder/pkg/cse"
)

// CSE adapts the Custom Search API client to the Searcher interface.
type CSE struct {
	client cse.Client
}

// NewCSE wraps an API client.
func NewCSE(client cse.Client) *CSE {
	return &CSE{client: client}
}

// Name implements Searcher.
func (c *CSE) Name() string { return "cse" }

// Search implements Searcher. The API pages at 10 results; WithNum
// clamps larger requests.
func (c *CSE) Search(ctx context.Context, query string, max int) ([]model.SearchHit, error) {
	var opts []cse.SearchOption
	if max > 0 {
		opts = append(opts, cse.WithNum(max))
	}

	resp, err := c.client.Search(ctx, query, opts...)
	if err != nil {
		return nil, err
	}

	hits := make([]model.SearchHit, 0, len(resp.Items))
	for _, item := range resp.Items {
		if max > 0 && len(hits) >= max {
			break
		}
		hits = append(hits, model.SearchHit{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
			Rank:    len(hits),
		})
	}
	return hits, nil
}
