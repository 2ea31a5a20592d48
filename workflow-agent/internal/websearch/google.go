package websearch

import (
	"context"
	"errors"
	"fmt"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Custom Search returns at most ten results per request.
const googleMaxResults = 10

// Google calls the Programmable Search Engine JSON API.
type Google struct {
	svc      *customsearch.Service
	engineID string
}

// NewGoogle creates a Custom Search client. An empty endpoint uses the
// public API.
func NewGoogle(ctx context.Context, apiKey, engineID, endpoint string) (*Google, error) {
	if engineID == "" {
		return nil, errors.New("google search requires a search engine id")
	}
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom search client: %w", err)
	}
	return &Google{svc: svc, engineID: engineID}, nil
}

// Search has no separate news index; news mode runs a general search.
func (g *Google) Search(ctx context.Context, query string, numResults int, _ graph.SearchMode) ([]graph.WebResult, error) {
	n := min(max(numResults, 1), googleMaxResults)
	res, err := g.svc.Cse.List().Q(query).Cx(g.engineID).Num(int64(n)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google search error: %w", err)
	}

	results := make([]graph.WebResult, 0, len(res.Items))
	for _, item := range res.Items {
		results = append(results, graph.WebResult{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
			Source:  "google",
		})
	}
	return limit(results, numResults), nil
}
