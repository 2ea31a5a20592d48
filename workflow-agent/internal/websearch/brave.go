package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
)

// Brave calls the Brave Search API.
type Brave struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewBrave creates a Brave Search client rooted at baseURL.
func NewBrave(baseURL, apiKey string, client *http.Client) *Brave {
	return &Brave{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: client}
}

type braveItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Age         string `json:"age"`
}

type braveResponse struct {
	Web struct {
		Results []braveItem `json:"results"`
	} `json:"web"`
	// News search returns its items at the top level.
	Results []braveItem `json:"results"`
}

// Search calls /web/search, or /news/search for news mode.
func (b *Brave) Search(ctx context.Context, query string, numResults int, mode graph.SearchMode) ([]graph.WebResult, error) {
	path, source := "/web/search", "brave"
	if mode == graph.SearchNews {
		path, source = "/news/search", "brave_news"
	}
	params := url.Values{
		"q":               {query},
		"count":           {strconv.Itoa(numResults)},
		"search_lang":     {"en"},
		"country":         {"US"},
		"safesearch":      {"moderate"},
		"textDecorations": {"false"},
	}
	headers := map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": b.apiKey,
	}

	var br braveResponse
	if err := getJSON(ctx, b.client, b.baseURL+path+"?"+params.Encode(), headers, &br); err != nil {
		return nil, fmt.Errorf("Brave Search API error: %w", err)
	}

	items := br.Web.Results
	if mode == graph.SearchNews {
		items = br.Results
	}
	results := make([]graph.WebResult, 0, len(items))
	for _, item := range items {
		r := graph.WebResult{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: item.Description,
			Source:  source,
		}
		if mode == graph.SearchNews {
			r.PublishedDate = item.Age
		}
		results = append(results, r)
	}
	return limit(results, numResults), nil
}
