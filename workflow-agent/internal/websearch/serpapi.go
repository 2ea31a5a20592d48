package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
)

// SerpAPI searches Google through serpapi.com.
type SerpAPI struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewSerpAPI creates a SerpAPI client for endpoint.
func NewSerpAPI(endpoint, apiKey string, client *http.Client) *SerpAPI {
	return &SerpAPI{endpoint: endpoint, apiKey: apiKey, client: client}
}

type serpResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	NewsResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
	} `json:"news_results"`
}

// Search uses the google engine, or google_news for news mode.
func (s *SerpAPI) Search(ctx context.Context, query string, numResults int, mode graph.SearchMode) ([]graph.WebResult, error) {
	engine := "google"
	if mode == graph.SearchNews {
		engine = "google_news"
	}
	params := url.Values{
		"q":       {query},
		"engine":  {engine},
		"api_key": {s.apiKey},
		"num":     {strconv.Itoa(numResults)},
		"hl":      {"en"},
		"gl":      {"us"},
	}

	var sr serpResponse
	if err := getJSON(ctx, s.client, s.endpoint+"?"+params.Encode(), nil, &sr); err != nil {
		return nil, fmt.Errorf("SerpAPI error: %w", err)
	}
	if sr.Error != "" {
		return nil, fmt.Errorf("SerpAPI error: %s", sr.Error)
	}

	results := []graph.WebResult{}
	if mode == graph.SearchNews {
		for _, item := range sr.NewsResults {
			results = append(results, graph.WebResult{
				Title:         item.Title,
				URL:           item.Link,
				Snippet:       item.Snippet,
				PublishedDate: item.Date,
				Source:        "serpapi_news",
			})
		}
	} else {
		for _, item := range sr.OrganicResults {
			results = append(results, graph.WebResult{
				Title:   item.Title,
				URL:     item.Link,
				Snippet: item.Snippet,
				Source:  "serpapi",
			})
		}
	}
	return limit(results, numResults), nil
}
