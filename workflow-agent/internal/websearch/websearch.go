// Package websearch implements the web search providers a workflow node can
// select, with an optional redis result cache.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/config"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
)

// Factory builds provider clients from node targets. It is safe for
// concurrent use.
type Factory struct {
	cfg     config.SearchConfig
	client  *http.Client
	cache   *Cache
	metrics *Metrics
}

// NewFactory creates a provider factory. cache and metrics may be nil.
func NewFactory(cfg config.SearchConfig, cache *Cache, metrics *Metrics) *Factory {
	return &Factory{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		cache:   cache,
		metrics: metrics,
	}
}

// New returns the provider named by target, instrumented and cached.
func (f *Factory) New(ctx context.Context, target graph.WebSearchTarget) (graph.WebSearchCapability, error) {
	if strings.TrimSpace(target.APIKey) == "" {
		return nil, fmt.Errorf("no API key configured for %s", target.Provider)
	}

	var (
		provider string
		s        graph.WebSearchCapability
	)
	switch target.Provider {
	case graph.SearchSerpAPI, "":
		provider, s = "serpapi", NewSerpAPI(f.cfg.SerpAPIURL, target.APIKey, f.client)
	case graph.SearchBrave:
		provider, s = "brave", NewBrave(f.cfg.BraveURL, target.APIKey, f.client)
	case graph.SearchGoogle:
		g, err := NewGoogle(ctx, target.APIKey, target.EngineID, f.cfg.GoogleEndpoint)
		if err != nil {
			return nil, err
		}
		provider, s = "google", g
	default:
		return nil, fmt.Errorf("unsupported search API %q", target.Provider)
	}

	s = &instrumented{provider: provider, next: s, metrics: f.metrics}
	return f.cache.Wrap(provider, s), nil
}

type instrumented struct {
	provider string
	next     graph.WebSearchCapability
	metrics  *Metrics
}

func (i *instrumented) Search(ctx context.Context, query string, numResults int, mode graph.SearchMode) ([]graph.WebResult, error) {
	res, err := i.next.Search(ctx, query, numResults, mode)
	i.metrics.call(i.provider, err)
	return res, err
}

// getJSON performs a GET and decodes a 200 response into out.
func getJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func limit(results []graph.WebResult, n int) []graph.WebResult {
	if n > 0 && len(results) > n {
		return results[:n]
	}
	return results
}
