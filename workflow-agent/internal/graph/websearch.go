package graph

import (
	"context"

	"go.uber.org/zap"
)

// runWebSearch queries the configured provider. On failure it contributes
// empty values and traversal continues.
func (d *Dispatcher) runWebSearch(ctx context.Context, log *zap.Logger, cfg *WebSearchConfig, state *State) NodeResult {
	results, err := d.webSearch(ctx, cfg, state.UserQuery())
	if err != nil {
		log.Error("Web search execution failed", zap.Error(err), zap.String("provider", string(cfg.SearchAPI)))
		return degraded(Contributions{
			KeyWebContext: "",
			KeyWebResults: []WebResult{},
		}, err.Error())
	}
	if results == nil {
		results = []WebResult{}
	}
	return succeeded(Contributions{
		KeyWebContext: formatWebResults(results),
		KeyWebResults: results,
	})
}

func (d *Dispatcher) webSearch(ctx context.Context, cfg *WebSearchConfig, query string) ([]WebResult, error) {
	ws, err := d.connector.WebSearch(WebSearchTarget{
		Provider: cfg.SearchAPI,
		APIKey:   cfg.APIKey,
		EngineID: cfg.SearchEngineID,
	})
	if err != nil {
		return nil, err
	}
	return ws.Search(ctx, query, cfg.NumResults, cfg.Mode())
}
