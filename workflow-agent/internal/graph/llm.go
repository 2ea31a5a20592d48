package graph

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ApologyMessage replaces an empty or failed model response.
const ApologyMessage = "I apologize, but I couldn't generate a response. Please try again."

const inlineWebResults = 3

// runLanguageModel builds the prompt from the accumulated state and calls the
// model. It never aborts traversal: failures become the apology message.
func (d *Dispatcher) runLanguageModel(ctx context.Context, log *zap.Logger, cfg *LanguageModelConfig, state *State) NodeResult {
	query := state.UserQuery()

	userPrompt := query
	if kc := state.String(KeyKnowledgeContext); kc != "" {
		userPrompt = fmt.Sprintf("Context:\n%s\n\nQuestion: %s", kc, query)
	}

	var notes []string
	if cfg.WebSearchEnabled {
		lines, err := d.inlineWebSearch(ctx, cfg, query)
		if err != nil {
			log.Warn("Web search failed, continuing without web context", zap.Error(err))
			notes = append(notes, "web search failed: "+err.Error())
		} else if lines != "" {
			userPrompt += "\n\nWeb Search Results:\n" + lines
		}
	} else if wc := state.String(KeyWebContext); wc != "" {
		userPrompt += "\n\nWeb Search Results:\n" + wc
	}

	contrib := Contributions{
		KeyModelUsed:     cfg.Model,
		KeyWebSearchUsed: cfg.WebSearchEnabled,
	}

	text, err := d.generate(ctx, cfg, userPrompt)
	switch {
	case err != nil:
		log.Error("LLM execution error", zap.Error(err))
		contrib[KeyLLMResponse] = ApologyMessage
		return degraded(contrib, strings.Join(append(notes, err.Error()), "; "))
	case strings.TrimSpace(text) == "":
		log.Warn("LLM returned an empty response")
		contrib[KeyLLMResponse] = ApologyMessage
		return degraded(contrib, strings.Join(append(notes, "empty model response"), "; "))
	}

	contrib[KeyLLMResponse] = text
	if len(notes) > 0 {
		return NodeResult{Contributions: contrib, Degraded: true, Note: strings.Join(notes, "; ")}
	}
	return succeeded(contrib)
}

func (d *Dispatcher) generate(ctx context.Context, cfg *LanguageModelConfig, userPrompt string) (string, error) {
	model, err := d.connector.LanguageModel(cfg.APIKey)
	if err != nil {
		return "", fmt.Errorf("language model client: %w", err)
	}
	return model.Generate(ctx, GenerateRequest{
		SystemPrompt: cfg.SystemPrompt(),
		UserPrompt:   userPrompt,
		Model:        cfg.Model,
		Temperature:  cfg.TemperatureOrDefault(),
		MaxTokens:    cfg.MaxTokens,
	})
}

func (d *Dispatcher) inlineWebSearch(ctx context.Context, cfg *LanguageModelConfig, query string) (string, error) {
	ws, err := d.connector.WebSearch(WebSearchTarget{Provider: SearchSerpAPI, APIKey: cfg.SerpAPI})
	if err != nil {
		return "", err
	}
	results, err := ws.Search(ctx, query, DefaultNumResults, SearchGeneral)
	if err != nil {
		return "", err
	}
	if len(results) > inlineWebResults {
		results = results[:inlineWebResults]
	}
	return formatWebResults(results), nil
}

func formatWebResults(results []WebResult) string {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf("- %s: %s", r.Title, r.Snippet)
	}
	return strings.Join(lines, "\n")
}
