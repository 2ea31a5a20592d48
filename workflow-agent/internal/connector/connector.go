// Package connector binds per-node credentials to the embedding, language
// model and web search clients.
package connector

import (
	"context"
	"errors"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/config"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/embedding"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/llm"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/websearch"
	"go.uber.org/zap"
)

// ErrNoKnowledgeBase is returned when no document store was configured.
var ErrNoKnowledgeBase = errors.New("knowledge base storage not configured")

// Connector implements graph.Connector.
type Connector struct {
	embeddings *embedding.Service
	llm        config.LLMConfig
	search     *websearch.Factory
	log        *zap.Logger
}

var _ graph.Connector = (*Connector)(nil)

// New creates a connector. embeddings may be nil when running without a
// database; knowledge base nodes then degrade.
func New(embeddings *embedding.Service, llmCfg config.LLMConfig, search *websearch.Factory, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{embeddings: embeddings, llm: llmCfg, search: search, log: logger}
}

func (c *Connector) Embeddings(apiKey string) (graph.EmbeddingCapability, error) {
	if c.embeddings == nil {
		return nil, ErrNoKnowledgeBase
	}
	return c.embeddings.Bind(apiKey), nil
}

func (c *Connector) LanguageModel(apiKey string) (graph.LanguageModelCapability, error) {
	return llm.NewClient(c.llm, apiKey, c.log), nil
}

func (c *Connector) WebSearch(target graph.WebSearchTarget) (graph.WebSearchCapability, error) {
	return c.search.New(context.Background(), target)
}
