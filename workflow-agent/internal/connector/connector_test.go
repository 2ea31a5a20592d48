package connector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/config"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/embedding"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/websearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnector_Embeddings(t *testing.T) {
	c := New(nil, config.LLMConfig{}, websearch.NewFactory(config.SearchConfig{}, nil, nil), nil)
	_, err := c.Embeddings("k")
	assert.ErrorIs(t, err, ErrNoKnowledgeBase)

	svc := embedding.NewService(nil, nil, nil, 0, nil)
	kb, err := New(svc, config.LLMConfig{}, nil, nil).Embeddings("k")
	require.NoError(t, err)
	assert.IsType(t, &embedding.Client{}, kb)
}

func TestConnector_LanguageModelAndSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/chat/completions":
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"answer"}}]}`))
		case "/search":
			w.Write([]byte(`{"organic_results":[{"title":"t","link":"l","snippet":"s"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := New(nil,
		config.LLMConfig{OpenAIBaseURL: server.URL + "/v1", Timeout: time.Second},
		websearch.NewFactory(config.SearchConfig{SerpAPIURL: server.URL + "/search", Timeout: time.Second}, nil, nil),
		nil)

	model, err := c.LanguageModel("sk-test")
	require.NoError(t, err)
	out, err := model.Generate(context.Background(), graph.GenerateRequest{Model: "gpt-4o-mini", UserPrompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "answer", out)

	search, err := c.WebSearch(graph.WebSearchTarget{Provider: graph.SearchSerpAPI, APIKey: "serp"})
	require.NoError(t, err)
	res, err := search.Search(context.Background(), "q", 3, graph.SearchGeneral)
	require.NoError(t, err)
	assert.Len(t, res, 1)
}
