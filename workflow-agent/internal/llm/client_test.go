package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/config"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	path string
	auth string
	chat chatRequest
	gen  ollamaRequest
}

// providerServer answers chat and generate calls and records the last one.
func providerServer(t *testing.T, last *recorded) *httptest.Server {
	t.Helper()
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last.path = r.URL.Path
		last.auth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/openai/chat/completions", "/github/chat/completions":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&last.chat))
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  hello there \n"}}]}`))
		case "/ollama/api/generate":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&last.gen))
			w.Write([]byte(`{"response":"hel","done":false}` + "\n" + `{"response":"lo","done":true}` + "\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func testConfig(base string) config.LLMConfig {
	return config.LLMConfig{
		OpenAIBaseURL: base + "/openai",
		GitHubBaseURL: base + "/github",
		OllamaURL:     base + "/ollama",
		Timeout:       5 * time.Second,
	}
}

func TestClient_Generate_Routing(t *testing.T) {
	ctx := context.Background()
	var last recorded
	srv := providerServer(t, &last)
	cfg := testConfig(srv.URL)

	req := graph.GenerateRequest{SystemPrompt: "be brief", UserPrompt: "hi", Temperature: 0.2, MaxTokens: 64}

	t.Run("openai", func(t *testing.T) {
		req.Model = "gpt-4o-mini"
		out, err := NewClient(cfg, "sk-live", nil).Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "hello there", out)
		assert.Equal(t, "/openai/chat/completions", last.path)
		assert.Equal(t, "Bearer sk-live", last.auth)
		assert.Equal(t, "gpt-4o-mini", last.chat.Model)
		require.Len(t, last.chat.Messages, 2)
		assert.Equal(t, chatMessage{Role: "system", Content: "be brief"}, last.chat.Messages[0])
		assert.Equal(t, 64, last.chat.MaxTokens)
	})

	t.Run("gpt model with a github token", func(t *testing.T) {
		req.Model = "gpt-4o-mini"
		_, err := NewClient(cfg, "ghp_token", nil).Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "/github/chat/completions", last.path)
	})

	t.Run("github scheme strips the prefix", func(t *testing.T) {
		req.Model = "github://openai/gpt-4.1"
		_, err := NewClient(cfg, "ghp_token", nil).Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "/github/chat/completions", last.path)
		assert.Equal(t, "openai/gpt-4.1", last.chat.Model)
	})

	t.Run("ollama streams", func(t *testing.T) {
		req.Model = "ollama/llama3"
		out, err := NewClient(cfg, "", nil).Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "hello", out)
		assert.Equal(t, "llama3", last.gen.Model)
		assert.Equal(t, "be brief", last.gen.System)
		assert.Equal(t, 64, last.gen.Options.NumPredict)
	})
}

func TestClient_Generate_Errors(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig("http://127.0.0.1:1")

	_, err := NewClient(cfg, "sk", nil).Generate(ctx, graph.GenerateRequest{Model: "claude-3"})
	assert.ErrorIs(t, err, ErrUnsupportedModel)

	_, err = NewClient(cfg, "ghp", nil).Generate(ctx, graph.GenerateRequest{Model: "github://unknown"})
	assert.ErrorIs(t, err, ErrUnsupportedModel)

	_, err = NewClient(cfg, "", nil).Generate(ctx, graph.GenerateRequest{Model: "gpt-4"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestChatCompletion_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(config.LLMConfig{OpenAIBaseURL: srv.URL, Timeout: time.Second}, "sk", nil).
		Generate(context.Background(), graph.GenerateRequest{Model: "gpt-4"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestChatCompletion_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(config.LLMConfig{OpenAIBaseURL: srv.URL, Timeout: time.Second}, "sk", nil).
		Generate(context.Background(), graph.GenerateRequest{Model: "gpt-4"})
	assert.ErrorContains(t, err, "no choices")
}
