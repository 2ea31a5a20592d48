package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/config"
	"golang.org/x/oauth2"
)

var (
	// ErrMissingAPIKey is returned when a hosted embedding model has no key.
	ErrMissingAPIKey = errors.New("embedding api key not configured")
	// ErrUnsupportedModel is returned for a github:// model outside the catalogue.
	ErrUnsupportedModel = errors.New("embedding model not supported")
)

const (
	githubPrefix = "github://"
	ollamaPrefix = "ollama/"
)

var githubEmbeddingModels = []string{
	"text-embedding-3-large",
	"text-embedding-3-small",
	"openai/text-embedding-3-large",
}

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Model is the model name stored alongside the vectors.
	Model() string
}

// NewEmbedder picks a provider for model. Models prefixed "ollama/" go to the
// local Ollama server; "github://" models and keys starting with "gh" go to
// GitHub Models; everything else goes to OpenAI.
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig, apiKey, model string) (Embedder, error) {
	if name, ok := strings.CutPrefix(model, ollamaPrefix); ok {
		return NewOllamaEmbedder(cfg.OllamaURL, name, cfg.Timeout), nil
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if name, ok := strings.CutPrefix(model, githubPrefix); ok {
		if !slices.Contains(githubEmbeddingModels, name) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, model)
		}
		return NewOpenAIEmbedder(ctx, cfg.GitHubBaseURL, apiKey, name, cfg.Timeout), nil
	}
	if strings.HasPrefix(apiKey, "gh") {
		return NewOpenAIEmbedder(ctx, cfg.GitHubBaseURL, apiKey, model, cfg.Timeout), nil
	}
	return NewOpenAIEmbedder(ctx, cfg.OpenAIBaseURL, apiKey, strings.TrimPrefix(model, "openai/"), cfg.Timeout), nil
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAIEmbedder creates a client that authenticates with apiKey as a
// bearer token.
func NewOpenAIEmbedder(ctx context.Context, baseURL, apiKey, model string, timeout time.Duration) *OpenAIEmbedder {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey}))
	client.Timeout = timeout
	return &OpenAIEmbedder{baseURL: strings.TrimRight(baseURL, "/"), model: model, client: client}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *OpenAIEmbedder) Model() string { return e.model }

// Embed sends every text in a single request.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no chunks")
	}
	data, err := json.Marshal(embeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var eResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&eResp); err != nil {
		return nil, fmt.Errorf("failed decode response: %w", err)
	}
	if len(eResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(eResp.Data))
	}
	sort.Slice(eResp.Data, func(i, j int) bool { return eResp.Data[i].Index < eResp.Data[j].Index })

	out := make([][]float32, len(eResp.Data))
	for i, d := range eResp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// OllamaEmbedder calls a local Ollama server, one text per request.
type OllamaEmbedder struct {
	url    string
	model  string
	client *http.Client
}

// NewOllamaEmbedder creates a client for the Ollama server at baseURL.
func NewOllamaEmbedder(baseURL, model string, timeout time.Duration) *OllamaEmbedder {
	return &OllamaEmbedder{
		url:    strings.TrimRight(baseURL, "/") + "/api/embeddings",
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (e *OllamaEmbedder) Model() string { return ollamaPrefix + e.model }

// Embed produces embeddings for each text by calling Ollama.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no chunks")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed embedding chunk %d: %w", i, err)
		}
		out[i] = emb
	}
	return out, nil
}

func (e *OllamaEmbedder) embedOne(ctx context.Context, text string) ([]float32, error) {
	data, _ := json.Marshal(ollamaRequest{Model: e.model, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama error: %s", string(body))
	}

	var oResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return nil, fmt.Errorf("failed decode response: %w", err)
	}
	if len(oResp.Embedding) == 0 {
		return nil, errors.New("ollama returned an empty embedding")
	}
	return oResp.Embedding, nil
}
