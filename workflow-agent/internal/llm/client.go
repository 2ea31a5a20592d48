// Package llm routes generation requests to OpenAI, GitHub Models or Ollama
// based on the model name.
package llm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/config"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedModel = errors.New("unsupported model")
	ErrMissingAPIKey    = errors.New("api key not configured")
)

const (
	githubPrefix = "github://"
	ollamaPrefix = "ollama/"
)

// GitHubModels is the catalogue accepted behind the github:// scheme.
var GitHubModels = []string{
	"gpt-4o-mini",
	"Meta-Llama-3-8B-Instruct",
	"openai/gpt-4.1",
}

// OpenAIModels lists the chat models offered for OpenAI keys.
var OpenAIModels = []string{
	"gpt-3.5-turbo",
	"gpt-3.5-turbo-16k",
	"gpt-4",
	"gpt-4-turbo-preview",
	"gpt-4o-mini",
}

// Client implements graph.LanguageModelCapability for one API key.
type Client struct {
	cfg    config.LLMConfig
	apiKey string
	log    *zap.Logger
}

var _ graph.LanguageModelCapability = (*Client)(nil)

// NewClient binds apiKey to the configured provider endpoints.
func NewClient(cfg config.LLMConfig, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, apiKey: apiKey, log: logger.Named("llm")}
}

// Generate sends req to the provider its model selects:
//
//	github://NAME   GitHub Models, NAME must be in GitHubModels
//	ollama/NAME     local Ollama server
//	gpt*, openai*   OpenAI, or GitHub Models when the key is a GitHub token
func (c *Client) Generate(ctx context.Context, req graph.GenerateRequest) (string, error) {
	model := req.Model
	log := c.log.With(zap.String("model", model))

	var (
		text string
		err  error
	)
	switch {
	case strings.HasPrefix(model, githubPrefix):
		name := strings.TrimPrefix(model, githubPrefix)
		if !slices.Contains(GitHubModels, name) {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedModel, model)
		}
		if err := c.requireKey(); err != nil {
			return "", err
		}
		req.Model = name
		text, err = chatCompletion(ctx, c.chatClient(ctx), c.cfg.GitHubBaseURL, req)
	case strings.HasPrefix(model, ollamaPrefix):
		req.Model = strings.TrimPrefix(model, ollamaPrefix)
		text, err = ollamaGenerate(ctx, c.cfg.OllamaURL, c.cfg.Timeout, req)
	case strings.HasPrefix(model, "gpt"), strings.HasPrefix(model, "openai"):
		if err := c.requireKey(); err != nil {
			return "", err
		}
		base := c.cfg.OpenAIBaseURL
		if strings.HasPrefix(c.apiKey, "gh") {
			base = c.cfg.GitHubBaseURL
		}
		text, err = chatCompletion(ctx, c.chatClient(ctx), base, req)
	default:
		log.Error("Unsupported model")
		return "", fmt.Errorf("%w: %s", ErrUnsupportedModel, model)
	}
	if err != nil {
		log.Error("Generation failed", zap.Error(err))
		return "", err
	}
	log.Debug("Generated response", zap.Int("chars", len(text)))
	return text, nil
}

func (c *Client) requireKey() error {
	if strings.TrimSpace(c.apiKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}
