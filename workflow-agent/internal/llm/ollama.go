package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
)

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Options ollamaOptions `json:"options"`
}

// Ollama streams chunks like { "response": "...", "done": false }.
type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func ollamaGenerate(ctx context.Context, baseURL string, timeout time.Duration, req graph.GenerateRequest) (string, error) {
	reqBody, _ := json.Marshal(ollamaRequest{
		Model:   req.Model,
		Prompt:  req.UserPrompt,
		System:  req.SystemPrompt,
		Options: ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/api/generate", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("creating ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama error: %s", strings.TrimSpace(string(detail)))
	}

	var out strings.Builder
	decoder := json.NewDecoder(resp.Body)
	for {
		var chunk ollamaResponse
		if err := decoder.Decode(&chunk); err == io.EOF {
			break
		} else if err != nil {
			return "", fmt.Errorf("decoding ollama response: %w", err)
		}
		out.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}
	return strings.TrimSpace(out.String()), nil
}
