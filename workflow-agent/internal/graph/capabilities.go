package graph

import "context"

// SearchHit is one chunk returned by a similarity search, most similar first.
type SearchHit struct {
	DocumentID      int64
	DocumentName    string
	ChunkText       string
	SimilarityScore float64
}

// EmbeddingCapability generates and searches document embeddings.
type EmbeddingCapability interface {
	HasEmbeddings(ctx context.Context, documentID int64) (bool, error)
	GenerateEmbeddings(ctx context.Context, documentID int64, model string, chunkSize, chunkOverlap int) (int, error)
	// Search returns up to topK hits; a nil documentIDs searches every document.
	Search(ctx context.Context, query string, topK int, documentIDs []int64, model string) ([]SearchHit, error)
}

// GenerateRequest is a single language-model call.
type GenerateRequest struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	Temperature  float64
	// MaxTokens of zero leaves the provider default.
	MaxTokens int
}

// LanguageModelCapability produces text for a prompt.
type LanguageModelCapability interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// WebResult is one ranked web search snippet.
type WebResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Snippet       string `json:"snippet"`
	PublishedDate string `json:"published_date,omitempty"`
	Source        string `json:"source,omitempty"`
}

// WebSearchCapability runs web or news searches.
type WebSearchCapability interface {
	Search(ctx context.Context, query string, numResults int, mode SearchMode) ([]WebResult, error)
}

// WebSearchTarget selects a provider and the credentials bound to a node.
type WebSearchTarget struct {
	Provider SearchProvider
	APIKey   string
	EngineID string
}

// Connector binds the credentials configured on a node to capability clients.
// Handlers never hold long-lived clients; they ask the connector per node.
type Connector interface {
	Embeddings(apiKey string) (EmbeddingCapability, error)
	LanguageModel(apiKey string) (LanguageModelCapability, error)
	WebSearch(target WebSearchTarget) (WebSearchCapability, error)
}

// GraphSource is read-only access to persisted workflow graphs.
type GraphSource interface {
	GetGraph(ctx context.Context, id string) (*Graph, error)
}

// RunRecorder persists run records. Create is called once when the run starts
// and Finish once when it reaches a terminal state.
type RunRecorder interface {
	Create(ctx context.Context, rec *RunRecord) error
	Finish(ctx context.Context, rec *RunRecord) error
}
