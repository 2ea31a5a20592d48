package graph

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Defaults applied when a node leaves a setting unset.
const (
	DefaultSystemPrompt   = "You are a helpful AI assistant."
	DefaultTemperature    = 0.7
	DefaultTopK           = 5
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultNumResults     = 5
	DefaultEmbeddingModel = "openai/text-embedding-3-large"
	DefaultSearchAPI      = SearchSerpAPI
)

// SearchProvider names a web search backend as it appears in node config.
type SearchProvider string

const (
	SearchSerpAPI SearchProvider = "SerpAPI"
	SearchBrave   SearchProvider = "Brave Search"
	SearchGoogle  SearchProvider = "Google"
)

// SearchMode selects general web results or news.
type SearchMode string

const (
	SearchGeneral SearchMode = "general"
	SearchNews    SearchMode = "news"
)

// ComponentConfig is the closed set of per-component configurations. Only the
// types defined in this package implement it.
type ComponentConfig interface {
	componentType() ComponentType
	// Validate reports the first business rule the configuration breaks.
	Validate() error
}

// QueryConfig configures the entry node. It has no settings.
type QueryConfig struct{}

// OutputConfig configures the terminal node. It has no settings.
type OutputConfig struct{}

// DocumentRef identifies a document selected for retrieval.
type DocumentRef struct {
	ID   int64  `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// KnowledgeBaseConfig configures retrieval over previously ingested documents.
type KnowledgeBaseConfig struct {
	APIKey            string        `mapstructure:"apiKey"`
	Model             string        `mapstructure:"model"`
	SelectedDocuments []DocumentRef `mapstructure:"selectedDocuments"`
	DocumentIDs       []DocumentRef `mapstructure:"document_ids"`
	TopK              int           `mapstructure:"top_k"`
	ChunkSize         int           `mapstructure:"chunkSize"`
	ChunkOverlap      int           `mapstructure:"chunkOverlap"`
}

// LanguageModelConfig configures a single model call.
type LanguageModelConfig struct {
	Model            string   `mapstructure:"model"`
	APIKey           string   `mapstructure:"apiKey"`
	Prompt           string   `mapstructure:"prompt"`
	Temperature      *float64 `mapstructure:"temperature"`
	MaxTokens        int      `mapstructure:"maxTokens"`
	WebSearchEnabled bool     `mapstructure:"webSearchEnabled"`
	SerpAPI          string   `mapstructure:"serpApi"`
}

// WebSearchConfig configures a standalone web search node.
type WebSearchConfig struct {
	APIKey         string         `mapstructure:"apiKey"`
	SearchAPI      SearchProvider `mapstructure:"searchAPI"`
	NumResults     int            `mapstructure:"numResults"`
	SearchType     string         `mapstructure:"searchType"`
	SearchEngineID string         `mapstructure:"searchEngineId"`
}

func (QueryConfig) componentType() ComponentType          { return QueryIntake }
func (OutputConfig) componentType() ComponentType         { return Output }
func (*KnowledgeBaseConfig) componentType() ComponentType { return KnowledgeBase }
func (*LanguageModelConfig) componentType() ComponentType { return LanguageModel }
func (*WebSearchConfig) componentType() ComponentType     { return WebSearch }

func (QueryConfig) Validate() error  { return nil }
func (OutputConfig) Validate() error { return nil }

func (c *KnowledgeBaseConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("missing apiKey")
	}
	return nil
}

func (c *LanguageModelConfig) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("missing model configuration")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("missing apiKey")
	}
	if c.WebSearchEnabled && strings.TrimSpace(c.SerpAPI) == "" {
		return fmt.Errorf("web search enabled but serpApi key is missing")
	}
	return nil
}

func (c *WebSearchConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("missing apiKey")
	}
	if c.SearchAPI == SearchGoogle && strings.TrimSpace(c.SearchEngineID) == "" {
		return fmt.Errorf("Google search requires searchEngineId")
	}
	return nil
}

// Documents returns the selected document ids in configuration order,
// merging selectedDocuments and document_ids without duplicates.
func (c *KnowledgeBaseConfig) Documents() []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, refs := range [][]DocumentRef{c.SelectedDocuments, c.DocumentIDs} {
		for _, r := range refs {
			if !seen[r.ID] {
				seen[r.ID] = true
				ids = append(ids, r.ID)
			}
		}
	}
	return ids
}

// TemperatureOrDefault returns the configured temperature or 0.7.
func (c *LanguageModelConfig) TemperatureOrDefault() float64 {
	if c.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Temperature
}

// SystemPrompt returns the configured prompt or the default assistant prompt.
func (c *LanguageModelConfig) SystemPrompt() string {
	if strings.TrimSpace(c.Prompt) == "" {
		return DefaultSystemPrompt
	}
	return c.Prompt
}

// Mode reports whether the node searches news or the general web.
func (c *WebSearchConfig) Mode() SearchMode {
	if strings.EqualFold(c.SearchType, string(SearchNews)) {
		return SearchNews
	}
	return SearchGeneral
}

func (c *KnowledgeBaseConfig) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultEmbeddingModel
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = DefaultChunkOverlap
	}
}

func (c *WebSearchConfig) applyDefaults() {
	if c.SearchAPI == "" {
		c.SearchAPI = DefaultSearchAPI
	}
	if c.NumResults <= 0 {
		c.NumResults = DefaultNumResults
	}
}

// decodeConfig turns the raw config mapping of a node into its typed form.
func decodeConfig(t ComponentType, raw map[string]any) (ComponentConfig, error) {
	switch t {
	case QueryIntake:
		return QueryConfig{}, nil
	case Output:
		return OutputConfig{}, nil
	case KnowledgeBase:
		var c KnowledgeBaseConfig
		if err := weakDecode(raw, &c); err != nil {
			return nil, err
		}
		c.applyDefaults()
		return &c, nil
	case LanguageModel:
		var c LanguageModelConfig
		if err := weakDecode(raw, &c); err != nil {
			return nil, err
		}
		return &c, nil
	case WebSearch:
		var c WebSearchConfig
		if err := weakDecode(raw, &c); err != nil {
			return nil, err
		}
		c.applyDefaults()
		return &c, nil
	default:
		return nil, &UnknownComponentTypeError{Type: string(t)}
	}
}

var documentRefType = reflect.TypeOf(DocumentRef{})

// documentRefHook lets selectedDocuments hold bare ids as well as objects.
func documentRefHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != documentRefType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Map, reflect.Struct:
		return data, nil
	default:
		return map[string]any{"id": data}, nil
	}
}

func weakDecode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       documentRefHook,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
