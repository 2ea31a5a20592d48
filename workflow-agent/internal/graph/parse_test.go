package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const editorWorkflow = `{
  "nodes": [
    {"id": "1", "type": "custom", "data": {"component_type": "userQuery", "config": {}}},
    {"id": "2", "type": "custom", "data": {"component_type": "knowledgeBase", "config": {
      "apiKey": "sk-kb", "selectedDocuments": [{"id": 7, "name": "guide.pdf"}, 9], "document_ids": [9, 11], "top_k": "3"
    }}},
    {"id": "3", "type": "custom", "data": {"component_type": "llm", "config": {
      "model": "gpt-4o-mini", "apiKey": "sk-llm", "temperature": "0.2", "maxTokens": 256, "prompt": "Be brief."
    }}},
    {"id": "4", "type": "custom", "data": {"component_type": "outputN", "config": {}}}
  ],
  "edges": [
    {"id": "e1-2", "source": "1", "target": "2"},
    {"source": "2", "target": "3"},
    {"id": "e3-4", "source": "3", "target": "4"}
  ]
}`

func TestDecode_EditorShape(t *testing.T) {
	g, err := Decode([]byte(editorWorkflow))
	require.NoError(t, err)
	require.Len(t, g.Nodes, 4)
	require.Len(t, g.Edges, 3)

	assert.Equal(t, []ComponentType{QueryIntake, KnowledgeBase, LanguageModel, Output}, g.ComponentTypes())
	assert.Equal(t, "e-2-3", g.Edges[1].ID)

	kb, ok := g.Nodes[1].Config.(*KnowledgeBaseConfig)
	require.True(t, ok)
	assert.Equal(t, "sk-kb", kb.APIKey)
	assert.Equal(t, 3, kb.TopK)
	assert.Equal(t, []int64{7, 9, 11}, kb.Documents())
	assert.Equal(t, "guide.pdf", kb.SelectedDocuments[0].Name)
	assert.Equal(t, DefaultEmbeddingModel, kb.Model)
	assert.Equal(t, DefaultChunkSize, kb.ChunkSize)
	assert.Equal(t, DefaultChunkOverlap, kb.ChunkOverlap)

	llm, ok := g.Nodes[2].Config.(*LanguageModelConfig)
	require.True(t, ok)
	assert.InDelta(t, 0.2, llm.TemperatureOrDefault(), 1e-9)
	assert.Equal(t, 256, llm.MaxTokens)
	assert.Equal(t, "Be brief.", llm.SystemPrompt())

	_, err = Validate(g)
	assert.NoError(t, err)
}

func TestDecode_FlatNodesAndAliases(t *testing.T) {
	src := `{
	  "nodes": [
	    {"id": "q", "component_type": "user_query"},
	    {"id": "w", "component_type": "web_search", "config": {"apiKey": "b", "searchAPI": "Brave Search", "searchType": "News"}},
	    {"id": "l", "component_type": "llm_engine", "config": {"model": "ollama/llama3", "apiKey": "x"}},
	    {"id": "o", "component_type": "output"}
	  ],
	  "edges": [{"id": "a", "source": "q", "target": "w"}]
	}`
	g, err := Decode([]byte(src))
	require.NoError(t, err)

	ws := g.Nodes[1].Config.(*WebSearchConfig)
	assert.Equal(t, SearchBrave, ws.SearchAPI)
	assert.Equal(t, SearchNews, ws.Mode())
	assert.Equal(t, DefaultNumResults, ws.NumResults)

	llm := g.Nodes[2].Config.(*LanguageModelConfig)
	assert.Equal(t, DefaultTemperature, llm.TemperatureOrDefault())
	assert.Equal(t, DefaultSystemPrompt, llm.SystemPrompt())
}

func TestDecode_Errors(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		_, err := Decode([]byte(`{"nodes": [`))
		var perr *ParseError
		assert.ErrorAs(t, err, &perr)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("missing node id", func(t *testing.T) {
		_, err := Decode([]byte(`{"nodes": [{"component_type": "llm"}]}`))
		var perr *ParseError
		assert.ErrorAs(t, err, &perr)
	})

	t.Run("unknown component type", func(t *testing.T) {
		_, err := Decode([]byte(`{"nodes": [{"id": "x", "component_type": "mystery"}]}`))
		var unknown *UnknownComponentTypeError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "mystery", unknown.Type)
	})

	t.Run("ill typed config", func(t *testing.T) {
		_, err := Decode([]byte(`{"nodes": [{"id": "l", "component_type": "llm", "config": {"maxTokens": "many"}}]}`))
		var cfgErr *ComponentConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "l", cfgErr.NodeID)
		assert.Contains(t, cfgErr.Reason, "invalid configuration")
	})
}

const hclWorkflow = `
node "q" {
  type = "userQuery"
}

node "kb" {
  type = "knowledgeBase"
  config = {
    apiKey            = "sk-kb"
    selectedDocuments = [1, 2]
    top_k             = 4
  }
}

node "llm" {
  type = "llm"
  config = {
    model       = "gpt-4o-mini"
    apiKey      = "sk-llm"
    temperature = 0.1
  }
}

node "out" {
  type = "outputN"
}

edge "e1" {
  source = "q"
  target = "kb"
}

edge "e2" {
  source = "kb"
  target = "llm"
}

edge "e3" {
  source = "llm"
  target = "out"
}
`

func TestDecodeHCL(t *testing.T) {
	g, err := DecodeHCL([]byte(hclWorkflow), "workflow.hcl")
	require.NoError(t, err)
	require.Len(t, g.Nodes, 4)
	assert.Equal(t, []Edge{
		{ID: "e1", Source: "q", Target: "kb"},
		{ID: "e2", Source: "kb", Target: "llm"},
		{ID: "e3", Source: "llm", Target: "out"},
	}, g.Edges)

	kb := g.Nodes[1].Config.(*KnowledgeBaseConfig)
	assert.Equal(t, []int64{1, 2}, kb.Documents())
	assert.Equal(t, 4, kb.TopK)

	llm := g.Nodes[2].Config.(*LanguageModelConfig)
	assert.InDelta(t, 0.1, llm.TemperatureOrDefault(), 1e-9)

	_, err = Validate(g)
	assert.NoError(t, err)
}

func TestDecodeHCL_Diagnostics(t *testing.T) {
	_, err := DecodeHCL([]byte(`node "q" {`), "broken.hcl")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), "broken.hcl")
}

func TestParseComponentType(t *testing.T) {
	for name, want := range componentAliases {
		got, err := ParseComponentType(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, "LLM Engine", LanguageModel.String())
}
