package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// -- Graph builders --

func mustNode(t *testing.T, id, typeName string, cfg map[string]any) Node {
	t.Helper()
	n, err := NewNode(id, typeName, cfg)
	require.NoError(t, err)
	return n
}

func edge(src, tgt string) Edge {
	return Edge{ID: fmt.Sprintf("%s->%s", src, tgt), Source: src, Target: tgt}
}

func llmConfig(apiKey string) map[string]any {
	return map[string]any{"model": "stub", "apiKey": apiKey}
}

// linearGraph is query -> llm -> output.
func linearGraph(t *testing.T) *Graph {
	t.Helper()
	return &Graph{
		Nodes: []Node{
			mustNode(t, "q", "userQuery", nil),
			mustNode(t, "llm", "llm", llmConfig("k")),
			mustNode(t, "out", "outputN", nil),
		},
		Edges: []Edge{edge("q", "llm"), edge("llm", "out")},
	}
}

// -- Capability fakes --

type mockEmbeddings struct {
	mock.Mock
}

func (m *mockEmbeddings) HasEmbeddings(ctx context.Context, documentID int64) (bool, error) {
	args := m.Called(ctx, documentID)
	return args.Bool(0), args.Error(1)
}

func (m *mockEmbeddings) GenerateEmbeddings(ctx context.Context, documentID int64, model string, chunkSize, chunkOverlap int) (int, error) {
	args := m.Called(ctx, documentID, model, chunkSize, chunkOverlap)
	return args.Int(0), args.Error(1)
}

func (m *mockEmbeddings) Search(ctx context.Context, query string, topK int, documentIDs []int64, model string) ([]SearchHit, error) {
	args := m.Called(ctx, query, topK, documentIDs, model)
	hits, _ := args.Get(0).([]SearchHit)
	return hits, args.Error(1)
}

// capturingModel records every request and answers from reply.
type capturingModel struct {
	mu       sync.Mutex
	requests []GenerateRequest
	reply    string
	err      error
}

func (m *capturingModel) Generate(_ context.Context, req GenerateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return m.reply, m.err
}

// keyedSearch returns one result titled after the api key that selected it.
type keyedSearch struct {
	key   string
	count int
	err   error
}

func (s *keyedSearch) Search(_ context.Context, _ string, n int, _ SearchMode) ([]WebResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	count := s.count
	if count == 0 {
		count = 1
	}
	if count > n {
		count = n
	}
	out := make([]WebResult, count)
	for i := range out {
		out[i] = WebResult{Title: s.key, URL: "https://example.com/" + s.key, Snippet: fmt.Sprintf("snippet %d", i)}
	}
	return out, nil
}

// fakeConnector records which capability was asked for, in call order.
type fakeConnector struct {
	mu         sync.Mutex
	calls      []string
	embeddings EmbeddingCapability
	model      *capturingModel
	searchErr  error
	results    int
	targets    []WebSearchTarget
}

func newFakeConnector(reply string) *fakeConnector {
	return &fakeConnector{model: &capturingModel{reply: reply}}
}

func (c *fakeConnector) record(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, s)
}

func (c *fakeConnector) Embeddings(apiKey string) (EmbeddingCapability, error) {
	c.record("kb:" + apiKey)
	if c.embeddings == nil {
		return nil, errors.New("no embedding backend")
	}
	return c.embeddings, nil
}

func (c *fakeConnector) LanguageModel(apiKey string) (LanguageModelCapability, error) {
	c.record("llm:" + apiKey)
	return c.model, nil
}

func (c *fakeConnector) WebSearch(target WebSearchTarget) (WebSearchCapability, error) {
	c.record("ws:" + target.APIKey)
	c.mu.Lock()
	c.targets = append(c.targets, target)
	c.mu.Unlock()
	return &keyedSearch{key: target.APIKey, count: c.results, err: c.searchErr}, nil
}

// -- Run recorder fake --

type recordedRun struct {
	op     string
	status RunStatus
}

type memoryRecorder struct {
	mu   sync.Mutex
	ops  []recordedRun
	runs map[string]RunRecord
}

func newMemoryRecorder() *memoryRecorder {
	return &memoryRecorder{runs: make(map[string]RunRecord)}
}

func (r *memoryRecorder) Create(_ context.Context, rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, recordedRun{op: "create", status: rec.Status})
	r.runs[rec.ID] = *rec
	return nil
}

func (r *memoryRecorder) Finish(_ context.Context, rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, recordedRun{op: "finish", status: rec.Status})
	r.runs[rec.ID] = *rec
	return nil
}

// -- Graph source fake --

type mapSource map[string]*Graph

func (m mapSource) GetGraph(_ context.Context, id string) (*Graph, error) {
	g, ok := m[id]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	return g, nil
}

func newTestExecutor(c Connector, opts ...ExecutorOption) *Executor {
	return NewExecutor(NewDispatcher(c, nil), nil, opts...)
}
