package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Metrics receives run and node observations. The observability package
// provides the Prometheus implementation.
type Metrics interface {
	ObserveRun(status RunStatus, d time.Duration)
	ObserveNode(component ComponentType, degraded bool, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRun(RunStatus, time.Duration)            {}
func (nopMetrics) ObserveNode(ComponentType, bool, time.Duration) {}

type nopRecorder struct{}

func (nopRecorder) Create(context.Context, *RunRecord) error { return nil }
func (nopRecorder) Finish(context.Context, *RunRecord) error { return nil }

// Executor walks a validated graph for a single query and records the outcome.
type Executor struct {
	dispatcher *Dispatcher
	logger     *zap.Logger
	metrics    Metrics
	runs       RunRecorder
	now        func() time.Time
	runTimeout time.Duration
}

// ExecutorOption customises an Executor.
type ExecutorOption func(*Executor)

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) ExecutorOption {
	return func(e *Executor) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithRunRecorder persists run records as they start and finish.
func WithRunRecorder(r RunRecorder) ExecutorOption {
	return func(e *Executor) {
		if r != nil {
			e.runs = r
		}
	}
}

// WithRunTimeout bounds a whole run. Zero means no limit.
func WithRunTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.runTimeout = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

// NewExecutor creates an executor dispatching through d.
func NewExecutor(d *Dispatcher, logger *zap.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{
		dispatcher: d,
		logger:     logger.Named("executor"),
		metrics:    nopMetrics{},
		runs:       nopRecorder{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs g against userQuery. It never returns an error: failures are
// encoded in the record's status and logs.
func (e *Executor) Execute(ctx context.Context, graphID string, g *Graph, userQuery string) *RunRecord {
	rec := newRunRecord(graphID, userQuery)
	start := e.now()
	_ = rec.start(start)

	log := e.logger.With(zap.String("run_id", rec.ID), zap.String("workflow_id", graphID))
	if err := e.runs.Create(ctx, rec); err != nil {
		log.Warn("Failed to persist run start", zap.Error(err))
	}

	if e.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.runTimeout)
		defer cancel()
	}

	res, err := e.traverse(ctx, log, g, userQuery)
	end := e.now()
	if err != nil {
		log.Error("Workflow execution failed", zap.Error(err))
		_ = rec.fail(err, end)
	} else {
		log.Info("Workflow execution completed", zap.Duration("duration", end.Sub(start)))
		_ = rec.complete(res, end)
	}
	e.metrics.ObserveRun(rec.Status, end.Sub(start))

	// The caller's context may already be done; the outcome still has to land.
	if err := e.runs.Finish(context.WithoutCancel(ctx), rec); err != nil {
		log.Warn("Failed to persist run outcome", zap.Error(err))
	}
	return rec
}

func (e *Executor) traverse(ctx context.Context, log *zap.Logger, g *Graph, userQuery string) (*ExecutionResult, error) {
	if g == nil {
		return nil, ErrEmptyGraph
	}
	adj, err := Build(g.Nodes, g.Edges)
	if err != nil {
		return nil, err
	}
	entry, ok := entryNode(g)
	if !ok {
		return nil, ErrNoEntryPoint
	}

	byID := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}

	state := NewState(userQuery)
	visited := make(map[string]bool, len(g.Nodes))
	reached := make(map[ComponentType]bool)
	var notes []string
	var lastResponse string

	stack := []string{entry.ID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run interrupted before node %s: %w", id, err)
		}
		visited[id] = true

		node := byID[id]
		began := e.now()
		out, err := e.dispatcher.Dispatch(ctx, node, state)
		if err != nil {
			return nil, err
		}
		e.metrics.ObserveNode(node.Type, out.Degraded, e.now().Sub(began))
		if out.Degraded {
			log.Warn("Component degraded", zap.String("node_id", id), zap.String("note", out.Note))
			notes = append(notes, fmt.Sprintf("%s: %s", id, out.Note))
		}

		state.Merge(out.Contributions)
		reached[node.Type] = true
		if r, ok := out.Contributions[KeyResponse].(string); ok {
			lastResponse = r
		}

		// Reverse push so successors pop in edge order.
		next := adj[id]
		for i := len(next) - 1; i >= 0; i-- {
			if !visited[next[i]] {
				stack = append(stack, next[i])
			}
		}
	}

	for _, t := range []ComponentType{LanguageModel, Output} {
		if !reached[t] {
			log.Warn("Required component not reached", zap.String("component", string(t)))
			notes = append(notes, fmt.Sprintf("%s component was not reached", t))
		}
	}

	return collect(state, lastResponse, notes), nil
}

// collect reads the final result back from the state.
func collect(state *State, lastResponse string, notes []string) *ExecutionResult {
	response := state.String(KeyResponse)
	if response == "" {
		response = state.String(KeyLLMResponse)
	}
	if response == "" {
		response = lastResponse
	}
	if response == "" {
		response = NoResponseMessage
	}

	var llm *string
	if v, ok := state.Get(KeyLLMResponse); ok {
		if s, ok := v.(string); ok {
			llm = &s
		}
	}

	sources := state.Sources()
	if sources == nil {
		sources = []SourceRef{}
	}

	metadata := make(map[string]any)
	for k, v := range state.Metadata() {
		metadata[k] = v
	}
	if _, ok := metadata[KeyModelUsed]; !ok {
		if v, ok := state.Get(KeyModelUsed); ok {
			metadata[KeyModelUsed] = v
		}
	}
	if _, ok := metadata[KeyWebSearchUsed]; !ok {
		metadata[KeyWebSearchUsed] = state.Bool(KeyWebSearchUsed)
	}
	if _, ok := metadata[KeyError]; !ok && len(notes) > 0 {
		metadata[KeyError] = strings.Join(notes, "; ")
	}

	return &ExecutionResult{
		Response:    response,
		LLMResponse: llm,
		Sources:     sources,
		Metadata:    metadata,
	}
}

func entryNode(g *Graph) (Node, bool) {
	for _, n := range g.Nodes {
		if n.Type == QueryIntake {
			return n, true
		}
	}
	return Node{}, false
}

// IsValidation reports whether err is a validation failure rather than an
// execution or storage problem.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
