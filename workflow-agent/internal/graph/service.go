package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Service validates and executes persisted workflows.
type Service struct {
	graphs   GraphSource
	executor *Executor
	logger   *zap.Logger
}

// NewService wires a graph source to an executor.
func NewService(graphs GraphSource, executor *Executor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{graphs: graphs, executor: executor, logger: logger.Named("workflow_service")}
}

// ValidateWorkflow loads and validates the workflow with the given id.
func (s *Service) ValidateWorkflow(ctx context.Context, id string) (*ValidationReport, error) {
	g, err := s.graphs.GetGraph(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading workflow %s: %w", id, err)
	}
	return Validate(g)
}

// ExecuteWorkflow validates the workflow and runs it for query. A validation
// failure is returned as an error and no run record is produced.
func (s *Service) ExecuteWorkflow(ctx context.Context, id, query string) (*RunRecord, error) {
	g, err := s.graphs.GetGraph(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading workflow %s: %w", id, err)
	}
	if _, err := Validate(g); err != nil {
		s.logger.Info("Workflow rejected", zap.String("workflow_id", id), zap.Error(err))
		return nil, err
	}
	return s.executor.Execute(ctx, id, g, query), nil
}

// Run validates and executes an in-memory graph, as the CLI does for files.
func (s *Service) Run(ctx context.Context, id string, g *Graph, query string) (*RunRecord, error) {
	if _, err := Validate(g); err != nil {
		return nil, err
	}
	return s.executor.Execute(ctx, id, g, query), nil
}
