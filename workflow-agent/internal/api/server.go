// Package api exposes workflow validation and execution over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/config"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/storage"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// WorkflowService validates and runs stored workflows.
type WorkflowService interface {
	ValidateWorkflow(ctx context.Context, id string) (*graph.ValidationReport, error)
	ExecuteWorkflow(ctx context.Context, id, query string) (*graph.RunRecord, error)
}

// RunReader reads persisted run records.
type RunReader interface {
	Get(ctx context.Context, id string) (*graph.RunRecord, error)
	ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]graph.RunRecord, error)
}

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	Create(ctx context.Context, name, description string, data []byte) (*storage.Workflow, error)
	List(ctx context.Context) ([]storage.Workflow, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// Deps are the collaborators of a Server. Health entries are optional.
type Deps struct {
	Workflows WorkflowService
	Store     WorkflowRepository
	Runs      RunReader
	Logger    *zap.Logger
	Gatherer  prometheus.Gatherer
	Metrics   *HTTPMetrics
	Health    map[string]Pinger
}

// Server routes the workflow API.
type Server struct {
	deps   Deps
	router *mux.Router
	log    *zap.Logger
}

// NewServer builds the router.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{deps: deps, router: mux.NewRouter(), log: deps.Logger.Named("api")}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.middleware)
	}

	r.HandleFunc("/workflows", s.handleListWorkflows).Methods("GET")
	r.HandleFunc("/workflows", s.handleCreateWorkflow).Methods("POST")
	r.HandleFunc("/workflows/validate", s.handleValidateGraph).Methods("POST")
	r.HandleFunc("/workflows/{id}/validate", s.handleValidateWorkflow).Methods("POST")
	r.HandleFunc("/workflows/{id}/execute", s.handleExecuteWorkflow).Methods("POST")
	r.HandleFunc("/workflows/{id}/executions", s.handleListExecutions).Methods("GET")
	r.HandleFunc("/executions/{id}", s.handleGetExecution).Methods("GET")
	r.HandleFunc("/quick-chat", s.handleQuickChat).Methods("POST")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Workflow API starting", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down gracefully...")
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("Server exited")
	return nil
}
