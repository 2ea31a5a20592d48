package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/api"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/config"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/connector"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/embedding"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/observability"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/processing"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/storage"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/websearch"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// app holds the connections and services shared by the commands.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	pool  *pgxpool.Pool
	db    *sql.DB
	redis *redis.Client
	reg   *prometheus.Registry

	documents  *storage.DocumentStore
	workflows  *storage.WorkflowStore
	runs       *storage.RunStore
	embeddings *embedding.Service
	service    *graph.Service
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Get()
	a := &app{cfg: cfg, log: observability.GetLogger(), reg: prometheus.NewRegistry()}

	pool, err := storage.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	a.pool = pool

	if cfg.Postgres.Migrate {
		if err := storage.Migrate(ctx, pool); err != nil {
			a.Close()
			return nil, err
		}
	}

	db, err := storage.OpenSQL(ctx, cfg.Postgres.URL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.db = db

	a.documents = storage.NewDocumentStore(pool)
	a.workflows = storage.NewWorkflowStore(db)
	a.runs = storage.NewRunStore(db)
	a.embeddings = embedding.NewService(
		a.documents,
		storage.NewVectorStore(pool, a.log),
		func(ctx context.Context, apiKey, model string) (processing.Embedder, error) {
			return processing.NewEmbedder(ctx, cfg.Embedding, apiKey, model)
		},
		cfg.Embedding.BatchSize,
		a.log,
	)

	a.redis = websearch.NewRedisClient(ctx, cfg.Redis, a.log)
	searchMetrics := websearch.NewMetrics(a.reg)
	search := websearch.NewFactory(cfg.Search, websearch.NewCache(a.redis, cfg.Search.CacheTTL, searchMetrics, a.log), searchMetrics)

	conn := connector.New(a.embeddings, cfg.LLM, search, a.log)
	executor := graph.NewExecutor(
		graph.NewDispatcher(conn, a.log),
		a.log,
		graph.WithMetrics(observability.NewExecutorMetrics(a.reg)),
		graph.WithRunRecorder(a.runs),
		graph.WithRunTimeout(cfg.Engine.RunTimeout),
	)
	a.service = graph.NewService(a.workflows, executor, a.log)
	return a, nil
}

func (a *app) server() *api.Server {
	health := map[string]api.Pinger{
		"postgres": a.pool.Ping,
	}
	if a.redis != nil {
		health["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}
	return api.NewServer(api.Deps{
		Workflows: a.service,
		Store:     a.workflows,
		Runs:      a.runs,
		Logger:    a.log,
		Gatherer:  a.reg,
		Metrics:   api.NewHTTPMetrics(a.reg),
		Health:    health,
	})
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// loadGraphFile decodes a workflow file; .hcl files use the HCL syntax and
// everything else is read as editor JSON.
func loadGraphFile(path string) (*graph.Graph, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return graph.DecodeHCL(src, path)
	}
	g, err := graph.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
