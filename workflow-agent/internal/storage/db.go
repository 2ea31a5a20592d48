package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
)

var (
	// ErrDocumentNotFound is returned for an unknown document id.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrRunNotFound is returned for an unknown execution id.
	ErrRunNotFound = errors.New("execution not found")
)

// DBPool is the subset of pgxpool.Pool the pgx-backed stores use.
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NewPool connects the pgx pool used for documents and embeddings.
func NewPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}
	return pool, nil
}

// OpenSQL opens the database/sql handle used for workflows and run records.
func OpenSQL(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS documents (
		id BIGSERIAL PRIMARY KEY,
		filename TEXT NOT NULL,
		original_filename TEXT NOT NULL,
		file_path TEXT NOT NULL,
		file_size BIGINT NOT NULL DEFAULT 0,
		content_type TEXT NOT NULL,
		extracted_text TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS document_embeddings (
		id BIGSERIAL PRIMARY KEY,
		document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		chunk_index INT NOT NULL,
		chunk_text TEXT NOT NULL,
		model TEXT NOT NULL,
		embedding vector NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_document_embeddings_document ON document_embeddings (document_id)`,
	`CREATE TABLE IF NOT EXISTS workflows (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		workflow_data JSONB NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS workflow_executions (
		id TEXT PRIMARY KEY,
		workflow_id TEXT NOT NULL,
		user_query TEXT NOT NULL,
		execution_status TEXT NOT NULL,
		execution_result JSONB,
		execution_logs JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_workflow_executions_workflow ON workflow_executions (workflow_id, created_at DESC)`,
}

// Migrate creates the pgvector extension and every table the agent uses.
func Migrate(ctx context.Context, db DBPool) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
