package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
	"github.com/lib/pq"
)

// RunStore persists workflow run records in workflow_executions.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a run store on db.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Create inserts a run as it starts.
func (s *RunStore) Create(ctx context.Context, rec *graph.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_executions (id, workflow_id, user_query, execution_status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, rec.GraphID, rec.UserQuery, string(rec.Status), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert execution %s: %w", rec.ID, err)
	}
	return nil
}

// Finish stores the terminal status, result and logs of a run.
func (s *RunStore) Finish(ctx context.Context, rec *graph.RunRecord) error {
	var result, logs any
	if rec.Result != nil {
		b, err := json.Marshal(rec.Result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		result = string(b)
	}
	if rec.Logs != nil {
		b, err := json.Marshal(rec.Logs)
		if err != nil {
			return fmt.Errorf("encode logs: %w", err)
		}
		logs = string(b)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE workflow_executions
		SET execution_status = $2, execution_result = $3, execution_logs = $4, completed_at = $5
		WHERE id = $1
	`, rec.ID, string(rec.Status), result, logs, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("update execution %s: %w", rec.ID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, rec.ID)
	}
	return nil
}

const runColumns = `id, workflow_id, user_query, execution_status, execution_result, execution_logs, created_at, completed_at`

// Get loads a run record by id.
func (s *RunStore) Get(ctx context.Context, id string) (*graph.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM workflow_executions WHERE id = $1`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return rec, err
}

// ListByWorkflow returns the most recent runs of a workflow, newest first.
func (s *RunStore) ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]graph.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM workflow_executions
		WHERE workflow_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	runs := []graph.RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *rec)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*graph.RunRecord, error) {
	var (
		rec         graph.RunRecord
		status      string
		result      []byte
		logs        []byte
		completedAt pq.NullTime
	)
	if err := row.Scan(&rec.ID, &rec.GraphID, &rec.UserQuery, &status, &result, &logs, &rec.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	rec.Status = graph.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	if len(result) > 0 {
		rec.Result = &graph.ExecutionResult{}
		if err := json.Unmarshal(result, rec.Result); err != nil {
			return nil, fmt.Errorf("decode result of %s: %w", rec.ID, err)
		}
	}
	if len(logs) > 0 {
		if err := json.Unmarshal(logs, &rec.Logs); err != nil {
			return nil, fmt.Errorf("decode logs of %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}
