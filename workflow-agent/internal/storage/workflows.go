package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
)

// Workflow is a persisted workflow definition. Data holds the editor graph.
type Workflow struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"workflow_data"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// WorkflowStore persists workflows and serves them as graphs.
type WorkflowStore struct {
	db *sql.DB
}

// NewWorkflowStore creates a workflow store on db.
func NewWorkflowStore(db *sql.DB) *WorkflowStore {
	return &WorkflowStore{db: db}
}

// Create stores a workflow. Data must decode as a graph; structural
// validation is left to execution time so drafts can be saved.
func (s *WorkflowStore) Create(ctx context.Context, name, description string, data []byte) (*Workflow, error) {
	if _, err := graph.Decode(data); err != nil {
		return nil, err
	}
	w := Workflow{Name: name, Description: description, Data: json.RawMessage(data), IsActive: true}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO workflows (name, description, workflow_data)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, name, description, string(data)).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert workflow: %w", err)
	}
	return &w, nil
}

// Get loads a workflow by id.
func (s *WorkflowStore) Get(ctx context.Context, id int64) (*Workflow, error) {
	var w Workflow
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, workflow_data, is_active, created_at
		FROM workflows WHERE id = $1
	`, id).Scan(&w.ID, &w.Name, &w.Description, &data, &w.IsActive, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", graph.ErrWorkflowNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow %d: %w", id, err)
	}
	w.Data = json.RawMessage(data)
	return &w, nil
}

// List returns active workflows, newest first.
func (s *WorkflowStore) List(ctx context.Context) ([]Workflow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, workflow_data, is_active, created_at
		FROM workflows WHERE is_active
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	out := []Workflow{}
	for rows.Next() {
		var w Workflow
		var data []byte
		if err := rows.Scan(&w.ID, &w.Name, &w.Description, &data, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, err
		}
		w.Data = json.RawMessage(data)
		out = append(out, w)
	}
	return out, rows.Err()
}

// GetGraph implements graph.GraphSource.
func (s *WorkflowStore) GetGraph(ctx context.Context, id string) (*graph.Graph, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", graph.ErrWorkflowNotFound, id)
	}
	w, err := s.Get(ctx, n)
	if err != nil {
		return nil, err
	}
	return graph.Decode(w.Data)
}
