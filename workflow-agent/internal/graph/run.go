package graph

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a workflow run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// ExecutionResult is the payload of a completed run.
type ExecutionResult struct {
	Response    string         `json:"response"`
	LLMResponse *string        `json:"llm_response"`
	Sources     []SourceRef    `json:"sources"`
	Metadata    map[string]any `json:"metadata"`
}

// RunRecord is the outcome of one execution. It is created running and
// mutated exactly once more, to completed or failed.
type RunRecord struct {
	ID          string           `json:"id"`
	GraphID     string           `json:"graph_id"`
	UserQuery   string           `json:"user_query"`
	Status      RunStatus        `json:"status"`
	Result      *ExecutionResult `json:"result,omitempty"`
	Logs        map[string]any   `json:"logs,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

func newRunRecord(graphID, userQuery string) *RunRecord {
	return &RunRecord{
		ID:        uuid.NewString(),
		GraphID:   graphID,
		UserQuery: userQuery,
		Status:    RunPending,
	}
}

func (r *RunRecord) start(now time.Time) error {
	if r.Status != RunPending {
		return &InternalError{Msg: fmt.Sprintf("run %s cannot start from %s", r.ID, r.Status)}
	}
	r.Status = RunRunning
	r.CreatedAt = now
	return nil
}

func (r *RunRecord) complete(res *ExecutionResult, now time.Time) error {
	if r.Status != RunRunning {
		return &InternalError{Msg: fmt.Sprintf("run %s cannot complete from %s", r.ID, r.Status)}
	}
	r.Status = RunCompleted
	r.Result = res
	r.CompletedAt = &now
	return nil
}

func (r *RunRecord) fail(cause error, now time.Time) error {
	if r.Status != RunRunning {
		return &InternalError{Msg: fmt.Sprintf("run %s cannot fail from %s", r.ID, r.Status)}
	}
	r.Status = RunFailed
	r.Logs = map[string]any{"error": cause.Error()}
	r.CompletedAt = &now
	return nil
}
