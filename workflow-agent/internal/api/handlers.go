package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/storage"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// CreateWorkflowRequest is the payload of POST /workflows.
type CreateWorkflowRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	WorkflowData json.RawMessage `json:"workflow_data"`
}

// ValidationResponse reports whether a workflow passed validation.
type ValidationResponse struct {
	Valid             bool                    `json:"valid"`
	Message           string                  `json:"message"`
	ValidationDetails *graph.ValidationReport `json:"validation_details"`
}

// ExecutionResponse is a persisted run as the API returns it.
type ExecutionResponse struct {
	ID              string                 `json:"id"`
	WorkflowID      string                 `json:"workflow_id"`
	UserQuery       string                 `json:"user_query"`
	ExecutionStatus graph.RunStatus        `json:"execution_status"`
	ExecutionResult *graph.ExecutionResult `json:"execution_result"`
	ExecutionLogs   map[string]any         `json:"execution_logs"`
	CreatedAt       time.Time              `json:"created_at"`
	CompletedAt     *time.Time             `json:"completed_at"`
}

// ChatResponse is the reply of POST /quick-chat.
type ChatResponse struct {
	Response    string            `json:"response"`
	ExecutionID string            `json:"execution_id"`
	Sources     []graph.SourceRef `json:"sources"`
	Metadata    map[string]any    `json:"metadata"`
}

func newExecutionResponse(rec *graph.RunRecord) ExecutionResponse {
	return ExecutionResponse{
		ID:              rec.ID,
		WorkflowID:      rec.GraphID,
		UserQuery:       rec.UserQuery,
		ExecutionStatus: rec.Status,
		ExecutionResult: rec.Result,
		ExecutionLogs:   rec.Logs,
		CreatedAt:       rec.CreatedAt,
		CompletedAt:     rec.CompletedAt,
	}
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	ws, err := s.deps.Store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, ws)
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkflowRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Name == "" || len(req.WorkflowData) == 0 {
		http.Error(w, "name and workflow_data are required", http.StatusBadRequest)
		return
	}

	wf, err := s.deps.Store.Create(r.Context(), req.Name, req.Description, req.WorkflowData)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, wf)
}

// handleValidateGraph validates a workflow sent in the request body without
// storing it.
func (s *Server) handleValidateGraph(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	g, err := decodeGraph(body)
	if err != nil {
		writeJSONResponse(w, http.StatusOK, invalid(err))
		return
	}
	report, err := graph.Validate(g)
	writeJSONResponse(w, http.StatusOK, validationResponse(report, err))
}

func (s *Server) handleValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	report, err := s.deps.Workflows.ValidateWorkflow(r.Context(), id)
	if err != nil && !graph.IsValidation(err) {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, validationResponse(report, err))
}

func (s *Server) handleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	query := r.URL.Query().Get("user_query")
	if query == "" {
		http.Error(w, "user_query parameter is required", http.StatusBadRequest)
		return
	}

	rec, err := s.execute(r.Context(), id, query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newExecutionResponse(rec))
}

func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.deps.Runs.ListByWorkflow(r.Context(), id, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]ExecutionResponse, len(runs))
	for i := range runs {
		out[i] = newExecutionResponse(&runs[i])
	}
	writeJSONResponse(w, http.StatusOK, out)
}

func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Runs.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newExecutionResponse(rec))
}

// handleQuickChat runs a workflow once and returns only the answer.
func (s *Server) handleQuickChat(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, message := q.Get("workflow_id"), q.Get("message")
	if id == "" || message == "" {
		http.Error(w, "workflow_id and message parameters are required", http.StatusBadRequest)
		return
	}

	rec, err := s.execute(r.Context(), id, message)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := ChatResponse{
		Response:    "No response generated",
		ExecutionID: rec.ID,
		Sources:     []graph.SourceRef{},
		Metadata:    map[string]any{},
	}
	if res := rec.Result; res != nil {
		if res.Response != "" {
			resp.Response = res.Response
		}
		if res.Sources != nil {
			resp.Sources = res.Sources
		}
		if res.Metadata != nil {
			resp.Metadata = res.Metadata
		}
	}
	if rec.Status == graph.RunFailed {
		resp.Metadata = map[string]any{"error": rec.Logs["error"]}
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{"status": "healthy"}
	for name, ping := range s.deps.Health {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		if err := ping(ctx); err != nil {
			health[name] = "disconnected"
		} else {
			health[name] = "connected"
		}
		cancel()
	}
	writeJSONResponse(w, http.StatusOK, health)
}

func (s *Server) execute(ctx context.Context, id, query string) (*graph.RunRecord, error) {
	rec, err := s.deps.Workflows.ExecuteWorkflow(ctx, id, query)
	if err != nil {
		return nil, err
	}
	s.log.Info("Workflow executed",
		zap.String("workflow_id", id),
		zap.String("run_id", rec.ID),
		zap.String("status", string(rec.Status)))
	return rec, nil
}

func decodeGraph(body []byte) (*graph.Graph, error) {
	// Accept either the bare graph or {"workflow_data": graph}.
	var wrapped struct {
		WorkflowData json.RawMessage `json:"workflow_data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.WorkflowData) > 0 {
		body = wrapped.WorkflowData
	}
	return graph.Decode(body)
}

func validationResponse(report *graph.ValidationReport, err error) ValidationResponse {
	if err != nil {
		return invalid(err)
	}
	return ValidationResponse{Valid: true, Message: "Workflow is valid", ValidationDetails: report}
}

func invalid(err error) ValidationResponse {
	return ValidationResponse{Valid: false, Message: err.Error()}
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, graph.ErrWorkflowNotFound):
		http.Error(w, "Workflow not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrRunNotFound):
		http.Error(w, "Execution not found", http.StatusNotFound)
	case graph.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("Request failed", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
