package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic checks via errors.Is().
var (
	// ErrValidation is matched by every structural or configuration failure.
	ErrValidation = errors.New("invalid workflow")

	// ErrEmptyGraph indicates a graph with no nodes.
	ErrEmptyGraph = fmt.Errorf("%w: workflow must have at least one node", ErrValidation)

	// ErrCyclicGraph indicates the node/edge digraph contains a cycle.
	ErrCyclicGraph = fmt.Errorf("%w: workflow contains cycles", ErrValidation)

	// ErrNoEntryPoint is an executor-level failure: no QueryIntake node to start from.
	ErrNoEntryPoint = errors.New("no user query component found")

	// ErrInternal marks contract violations between the executor's own stages.
	ErrInternal = errors.New("internal error")

	// ErrWorkflowNotFound is returned by a GraphSource for an unknown id.
	ErrWorkflowNotFound = errors.New("workflow not found")
)

// MissingComponentError reports a required component type absent from the graph.
type MissingComponentError struct {
	Type ComponentType
}

func (e *MissingComponentError) Error() string {
	return fmt.Sprintf("%s: workflow must have a %s component", ErrValidation, e.Type)
}

func (e *MissingComponentError) Unwrap() error { return ErrValidation }

// DuplicateNodeError reports two nodes sharing an id.
type DuplicateNodeError struct {
	NodeID string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("%s: duplicate node id %q", ErrValidation, e.NodeID)
}

func (e *DuplicateNodeError) Unwrap() error { return ErrValidation }

// DanglingEdgeError reports an edge whose source or target is not a node.
type DanglingEdgeError struct {
	EdgeID string
	Source string
	Target string
}

func (e *DanglingEdgeError) Error() string {
	return fmt.Sprintf("%s: invalid edge connection %q: %s -> %s", ErrValidation, e.EdgeID, e.Source, e.Target)
}

func (e *DanglingEdgeError) Unwrap() error { return ErrValidation }

// CycleError carries the path of the first cycle found. It matches ErrCyclicGraph.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return ErrCyclicGraph.Error()
	}
	return fmt.Sprintf("%s: %s", ErrCyclicGraph, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicGraph }

// ComponentConfigError reports a node whose configuration breaks a rule.
type ComponentConfigError struct {
	NodeID string
	Type   ComponentType
	Reason string
}

func (e *ComponentConfigError) Error() string {
	return fmt.Sprintf("%s: %s component %s %s", ErrValidation, e.Type, e.NodeID, e.Reason)
}

func (e *ComponentConfigError) Unwrap() error { return ErrValidation }

// UnknownComponentTypeError reports a component type outside the closed set.
type UnknownComponentTypeError struct {
	Type string
}

func (e *UnknownComponentTypeError) Error() string {
	return fmt.Sprintf("%s: unknown component type: %s", ErrValidation, e.Type)
}

func (e *UnknownComponentTypeError) Unwrap() error { return ErrValidation }

// ParseError reports a graph document that could not be decoded at all.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: malformed workflow data: %s", ErrValidation, e.Msg)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// InternalError marks a broken contract between executor stages, such as an
// edge reaching the builder that the validator should have rejected.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInternal, e.Msg)
}

func (e *InternalError) Unwrap() error { return ErrInternal }

// ComponentError wraps a failure that escaped a node's handler.
type ComponentError struct {
	NodeID string
	Cause  error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("component %s failed: %v", e.NodeID, e.Cause)
}

func (e *ComponentError) Unwrap() error { return e.Cause }
