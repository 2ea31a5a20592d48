package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NodeResult is what a handler hands back to the executor. Degraded marks a
// swallowed component failure; Note says what went wrong.
type NodeResult struct {
	Contributions Contributions
	Degraded      bool
	Note          string
}

func succeeded(c Contributions) NodeResult {
	return NodeResult{Contributions: c}
}

// degraded records the failure under the "error" key as well, so the final
// metadata can surface it.
func degraded(c Contributions, note string) NodeResult {
	c[KeyError] = note
	return NodeResult{Contributions: c, Degraded: true, Note: note}
}

// Dispatcher maps a node to its component handler.
type Dispatcher struct {
	connector Connector
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher that reaches external capabilities
// through connector.
func NewDispatcher(connector Connector, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{connector: connector, logger: logger.Named("dispatcher")}
}

// Dispatch runs the handler for node against the current state. Handlers
// degrade instead of failing, so an error here means the node could not be
// dispatched at all.
func (d *Dispatcher) Dispatch(ctx context.Context, node Node, state *State) (NodeResult, error) {
	log := d.logger.With(zap.String("node_id", node.ID), zap.String("component", string(node.Type)))

	switch cfg := node.Config.(type) {
	case QueryConfig:
		return runQuery(state), nil
	case *KnowledgeBaseConfig:
		return d.runKnowledgeBase(ctx, log, cfg, state), nil
	case *LanguageModelConfig:
		return d.runLanguageModel(ctx, log, cfg, state), nil
	case *WebSearchConfig:
		return d.runWebSearch(ctx, log, cfg, state), nil
	case OutputConfig:
		return runOutput(log, state), nil
	default:
		return NodeResult{}, &ComponentError{
			NodeID: node.ID,
			Cause:  &UnknownComponentTypeError{Type: fmt.Sprintf("%s (%T)", node.Type, node.Config)},
		}
	}
}
