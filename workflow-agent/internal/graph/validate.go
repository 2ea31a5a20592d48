package graph

import "fmt"

// ValidationReport summarises a graph that passed validation.
type ValidationReport struct {
	NodesCount     int             `json:"nodes_count"`
	EdgesCount     int             `json:"edges_count"`
	ComponentTypes []ComponentType `json:"component_types"`
	Warnings       []string        `json:"warnings,omitempty"`
}

// requiredComponents must each appear at least once in a valid graph.
var requiredComponents = []ComponentType{QueryIntake, Output, LanguageModel}

// Validate checks a graph before execution. The checks run in a fixed order and
// the first failure is returned: empty graph, duplicate node ids, missing
// required components, dangling edges, cycles, then per-node configuration.
func Validate(g *Graph) (*ValidationReport, error) {
	if g == nil || len(g.Nodes) == 0 {
		return nil, ErrEmptyGraph
	}

	ids := make(map[string]bool, len(g.Nodes))
	present := make(map[ComponentType]bool)
	for _, n := range g.Nodes {
		if ids[n.ID] {
			return nil, &DuplicateNodeError{NodeID: n.ID}
		}
		ids[n.ID] = true
		present[n.Type] = true
	}

	for _, t := range requiredComponents {
		if !present[t] {
			return nil, &MissingComponentError{Type: t}
		}
	}

	for _, e := range g.Edges {
		if !ids[e.Source] || !ids[e.Target] {
			return nil, &DanglingEdgeError{EdgeID: e.ID, Source: e.Source, Target: e.Target}
		}
	}

	adj, err := Build(g.Nodes, g.Edges)
	if err != nil {
		return nil, err
	}
	if path := findCycle(g.Nodes, adj); path != nil {
		return nil, &CycleError{Path: path}
	}

	report := &ValidationReport{
		NodesCount:     len(g.Nodes),
		EdgesCount:     len(g.Edges),
		ComponentTypes: g.ComponentTypes(),
	}
	for _, n := range g.Nodes {
		if n.Config == nil || n.Config.componentType() != n.Type {
			return nil, &ComponentConfigError{NodeID: n.ID, Type: n.Type, Reason: "has no configuration for its type"}
		}
		if err := n.Config.Validate(); err != nil {
			return nil, &ComponentConfigError{NodeID: n.ID, Type: n.Type, Reason: err.Error()}
		}
		if kb, ok := n.Config.(*KnowledgeBaseConfig); ok && len(kb.Documents()) == 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s component %s has no selected documents; all documents will be searched", n.Type, n.ID))
		}
	}
	return report, nil
}

type color uint8

const (
	white color = iota // unvisited
	gray               // on the stack
	black              // finished
)

type frame struct {
	id   string
	next int
}

// findCycle runs an iterative depth-first search and returns the first cycle
// as a closed path, or nil for an acyclic graph. A node revisited while still
// gray is on the current stack and closes a cycle; self-loops are included.
func findCycle(nodes []Node, adj Adjacency) []string {
	colors := make(map[string]color, len(nodes))
	for _, root := range nodes {
		if colors[root.ID] != white {
			continue
		}
		colors[root.ID] = gray
		stack := []frame{{id: root.ID}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succ := adj[top.id]
			if top.next >= len(succ) {
				colors[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			next := succ[top.next]
			top.next++
			switch colors[next] {
			case gray:
				return cyclePath(stack, next)
			case white:
				colors[next] = gray
				stack = append(stack, frame{id: next})
			}
		}
	}
	return nil
}

func cyclePath(stack []frame, closing string) []string {
	start := 0
	for i, f := range stack {
		if f.id == closing {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		path = append(path, f.id)
	}
	return append(path, closing)
}
