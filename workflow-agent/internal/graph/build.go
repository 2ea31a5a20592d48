package graph

import "fmt"

// Adjacency maps a node id to its successors in edge input order.
type Adjacency map[string][]string

// Build compiles nodes and edges into an adjacency map. It performs no
// validation; an edge naming an unknown node is a caller bug and yields an
// InternalError.
func Build(nodes []Node, edges []Edge) (Adjacency, error) {
	adj := make(Adjacency, len(nodes))
	for _, n := range nodes {
		adj[n.ID] = []string{}
	}
	for _, e := range edges {
		if _, ok := adj[e.Source]; !ok {
			return nil, &InternalError{Msg: fmt.Sprintf("edge %q references unknown source %q", e.ID, e.Source)}
		}
		if _, ok := adj[e.Target]; !ok {
			return nil, &InternalError{Msg: fmt.Sprintf("edge %q references unknown target %q", e.ID, e.Target)}
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj, nil
}
