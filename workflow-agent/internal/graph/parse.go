package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireNode accepts both the persisted editor shape, where type and config sit
// under "data", and a flat node.
type wireNode struct {
	ID            string         `json:"id"`
	ComponentType string         `json:"component_type"`
	Config        map[string]any `json:"config"`
	Data          *struct {
		ComponentType string         `json:"component_type"`
		Config        map[string]any `json:"config"`
	} `json:"data"`
}

type wireGraph struct {
	Nodes []wireNode `json:"nodes"`
	Edges []Edge     `json:"edges"`
}

// Decode parses persisted workflow data into a typed Graph. Unknown component
// types and ill-typed configuration values are rejected here.
func Decode(data []byte) (*Graph, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var wg wireGraph
	if err := dec.Decode(&wg); err != nil {
		return nil, &ParseError{Msg: err.Error(), Err: err}
	}

	g := &Graph{
		Nodes: make([]Node, 0, len(wg.Nodes)),
		Edges: wg.Edges,
	}
	for i, wn := range wg.Nodes {
		typeName, raw := wn.ComponentType, wn.Config
		if wn.Data != nil {
			typeName, raw = wn.Data.ComponentType, wn.Data.Config
		}
		if wn.ID == "" {
			return nil, &ParseError{Msg: fmt.Sprintf("nodes[%d]: missing id", i)}
		}
		n, err := NewNode(wn.ID, typeName, normalizeNumbers(raw))
		if err != nil {
			return nil, err
		}
		g.Nodes = append(g.Nodes, n)
	}
	for i, e := range g.Edges {
		if e.ID == "" {
			g.Edges[i].ID = fmt.Sprintf("e-%s-%s", e.Source, e.Target)
		}
	}
	return g, nil
}

// NewNode builds a node from a wire type name and raw configuration.
func NewNode(id, typeName string, raw map[string]any) (Node, error) {
	t, err := ParseComponentType(typeName)
	if err != nil {
		return Node{}, err
	}
	cfg, err := decodeConfig(t, raw)
	if err != nil {
		return Node{}, &ComponentConfigError{NodeID: id, Type: t, Reason: fmt.Sprintf("has invalid configuration: %v", err)}
	}
	return Node{ID: id, Type: t, Config: cfg}, nil
}

// normalizeNumbers converts json.Number leaves into int64 or float64 so the
// weak decoder sees plain Go numbers.
func normalizeNumbers(v map[string]any) map[string]any {
	if v == nil {
		return nil
	}
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = normalizeValue(val)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		return normalizeNumbers(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}
