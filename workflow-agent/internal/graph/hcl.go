package graph

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// hclFile is the HCL authoring form of a workflow:
//
//	node "llm" {
//	  type   = "llm"
//	  config = { model = "gpt-4o-mini", apiKey = "sk-..." }
//	}
//	edge "e1" {
//	  source = "query"
//	  target = "llm"
//	}
type hclFile struct {
	Nodes []hclNode `hcl:"node,block"`
	Edges []hclEdge `hcl:"edge,block"`
}

type hclNode struct {
	ID     string    `hcl:"id,label"`
	Type   string    `hcl:"type"`
	Config cty.Value `hcl:"config,optional"`
}

type hclEdge struct {
	ID     string `hcl:"id,label"`
	Source string `hcl:"source"`
	Target string `hcl:"target"`
}

// DecodeHCL parses a workflow authored in HCL. filename must end in .hcl and is
// used in diagnostics.
func DecodeHCL(src []byte, filename string) (*Graph, error) {
	var f hclFile
	if err := hclsimple.Decode(filename, src, nil, &f); err != nil {
		return nil, &ParseError{Msg: err.Error(), Err: err}
	}

	g := &Graph{Nodes: make([]Node, 0, len(f.Nodes)), Edges: make([]Edge, 0, len(f.Edges))}
	for _, hn := range f.Nodes {
		raw, err := ctyToMap(hn.Config)
		if err != nil {
			return nil, &ParseError{Msg: fmt.Sprintf("node %q: %v", hn.ID, err), Err: err}
		}
		n, err := NewNode(hn.ID, hn.Type, raw)
		if err != nil {
			return nil, err
		}
		g.Nodes = append(g.Nodes, n)
	}
	for _, he := range f.Edges {
		g.Edges = append(g.Edges, Edge{ID: he.ID, Source: he.Source, Target: he.Target})
	}
	return g, nil
}

// ctyToMap bridges an HCL object value to the same mapping JSON decoding yields.
func ctyToMap(v cty.Value) (map[string]any, error) {
	if v.IsNull() {
		return nil, nil
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("config must be an object, got %s", ty.FriendlyName())
	}
	b, err := ctyjson.Marshal(v, ty)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return normalizeNumbers(m), nil
}
