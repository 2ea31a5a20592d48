package graph

import "fmt"

// ComponentType names one of the five component kinds a workflow node can be.
type ComponentType string

const (
	QueryIntake   ComponentType = "userQuery"
	KnowledgeBase ComponentType = "knowledgeBase"
	LanguageModel ComponentType = "llm"
	WebSearch     ComponentType = "webSearch"
	Output        ComponentType = "outputN"
)

// componentAliases maps every accepted wire name to its canonical type.
var componentAliases = map[string]ComponentType{
	"userQuery":      QueryIntake,
	"user_query":     QueryIntake,
	"knowledgeBase":  KnowledgeBase,
	"knowledge_base": KnowledgeBase,
	"llm":            LanguageModel,
	"llm_engine":     LanguageModel,
	"webSearch":      WebSearch,
	"web_search":     WebSearch,
	"outputN":        Output,
	"output":         Output,
}

// ParseComponentType resolves a wire name, including the legacy aliases.
func ParseComponentType(name string) (ComponentType, error) {
	if t, ok := componentAliases[name]; ok {
		return t, nil
	}
	return "", &UnknownComponentTypeError{Type: name}
}

// String returns a human readable label used in error messages.
func (t ComponentType) String() string {
	switch t {
	case QueryIntake:
		return "User Query"
	case KnowledgeBase:
		return "Knowledge Base"
	case LanguageModel:
		return "LLM Engine"
	case WebSearch:
		return "Web Search"
	case Output:
		return "Output"
	default:
		return fmt.Sprintf("ComponentType(%s)", string(t))
	}
}

// Node is a single component in a workflow graph. Config always holds the
// typed configuration matching Type.
type Node struct {
	ID     string
	Type   ComponentType
	Config ComponentConfig
}

// Edge is a directed connection from Source to Target.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the user-authored set of nodes and edges. Order is significant:
// fan-out follows edge order.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// ComponentTypes lists node types in node order.
func (g *Graph) ComponentTypes() []ComponentType {
	types := make([]ComponentType, len(g.Nodes))
	for i, n := range g.Nodes {
		types[i] = n.Type
	}
	return types
}

// SourceRef is a provenance entry pointing back at a retrieved chunk.
type SourceRef struct {
	DocumentID      int64   `json:"document_id"`
	DocumentName    string  `json:"document_name"`
	SimilarityScore float64 `json:"similarity_score"`
	ChunkText       string  `json:"chunk_text"`
}
