package graph

import "sort"

// Well-known context keys read and written by the component handlers.
const (
	KeyUserQuery        = "user_query"
	KeyQuery            = "query"
	KeyKnowledgeContext = "knowledge_context"
	KeySources          = "sources"
	KeyLLMResponse      = "llm_response"
	KeyModelUsed        = "model_used"
	KeyWebSearchUsed    = "web_search_used"
	KeyWebContext       = "web_context"
	KeyWebResults       = "web_results"
	KeyResponse         = "response"
	KeyMetadata         = "metadata"
	KeyError            = "error"
)

// Contributions is the set of key/value pairs a handler adds to the state.
type Contributions map[string]any

// State is the execution context accumulated during a single run. It is owned
// by one traversal and is not safe for concurrent use. Keys are only ever
// added or overwritten.
type State struct {
	values map[string]any
}

// NewState seeds a state with the user query.
func NewState(userQuery string) *State {
	return &State{values: map[string]any{KeyUserQuery: userQuery}}
}

// Merge applies contributions; later writes for the same key win.
func (s *State) Merge(c Contributions) {
	for k, v := range c {
		s.values[k] = v
	}
}

// Get returns the raw value stored under key.
func (s *State) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// String returns the value under key when it is a string.
func (s *State) String(key string) string {
	v, _ := s.values[key].(string)
	return v
}

// Bool returns the value under key when it is a bool.
func (s *State) Bool(key string) bool {
	v, _ := s.values[key].(bool)
	return v
}

// UserQuery returns the seed query.
func (s *State) UserQuery() string {
	return s.String(KeyUserQuery)
}

// Sources returns the accumulated provenance list.
func (s *State) Sources() []SourceRef {
	v, _ := s.values[KeySources].([]SourceRef)
	return v
}

// Metadata returns the metadata mapping written by the output node.
func (s *State) Metadata() map[string]any {
	v, _ := s.values[KeyMetadata].(map[string]any)
	return v
}

// Keys lists the keys present, sorted.
func (s *State) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot copies the current values.
func (s *State) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
