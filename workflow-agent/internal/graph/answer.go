package graph

import (
	"strings"

	"go.uber.org/zap"
)

// NoResponseMessage is returned when no model response reached the output node.
const NoResponseMessage = "No response was generated. Please try again."

// runOutput assembles the final response from the state. It is the terminal
// contribution the executor reads back.
func runOutput(log *zap.Logger, state *State) NodeResult {
	response := state.String(KeyLLMResponse)
	empty := strings.TrimSpace(response) == ""
	if empty {
		log.Warn("Output component: empty llm_response detected")
		response = NoResponseMessage
	}

	sources := state.Sources()
	if sources == nil {
		sources = []SourceRef{}
	}

	modelUsed, _ := state.Get(KeyModelUsed)
	metadata := map[string]any{
		KeyModelUsed:     modelUsed,
		KeyWebSearchUsed: state.Bool(KeyWebSearchUsed),
	}
	if e := state.String(KeyError); e != "" {
		metadata[KeyError] = e
	}

	res := NodeResult{Contributions: Contributions{
		KeyResponse: response,
		KeySources:  sources,
		KeyMetadata: metadata,
	}}
	if empty {
		res.Degraded = true
		res.Note = "empty llm_response"
	}
	return res
}
