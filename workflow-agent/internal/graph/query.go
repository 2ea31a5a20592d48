package graph

// runQuery echoes the user query into the state for downstream nodes.
func runQuery(state *State) NodeResult {
	return succeeded(Contributions{KeyQuery: state.UserQuery()})
}
