package models

// DefaultQueryPriority is assigned to typed queries whose plan omits
// a priority. Lower values are more urgent.
const DefaultQueryPriority = 3

// TypedQuery is one retrieval query produced by the query planner.
type TypedQuery struct {
	Query       string      `json:"query"`
	ContextType ContextType `json:"context_type"`
	Intent      string      `json:"intent"`
	Priority    int         `json:"priority"`
}

// QueryPlan is an ordered list of typed queries plus the session
// context they were derived from. Built fresh per retrieval request;
// never persisted.
type QueryPlan struct {
	Queries        []TypedQuery `json:"queries"`
	SessionContext string       `json:"session_context"`
	Reasoning      string       `json:"reasoning"`
}
