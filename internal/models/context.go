package models

import "time"

// ContextType classifies a node in the context hierarchy.
type ContextType string

const (
	ContextTypeMemory   ContextType = "memory"
	ContextTypeResource ContextType = "resource"
	ContextTypeSkill    ContextType = "skill"
)

// ValidContextTypes is the set of all recognized context types.
var ValidContextTypes = []ContextType{
	ContextTypeMemory,
	ContextTypeResource,
	ContextTypeSkill,
}

// IsValid returns true if the context type is recognized.
func (ct ContextType) IsValid() bool {
	for _, v := range ValidContextTypes {
		if ct == v {
			return true
		}
	}
	return false
}

// ParseContextType maps a string to a ContextType, falling back to
// resource for unrecognized values.
func ParseContextType(s string) ContextType {
	ct := ContextType(s)
	if ct.IsValid() {
		return ct
	}
	return ContextTypeResource
}

// Context is a node in the memory/resource hierarchy. Leaves are
// addressable documents; non-leaves are directories. The core never
// mutates a Context in place; updates are new writes reconciled by
// the index reconciler.
type Context struct {
	URI         string         `json:"uri"`
	ParentURI   string         `json:"parent_uri"`
	IsLeaf      bool           `json:"is_leaf"`
	Abstract    string         `json:"abstract"`
	ContextType ContextType    `json:"context_type"`
	Category    string         `json:"category,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
}

// AbstractText returns the best available abstract for the context:
// the Abstract field when set, otherwise the "abstract" entry of Meta.
func (c *Context) AbstractText() string {
	if c.Abstract != "" {
		return c.Abstract
	}
	if c.Meta != nil {
		if a, ok := c.Meta["abstract"].(string); ok {
			return a
		}
	}
	return ""
}

// SearchHit wraps a Context with its raw similarity score.
type SearchHit struct {
	Context Context `json:"context"`
	Score   float64 `json:"score"`
}

// ScoredContext wraps a Context with ranking details from retrieval.
type ScoredContext struct {
	Context     Context `json:"context"`
	Similarity  float64 `json:"similarity"`
	SignalBonus float64 `json:"signal_bonus"`
	FinalScore  float64 `json:"final_score"`
	Query       string  `json:"query,omitempty"`
}
