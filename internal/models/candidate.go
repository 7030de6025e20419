package models

// Category classifies a memory and determines its URI namespace and
// dedup policy.
type Category string

const (
	CategoryPreferences Category = "preferences"
	CategoryEntities    Category = "entities"
	CategoryEvents      Category = "events"
	CategoryCases       Category = "cases"
	CategoryPatterns    Category = "patterns"
	CategoryProfile     Category = "profile"
)

// ValidCategories is the set of all valid memory categories.
var ValidCategories = []Category{
	CategoryPreferences,
	CategoryEntities,
	CategoryEvents,
	CategoryCases,
	CategoryPatterns,
	CategoryProfile,
}

// IsValid returns true if the category is recognized.
func (c Category) IsValid() bool {
	for _, v := range ValidCategories {
		if c == v {
			return true
		}
	}
	return false
}

// CandidateMemory is a proposed memory awaiting a dedup verdict.
// It is produced by session extraction and consumed exactly once by
// the dedup decision engine; the core does not persist it.
type CandidateMemory struct {
	Category      Category `json:"category"`
	Abstract      string   `json:"abstract"`
	Overview      string   `json:"overview"`
	Content       string   `json:"content"`
	SourceSession string   `json:"source_session"`
	User          string   `json:"user"`
	Language      string   `json:"language"`
}
