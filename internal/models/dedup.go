package models

import "strings"

// Decision is the verdict for a candidate memory.
type Decision string

const (
	DecisionCreate Decision = "create"
	DecisionMerge  Decision = "merge"
	DecisionSkip   Decision = "skip"
)

// ParseDecision maps a string to a Decision, case-insensitively.
// Unrecognized values map to the conservative default, DecisionCreate,
// so that a garbled language-model answer can never drop a candidate.
func ParseDecision(s string) Decision {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionMerge:
		return DecisionMerge
	case DecisionSkip:
		return DecisionSkip
	default:
		return DecisionCreate
	}
}

// DedupResult is the outcome of a dedup decision for one candidate.
// It is stateless output handed to an external committer.
type DedupResult struct {
	Decision        Decision        `json:"decision"`
	Candidate       CandidateMemory `json:"candidate"`
	SimilarMemories []Context       `json:"similar_memories"`
	Reason          string          `json:"reason"`
}
