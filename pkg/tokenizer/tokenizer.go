// Package tokenizer provides rough token counting for prompt budget
// management. The estimates are heuristic; the planner only needs them
// to keep context windows bounded, not exact.
package tokenizer

import "strings"

// EstimateTokens provides a rough token count estimate, blending a
// word-based (~1.3 tokens/word) and a character-based (~4 chars/token)
// heuristic.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	chars := len(text)

	wordEstimate := int(float64(words) * 1.3)
	charEstimate := chars / 4

	return (wordEstimate + charEstimate) / 2
}

// TruncateToTokenBudget truncates text to approximately fit within a
// token budget, cutting at a word boundary where possible.
func TruncateToTokenBudget(text string, budget int) string {
	if budget <= 0 {
		return ""
	}

	if EstimateTokens(text) <= budget {
		return text
	}

	maxChars := budget * 4
	if maxChars >= len(text) {
		return text
	}

	truncated := text[:maxChars]
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > maxChars/2 {
		truncated = truncated[:lastSpace]
	}

	return truncated + "..."
}
