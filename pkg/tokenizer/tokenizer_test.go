package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Zero(t, EstimateTokens(""))
	assert.Greater(t, EstimateTokens("a few words of text"), 0)

	short := EstimateTokens("one two three")
	long := EstimateTokens(strings.Repeat("one two three ", 50))
	assert.Greater(t, long, short)
}

func TestTruncateToTokenBudgetUnderBudget(t *testing.T) {
	text := "short enough"
	assert.Equal(t, text, TruncateToTokenBudget(text, 100))
}

func TestTruncateToTokenBudgetCuts(t *testing.T) {
	text := strings.Repeat("word ", 1000)
	got := TruncateToTokenBudget(text, 10)

	assert.Less(t, len(got), len(text))
	assert.True(t, strings.HasSuffix(got, "..."))
	// Cut lands on a word boundary.
	assert.False(t, strings.HasSuffix(strings.TrimSuffix(got, "..."), "wor"))
}

func TestTruncateToTokenBudgetZero(t *testing.T) {
	assert.Empty(t, TruncateToTokenBudget("anything", 0))
	assert.Empty(t, TruncateToTokenBudget("anything", -5))
}
