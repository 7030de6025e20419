package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

func TestDecodeJSONObjectBare(t *testing.T) {
	var v verdict
	require.True(t, DecodeJSONObject(`{"decision": "merge", "reason": "updates time"}`, &v))
	assert.Equal(t, "merge", v.Decision)
	assert.Equal(t, "updates time", v.Reason)
}

func TestDecodeJSONObjectMarkdownFence(t *testing.T) {
	var v verdict
	require.True(t, DecodeJSONObject("```json\n{\"decision\": \"skip\", \"reason\": \"dup\"}\n```", &v))
	assert.Equal(t, "skip", v.Decision)

	v = verdict{}
	require.True(t, DecodeJSONObject("```\n{\"decision\": \"create\", \"reason\": \"new\"}\n```", &v))
	assert.Equal(t, "create", v.Decision)
}

func TestDecodeJSONObjectEmbeddedInProse(t *testing.T) {
	var v verdict
	response := `Sure! Here is my verdict: {"decision": "merge", "reason": "same event"} Hope that helps.`
	require.True(t, DecodeJSONObject(response, &v))
	assert.Equal(t, "merge", v.Decision)
}

func TestDecodeJSONObjectNestedBraces(t *testing.T) {
	var v struct {
		Queries []struct {
			Query string `json:"query"`
		} `json:"queries"`
	}
	response := `{"queries": [{"query": "curly {braces} inside"}]}`
	require.True(t, DecodeJSONObject(response, &v))
	require.Len(t, v.Queries, 1)
	assert.Equal(t, "curly {braces} inside", v.Queries[0].Query)
}

func TestDecodeJSONObjectBracesInStrings(t *testing.T) {
	var v verdict
	response := `{"decision": "skip", "reason": "contains \"quoted {\" text"}`
	require.True(t, DecodeJSONObject(response, &v))
	assert.Equal(t, "skip", v.Decision)
}

func TestDecodeJSONObjectFailures(t *testing.T) {
	var v verdict
	assert.False(t, DecodeJSONObject("", &v))
	assert.False(t, DecodeJSONObject("no json here", &v))
	assert.False(t, DecodeJSONObject(`{"decision": "merge"`, &v))
	assert.False(t, DecodeJSONObject(`[1, 2, 3]`, &v))
}
