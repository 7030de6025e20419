// Package llm wraps the language-model boundary. The core only needs
// free-form completion plus extraction of the JSON object a prompt
// asked for, tolerant of code fences and surrounding prose.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Completer produces a free-form text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// Available reports whether the completer is configured and usable.
	// Callers with a safe fallback check this before spending a call.
	Available() bool
}

// DecodeJSONObject finds the JSON object embedded in a free-form model
// response and unmarshals it into v. Models wrap answers in prose or
// markdown fences often enough that a bare json.Unmarshal is not
// reliable.
func DecodeJSONObject(response string, v any) bool {
	raw, ok := extractJSONObject(response)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(raw), v) == nil
}

func extractJSONObject(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if fenced, ok := strings.CutPrefix(text, "```json"); ok {
		text = fenced
	} else if fenced, ok := strings.CutPrefix(text, "```"); ok {
		text = fenced
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
