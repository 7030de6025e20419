// Package signal extracts identifier-like tokens (codes, slugs, version
// strings, proper nouns) from text and keeps them alive through
// language-model query rewriting and retrieval scoring. An LLM
// paraphrase readily drops "PROBE_U3_1771768588882"; these helpers make
// sure the retrieval layer does not.
package signal

import (
	"regexp"
	"strings"
)

// maxAppendedTokens caps how many missing tokens Enrich appends to a
// single query.
const maxAppendedTokens = 3

// bonusPerToken is the score added per matched signal token. Kept small
// so the bonus breaks near-ties without overriding a real semantic gap.
const bonusPerToken = 0.05

// maxBonus bounds the total signal bonus for one query.
const maxBonus = 0.15

// tokenPattern matches maximal identifier-like runs: at least four
// characters of [A-Za-z0-9._-], starting with an alphanumeric.
var tokenPattern = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9._-]{3,}`)

// Extract returns the signal tokens of text in first-seen order with
// duplicates removed. A matched run is kept only if it contains a
// digit, an uppercase letter, an underscore or a hyphen; plain
// lowercase natural-language words are discarded.
func Extract(text string) []string {
	if text == "" {
		return nil
	}

	var tokens []string
	seen := make(map[string]struct{})
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		if !looksLikeIdentifier(tok) {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}

func looksLikeIdentifier(tok string) bool {
	for _, r := range tok {
		switch {
		case r >= '0' && r <= '9':
			return true
		case r >= 'A' && r <= 'Z':
			return true
		case r == '_' || r == '-':
			return true
		}
	}
	return false
}

// Enrich appends signal tokens of sourceText that are missing from
// generatedQuery (case-insensitive substring test), space-joined and
// capped at maxAppendedTokens per call. The query is returned
// unchanged when no tokens are missing or none are found, which makes
// Enrich idempotent: re-running it on its own output is a no-op.
func Enrich(generatedQuery, sourceText string) string {
	query := strings.TrimSpace(generatedQuery)
	tokens := Extract(sourceText)
	if len(tokens) == 0 {
		return query
	}

	lowerQuery := strings.ToLower(query)
	var missing []string
	for _, tok := range tokens {
		if !strings.Contains(lowerQuery, strings.ToLower(tok)) {
			missing = append(missing, tok)
		}
	}
	if len(missing) == 0 {
		return query
	}
	if len(missing) > maxAppendedTokens {
		missing = missing[:maxAppendedTokens]
	}

	suffix := strings.Join(missing, " ")
	if query == "" {
		return suffix
	}
	return query + " " + suffix
}

// ScoreBonus returns a small additive bonus for ranking: a
// monotonically increasing function of how many signal tokens of
// query occur (case-insensitive substring) in candidateAbstract. It
// is exactly 0 when query carries no signal tokens or none match.
func ScoreBonus(query, candidateAbstract string) float64 {
	tokens := Extract(query)
	if len(tokens) == 0 || candidateAbstract == "" {
		return 0
	}

	lowerAbstract := strings.ToLower(candidateAbstract)
	matched := 0
	for _, tok := range tokens {
		if strings.Contains(lowerAbstract, strings.ToLower(tok)) {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}

	bonus := bonusPerToken * float64(matched)
	if bonus > maxBonus {
		bonus = maxBonus
	}
	return bonus
}
