package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractIdentifiers(t *testing.T) {
	tokens := Extract("restart probe PROBE_U3_1771768588882 on Editor-3 now")
	assert.Equal(t, []string{"PROBE_U3_1771768588882", "Editor-3"}, tokens)
}

func TestExtractDiscardsPlainWords(t *testing.T) {
	// Lowercase natural-language words match the pattern but carry no
	// identifier marker.
	tokens := Extract("please remember the deployment schedule")
	assert.Empty(t, tokens)
}

func TestExtractFromMixedScriptText(t *testing.T) {
	// Identifiers embedded in Chinese prose still come out; the CJK
	// characters themselves never form tokens.
	tokens := Extract("请回忆我的项目代号：PROBE_U3_1771768588882 和 Editor-3")
	assert.Equal(t, []string{"PROBE_U3_1771768588882", "Editor-3"}, tokens)
}

func TestExtractDedupFirstSeenOrder(t *testing.T) {
	tokens := Extract("v1.2.3 then Editor-3 then v1.2.3 again")
	assert.Equal(t, []string{"v1.2.3", "Editor-3"}, tokens)
}

func TestExtractShortTokensIgnored(t *testing.T) {
	// Runs shorter than four characters never match.
	tokens := Extract("U3 ok X-1 no")
	assert.Empty(t, tokens)
}

func TestExtractEmpty(t *testing.T) {
	assert.Nil(t, Extract(""))
}

func TestEnrichAppendsMissingTokens(t *testing.T) {
	got := Enrich("probe restart status", "restart PROBE_U3_1771768588882 on Editor-3")
	assert.Equal(t, "probe restart status PROBE_U3_1771768588882 Editor-3", got)
}

func TestEnrichCaseInsensitivePresence(t *testing.T) {
	// The token is already present modulo case; nothing is appended.
	got := Enrich("status of probe_u3_1771768588882", "PROBE_U3_1771768588882 restart")
	assert.Equal(t, "status of probe_u3_1771768588882", got)
}

func TestEnrichIdempotent(t *testing.T) {
	source := "deploy svc-payments-v2 to Cluster_EU1 with IMG-20260901"
	once := Enrich("deployment question", source)
	twice := Enrich(once, source)
	assert.Equal(t, once, twice)
}

func TestEnrichCapsAppendedTokens(t *testing.T) {
	source := "TOK_A1 TOK_B2 TOK_C3 TOK_D4 TOK_E5"
	got := Enrich("query", source)
	assert.Equal(t, "query TOK_A1 TOK_B2 TOK_C3", got)
}

func TestEnrichEmptyQuery(t *testing.T) {
	got := Enrich("", "reference REF-9981")
	assert.Equal(t, "REF-9981", got)
}

func TestEnrichNoTokensInSource(t *testing.T) {
	got := Enrich("what did we decide", "a plain sentence with no markers")
	assert.Equal(t, "what did we decide", got)
}

func TestScoreBonusMatches(t *testing.T) {
	bonus := ScoreBonus("status of PROBE_U3_1771768588882", "Probe PROBE_U3_1771768588882 restarted cleanly")
	assert.InDelta(t, 0.05, bonus, 1e-9)
}

func TestScoreBonusCapped(t *testing.T) {
	query := "TOK_A1 TOK_B2 TOK_C3 TOK_D4"
	abstract := "covers TOK_A1 TOK_B2 TOK_C3 TOK_D4"
	bonus := ScoreBonus(query, abstract)
	assert.InDelta(t, 0.15, bonus, 1e-9)
}

func TestScoreBonusZeroWithoutSignalTokens(t *testing.T) {
	assert.Zero(t, ScoreBonus("plain words only", "anything at all"))
}

func TestScoreBonusMatchesInsideCJKAbstract(t *testing.T) {
	// An identifier surrounded by Chinese text still counts as present.
	bonus := ScoreBonus("User project code PROBE_U3_X", "项目代号为PROBE_U3_X")
	assert.Greater(t, bonus, 0.0)
}

func TestScoreBonusZeroForPlainQueryAgainstCJKAbstract(t *testing.T) {
	// The abstract contains an identifier, but the query yields no
	// tokens, so there is nothing to match.
	assert.Zero(t, ScoreBonus("what is my preferred editor", "编辑器偏好: 首选Editor-6"))
}

func TestScoreBonusZeroWhenNoneMatch(t *testing.T) {
	assert.Zero(t, ScoreBonus("PROBE_U3_1771768588882", "an unrelated abstract"))
}

func TestScoreBonusMonotonic(t *testing.T) {
	one := ScoreBonus("TOK_A1 TOK_B2", "only TOK_A1 here")
	two := ScoreBonus("TOK_A1 TOK_B2", "both TOK_A1 and TOK_B2 here")
	require.Greater(t, two, one)
}
