// Package dedup decides whether a candidate memory should be created,
// merged into an existing record, or skipped. The engine is
// deliberately conservative: loss of the language-model signal must
// never silently drop a candidate, so every failure path lands on
// CREATE with an explanatory reason.
package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NecrosisO-O/VikingClaw/internal/llm"
	"github.com/NecrosisO-O/VikingClaw/internal/metrics"
	"github.com/NecrosisO-O/VikingClaw/internal/models"
	"github.com/NecrosisO-O/VikingClaw/pkg/xmlutil"
)

// maxPromptMemories caps how many existing abstracts go into the
// decision prompt.
const maxPromptMemories = 3

// decisionPromptTemplate asks the model for a CREATE/MERGE/SKIP
// verdict. All user-supplied content is XML-escaped before injection.
const decisionPromptTemplate = `You are a memory deduplication judge for an agent memory system.

A new candidate memory was extracted from a session. Decide how it relates to the existing memories listed below:
- "create": the candidate carries information none of the existing memories have
- "merge": the candidate updates or extends one of the existing memories
- "skip": the candidate duplicates an existing memory and adds nothing

Return ONLY a JSON object with this exact schema:
{"decision": "create|merge|skip", "reason": "<brief explanation>"}

<candidate>
<abstract>%s</abstract>
<overview>%s</overview>
<content>%s</content>
</candidate>

<existing_memories>
%s</existing_memories>`

// decisionResponse is the JSON schema the model returns.
type decisionResponse struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// SimilarityFinder yields existing memories similar to a candidate,
// best match first.
type SimilarityFinder interface {
	FindSimilar(ctx context.Context, candidate models.CandidateMemory) []models.Context
}

// Engine produces dedup verdicts for candidate memories.
type Engine struct {
	finder    SimilarityFinder
	completer llm.Completer
	logger    *slog.Logger
}

// NewEngine creates a dedup Engine. completer may be nil; decisions
// then default to CREATE whenever similar memories exist outside the
// preferences category.
func NewEngine(finder SimilarityFinder, completer llm.Completer, logger *slog.Logger) *Engine {
	return &Engine{finder: finder, completer: completer, logger: logger}
}

// Decide returns a verdict for the candidate. It always completes with
// a decision and a reason, even under total dependency failure.
func (e *Engine) Decide(ctx context.Context, candidate models.CandidateMemory) models.DedupResult {
	similar := e.finder.FindSimilar(ctx, candidate)

	if len(similar) == 0 {
		return e.result(models.DecisionCreate, candidate, nil, "No similar memories found")
	}

	// Preferences are a single mutable fact per user, not an
	// append-only log: always fold the update into the existing record.
	if candidate.Category == models.CategoryPreferences {
		return e.result(models.DecisionMerge, candidate, similar,
			"Preference memory update merged with existing similar memory")
	}

	decision, reason := e.llmDecision(ctx, candidate, similar)
	return e.result(decision, candidate, similar, reason)
}

func (e *Engine) result(decision models.Decision, candidate models.CandidateMemory, similar []models.Context, reason string) models.DedupResult {
	switch decision {
	case models.DecisionMerge:
		metrics.Inc(metrics.DedupMerge)
	case models.DecisionSkip:
		metrics.Inc(metrics.DedupSkip)
	default:
		metrics.Inc(metrics.DedupCreate)
	}
	e.logger.Info("dedup verdict",
		"category", candidate.Category, "decision", decision, "similar", len(similar), "reason", reason)
	return models.DedupResult{
		Decision:        decision,
		Candidate:       candidate,
		SimilarMemories: similar,
		Reason:          reason,
	}
}

// llmDecision asks the language model for a verdict. Unavailability,
// call failures and unparsable answers all degrade to CREATE.
func (e *Engine) llmDecision(ctx context.Context, candidate models.CandidateMemory, similar []models.Context) (models.Decision, string) {
	if e.completer == nil || !e.completer.Available() {
		return models.DecisionCreate, "Language model not available, defaulting to create"
	}

	var sb strings.Builder
	limit := len(similar)
	if limit > maxPromptMemories {
		limit = maxPromptMemories
	}
	for i := 0; i < limit; i++ {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, xmlutil.Escape(similar[i].AbstractText()))
	}

	prompt := fmt.Sprintf(decisionPromptTemplate,
		xmlutil.Escape(candidate.Abstract),
		xmlutil.Escape(candidate.Overview),
		xmlutil.Escape(candidate.Content),
		sb.String(),
	)

	response, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		e.logger.Warn("dedup decision call failed, defaulting to create", "error", err)
		return models.DecisionCreate, fmt.Sprintf("Language model call failed, defaulting to create: %v", err)
	}

	var parsed decisionResponse
	if !llm.DecodeJSONObject(response, &parsed) {
		e.logger.Warn("unparsable dedup decision, defaulting to create", "response", response)
		return models.DecisionCreate, "Unparsable language model decision, defaulting to create"
	}

	return models.ParseDecision(parsed.Decision), parsed.Reason
}
