// Package planner turns session context into a multi-query retrieval
// plan. The language model rewrites intent into typed queries; signal
// tokens from the session are re-attached afterwards so identifiers
// survive the paraphrase.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NecrosisO-O/VikingClaw/internal/llm"
	"github.com/NecrosisO-O/VikingClaw/internal/metrics"
	"github.com/NecrosisO-O/VikingClaw/internal/models"
	"github.com/NecrosisO-O/VikingClaw/internal/signal"
	"github.com/NecrosisO-O/VikingClaw/pkg/tokenizer"
	"github.com/NecrosisO-O/VikingClaw/pkg/xmlutil"
)

// ErrPlanUnparsable is the hard failure for a plan response that does
// not contain a decodable plan. There is no safe default query, so the
// caller must handle it.
var ErrPlanUnparsable = errors.New("query plan response not parsable")

const (
	// DefaultMaxRecentMessages bounds the recent-message window.
	DefaultMaxRecentMessages = 5

	// signalAnchorLimit caps how many user turns feed the signal
	// source for memory queries, current message included.
	signalAnchorLimit = 3

	// messageTokenBudget bounds each transcript line in the prompt.
	messageTokenBudget = 400

	// summaryTokenBudget bounds the compression summary in the prompt.
	summaryTokenBudget = 800
)

const planPromptTemplate = `You are a retrieval planner for an agent memory system storing memories, resources and skills.

Analyze the session context and produce retrieval queries that would surface the most useful stored contexts for the current message.

Return ONLY a JSON object with this exact schema:
{"reasoning": "<why these queries>", "queries": [{"query": "<search text>", "context_type": "memory|resource|skill", "intent": "<what the query is after>", "priority": <1-5, lower is more urgent>}]}
%s%s
<session_summary>%s</session_summary>

<recent_messages>
%s</recent_messages>

<current_message>%s</current_message>`

// planResponse is the JSON schema the model returns.
type planResponse struct {
	Reasoning string `json:"reasoning"`
	Queries   []struct {
		Query       string `json:"query"`
		ContextType string `json:"context_type"`
		Intent      string `json:"intent"`
		Priority    *int   `json:"priority"`
	} `json:"queries"`
}

// Planner builds query plans from session context.
type Planner struct {
	completer         llm.Completer
	maxRecentMessages int
	logger            *slog.Logger
}

// New creates a Planner. maxRecentMessages <= 0 selects the default
// window of DefaultMaxRecentMessages.
func New(completer llm.Completer, maxRecentMessages int, logger *slog.Logger) *Planner {
	if maxRecentMessages <= 0 {
		maxRecentMessages = DefaultMaxRecentMessages
	}
	return &Planner{completer: completer, maxRecentMessages: maxRecentMessages, logger: logger}
}

// Plan assembles the bounded context window, asks the language model
// for a query plan and enriches each query with signal tokens.
// constrainedType, when non-empty, restricts the plan to one context
// type; targetHint describes a target directory for more precise
// queries. An unparsable response is a hard failure.
func (p *Planner) Plan(ctx context.Context, summary string, messages []models.Message, currentMessage string, constrainedType models.ContextType, targetHint string) (*models.QueryPlan, error) {
	metrics.Inc(metrics.PlanTotal)

	if p.completer == nil || !p.completer.Available() {
		return nil, fmt.Errorf("planning queries: language model not configured")
	}

	prompt := p.buildPrompt(summary, messages, currentMessage, constrainedType, targetHint)
	response, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("planning queries: %w", err)
	}

	var parsed planResponse
	if !llm.DecodeJSONObject(response, &parsed) || len(parsed.Queries) == 0 {
		metrics.Inc(metrics.PlanParseFailures)
		return nil, fmt.Errorf("planning queries: %w", ErrPlanUnparsable)
	}

	queries := make([]models.TypedQuery, 0, len(parsed.Queries))
	for _, q := range parsed.Queries {
		ctxType := models.ParseContextType(q.ContextType)
		priority := models.DefaultQueryPriority
		if q.Priority != nil {
			priority = *q.Priority
		}

		source := p.buildSignalSource(messages, currentMessage, ctxType)
		queries = append(queries, models.TypedQuery{
			Query:       signal.Enrich(q.Query, source),
			ContextType: ctxType,
			Intent:      q.Intent,
			Priority:    priority,
		})
	}

	for i, q := range queries {
		p.logger.Info("planned query",
			"index", i+1, "type", q.ContextType, "priority", q.Priority, "query", q.Query)
	}
	p.logger.Debug("plan reasoning", "reasoning", parsed.Reasoning)

	return &models.QueryPlan{
		Queries:        queries,
		SessionContext: summarizeContext(summary, currentMessage),
		Reasoning:      parsed.Reasoning,
	}, nil
}

// buildSignalSource returns the text signal tokens are preserved from.
// For memory queries, recent user turns are appended as anchors so
// follow-up questions can recover identifiers mentioned earlier in the
// conversation; other context types use the current message alone.
func (p *Planner) buildSignalSource(messages []models.Message, currentMessage string, ctxType models.ContextType) string {
	var chunks []string
	if currentMessage != "" {
		chunks = append(chunks, currentMessage)
	}

	if ctxType != models.ContextTypeMemory {
		return strings.Join(chunks, "\n")
	}

	recent := lastN(messages, p.maxRecentMessages)
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Role() != "user" {
			continue
		}
		content := strings.TrimSpace(recent[i].Content())
		if content == "" {
			continue
		}
		chunks = append(chunks, content)
		if len(chunks) >= signalAnchorLimit {
			break
		}
	}

	return strings.Join(chunks, "\n")
}

func (p *Planner) buildPrompt(summary string, messages []models.Message, currentMessage string, constrainedType models.ContextType, targetHint string) string {
	formattedSummary := "None"
	if summary != "" {
		formattedSummary = xmlutil.Escape(tokenizer.TruncateToTokenBudget(summary, summaryTokenBudget))
	}

	var sb strings.Builder
	for _, m := range lastN(messages, p.maxRecentMessages) {
		content := strings.TrimSpace(m.Content())
		if content == "" {
			continue
		}
		fmt.Fprintf(&sb, "[%s]: %s\n", m.Role(), xmlutil.Escape(tokenizer.TruncateToTokenBudget(content, messageTokenBudget)))
	}
	recentMessages := sb.String()
	if recentMessages == "" {
		recentMessages = "None\n"
	}

	current := "None"
	if currentMessage != "" {
		current = xmlutil.Escape(currentMessage)
	}

	constraint := ""
	if constrainedType != "" {
		constraint = fmt.Sprintf("\nOnly generate queries with context_type %q.\n", constrainedType)
	}
	target := ""
	if targetHint != "" {
		target = fmt.Sprintf("\n<target_abstract>%s</target_abstract>\n", xmlutil.Escape(targetHint))
	}

	return fmt.Sprintf(planPromptTemplate, constraint, target, formattedSummary, recentMessages, current)
}

func summarizeContext(summary, currentMessage string) string {
	var parts []string
	if summary != "" {
		parts = append(parts, "Session summary: "+summary)
	}
	if currentMessage != "" {
		trimmed := currentMessage
		if runes := []rune(trimmed); len(runes) > 100 {
			trimmed = string(runes[:100])
		}
		parts = append(parts, "Current message: "+trimmed)
	}
	if len(parts) == 0 {
		return "No context"
	}
	return strings.Join(parts, " | ")
}

func lastN(messages []models.Message, n int) []models.Message {
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}
