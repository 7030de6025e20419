package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NecrosisO-O/VikingClaw/internal/llm"
	"github.com/NecrosisO-O/VikingClaw/pkg/tokenizer"
	"github.com/NecrosisO-O/VikingClaw/pkg/xmlutil"
)

// summarizerInputBudget bounds how much document text goes into the
// abstract prompt.
const summarizerInputBudget = 1500

const summarizePromptTemplate = `Write a one-sentence abstract (max 30 words) of the document below. Output only the sentence, no preamble.

<document>%s</document>`

// Summarizer generates a short abstract for a leaf that lacks one.
// Best-effort: any failure yields an empty abstract rather than an
// error, since an abstract is an aid and not a requirement.
type Summarizer struct {
	completer llm.Completer
	logger    *slog.Logger
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(completer llm.Completer, logger *slog.Logger) *Summarizer {
	return &Summarizer{completer: completer, logger: logger}
}

// Summarize returns a one-line abstract of content, or "" when the
// language model is unavailable or fails.
func (s *Summarizer) Summarize(ctx context.Context, content string) string {
	if s.completer == nil || !s.completer.Available() {
		return ""
	}

	prompt := fmt.Sprintf(summarizePromptTemplate,
		xmlutil.Escape(tokenizer.TruncateToTokenBudget(content, summarizerInputBudget)))

	response, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("abstract generation failed", "error", err)
		return ""
	}
	return strings.TrimSpace(response)
}
