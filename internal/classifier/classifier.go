package classifier

import (
	"log/slog"
	"strings"

	"github.com/NecrosisO-O/VikingClaw/internal/models"
)

// Classifier assigns a memory category to free text.
type Classifier interface {
	Classify(content string) models.Category
}

// HeuristicClassifier uses keyword-based rules. It backs CLI and API
// callers that submit a candidate without a category; extraction
// pipelines that know the category bypass it.
type HeuristicClassifier struct {
	logger *slog.Logger
}

// NewClassifier creates a new heuristic-based classifier.
func NewClassifier(logger *slog.Logger) *HeuristicClassifier {
	return &HeuristicClassifier{logger: logger}
}

// preferencePatterns match statements of user preference.
var preferencePatterns = []string{
	"prefer", "like", "dislike", "favorite", "rather",
	"style:", "would rather", "choose", "instead of",
	"my default", "always use", "never use",
}

// eventPatterns match dated or episodic statements.
var eventPatterns = []string{
	"yesterday", "today", "last week", "on monday", "happened",
	"occurred", "we did", "we found", "discovered", "resolved",
	"fixed the", "broke", "incident", "meeting", "deployed on",
}

// casePatterns match worked problem/solution write-ups.
var casePatterns = []string{
	"problem:", "solution:", "root cause", "workaround",
	"reproduce", "diagnosis", "resolved by", "case:",
}

// patternPatterns match recurring approaches and playbooks.
var patternPatterns = []string{
	"pattern:", "whenever", "in general", "usually", "typically",
	"best practice", "playbook", "recipe", "template",
}

// profilePatterns match facts about who the user is.
var profilePatterns = []string{
	"my name", "i am a", "i work", "my role", "my timezone",
	"my email", "speaks", "based in",
}

// Classify maps content to the best-scoring category. Ties and no-hit
// content fall back to entities, the broadest namespace.
func (c *HeuristicClassifier) Classify(content string) models.Category {
	lower := strings.ToLower(content)

	scores := map[models.Category]int{}
	patternSets := map[models.Category][]string{
		models.CategoryPreferences: preferencePatterns,
		models.CategoryEvents:      eventPatterns,
		models.CategoryCases:       casePatterns,
		models.CategoryPatterns:    patternPatterns,
		models.CategoryProfile:     profilePatterns,
	}
	for cat, patterns := range patternSets {
		for _, p := range patterns {
			if strings.Contains(lower, p) {
				scores[cat]++
			}
		}
	}

	best := models.CategoryEntities
	bestScore := 0
	// Fixed evaluation order keeps ties deterministic.
	for _, cat := range []models.Category{
		models.CategoryPreferences,
		models.CategoryEvents,
		models.CategoryCases,
		models.CategoryPatterns,
		models.CategoryProfile,
	} {
		if scores[cat] > bestScore {
			best = cat
			bestScore = scores[cat]
		}
	}

	c.logger.Debug("classified content", "category", best, "score", bestScore)
	return best
}
