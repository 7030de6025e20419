// Package resolver finds existing memories similar to a candidate.
// Search is strictly tiered: a strict category-filtered vector search,
// then a loose vector search constrained by URI namespace for older
// records missing the category field, then a filesystem text-overlap
// scan that covers the window where a memory is written to the
// filesystem before its vector index entry becomes searchable. A tier
// runs only when every earlier tier came back empty.
package resolver

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/NecrosisO-O/VikingClaw/internal/embedder"
	"github.com/NecrosisO-O/VikingClaw/internal/models"
	"github.com/NecrosisO-O/VikingClaw/internal/store"
	"github.com/NecrosisO-O/VikingClaw/internal/uri"
	"github.com/NecrosisO-O/VikingClaw/internal/vfs"
)

const (
	// SimilarityThreshold is the minimum vector similarity for a hit
	// to count as similar in the strict and loose tiers.
	SimilarityThreshold = 0.6

	strictTierLimit = 5
	looseTierLimit  = 20

	// fsOverlapThreshold is the minimum token-overlap similarity in
	// the filesystem tier.
	fsOverlapThreshold = 0.12

	// fsTierTopK bounds how many filesystem matches are returned.
	fsTierTopK = 3
)

// overlapTokenPattern keeps ASCII word runs and single CJK ideographs,
// giving rough cross-script overlap without a tokenizer.
var overlapTokenPattern = regexp.MustCompile(`[a-z0-9_]+|[\x{4e00}-\x{9fff}]`)

// Resolver runs the tiered similarity search for candidate memories.
type Resolver struct {
	store    store.VectorStore
	embedder embedder.Embedder
	fs       vfs.FS
	logger   *slog.Logger
}

// New creates a Resolver. embedder may be nil, in which case
// FindSimilar always returns empty; fs may be nil to disable the
// filesystem tier.
func New(st store.VectorStore, emb embedder.Embedder, fs vfs.FS, logger *slog.Logger) *Resolver {
	return &Resolver{store: st, embedder: emb, fs: fs, logger: logger}
}

// FindSimilar returns existing memories similar to the candidate, best
// match first. Dependency failures degrade to empty results for the
// failing tier only; the candidate itself never fails.
func (r *Resolver) FindSimilar(ctx context.Context, candidate models.CandidateMemory) []models.Context {
	if r.embedder == nil {
		return nil
	}

	queryText := candidate.Abstract + " " + candidate.Content
	vector, err := r.embedder.Embed(ctx, queryText)
	if err != nil {
		r.logger.Warn("embedding candidate failed", "category", candidate.Category, "error", err)
		return nil
	}

	if similar := r.strictTier(ctx, candidate, vector); len(similar) > 0 {
		return similar
	}

	prefix := uri.CategoryPrefix(candidate.Category)
	if similar := r.looseTier(ctx, vector, prefix); len(similar) > 0 {
		return similar
	}

	return r.filesystemTier(ctx, candidate, prefix)
}

// strictTier searches the collection filtered by the candidate's
// category and leaf-ness.
func (r *Resolver) strictTier(ctx context.Context, candidate models.CandidateMemory, vector []float32) []models.Context {
	filter := store.And(
		store.FieldEquals("category", string(candidate.Category)),
		store.FieldEquals("is_leaf", true),
	)
	hits, err := r.store.Search(ctx, vector, strictTierLimit, filter)
	if err != nil {
		r.logger.Warn("strict tier vector search failed", "error", err)
		return nil
	}

	var similar []models.Context
	for _, hit := range hits {
		if hit.Score < SimilarityThreshold {
			continue
		}
		similar = append(similar, hit.ToContext())
	}
	return similar
}

// looseTier retries with an is_leaf-only filter for records that miss
// the category field, constraining hits by the category URI namespace.
func (r *Resolver) looseTier(ctx context.Context, vector []float32, uriPrefix string) []models.Context {
	hits, err := r.store.Search(ctx, vector, looseTierLimit, store.FieldEquals("is_leaf", true))
	if err != nil {
		r.logger.Warn("loose tier vector search failed", "error", err)
		return nil
	}

	var similar []models.Context
	for _, hit := range hits {
		if hit.Score < SimilarityThreshold {
			continue
		}
		if uriPrefix != "" && !strings.HasPrefix(hit.StringField("uri"), uriPrefix) {
			continue
		}
		similar = append(similar, hit.ToContext())
	}
	return similar
}

// filesystemTier scans the category namespace on the virtual
// filesystem and scores entries by token overlap.
func (r *Resolver) filesystemTier(ctx context.Context, candidate models.CandidateMemory, uriPrefix string) []models.Context {
	if r.fs == nil || uriPrefix == "" {
		return nil
	}

	baseURI := strings.TrimRight(uriPrefix, "/")
	entries, err := r.fs.Ls(ctx, baseURI, vfs.ModeOriginal)
	if err != nil {
		r.logger.Warn("filesystem tier listing failed", "base", baseURI, "error", err)
		return nil
	}

	candidateText := candidate.Abstract + "\n" + candidate.Content

	type scoredContext struct {
		score float64
		ctx   models.Context
	}
	var scored []scoredContext

	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		if !strings.HasPrefix(entry.URI, baseURI) || !strings.HasSuffix(entry.URI, ".md") {
			continue
		}
		content, err := r.fs.ReadFile(ctx, entry.URI)
		if err != nil {
			continue
		}
		similarity := textOverlapSimilarity(candidateText, content)
		if similarity < fsOverlapThreshold {
			continue
		}

		abstract, err := r.fs.Abstract(ctx, entry.URI)
		if err != nil {
			abstract = ""
		}
		scored = append(scored, scoredContext{
			score: similarity,
			ctx: models.Context{
				URI:         entry.URI,
				ParentURI:   baseURI,
				IsLeaf:      true,
				Abstract:    abstract,
				ContextType: models.ContextTypeMemory,
				Category:    string(candidate.Category),
			},
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > fsTierTopK {
		scored = scored[:fsTierTopK]
	}

	similar := make([]models.Context, 0, len(scored))
	for _, sc := range scored {
		similar = append(similar, sc.ctx)
	}
	return similar
}

// tokenizeForOverlap lower-cases, collapses whitespace and extracts
// ASCII word runs plus individual CJK ideographs.
func tokenizeForOverlap(text string) map[string]struct{} {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return nil
	}
	tokens := make(map[string]struct{})
	for _, tok := range overlapTokenPattern.FindAllString(normalized, -1) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

// textOverlapSimilarity is a Jaccard index over the overlap token sets.
func textOverlapSimilarity(left, right string) float64 {
	leftTokens := tokenizeForOverlap(left)
	rightTokens := tokenizeForOverlap(right)
	if len(leftTokens) == 0 || len(rightTokens) == 0 {
		return 0
	}

	intersection := 0
	for tok := range leftTokens {
		if _, ok := rightTokens[tok]; ok {
			intersection++
		}
	}
	union := len(leftTokens) + len(rightTokens) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
