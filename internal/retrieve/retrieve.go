// Package retrieve executes query plans against the context collection
// and ranks hits. Ranking adds a small signal-token bonus on top of raw
// vector similarity so exact identifier matches win near-ties without
// overriding a real semantic gap.
package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/NecrosisO-O/VikingClaw/internal/embedder"
	"github.com/NecrosisO-O/VikingClaw/internal/metrics"
	"github.com/NecrosisO-O/VikingClaw/internal/models"
	"github.com/NecrosisO-O/VikingClaw/internal/signal"
	"github.com/NecrosisO-O/VikingClaw/internal/store"
)

const (
	// defaultPerQueryLimit is how many hits each typed query fetches.
	defaultPerQueryLimit = 10

	// maxConcurrentQueries bounds the per-plan fan-out.
	maxConcurrentQueries = 4
)

// Retriever executes typed queries and scores the results.
type Retriever struct {
	store         store.VectorStore
	embedder      embedder.Embedder
	perQueryLimit uint64
	logger        *slog.Logger
}

// New creates a Retriever. perQueryLimit <= 0 selects the default.
func New(st store.VectorStore, emb embedder.Embedder, perQueryLimit int, logger *slog.Logger) *Retriever {
	if perQueryLimit <= 0 {
		perQueryLimit = defaultPerQueryLimit
	}
	return &Retriever{store: st, embedder: emb, perQueryLimit: uint64(perQueryLimit), logger: logger}
}

// Execute runs every query of the plan, merges hits by URI keeping the
// best final score, and returns them ranked best first, capped at
// limit. Queries run as independent worker tasks; a failing query
// degrades to zero hits for that query only.
func (r *Retriever) Execute(ctx context.Context, plan *models.QueryPlan, limit int) ([]models.ScoredContext, error) {
	if plan == nil || len(plan.Queries) == 0 {
		return nil, nil
	}
	if r.embedder == nil {
		return nil, fmt.Errorf("executing plan: embedder not configured")
	}
	metrics.Inc(metrics.RetrieveTotal)

	var mu sync.Mutex
	best := make(map[string]models.ScoredContext)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQueries)

	for _, q := range plan.Queries {
		g.Go(func() error {
			scored := r.runQuery(gctx, q)
			mu.Lock()
			defer mu.Unlock()
			for _, sc := range scored {
				if prev, ok := best[sc.Context.URI]; !ok || sc.FinalScore > prev.FinalScore {
					best[sc.Context.URI] = sc
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := make([]models.ScoredContext, 0, len(best))
	for _, sc := range best {
		ranked = append(ranked, sc)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].FinalScore > ranked[j].FinalScore })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// runQuery embeds and searches one typed query. Failures are logged
// and degrade to no hits.
func (r *Retriever) runQuery(ctx context.Context, q models.TypedQuery) []models.ScoredContext {
	vector, err := r.embedder.Embed(ctx, q.Query)
	if err != nil {
		r.logger.Warn("embedding query failed", "query", q.Query, "error", err)
		return nil
	}

	filter := store.And(
		store.FieldEquals("context_type", string(q.ContextType)),
		store.FieldEquals("is_leaf", true),
	)
	hits, err := r.store.Search(ctx, vector, r.perQueryLimit, filter)
	if err != nil {
		r.logger.Warn("query search failed", "query", q.Query, "error", err)
		return nil
	}

	return ScoreHits(q.Query, hits)
}

// ScoreHits applies the signal-token bonus to raw similarity scores.
func ScoreHits(query string, hits []store.ScoredRecord) []models.ScoredContext {
	scored := make([]models.ScoredContext, 0, len(hits))
	for _, hit := range hits {
		c := hit.ToContext()
		bonus := signal.ScoreBonus(query, c.AbstractText())
		scored = append(scored, models.ScoredContext{
			Context:     c,
			Similarity:  hit.Score,
			SignalBonus: bonus,
			FinalScore:  hit.Score + bonus,
			Query:       query,
		})
	}
	return scored
}
