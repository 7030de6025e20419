// Package reconcile keeps the URI-keyed record space of the vector
// collection convergent under duplicate or retried writes. Concurrent
// inserts for one uri may transiently create two records; the next
// reconciling write for that uri collapses them back to one, anchored
// on the most recently updated existing record so external
// back-references to that record id stay valid.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/NecrosisO-O/VikingClaw/internal/metrics"
	"github.com/NecrosisO-O/VikingClaw/internal/models"
	"github.com/NecrosisO-O/VikingClaw/internal/store"
)

// uriLookupLimit bounds the duplicate lookup per insert.
const uriLookupLimit = 10000

// Reconciler provides idempotent URI-keyed upsert, fetch and removal
// over one vector collection.
type Reconciler struct {
	store  store.VectorStore
	logger *slog.Logger
}

// New creates a Reconciler over the given collection store.
func New(st store.VectorStore, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: st, logger: logger}
}

// Insert writes fields under the canonical record for fields["uri"]
// and returns that record's id. When no record exists for the uri a
// new one is created. When one or more exist, the most recently
// updated record becomes the canonical anchor, fields overwrite its
// content, and every other record for the uri is deleted as a stale
// duplicate. After Insert returns, exactly one record for the uri
// remains.
func (r *Reconciler) Insert(ctx context.Context, fields map[string]any, vector []float32) (string, error) {
	uri, _ := fields["uri"].(string)
	if uri == "" {
		return "", fmt.Errorf("inserting record: fields missing uri")
	}

	existing, err := r.store.FilterScroll(ctx, store.FieldEquals("uri", uri), uriLookupLimit)
	if err != nil {
		return "", fmt.Errorf("looking up records for %s: %w", uri, err)
	}

	if len(existing) == 0 {
		id := uuid.NewString()
		if err := r.store.Upsert(ctx, []store.Record{{ID: id, Fields: fields, Vector: vector}}); err != nil {
			return "", fmt.Errorf("creating record for %s: %w", uri, err)
		}
		r.logger.Debug("created record", "uri", uri, "id", id)
		return id, nil
	}

	// Newest existing record anchors the write; stable sort keeps the
	// incoming order for equal timestamps.
	sort.SliceStable(existing, func(i, j int) bool {
		return existing[i].TimeField("updated_at").After(existing[j].TimeField("updated_at"))
	})
	canonical := existing[0]

	if err := r.store.Upsert(ctx, []store.Record{{ID: canonical.ID, Fields: fields, Vector: vector}}); err != nil {
		return "", fmt.Errorf("upserting canonical record for %s: %w", uri, err)
	}

	if len(existing) > 1 {
		stale := make([]string, 0, len(existing)-1)
		for _, rec := range existing[1:] {
			stale = append(stale, rec.ID)
		}
		if _, err := r.store.Delete(ctx, stale); err != nil {
			return "", fmt.Errorf("deleting stale duplicates for %s: %w", uri, err)
		}
		metrics.Inc(metrics.ReconcileCollapsed)
		r.logger.Info("collapsed duplicate records", "uri", uri, "canonical", canonical.ID, "removed", len(stale))
	}

	return canonical.ID, nil
}

// FetchByURI returns the context stored for uri. A single best-effort
// lookup: store.ErrNotFound when no record matches.
func (r *Reconciler) FetchByURI(ctx context.Context, uri string) (*models.Context, error) {
	records, err := r.store.FilterScroll(ctx, store.FieldEquals("uri", uri), 1)
	if err != nil {
		return nil, fmt.Errorf("fetching record for %s: %w", uri, err)
	}
	if len(records) == 0 {
		return nil, store.ErrNotFound
	}
	c := records[0].ToContext()
	return &c, nil
}

// RemoveByURI deletes every record matching uri and returns the number
// removed. Used for corrective cleanup after a rename or an explicit
// memory deletion.
func (r *Reconciler) RemoveByURI(ctx context.Context, uri string) (int, error) {
	records, err := r.store.FilterScroll(ctx, store.FieldEquals("uri", uri), uriLookupLimit)
	if err != nil {
		return 0, fmt.Errorf("looking up records for %s: %w", uri, err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	removed, err := r.store.Delete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("deleting records for %s: %w", uri, err)
	}

	r.logger.Debug("removed records", "uri", uri, "count", removed)
	return removed, nil
}
