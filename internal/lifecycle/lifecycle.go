// Package lifecycle runs maintenance sweeps over the vector
// collection. The reconciler converges a URI on its next write; the
// sweep converges URIs that are no longer being written, closing the
// duplicate window left by racing inserts.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/NecrosisO-O/VikingClaw/internal/metrics"
	"github.com/NecrosisO-O/VikingClaw/internal/store"
)

// sweepScanLimit bounds how many records one sweep inspects.
const sweepScanLimit = 10000

// Report summarizes the results of a sweep.
type Report struct {
	Scanned       int `json:"scanned"`
	DuplicateURIs int `json:"duplicate_uris"`
	Collapsed     int `json:"collapsed"`
}

// Manager runs collection maintenance.
type Manager struct {
	store  store.VectorStore
	logger *slog.Logger
}

// NewManager creates a lifecycle Manager.
func NewManager(st store.VectorStore, logger *slog.Logger) *Manager {
	return &Manager{store: st, logger: logger}
}

// Sweep scans the collection, groups records by uri and collapses
// duplicate groups onto their most recently updated record. With
// dryRun set it only counts what would be removed.
func (m *Manager) Sweep(ctx context.Context, dryRun bool) (*Report, error) {
	records, err := m.store.FilterScroll(ctx, nil, sweepScanLimit)
	if err != nil {
		return nil, fmt.Errorf("scanning collection: %w", err)
	}

	byURI := make(map[string][]store.Record)
	for _, r := range records {
		u := r.StringField("uri")
		if u == "" {
			continue
		}
		byURI[u] = append(byURI[u], r)
	}

	report := &Report{Scanned: len(records)}
	for u, group := range byURI {
		if len(group) < 2 {
			continue
		}
		report.DuplicateURIs++

		sort.SliceStable(group, func(i, j int) bool {
			return group[i].TimeField("updated_at").After(group[j].TimeField("updated_at"))
		})
		stale := make([]string, 0, len(group)-1)
		for _, r := range group[1:] {
			stale = append(stale, r.ID)
		}

		if dryRun {
			report.Collapsed += len(stale)
			continue
		}

		removed, err := m.store.Delete(ctx, stale)
		if err != nil {
			m.logger.Error("collapsing duplicates failed", "uri", u, "error", err)
			continue
		}
		metrics.Inc(metrics.ReconcileCollapsed)
		report.Collapsed += removed
		m.logger.Info("collapsed duplicates", "uri", u, "canonical", group[0].ID, "removed", removed)
	}

	return report, nil
}

// Stats summarizes the collection contents.
type Stats struct {
	Total      int            `json:"total"`
	ByType     map[string]int `json:"by_type"`
	ByCategory map[string]int `json:"by_category"`
}

// Stats scans the collection and counts records by context type and
// category. Records missing a field count under "unknown".
func (m *Manager) Stats(ctx context.Context) (*Stats, error) {
	records, err := m.store.FilterScroll(ctx, nil, sweepScanLimit)
	if err != nil {
		return nil, fmt.Errorf("scanning collection: %w", err)
	}

	stats := &Stats{
		Total:      len(records),
		ByType:     make(map[string]int),
		ByCategory: make(map[string]int),
	}
	for _, r := range records {
		t := r.StringField("context_type")
		if t == "" {
			t = "unknown"
		}
		stats.ByType[t]++

		c := r.StringField("category")
		if c == "" {
			c = "unknown"
		}
		stats.ByCategory[c]++
	}
	return stats, nil
}
