// Package metrics provides application-level counters using stdlib
// expvar. The HTTP server serves a snapshot of them on /v1/stats.
package metrics

import "expvar"

// Operation counters.
var (
	PlanTotal          = expvar.NewInt("vikingclaw_plan_total")
	PlanParseFailures  = expvar.NewInt("vikingclaw_plan_parse_failures_total")
	RetrieveTotal      = expvar.NewInt("vikingclaw_retrieve_total")
	DedupCreate        = expvar.NewInt("vikingclaw_dedup_create_total")
	DedupMerge         = expvar.NewInt("vikingclaw_dedup_merge_total")
	DedupSkip          = expvar.NewInt("vikingclaw_dedup_skip_total")
	ReconcileCollapsed = expvar.NewInt("vikingclaw_reconcile_collapsed_total")
	IndexedContexts    = expvar.NewInt("vikingclaw_indexed_contexts_total")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }

// Snapshot returns the current value of every counter, keyed by the
// exported expvar name.
func Snapshot() map[string]int64 {
	counters := map[string]*expvar.Int{
		"vikingclaw_plan_total":                PlanTotal,
		"vikingclaw_plan_parse_failures_total": PlanParseFailures,
		"vikingclaw_retrieve_total":            RetrieveTotal,
		"vikingclaw_dedup_create_total":        DedupCreate,
		"vikingclaw_dedup_merge_total":         DedupMerge,
		"vikingclaw_dedup_skip_total":          DedupSkip,
		"vikingclaw_reconcile_collapsed_total": ReconcileCollapsed,
		"vikingclaw_indexed_contexts_total":    IndexedContexts,
	}
	out := make(map[string]int64, len(counters))
	for name, c := range counters {
		out[name] = c.Value()
	}
	return out
}
