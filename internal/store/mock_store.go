package store

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
)

// MockStore is an in-memory VectorStore for testing.
type MockStore struct {
	mu      sync.RWMutex
	records map[string]Record

	// FailSearch makes Search return an error, for degrade-path tests.
	FailSearch error
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{records: make(map[string]Record)}
}

// EnsureCollection is a no-op for the mock store.
func (m *MockStore) EnsureCollection(_ context.Context) error { return nil }

func (m *MockStore) Search(_ context.Context, vector []float32, limit uint64, filter *Filter) ([]ScoredRecord, error) {
	if m.FailSearch != nil {
		return nil, m.FailSearch
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []ScoredRecord
	for _, r := range m.records {
		if !matchesFilter(r, filter) {
			continue
		}
		results = append(results, ScoredRecord{
			Record: copyRecord(r),
			Score:  cosineSimilarity(vector, r.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if uint64(len(results)) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MockStore) FilterScroll(_ context.Context, filter *Filter, limit uint64) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []Record
	for _, r := range m.records {
		if !matchesFilter(r, filter) {
			continue
		}
		results = append(results, copyRecord(r))
	}

	// Deterministic order for tests.
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	if uint64(len(results)) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MockStore) Upsert(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = copyRecord(r)
	}
	return nil
}

func (m *MockStore) Delete(_ context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.records, id)
	}
	return len(ids), nil
}

func (m *MockStore) Close() error { return nil }

// Len returns the number of stored records.
func (m *MockStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Get returns the stored record with the given id.
func (m *MockStore) Get(id string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return Record{}, false
	}
	return copyRecord(r), true
}

func copyRecord(r Record) Record {
	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	vector := make([]float32, len(r.Vector))
	copy(vector, r.Vector)
	return Record{ID: r.ID, Fields: fields, Vector: vector}
}

func matchesFilter(r Record, f *Filter) bool {
	if f == nil {
		return true
	}
	if f.IsBranch() {
		if f.Op == OpOr {
			for _, child := range f.Children {
				if matchesFilter(r, child) {
					return true
				}
			}
			return false
		}
		for _, child := range f.Children {
			if !matchesFilter(r, child) {
				return false
			}
		}
		return true
	}

	got, ok := r.Fields[f.Field]
	if !ok {
		return false
	}
	for _, want := range f.Values {
		if valuesEqual(got, want) {
			return true
		}
	}
	return false
}

func valuesEqual(got, want any) bool {
	if got == want {
		return true
	}
	gs, gok := got.(string)
	ws, wok := want.(string)
	if gok && wok {
		return strings.EqualFold(gs, ws)
	}
	return false
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
