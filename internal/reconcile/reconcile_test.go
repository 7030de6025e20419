package reconcile

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NecrosisO-O/VikingClaw/internal/store"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestInsertCreatesNewRecord(t *testing.T) {
	m := store.NewMockStore()
	r := New(m, newTestLogger())
	ctx := context.Background()

	id, err := r.Insert(ctx, map[string]any{
		"uri":        "viking://user/memories/events/standup.md",
		"updated_at": "2026-09-01T10:00:00Z",
	}, []float32{1, 0})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.Equal(t, 1, m.Len())
	rec, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, "viking://user/memories/events/standup.md", rec.StringField("uri"))
}

func TestInsertRequiresURI(t *testing.T) {
	r := New(store.NewMockStore(), newTestLogger())

	_, err := r.Insert(context.Background(), map[string]any{"abstract": "no uri"}, nil)
	require.Error(t, err)
}

func TestInsertCollapsesDuplicatesOntoNewest(t *testing.T) {
	m := store.NewMockStore()
	r := New(m, newTestLogger())
	ctx := context.Background()

	const uri = "viking://user/memories/entities/alice.md"
	require.NoError(t, m.Upsert(ctx, []store.Record{
		{ID: "a", Fields: map[string]any{"uri": uri, "updated_at": "2026-09-01T09:00:00Z"}},
		{ID: "b", Fields: map[string]any{"uri": uri, "updated_at": "2026-09-01T11:00:00Z"}},
		{ID: "c", Fields: map[string]any{"uri": uri, "updated_at": "2026-09-01T10:00:00Z"}},
	}))

	id, err := r.Insert(ctx, map[string]any{
		"uri":        uri,
		"abstract":   "Alice prefers async reviews",
		"updated_at": "2026-09-01T12:00:00Z",
	}, []float32{0, 1})
	require.NoError(t, err)

	// The most recently updated record anchors the write; the others
	// are removed as stale duplicates.
	assert.Equal(t, "b", id)
	assert.Equal(t, 1, m.Len())

	rec, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, "Alice prefers async reviews", rec.StringField("abstract"))

	_, ok = m.Get("a")
	assert.False(t, ok)
	_, ok = m.Get("c")
	assert.False(t, ok)
}

func TestInsertSingleExistingKeepsID(t *testing.T) {
	m := store.NewMockStore()
	r := New(m, newTestLogger())
	ctx := context.Background()

	const uri = "viking://agent/memories/cases/timeout.md"
	require.NoError(t, m.Upsert(ctx, []store.Record{
		{ID: "only", Fields: map[string]any{"uri": uri, "updated_at": "2026-09-01T09:00:00Z"}},
	}))

	id, err := r.Insert(ctx, map[string]any{"uri": uri, "updated_at": "2026-09-01T10:00:00Z"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "only", id)
	assert.Equal(t, 1, m.Len())
}

func TestInsertIsIdempotent(t *testing.T) {
	m := store.NewMockStore()
	r := New(m, newTestLogger())
	ctx := context.Background()

	fields := map[string]any{
		"uri":        "viking://user/memories/preferences/editor.md",
		"updated_at": "2026-09-01T10:00:00Z",
	}
	first, err := r.Insert(ctx, fields, nil)
	require.NoError(t, err)
	second, err := r.Insert(ctx, fields, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.Len())
}

func TestFetchByURI(t *testing.T) {
	m := store.NewMockStore()
	r := New(m, newTestLogger())
	ctx := context.Background()

	require.NoError(t, m.Upsert(ctx, []store.Record{
		{ID: "x", Fields: map[string]any{
			"uri":      "viking://user/memories/profile",
			"abstract": "Works European hours",
			"is_leaf":  true,
		}},
	}))

	c, err := r.FetchByURI(ctx, "viking://user/memories/profile")
	require.NoError(t, err)
	assert.Equal(t, "Works European hours", c.Abstract)
	assert.True(t, c.IsLeaf)

	_, err = r.FetchByURI(ctx, "viking://user/memories/missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRemoveByURI(t *testing.T) {
	m := store.NewMockStore()
	r := New(m, newTestLogger())
	ctx := context.Background()

	const uri = "viking://user/memories/events/offsite.md"
	require.NoError(t, m.Upsert(ctx, []store.Record{
		{ID: "a", Fields: map[string]any{"uri": uri}},
		{ID: "b", Fields: map[string]any{"uri": uri}},
		{ID: "other", Fields: map[string]any{"uri": "viking://user/memories/events/retro.md"}},
	}))

	removed, err := r.RemoveByURI(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, m.Len())

	removed, err = r.RemoveByURI(ctx, uri)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
