package resolver

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NecrosisO-O/VikingClaw/internal/models"
	"github.com/NecrosisO-O/VikingClaw/internal/store"
	"github.com/NecrosisO-O/VikingClaw/internal/vfs"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// stubEmbedder returns a fixed vector for every text.
type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return s.vector, s.err
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = s.vector
	}
	return out, s.err
}

func (s *stubEmbedder) Dimension() int { return len(s.vector) }

func TestFindSimilarStrictTier(t *testing.T) {
	m := store.NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.Upsert(ctx, []store.Record{
		{ID: "hit", Fields: map[string]any{
			"uri":      "viking://user/memories/events/standup.md",
			"category": "events",
			"is_leaf":  true,
			"abstract": "Standup moved to 9:30",
		}, Vector: []float32{1, 0}},
		{ID: "unrelated", Fields: map[string]any{
			"uri":      "viking://user/memories/events/offsite.md",
			"category": "events",
			"is_leaf":  true,
		}, Vector: []float32{0, 1}},
		{ID: "directory", Fields: map[string]any{
			"uri":      "viking://user/memories/events",
			"category": "events",
			"is_leaf":  false,
		}, Vector: []float32{1, 0}},
	}))

	r := New(m, &stubEmbedder{vector: []float32{1, 0}}, nil, newTestLogger())
	similar := r.FindSimilar(ctx, models.CandidateMemory{
		Category: models.CategoryEvents,
		Abstract: "standup time change",
		Content:  "moved to 9:30",
	})

	require.Len(t, similar, 1)
	assert.Equal(t, "viking://user/memories/events/standup.md", similar[0].URI)
	assert.Equal(t, "Standup moved to 9:30", similar[0].Abstract)
}

func TestFindSimilarLooseTierForUncategorizedRecords(t *testing.T) {
	m := store.NewMockStore()
	ctx := context.Background()

	// Older records carry no category field: the strict tier misses
	// them, the loose tier finds them by namespace.
	require.NoError(t, m.Upsert(ctx, []store.Record{
		{ID: "legacy", Fields: map[string]any{
			"uri":     "viking://user/memories/events/standup.md",
			"is_leaf": true,
		}, Vector: []float32{1, 0}},
		{ID: "wrong-namespace", Fields: map[string]any{
			"uri":     "viking://user/memories/entities/alice.md",
			"is_leaf": true,
		}, Vector: []float32{1, 0}},
	}))

	r := New(m, &stubEmbedder{vector: []float32{1, 0}}, nil, newTestLogger())
	similar := r.FindSimilar(ctx, models.CandidateMemory{
		Category: models.CategoryEvents,
		Content:  "standup time",
	})

	require.Len(t, similar, 1)
	assert.Equal(t, "viking://user/memories/events/standup.md", similar[0].URI)
}

func TestFindSimilarBelowThreshold(t *testing.T) {
	m := store.NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.Upsert(ctx, []store.Record{
		{ID: "orthogonal", Fields: map[string]any{
			"uri":      "viking://user/memories/events/offsite.md",
			"category": "events",
			"is_leaf":  true,
		}, Vector: []float32{0, 1}},
	}))

	r := New(m, &stubEmbedder{vector: []float32{1, 0}}, nil, newTestLogger())
	similar := r.FindSimilar(ctx, models.CandidateMemory{
		Category: models.CategoryEvents,
		Content:  "something else entirely",
	})
	assert.Empty(t, similar)
}

func TestFindSimilarFilesystemTier(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "user", "memories", "events")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "standup.md"),
		[]byte("# Standup schedule\n\nstandup moved to 9:30 on tuesdays\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("standup moved to 9:30"), 0o644))

	fs := vfs.NewLocalFS(root, newTestLogger())
	r := New(store.NewMockStore(), &stubEmbedder{vector: []float32{1, 0}}, fs, newTestLogger())

	similar := r.FindSimilar(context.Background(), models.CandidateMemory{
		Category: models.CategoryEvents,
		Abstract: "standup moved",
		Content:  "standup moved to 9:30 on tuesdays",
	})

	// Only the .md leaf is eligible.
	require.Len(t, similar, 1)
	assert.Equal(t, "viking://user/memories/events/standup.md", similar[0].URI)
	assert.True(t, similar[0].IsLeaf)
	assert.Equal(t, "Standup schedule", similar[0].Abstract)
	assert.Equal(t, "events", similar[0].Category)
}

func TestFindSimilarNilEmbedder(t *testing.T) {
	r := New(store.NewMockStore(), nil, nil, newTestLogger())
	similar := r.FindSimilar(context.Background(), models.CandidateMemory{Category: models.CategoryEvents})
	assert.Nil(t, similar)
}

func TestFindSimilarEmbedFailure(t *testing.T) {
	r := New(store.NewMockStore(), &stubEmbedder{err: assert.AnError}, nil, newTestLogger())
	similar := r.FindSimilar(context.Background(), models.CandidateMemory{Category: models.CategoryEvents})
	assert.Nil(t, similar)
}

func TestFindSimilarSearchFailureDegrades(t *testing.T) {
	m := store.NewMockStore()
	m.FailSearch = assert.AnError

	r := New(m, &stubEmbedder{vector: []float32{1, 0}}, nil, newTestLogger())
	similar := r.FindSimilar(context.Background(), models.CandidateMemory{
		Category: models.CategoryEvents,
		Content:  "anything",
	})
	assert.Empty(t, similar)
}

func TestTextOverlapSimilarity(t *testing.T) {
	assert.Zero(t, textOverlapSimilarity("", "anything"))
	assert.Zero(t, textOverlapSimilarity("abc", ""))
	assert.InDelta(t, 1.0, textOverlapSimilarity("standup moved", "Standup  MOVED"), 1e-9)

	partial := textOverlapSimilarity("standup moved early", "standup stayed late")
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 1.0)
}

func TestTextOverlapSimilarityMixedScript(t *testing.T) {
	// Each ideograph is its own token; the identifier is one ASCII run.
	// {项 目 代 号 probe_u3} vs {项 目 代 号 为 probe_u3}: 5 shared of 6.
	got := textOverlapSimilarity("项目代号 PROBE_U3", "项目代号为PROBE_U3")
	assert.InDelta(t, 5.0/6.0, got, 1e-9)

	// Cross-script overlap clears the filesystem-tier cutoff even when
	// no ASCII token is shared.
	assert.GreaterOrEqual(t, textOverlapSimilarity("项目代号", "项目代号为何"), fsOverlapThreshold)
}
