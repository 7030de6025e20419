package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NecrosisO-O/VikingClaw/internal/dedup"
	"github.com/NecrosisO-O/VikingClaw/internal/lifecycle"
	"github.com/NecrosisO-O/VikingClaw/internal/planner"
	"github.com/NecrosisO-O/VikingClaw/internal/reconcile"
	"github.com/NecrosisO-O/VikingClaw/internal/resolver"
	"github.com/NecrosisO-O/VikingClaw/internal/retrieve"
	"github.com/NecrosisO-O/VikingClaw/internal/store"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubCompleter struct {
	response  string
	err       error
	available bool
}

func (s *stubCompleter) Complete(_ context.Context, _ string) (string, error) {
	return s.response, s.err
}

func (s *stubCompleter) Available() bool { return s.available }

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (stubEmbedder) Dimension() int { return 2 }

func newTestServer(t *testing.T, m *store.MockStore, completer *stubCompleter, authToken string) *Server {
	t.Helper()
	logger := newTestLogger()

	pl := planner.New(completer, 0, logger)
	rt := retrieve.New(m, stubEmbedder{}, 0, logger)
	res := resolver.New(m, stubEmbedder{}, nil, logger)
	en := dedup.NewEngine(res, completer, logger)
	rc := reconcile.New(m, logger)
	sw := lifecycle.NewManager(m, logger)

	return NewServer(pl, rt, en, rc, sw, logger, authToken)
}

const planResponse = `{"reasoning": "r", "queries": [{"query": "standup", "context_type": "memory", "intent": "recall", "priority": 1}]}`

func seedLeaf(t *testing.T, m *store.MockStore) {
	t.Helper()
	require.NoError(t, m.Upsert(context.Background(), []store.Record{{
		ID: "leaf",
		Fields: map[string]any{
			"uri":          "viking://user/memories/events/standup.md",
			"context_type": "memory",
			"is_leaf":      true,
			"abstract":     "Standup moved to 9:30",
			"updated_at":   "2026-09-01T10:00:00Z",
		},
		Vector: []float32{1, 0},
	}}))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, store.NewMockStore(), &stubCompleter{}, "")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t, store.NewMockStore(), &stubCompleter{available: true, response: planResponse}, "secret")
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/plan", strings.NewReader(`{"current_message": "hi"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/plan", strings.NewReader(`{"current_message": "hi"}`))
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/plan", strings.NewReader(`{"current_message": "hi"}`))
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The health check bypasses auth.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlanEndpoint(t *testing.T) {
	srv := newTestServer(t, store.NewMockStore(), &stubCompleter{available: true, response: planResponse}, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/plan", strings.NewReader(`{"current_message": "when is standup"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"queries"`)
	assert.Contains(t, rec.Body.String(), "standup")
}

func TestPlanEndpointUnparsableModelAnswer(t *testing.T) {
	srv := newTestServer(t, store.NewMockStore(), &stubCompleter{available: true, response: "no json"}, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/plan", strings.NewReader(`{"current_message": "hi"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestPlanEndpointRejectsBadJSON(t *testing.T) {
	srv := newTestServer(t, store.NewMockStore(), &stubCompleter{available: true, response: planResponse}, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/plan", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetrieveEndpoint(t *testing.T) {
	m := store.NewMockStore()
	seedLeaf(t, m)
	srv := newTestServer(t, m, &stubCompleter{available: true, response: planResponse}, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/retrieve", strings.NewReader(`{"current_message": "when is standup", "limit": 5}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "viking://user/memories/events/standup.md")
	assert.Contains(t, rec.Body.String(), `"final_score"`)
}

func TestDedupEndpoint(t *testing.T) {
	srv := newTestServer(t, store.NewMockStore(), &stubCompleter{available: true}, "")

	body := `{"category": "events", "content": "standup moved to 9:30"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/dedup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// Empty collection: nothing similar, verdict is create.
	assert.Contains(t, rec.Body.String(), `"create"`)
}

func TestDedupEndpointValidation(t *testing.T) {
	srv := newTestServer(t, store.NewMockStore(), &stubCompleter{available: true}, "")
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/dedup", strings.NewReader(`{"category": "events"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/dedup", strings.NewReader(`{"category": "moods", "content": "x"}`))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContextLifecycleEndpoints(t *testing.T) {
	m := store.NewMockStore()
	seedLeaf(t, m)
	srv := newTestServer(t, m, &stubCompleter{}, "")
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/contexts?uri=viking%3A%2F%2Fuser%2Fmemories%2Fevents%2Fstandup.md", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Standup moved to 9:30")

	req = httptest.NewRequest(http.MethodDelete, "/v1/contexts?uri=viking%3A%2F%2Fuser%2Fmemories%2Fevents%2Fstandup.md", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"removed":1`)

	req = httptest.NewRequest(http.MethodGet, "/v1/contexts?uri=viking%3A%2F%2Fuser%2Fmemories%2Fevents%2Fstandup.md", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContextEndpointsRequireVikingURI(t *testing.T) {
	srv := newTestServer(t, store.NewMockStore(), &stubCompleter{}, "")
	handler := srv.Handler()

	for _, target := range []string{"/v1/contexts", "/v1/contexts?uri=http%3A%2F%2Fx"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestSweepEndpoint(t *testing.T) {
	m := store.NewMockStore()
	require.NoError(t, m.Upsert(context.Background(), []store.Record{
		{ID: "a", Fields: map[string]any{"uri": "viking://user/x", "updated_at": "2026-09-01T09:00:00Z"}},
		{ID: "b", Fields: map[string]any{"uri": "viking://user/x", "updated_at": "2026-09-01T11:00:00Z"}},
	}))
	srv := newTestServer(t, m, &stubCompleter{}, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/sweep", strings.NewReader(`{"dry_run": true}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"collapsed":1`)
	assert.Equal(t, 2, m.Len())
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, store.NewMockStore(), &stubCompleter{}, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vikingclaw_plan_total")
	assert.Contains(t, rec.Body.String(), "vikingclaw_dedup_create_total")
}
