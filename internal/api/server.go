package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/NecrosisO-O/VikingClaw/internal/dedup"
	"github.com/NecrosisO-O/VikingClaw/internal/lifecycle"
	"github.com/NecrosisO-O/VikingClaw/internal/metrics"
	"github.com/NecrosisO-O/VikingClaw/internal/models"
	"github.com/NecrosisO-O/VikingClaw/internal/planner"
	"github.com/NecrosisO-O/VikingClaw/internal/reconcile"
	"github.com/NecrosisO-O/VikingClaw/internal/retrieve"
	"github.com/NecrosisO-O/VikingClaw/internal/store"
	"github.com/NecrosisO-O/VikingClaw/internal/uri"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server is an HTTP API server exposing plan, retrieve, dedup and
// reconcile operations. Request/response schemas here are a thin
// adapter; the engines own the semantics.
type Server struct {
	planner   *planner.Planner
	retriever *retrieve.Retriever
	engine    *dedup.Engine
	recon     *reconcile.Reconciler
	sweeper   *lifecycle.Manager
	logger    *slog.Logger
	authToken string // empty = no auth required
}

// NewServer creates a Server with the given dependencies.
func NewServer(pl *planner.Planner, rt *retrieve.Retriever, en *dedup.Engine, rc *reconcile.Reconciler, sw *lifecycle.Manager, logger *slog.Logger, authToken string) *Server {
	return &Server{
		planner:   pl,
		retriever: rt,
		engine:    en,
		recon:     rc,
		sweeper:   sw,
		logger:    logger,
		authToken: authToken,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check is unauthenticated.
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("POST /v1/plan", s.auth(s.handlePlan))
	mux.HandleFunc("POST /v1/retrieve", s.auth(s.handleRetrieve))
	mux.HandleFunc("POST /v1/dedup", s.auth(s.handleDedup))
	mux.HandleFunc("GET /v1/contexts", s.auth(s.handleGetContext))
	mux.HandleFunc("DELETE /v1/contexts", s.auth(s.handleDeleteContext))
	mux.HandleFunc("POST /v1/sweep", s.auth(s.handleSweep))
	mux.HandleFunc("GET /v1/stats", s.auth(s.handleStats))

	return mux
}

// auth wraps a handler with Bearer token authentication when authToken
// is set.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// planRequest is the body accepted by POST /v1/plan and /v1/retrieve.
type planRequest struct {
	Summary        string               `json:"summary"`
	Messages       []models.ChatMessage `json:"messages"`
	CurrentMessage string               `json:"current_message"`
	ContextType    string               `json:"context_type,omitempty"`
	TargetHint     string               `json:"target_hint,omitempty"`
	Limit          int                  `json:"limit,omitempty"`
}

func (r planRequest) messageList() []models.Message {
	msgs := make([]models.Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		msgs = append(msgs, m)
	}
	return msgs
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !s.decode(w, r, &req) {
		return
	}

	plan, err := s.planner.Plan(r.Context(), req.Summary, req.messageList(), req.CurrentMessage, models.ContextType(req.ContextType), req.TargetHint)
	if err != nil {
		if errors.Is(err, planner.ErrPlanUnparsable) {
			s.writeError(w, http.StatusBadGateway, "language model returned no decodable plan")
			return
		}
		s.logger.Error("planning failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "planning failed")
		return
	}

	s.writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !s.decode(w, r, &req) {
		return
	}

	plan, err := s.planner.Plan(r.Context(), req.Summary, req.messageList(), req.CurrentMessage, models.ContextType(req.ContextType), req.TargetHint)
	if err != nil {
		if errors.Is(err, planner.ErrPlanUnparsable) {
			s.writeError(w, http.StatusBadGateway, "language model returned no decodable plan")
			return
		}
		s.logger.Error("planning failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "planning failed")
		return
	}

	results, err := s.retriever.Execute(r.Context(), plan, req.Limit)
	if err != nil {
		s.logger.Error("retrieval failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "retrieval failed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"plan":    plan,
		"results": results,
	})
}

func (s *Server) handleDedup(w http.ResponseWriter, r *http.Request) {
	var candidate models.CandidateMemory
	if !s.decode(w, r, &candidate) {
		return
	}
	if candidate.Content == "" {
		s.writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if !candidate.Category.IsValid() {
		s.writeError(w, http.StatusBadRequest, "unrecognized category")
		return
	}

	result := s.engine.Decide(r.Context(), candidate)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	rawURI := r.URL.Query().Get("uri")
	if !uri.IsValid(rawURI) {
		s.writeError(w, http.StatusBadRequest, "uri parameter is required and must be a viking:// address")
		return
	}

	c, err := s.recon.FetchByURI(r.Context(), rawURI)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "context not found")
			return
		}
		s.logger.Error("fetching context failed", "uri", rawURI, "error", err)
		s.writeError(w, http.StatusInternalServerError, "fetching context failed")
		return
	}

	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteContext(w http.ResponseWriter, r *http.Request) {
	rawURI := r.URL.Query().Get("uri")
	if !uri.IsValid(rawURI) {
		s.writeError(w, http.StatusBadRequest, "uri parameter is required and must be a viking:// address")
		return
	}

	removed, err := s.recon.RemoveByURI(r.Context(), rawURI)
	if err != nil {
		s.logger.Error("removing context failed", "uri", rawURI, "error", err)
		s.writeError(w, http.StatusInternalServerError, "removing context failed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// sweepRequest is the body accepted by POST /v1/sweep.
type sweepRequest struct {
	DryRun bool `json:"dry_run"`
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if !s.decode(w, r, &req) {
		return
	}

	report, err := s.sweeper.Sweep(r.Context(), req.DryRun)
	if err != nil {
		s.logger.Error("sweep failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "sweep failed")
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, metrics.Snapshot())
}

// --- helpers ---

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with a timeout.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
