// Package mcp implements the Model Context Protocol server for
// vikingclaw, exposing retrieval and dedup over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/NecrosisO-O/VikingClaw/internal/dedup"
	"github.com/NecrosisO-O/VikingClaw/internal/models"
	"github.com/NecrosisO-O/VikingClaw/internal/planner"
	"github.com/NecrosisO-O/VikingClaw/internal/reconcile"
	"github.com/NecrosisO-O/VikingClaw/internal/retrieve"
	"github.com/NecrosisO-O/VikingClaw/internal/uri"
)

// defaultRetrieveLimit is the default number of contexts returned by
// the retrieve tool.
const defaultRetrieveLimit = 10

// Server wraps an MCPServer with vikingclaw dependencies.
type Server struct {
	mcp       *mcpserver.MCPServer
	planner   *planner.Planner
	retriever *retrieve.Retriever
	engine    *dedup.Engine
	recon     *reconcile.Reconciler
	logger    *slog.Logger
}

// NewServer creates a new MCP server.
func NewServer(pl *planner.Planner, rt *retrieve.Retriever, en *dedup.Engine, rc *reconcile.Reconciler, logger *slog.Logger) *Server {
	s := &Server{
		planner:   pl,
		retriever: rt,
		engine:    en,
		recon:     rc,
		logger:    logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"vikingclaw",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildRetrieveTool(), s.handleRetrieve)
	mcpSrv.AddTool(buildRememberTool(), s.handleRemember)
	mcpSrv.AddTool(buildForgetTool(), s.handleForget)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleRetrieve is the exported handler for the "retrieve" tool. It
// is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleRetrieve(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleRetrieve(ctx, req)
}

// HandleRemember is the exported handler for the "remember" tool.
func (s *Server) HandleRemember(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleRemember(ctx, req)
}

// HandleForget is the exported handler for the "forget" tool.
func (s *Server) HandleForget(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleForget(ctx, req)
}

// --- tool definitions ---

func buildRetrieveTool() mcpgo.Tool {
	return mcpgo.NewTool("retrieve",
		mcpgo.WithDescription("Retrieve relevant contexts (memories, resources, skills) for a message via a planned multi-query search."),
		mcpgo.WithString("message",
			mcpgo.Required(),
			mcpgo.Description("The current message to retrieve contexts for"),
		),
		mcpgo.WithString("summary",
			mcpgo.Description("Optional session compression summary"),
		),
		mcpgo.WithString("context_type",
			mcpgo.Description("Constrain retrieval to one context type: memory, resource, or skill"),
		),
		mcpgo.WithNumber("limit",
			mcpgo.Description("Maximum number of contexts (default: 10)"),
		),
	)
}

func buildRememberTool() mcpgo.Tool {
	return mcpgo.NewTool("remember",
		mcpgo.WithDescription("Submit a candidate memory and get a create/merge/skip verdict against existing memories."),
		mcpgo.WithString("content",
			mcpgo.Required(),
			mcpgo.Description("The memory content"),
		),
		mcpgo.WithString("abstract",
			mcpgo.Description("Short abstract of the memory"),
		),
		mcpgo.WithString("category",
			mcpgo.Required(),
			mcpgo.Description("Memory category: preferences, entities, events, cases, patterns, or profile"),
		),
	)
}

func buildForgetTool() mcpgo.Tool {
	return mcpgo.NewTool("forget",
		mcpgo.WithDescription("Delete every index record for a context URI."),
		mcpgo.WithString("uri",
			mcpgo.Required(),
			mcpgo.Description("The viking:// URI to forget"),
		),
	)
}

// --- tool handlers ---

func (s *Server) handleRetrieve(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	message := req.GetString("message", "")
	if strings.TrimSpace(message) == "" {
		return mcpgo.NewToolResultError("message is required and must not be empty"), nil
	}

	limit := req.GetInt("limit", defaultRetrieveLimit)
	if limit <= 0 {
		limit = defaultRetrieveLimit
	}

	plan, err := s.planner.Plan(ctx, req.GetString("summary", ""), nil, message, models.ContextType(req.GetString("context_type", "")), "")
	if err != nil {
		return mcpgo.NewToolResultErrorf("planning failed: %s", err.Error()), nil
	}

	results, err := s.retriever.Execute(ctx, plan, limit)
	if err != nil {
		return mcpgo.NewToolResultErrorf("retrieval failed: %s", err.Error()), nil
	}

	return toolResultJSON(map[string]any{
		"plan":    plan,
		"results": results,
	})
}

func (s *Server) handleRemember(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	content := req.GetString("content", "")
	if strings.TrimSpace(content) == "" {
		return mcpgo.NewToolResultError("content is required and must not be empty"), nil
	}

	category := models.Category(req.GetString("category", ""))
	if !category.IsValid() {
		return mcpgo.NewToolResultErrorf("invalid category %q: must be one of preferences, entities, events, cases, patterns, profile", string(category)), nil
	}

	candidate := models.CandidateMemory{
		Category: category,
		Abstract: req.GetString("abstract", ""),
		Content:  content,
	}

	result := s.engine.Decide(ctx, candidate)
	return toolResultJSON(result)
}

func (s *Server) handleForget(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	rawURI := req.GetString("uri", "")
	if !uri.IsValid(rawURI) {
		return mcpgo.NewToolResultError("uri is required and must be a viking:// address"), nil
	}

	removed, err := s.recon.RemoveByURI(ctx, rawURI)
	if err != nil {
		return mcpgo.NewToolResultErrorf("forget failed: %s", err.Error()), nil
	}

	return toolResultJSON(map[string]int{"removed": removed})
}

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}
