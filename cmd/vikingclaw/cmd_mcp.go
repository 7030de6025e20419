package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/NecrosisO-O/VikingClaw/internal/dedup"
	vikingmcp "github.com/NecrosisO-O/VikingClaw/internal/mcp"
	"github.com/NecrosisO-O/VikingClaw/internal/planner"
	"github.com/NecrosisO-O/VikingClaw/internal/reconcile"
	"github.com/NecrosisO-O/VikingClaw/internal/resolver"
	"github.com/NecrosisO-O/VikingClaw/internal/retrieve"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  retrieve  plan typed queries for a message and return ranked contexts
  remember  get a create/merge/skip verdict for a candidate memory
  forget    delete every index record for a context URI

If Qdrant or the embedding provider are unavailable at startup the server
still starts; individual tool calls will return MCP error responses on failure.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			emb := newEmbedder(logger)

			st, storeErr := newStore(logger)
			if storeErr != nil {
				// Log to stderr and continue with a nil store.
				// Tool calls will return per-call errors rather than crashing.
				logger.Error("mcp: failed to connect to store; tool calls requiring storage will fail",
					"error", storeErr)
			}

			completer := newCompleter(logger)

			pl := planner.New(completer, cfg.Memory.MaxRecentMessages, logger)
			rt := retrieve.New(st, emb, cfg.Memory.PerQueryLimit, logger)
			res := resolver.New(st, emb, newFS(logger), logger)
			en := dedup.NewEngine(res, completer, logger)
			rc := reconcile.New(st, logger)

			srv := vikingmcp.NewServer(pl, rt, en, rc, logger)

			// Use a standard log.Logger pointing at stderr for the mcp-go error logger.
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: vikingclaw MCP server starting", "transport", "stdio")

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
