package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NecrosisO-O/VikingClaw/internal/config"
	"github.com/NecrosisO-O/VikingClaw/internal/embedder"
	"github.com/NecrosisO-O/VikingClaw/internal/llm"
	"github.com/NecrosisO-O/VikingClaw/internal/store"
	"github.com/NecrosisO-O/VikingClaw/internal/vfs"
)

var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:   "vikingclaw",
		Short: "VikingClaw: hierarchical URI-addressed memory for AI agents",
		Long:  "VikingClaw indexes a viking:// context tree into a vector store and serves planned retrieval, similarity resolution and memory deduplication over CLI, HTTP and MCP.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		indexCmd(),
		retrieveCmd(),
		planCmd(),
		dedupCmd(),
		getCmd(),
		forgetCmd(),
		sweepCmd(),
		statsCmd(),
		healthCmd(),
		serveCmd(),
		mcpCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil && cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newEmbedder(logger *slog.Logger) embedder.Embedder {
	if cfg.Embedder.Provider == "openai" {
		return embedder.NewOpenAIEmbedder(
			cfg.Embedder.OpenAIAPIKey,
			cfg.Embedder.OpenAIModel,
			cfg.Embedder.Dimension,
			logger,
		)
	}
	return embedder.NewOllamaEmbedder(
		cfg.Embedder.OllamaBaseURL,
		cfg.Embedder.OllamaModel,
		cfg.Embedder.Dimension,
		logger,
	)
}

func newStore(logger *slog.Logger) (store.VectorStore, error) {
	return store.NewQdrantStore(
		cfg.Qdrant.Host,
		cfg.Qdrant.GRPCPort,
		cfg.Qdrant.Collection,
		cfg.Memory.VectorDimension,
		cfg.Qdrant.UseTLS,
		logger,
	)
}

func newCompleter(logger *slog.Logger) llm.Completer {
	return llm.NewClaude(cfg.Claude.APIKey, cfg.Claude.Model, logger)
}

func newFS(logger *slog.Logger) vfs.FS {
	return vfs.NewLocalFS(cfg.Memory.FSRoot, logger)
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
