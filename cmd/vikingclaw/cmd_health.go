package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to required services",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()
			allOK := true

			// Check Qdrant
			st, err := newStore(logger)
			if err != nil {
				fmt.Printf("Qdrant: FAIL (%v)\n", err)
				allOK = false
			} else {
				defer func() { _ = st.Close() }()
				if err := st.EnsureCollection(ctx); err != nil {
					fmt.Printf("Qdrant: FAIL (%v)\n", err)
					allOK = false
				} else {
					fmt.Println("Qdrant: OK")
				}
			}

			// Check the embedding provider
			emb := newEmbedder(logger)
			if _, err := emb.Embed(ctx, "health check"); err != nil {
				fmt.Printf("Embedder (%s): FAIL (%v)\n", cfg.Embedder.Provider, err)
				allOK = false
			} else {
				fmt.Printf("Embedder (%s): OK\n", cfg.Embedder.Provider)
			}

			// Check Claude API key
			if cfg.Claude.APIKey == "" {
				fmt.Println("Claude API: FAIL (no API key configured)")
				allOK = false
			} else {
				fmt.Println("Claude API: OK")
			}

			// Check the context tree root
			if _, err := os.Stat(cfg.Memory.FSRoot); err != nil {
				fmt.Printf("Context tree: FAIL (%v)\n", err)
				allOK = false
			} else {
				fmt.Printf("Context tree: OK (%s)\n", cfg.Memory.FSRoot)
			}

			if !allOK {
				return fmt.Errorf("one or more health checks failed")
			}
			return nil
		},
	}
}
