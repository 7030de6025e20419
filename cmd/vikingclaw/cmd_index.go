package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NecrosisO-O/VikingClaw/internal/indexer"
	"github.com/NecrosisO-O/VikingClaw/internal/reconcile"
	"github.com/NecrosisO-O/VikingClaw/internal/uri"
)

func indexCmd() *cobra.Command {
	var rootURI string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the context tree into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			emb := newEmbedder(logger)
			st, err := newStore(logger)
			if err != nil {
				return fmt.Errorf("index: connecting to store: %w", err)
			}
			defer func() { _ = st.Close() }()

			if err := st.EnsureCollection(ctx); err != nil {
				return fmt.Errorf("index: ensuring collection: %w", err)
			}

			if rootURI == "" {
				rootURI = uri.Root().String()
			}
			if !uri.IsValid(rootURI) {
				return fmt.Errorf("index: %q is not a viking:// address", rootURI)
			}

			recon := reconcile.New(st, logger)
			summ := indexer.NewSummarizer(newCompleter(logger), logger)
			idx := indexer.New(recon, emb, newFS(logger), summ, logger)

			count, err := idx.IndexTree(ctx, rootURI)
			if err != nil {
				return fmt.Errorf("index: indexing tree: %w", err)
			}

			fmt.Printf("Indexed %d contexts under %s\n", count, rootURI)
			return nil
		},
	}

	cmd.Flags().StringVar(&rootURI, "root", "", "subtree to index (default: viking://)")
	return cmd
}
