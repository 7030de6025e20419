package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NecrosisO-O/VikingClaw/internal/models"
	"github.com/NecrosisO-O/VikingClaw/internal/planner"
	"github.com/NecrosisO-O/VikingClaw/internal/retrieve"
)

func retrieveCmd() *cobra.Command {
	var (
		summary     string
		contextType string
		target      string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "retrieve [message]",
		Short: "Plan queries for a message and retrieve ranked contexts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()
			message := args[0]

			emb := newEmbedder(logger)
			st, err := newStore(logger)
			if err != nil {
				return fmt.Errorf("retrieve: connecting to store: %w", err)
			}
			defer func() { _ = st.Close() }()

			pl := planner.New(newCompleter(logger), cfg.Memory.MaxRecentMessages, logger)
			rt := retrieve.New(st, emb, cfg.Memory.PerQueryLimit, logger)

			plan, err := pl.Plan(ctx, summary, nil, message, models.ContextType(contextType), target)
			if err != nil {
				return fmt.Errorf("retrieve: planning queries: %w", err)
			}

			results, err := rt.Execute(ctx, plan, limit)
			if err != nil {
				return fmt.Errorf("retrieve: executing plan: %w", err)
			}

			for i := range results {
				r := &results[i]
				fmt.Printf("[%d] (%.4f) [%s] %s\n", i+1, r.FinalScore, r.Context.ContextType, r.Context.URI)
				fmt.Printf("    %s\n", truncate(r.Context.AbstractText(), 120))
			}

			if len(results) == 0 {
				fmt.Println("No results found.")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&summary, "summary", "", "session compression summary")
	cmd.Flags().StringVar(&contextType, "type", "", "constrain to one context type (memory|resource|skill)")
	cmd.Flags().StringVar(&target, "target", "", "target directory hint for more precise queries")
	cmd.Flags().IntVar(&limit, "limit", 10, "max results")
	return cmd
}
