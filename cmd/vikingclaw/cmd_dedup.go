package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NecrosisO-O/VikingClaw/internal/classifier"
	"github.com/NecrosisO-O/VikingClaw/internal/dedup"
	"github.com/NecrosisO-O/VikingClaw/internal/models"
	"github.com/NecrosisO-O/VikingClaw/internal/resolver"
)

func dedupCmd() *cobra.Command {
	var (
		abstract   string
		overview   string
		category   string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "dedup [content]",
		Short: "Get a create/merge/skip verdict for a candidate memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()
			content := args[0]

			emb := newEmbedder(logger)
			st, err := newStore(logger)
			if err != nil {
				return fmt.Errorf("dedup: connecting to store: %w", err)
			}
			defer func() { _ = st.Close() }()

			cat := models.Category(category)
			if category == "" {
				cat = classifier.NewClassifier(logger).Classify(content)
			}
			if !cat.IsValid() {
				return fmt.Errorf("dedup: invalid category %q", category)
			}

			res := resolver.New(st, emb, newFS(logger), logger)
			engine := dedup.NewEngine(res, newCompleter(logger), logger)

			result := engine.Decide(ctx, models.CandidateMemory{
				Category: cat,
				Abstract: abstract,
				Overview: overview,
				Content:  content,
			})

			if outputJSON {
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("dedup: marshaling JSON: %w", err)
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Printf("Decision: %s\n", result.Decision)
			fmt.Printf("Category: %s\n", result.Candidate.Category)
			fmt.Printf("Reason:   %s\n", result.Reason)
			for i := range result.SimilarMemories {
				m := &result.SimilarMemories[i]
				fmt.Printf("  similar[%d]: %s  %s\n", i, m.URI, truncate(m.AbstractText(), 100))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&abstract, "abstract", "", "short abstract of the candidate")
	cmd.Flags().StringVar(&overview, "overview", "", "overview of the candidate")
	cmd.Flags().StringVar(&category, "category", "", "memory category (default: heuristic classification)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
