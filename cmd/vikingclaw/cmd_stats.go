package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/NecrosisO-O/VikingClaw/internal/lifecycle"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show context collection statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			st, err := newStore(logger)
			if err != nil {
				return fmt.Errorf("stats: connecting to store: %w", err)
			}
			defer func() { _ = st.Close() }()

			lm := lifecycle.NewManager(st, logger)
			stats, err := lm.Stats(ctx)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			fmt.Printf("Total contexts: %d\n\n", stats.Total)

			fmt.Println("By type:")
			printCounts(stats.ByType)

			fmt.Println("\nBy category:")
			printCounts(stats.ByCategory)

			return nil
		},
	}
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-12s %d\n", k, counts[k])
	}
}
