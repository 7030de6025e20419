package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NecrosisO-O/VikingClaw/internal/models"
	"github.com/NecrosisO-O/VikingClaw/internal/planner"
)

func planCmd() *cobra.Command {
	var (
		summary     string
		contextType string
		target      string
	)

	cmd := &cobra.Command{
		Use:   "plan [message]",
		Short: "Generate the typed query plan for a message without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			pl := planner.New(newCompleter(logger), cfg.Memory.MaxRecentMessages, logger)

			plan, err := pl.Plan(ctx, summary, nil, args[0], models.ContextType(contextType), target)
			if err != nil {
				return fmt.Errorf("plan: %w", err)
			}

			out, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				return fmt.Errorf("plan: marshaling JSON: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&summary, "summary", "", "session compression summary")
	cmd.Flags().StringVar(&contextType, "type", "", "constrain to one context type (memory|resource|skill)")
	cmd.Flags().StringVar(&target, "target", "", "target directory hint for more precise queries")
	return cmd
}
