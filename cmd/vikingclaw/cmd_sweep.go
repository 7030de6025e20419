package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NecrosisO-O/VikingClaw/internal/lifecycle"
	"github.com/NecrosisO-O/VikingClaw/internal/reconcile"
	"github.com/NecrosisO-O/VikingClaw/internal/uri"
)

func sweepCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Collapse duplicate URI records to their newest version",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			st, err := newStore(logger)
			if err != nil {
				return fmt.Errorf("sweep: connecting to store: %w", err)
			}
			defer func() { _ = st.Close() }()

			lm := lifecycle.NewManager(st, logger)
			report, err := lm.Sweep(ctx, dryRun)
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}

			fmt.Printf("Sweep report:\n")
			fmt.Printf("  Scanned:        %d\n", report.Scanned)
			fmt.Printf("  Duplicate URIs: %d\n", report.DuplicateURIs)
			fmt.Printf("  Collapsed:      %d\n", report.Collapsed)
			if dryRun {
				fmt.Println("  (dry run, no changes applied)")
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview changes without applying")
	return cmd
}

func forgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget [uri]",
		Short: "Delete every index record for a context URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			if !uri.IsValid(args[0]) {
				return fmt.Errorf("forget: %q is not a viking:// address", args[0])
			}

			st, err := newStore(logger)
			if err != nil {
				return fmt.Errorf("forget: connecting to store: %w", err)
			}
			defer func() { _ = st.Close() }()

			recon := reconcile.New(st, logger)
			removed, err := recon.RemoveByURI(ctx, args[0])
			if err != nil {
				return fmt.Errorf("forget: %w", err)
			}

			fmt.Printf("Removed %d record(s) for %s\n", removed, args[0])
			return nil
		},
	}
}
