package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NecrosisO-O/VikingClaw/internal/reconcile"
	"github.com/NecrosisO-O/VikingClaw/internal/uri"
)

func getCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "get [uri]",
		Short: "Fetch the canonical index record for a context URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			if !uri.IsValid(args[0]) {
				return fmt.Errorf("get: %q is not a viking:// address", args[0])
			}

			st, err := newStore(logger)
			if err != nil {
				return fmt.Errorf("get: connecting to store: %w", err)
			}
			defer func() { _ = st.Close() }()

			recon := reconcile.New(st, logger)
			c, err := recon.FetchByURI(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get: %w", err)
			}

			if outputJSON {
				out, err := json.MarshalIndent(c, "", "  ")
				if err != nil {
					return fmt.Errorf("get: marshaling JSON: %w", err)
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Printf("URI:      %s\n", c.URI)
			fmt.Printf("Parent:   %s\n", c.ParentURI)
			fmt.Printf("Type:     %s\n", c.ContextType)
			fmt.Printf("Category: %s\n", c.Category)
			fmt.Printf("Leaf:     %v\n", c.IsLeaf)
			fmt.Printf("Updated:  %s\n", c.UpdatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("\nAbstract:\n%s\n", c.AbstractText())
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
