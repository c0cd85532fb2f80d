// Cleanup command for the larder CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup [lookup|entries|all]",
	Short: "Reconcile orphaned identifiers and partial rows",
	Long: `Cleanup clears identifier cells whose name was deleted from a lookup
master table, and blanks entry rows whose natural key is only partially
filled. Cleared entry rows are snapshotted to the audit journal first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) > 0 {
			target = args[0]
		}

		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "cleanup:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		e := newEngine(backend)
		ctx := context.Background()

		if target == "entries" || target == "" || target == "all" {
			s, err := e.CleanupEntries(ctx, activeEntryTable())
			if err != nil {
				fmt.Fprintln(os.Stderr, "cleanup entries:", err)
				os.Exit(exitSysError)
			}
			printSummary(s)
			if target == "entries" {
				return nil
			}
		}

		lookups, err := selectLookups(target)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cleanup:", err)
			os.Exit(exitUserError)
		}
		for _, lk := range lookups {
			s, err := e.Cleanup(ctx, lk)
			if err != nil {
				fmt.Fprintf(os.Stderr, "cleanup %s: %s\n", lk.Key, err)
				os.Exit(exitSysError)
			}
			printSummary(s)
		}
		return nil
	},
}
