// Backfill command for the larder CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var backfillHumanIDs bool

var backfillCmd = &cobra.Command{
	Use:   "backfill [lookup|entries|all]",
	Short: "Assign missing identifiers to named rows",
	Long: `Backfill scans lookup master and staging tables (and the entry table)
for rows that have a name but no identifier and assigns one. Rows that
already carry an identifier are never rewritten, so the command is safe
to repeat.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) > 0 {
			target = args[0]
		}

		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "backfill:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		e := newEngine(backend)
		ctx := context.Background()

		if target == "entries" || target == "" || target == "all" {
			s, err := e.BackfillEntries(ctx, activeEntryTable())
			if err != nil {
				fmt.Fprintln(os.Stderr, "backfill entries:", err)
				os.Exit(exitSysError)
			}
			printSummary(s)
			if target == "entries" {
				return nil
			}
		}

		lookups, err := selectLookups(target)
		if err != nil {
			fmt.Fprintln(os.Stderr, "backfill:", err)
			os.Exit(exitUserError)
		}
		for _, lk := range lookups {
			s, err := e.Backfill(ctx, lk, backfillHumanIDs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "backfill %s: %s\n", lk.Key, err)
				os.Exit(exitSysError)
			}
			printSummary(s)
		}
		return nil
	},
}

func init() {
	backfillCmd.Flags().BoolVar(&backfillHumanIDs, "human-ids", false, "also assign sequential human-readable ids")
}
