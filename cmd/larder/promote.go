// Promote command for the larder CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var promoteCmd = &cobra.Command{
	Use:   "promote [lookup|all]",
	Short: "Promote approved staging rows into the master tables",
	Long: `Promote moves staging rows that a reviewer approved into the lookup
master table, assigning identifiers and writing the mapping back to the
staging row. A row whose promoted flag is already set is never promoted
again, regardless of its other cells.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) > 0 {
			target = args[0]
		}

		lookups, err := selectLookups(target)
		if err != nil {
			fmt.Fprintln(os.Stderr, "promote:", err)
			os.Exit(exitUserError)
		}

		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "promote:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		e := newEngine(backend)
		ctx := context.Background()
		for _, lk := range lookups {
			s, err := e.Promote(ctx, lk)
			if err != nil {
				fmt.Fprintf(os.Stderr, "promote %s: %s\n", lk.Key, err)
				os.Exit(exitSysError)
			}
			printSummary(s)
		}
		return nil
	},
}
