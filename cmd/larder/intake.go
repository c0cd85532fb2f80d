// Intake command for the larder CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var intakeCmd = &cobra.Command{
	Use:   "intake [lookup|all]",
	Short: "Stage new names observed in the source tables",
	Long: `Intake scans each lookup's source table for canonical names that have
not been staged before and appends one staging row per new name, marked
pending review. Duplicate spellings of the same canonical name are
skipped; the first spelling seen wins.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) > 0 {
			target = args[0]
		}

		lookups, err := selectLookups(target)
		if err != nil {
			fmt.Fprintln(os.Stderr, "intake:", err)
			os.Exit(exitUserError)
		}

		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "intake:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		e := newEngine(backend)
		ctx := context.Background()
		for _, lk := range lookups {
			s, err := e.Intake(ctx, lk)
			if err != nil {
				fmt.Fprintf(os.Stderr, "intake %s: %s\n", lk.Key, err)
				os.Exit(exitSysError)
			}
			printSummary(s)
		}
		return nil
	},
}
