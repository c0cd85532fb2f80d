// Evallog command for the larder CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var evallogCmd = &cobra.Command{
	Use:   "evallog",
	Short: "Rebuild the price evaluation log from the entry table",
	Long: `Evallog derives one row per canonical item from the entry table: the
most recent observed price, its date, and the observation count. The
aggregates are recomputed from scratch on every run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "evallog:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		e := newEngine(backend)
		s, err := e.UpsertEvalLog(context.Background(), activeEntryTable(), activeEvalTable())
		if err != nil {
			fmt.Fprintln(os.Stderr, "evallog:", err)
			os.Exit(exitSysError)
		}
		printSummary(s)
		return nil
	},
}
