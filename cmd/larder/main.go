// Package main provides the larder CLI: flag-gated reconciliation
// workflows over a pantry ledger stored in SQLite or an xlsx workbook.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
