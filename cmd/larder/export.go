// Export command for the larder CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/millstone-labs/larder/internal/manifest"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a workbook manifest of the store's tables",
	Long: `Export writes an xlsx manifest describing the standard tables: an
overview sheet with row counts plus one sheet per table listing its
columns. Tables missing from the store are recorded as absent.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "export:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		tables := make([]string, 0, len(standardTables()))
		for _, t := range standardTables() {
			tables = append(tables, t.name)
		}

		if err := manifest.Export(context.Background(), backend, tables, exportOut); err != nil {
			fmt.Fprintln(os.Stderr, "export:", err)
			os.Exit(exitSysError)
		}
		fmt.Println("Manifest written to", exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "larder-manifest.xlsx", "output path for the manifest workbook")
}
