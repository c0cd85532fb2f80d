// Init command for the larder CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/millstone-labs/larder/pkg/types"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize larder storage and create the standard tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}
		if err := ensureConfigDir(configDir); err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}
		if err := ensureDefaultConfigFile(configDir); err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}

		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		ctx := context.Background()
		created, existing := 0, 0
		for _, table := range standardTables() {
			err := backend.CreateTable(ctx, table.name, table.columns)
			switch {
			case err == nil:
				created++
			case errors.Is(err, types.ErrTableExists):
				existing++
			default:
				fmt.Fprintln(os.Stderr, "init:", err)
				os.Exit(exitSysError)
			}
		}

		fmt.Println("Larder initialized successfully")
		fmt.Println("  config:", configDir)
		fmt.Printf("  tables: %d created, %d already present\n", created, existing)
		return nil
	},
}

type tableSpec struct {
	name    string
	columns []string
}

// standardTables derives the full table set from the configured lookups:
// the entry table, one master and one staging table per lookup, and the
// price evaluation log. Source tables pick up each lookup's source
// columns on top of their own.
func standardTables() []tableSpec {
	ent := activeEntryTable()
	ev := activeEvalTable()
	lookups := activeLookups()

	order := []string{ent.Table}
	columns := map[string][]string{ent.Table: ent.Columns()}

	add := func(name string, cols []string) {
		if _, ok := columns[name]; !ok {
			order = append(order, name)
			columns[name] = cols
		}
	}

	for _, lk := range lookups {
		add(lk.MasterTable, lk.MasterColumns())
		add(lk.StagingTable, lk.StagingColumns())
	}

	// Source columns extend whichever table the lookup reads from.
	for _, lk := range lookups {
		cols, ok := columns[lk.SourceTable]
		if !ok {
			add(lk.SourceTable, lk.SourceColumns())
			continue
		}
		for _, c := range lk.SourceColumns() {
			if !containsColumn(cols, c) {
				cols = append(cols, c)
			}
		}
		columns[lk.SourceTable] = cols
	}

	add(ev.Table, []string{ev.ItemColumn, ev.LastPriceColumn, ev.LastDateColumn, ev.ObservationsColumn, ev.UpdatedAtColumn})

	specs := make([]tableSpec, 0, len(order))
	for _, name := range order {
		specs = append(specs, tableSpec{name: name, columns: columns[name]})
	}
	return specs
}

func containsColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}
