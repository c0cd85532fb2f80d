// Shared helpers for larder CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/millstone-labs/larder/internal/engine"
	"github.com/millstone-labs/larder/internal/sqlite"
	"github.com/millstone-labs/larder/internal/workbook"
	"github.com/millstone-labs/larder/pkg/types"
)

// backendHandle is the full surface a workflow needs from a storage
// backend, plus its lifecycle.
type backendHandle interface {
	types.Store
	types.Locker
	types.CounterStore
	types.Journal
	Detach() error
}

// attachBackend resolves the configured backend and attaches it. The
// caller must defer handle.Detach().
func attachBackend() (backendHandle, error) {
	switch name := resolveBackend(); name {
	case types.BackendSQLite:
		dataDir, err := resolveDataDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		b := sqlite.NewBackend()
		if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir}); err != nil {
			return nil, fmt.Errorf("attach backend: %w", err)
		}
		return b, nil
	case types.BackendWorkbook:
		path, err := resolveWorkbookPath()
		if err != nil {
			return nil, fmt.Errorf("resolve workbook path: %w", err)
		}
		b := workbook.NewBackend()
		if err := b.Attach(types.Config{Backend: types.BackendWorkbook, WorkbookPath: path}); err != nil {
			return nil, fmt.Errorf("attach backend: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrBackendUnknown, name)
	}
}

// newEngine wires the reconciliation engine over an attached backend.
func newEngine(b backendHandle) *engine.Engine {
	return engine.New(b, b, b, b, log)
}

// activeLookups returns the lookup pipelines loaded from config, or the
// built-ins when no config has been loaded yet.
func activeLookups() []types.Lookup {
	if configLookups != nil {
		return configLookups
	}
	return types.DefaultLookups()
}

// activeEntryTable returns the configured entry table definition.
func activeEntryTable() types.EntryTable {
	if configEntryTable.Table != "" {
		return configEntryTable
	}
	return types.DefaultEntryTable()
}

// activeEvalTable returns the configured evaluation log definition.
func activeEvalTable() types.EvalTable {
	if configEvalTable.Table != "" {
		return configEvalTable
	}
	return types.DefaultEvalTable()
}

// lookupKeys lists the configured lookup pipelines for error messages.
func lookupKeys() []string {
	all := activeLookups()
	keys := make([]string, 0, len(all))
	for _, lk := range all {
		keys = append(keys, lk.Key)
	}
	return keys
}

// selectLookups resolves a positional lookup argument. An empty argument
// or "all" selects every configured pipeline.
func selectLookups(arg string) ([]types.Lookup, error) {
	all := activeLookups()
	if arg == "" || arg == "all" {
		return all, nil
	}
	for _, lk := range all {
		if lk.Key == arg {
			return []types.Lookup{lk}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s (valid: %s)", types.ErrLookupNotFound, arg, strings.Join(lookupKeys(), ", "))
}

// printSummary renders one run summary, honoring --json.
func printSummary(s *engine.Summary) {
	if s == nil {
		return
	}
	if flagJSON {
		out, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "marshal JSON:", err)
			os.Exit(exitSysError)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Printf("%s %s:", s.Script, s.Table)
	counts := []struct {
		label string
		n     int
	}{
		{"assigned", s.Assigned},
		{"human", s.HumanAssigned},
		{"cleared", s.Cleared},
		{"staged", s.Staged},
		{"promoted", s.Promoted},
		{"updated", s.Updated},
		{"added", s.Added},
	}
	for _, c := range counts {
		if c.n > 0 {
			fmt.Printf(" %s=%d", c.label, c.n)
		}
	}
	skipped := 0
	for _, n := range s.Skips {
		skipped += n
	}
	if skipped > 0 {
		fmt.Printf(" skipped=%d", skipped)
	}
	fmt.Println()
}
