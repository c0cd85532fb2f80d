// Root command for the larder CLI.
package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/millstone-labs/larder/internal/paths"
	"github.com/millstone-labs/larder/pkg/larder"
	"github.com/millstone-labs/larder/pkg/types"
)

// Exit codes: 1 for user errors, 2 for system errors.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagBackend   string
	flagWorkbook  string
	flagJSON      bool
	flagLogLevel  string
)

// Values loaded from config.yaml by PersistentPreRunE so all
// subcommands can use them.
var (
	configBackend      string
	configDataDir      string
	configWorkbookPath string
	configLookups      []types.Lookup
	configEntryTable   types.EntryTable
	configEvalTable    types.EvalTable
)

// log is the process-wide logger; level and format come from config.
var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:     "larder",
	Short:   "Larder reconciles a pantry ledger's staging and lookup tables",
	Version: larder.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configBackend = cfg.GetString(cfgKeyBackend)
		configDataDir = cfg.GetString(cfgKeyDataDir)
		configWorkbookPath = cfg.GetString(cfgKeyWorkbookPath)

		if configLookups, err = loadLookups(cfg); err != nil {
			return err
		}
		if configEntryTable, err = loadEntryTable(cfg); err != nil {
			return err
		}
		if configEvalTable, err = loadEvalTable(cfg); err != nil {
			return err
		}

		level := flagLogLevel
		if level == "" {
			level = cfg.GetString(cfgKeyLogLevel)
		}
		if level != "" {
			parsed, err := logrus.ParseLevel(level)
			if err != nil {
				return err
			}
			log.SetLevel(parsed)
		}
		if cfg.GetString(cfgKeyLogFormat) == "json" {
			log.SetFormatter(&logrus.JSONFormatter{})
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory for the sqlite backend (default: $(CWD)/.larder-db)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "storage backend: sqlite or workbook (default: from config)")
	rootCmd.PersistentFlags().StringVar(&flagWorkbook, "workbook", "", "workbook path for the workbook backend (default: $(CWD)/larder.xlsx)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output run summaries as JSON")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(intakeCmd)
	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(evallogCmd)
	rootCmd.AddCommand(exportCmd)
}

// resolveConfigDir follows the precedence chain:
// --config-dir flag > LARDER_CONFIG_DIR env > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveDataDir follows the precedence chain:
// --data-dir flag > config.yaml data_dir > LARDER_DATA_DIR env > $(CWD)/.larder-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// resolveWorkbookPath follows the precedence chain:
// --workbook flag > config.yaml workbook_path > $(CWD)/larder.xlsx.
func resolveWorkbookPath() (string, error) {
	return paths.ResolveWorkbookPath(flagWorkbook, configWorkbookPath)
}

// resolveBackend returns the effective backend name.
func resolveBackend() string {
	if flagBackend != "" {
		return flagBackend
	}
	if configBackend != "" {
		return configBackend
	}
	return defaultBackend
}
