// Config loading for the larder CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/millstone-labs/larder/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend      = "backend"
	cfgKeyDataDir      = "data_dir"
	cfgKeyWorkbookPath = "workbook_path"
	cfgKeyLogLevel     = "log_level"
	cfgKeyLogFormat    = "log_format"
	cfgKeyLookups      = "lookups"
	cfgKeyEntryTable   = "entry_table"
	cfgKeyEvalTable    = "eval_table"

	defaultBackend = "sqlite"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Larder CLI configuration

# Storage backend: sqlite or workbook
backend: sqlite

# Data directory for the sqlite backend (optional; overridable by --data-dir)
# data_dir:

# Workbook file for the workbook backend (optional; overridable by --workbook)
# workbook_path:

# Logging
log_level: info
# log_format: json

# Lookup pipelines. Entries here overlay the built-in items, brands, and
# products definitions: a matching key overrides only the fields it sets,
# a new key adds a whole pipeline. Run "larder init" afterwards to create
# any new tables.
# lookups:
#   - key: items
#     staging_table: Items_Review
#   - key: stores
#     master_table: Stores
#     staging_table: Stores_Staging

# Entry and evaluation table definitions, same overlay rules.
# entry_table:
#   table: Entries
# eval_table:
#   table: Price_Log
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on
// first run. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// loadLookups returns the built-in lookup pipelines overlaid with any
// declared under the lookups config key. An entry whose key matches a
// built-in overrides only the fields it sets; an entry with a new key
// appends a whole pipeline, which must then name its own tables.
func loadLookups(v *viper.Viper) ([]types.Lookup, error) {
	lookups := types.DefaultLookups()
	raw, ok := v.Get(cfgKeyLookups).([]any)
	if !ok {
		return lookups, nil
	}

	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("lookups entries must be mappings, got %T", entry)
		}
		key, _ := m["key"].(string)

		base := types.Lookup{}
		idx := -1
		for i, lk := range lookups {
			if key != "" && lk.Key == key {
				base, idx = lk, i
				break
			}
		}
		if err := decodeTableConfig(m, &base); err != nil {
			return nil, fmt.Errorf("lookup %q: %w", key, err)
		}
		if err := base.Validate(); err != nil {
			return nil, err
		}
		if idx >= 0 {
			lookups[idx] = base
		} else {
			lookups = append(lookups, base)
		}
	}
	return lookups, nil
}

// loadEntryTable returns the built-in entry table definition overlaid
// with the entry_table config key.
func loadEntryTable(v *viper.Viper) (types.EntryTable, error) {
	ent := types.DefaultEntryTable()
	if m, ok := v.Get(cfgKeyEntryTable).(map[string]any); ok {
		if err := decodeTableConfig(m, &ent); err != nil {
			return ent, fmt.Errorf("entry_table: %w", err)
		}
	}
	return ent, nil
}

// loadEvalTable returns the built-in evaluation log definition overlaid
// with the eval_table config key.
func loadEvalTable(v *viper.Viper) (types.EvalTable, error) {
	ev := types.DefaultEvalTable()
	if m, ok := v.Get(cfgKeyEvalTable).(map[string]any); ok {
		if err := decodeTableConfig(m, &ev); err != nil {
			return ev, fmt.Errorf("eval_table: %w", err)
		}
	}
	return ev, nil
}

// decodeTableConfig overlays one config mapping onto a pre-populated
// definition, matching keys by yaml tag. Fields the mapping does not set
// keep their current values, which is what makes partial overrides work.
func decodeTableConfig(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "yaml",
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
