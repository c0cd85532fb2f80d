package types

import "errors"

// Config selects and parameterizes the tabular store backend.
type Config struct {
	Backend      string `json:"backend" yaml:"backend"`
	DataDir      string `json:"data_dir" yaml:"data_dir"`
	WorkbookPath string `json:"workbook_path" yaml:"workbook_path"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendWorkbook = "workbook"
)

// Config validation errors.
var (
	ErrBackendEmpty      = errors.New("backend must not be empty")
	ErrBackendUnknown    = errors.New("unknown backend")
	ErrWorkbookPathEmpty = errors.New("workbook_path must not be empty for the workbook backend")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendWorkbook: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendWorkbook && c.WorkbookPath == "" {
		return ErrWorkbookPathEmpty
	}
	return nil
}
