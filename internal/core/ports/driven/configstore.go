package driven

import "github.com/vellum-labs/kbsync-cli/internal/core/domain"

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and defaulting.
type ConfigStore interface {
	// Load reads, normalizes and validates the stored configuration.
	// A missing file yields the defaults, not an error.
	Load() (domain.Config, error)

	// Save persists the configuration.
	Save(cfg domain.Config) error

	// Exists reports whether a configuration file is present.
	Exists() bool

	// Path returns the configuration file path.
	Path() string
}
