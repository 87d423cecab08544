// Package cli implements the kbsync command-line interface.
//
// Commands receive their services through package-level variables set
// by main during startup. Construction is deferred to a Factory so
// flag overrides (corpus root, collection, backend) are applied before
// any adapter is built.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driving"
	"github.com/vellum-labs/kbsync-cli/internal/logger"
)

// version is set at startup from the build information.
var version = "dev"

// Services bundles the driving ports one invocation needs.
type Services struct {
	Runner driving.SyncRunner
	Watch  driving.WatchRunner
	Admin  driving.IndexAdmin
}

// Factory builds the services for one invocation after flag overrides
// have been folded into the configuration. The returned closer
// releases the backend.
type Factory func(cfg domain.Config) (Services, func(), error)

// ConfigOpener opens the configuration store behind a file path. An
// empty path selects the default location.
type ConfigOpener func(path string) (driven.ConfigStore, error)

var (
	openConfigStore ConfigOpener
	buildServices   Factory
)

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetConfigOpener sets how commands open the configuration store.
func SetConfigOpener(f ConfigOpener) {
	openConfigStore = f
}

// SetFactory sets the service factory used by all commands.
func SetFactory(f Factory) {
	buildServices = f
}

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "kbsync",
	Short: "Synchronise a documentation corpus into a vector index",
	Long: `kbsync keeps a vector index in step with a directory tree of
product documentation. Each run scans the corpus, diffs it against
what the index already holds, and applies only the difference: new
files are chunked, tagged and upserted; files that disappeared are
deleted from the index; everything else is left untouched.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.kbsync/config.toml)")
}

// Execute runs the root command. The context is threaded through to
// every command so Ctrl-C cancels in-flight runs.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// configStore opens the store for the configured file path.
func configStore() (driven.ConfigStore, error) {
	if openConfigStore == nil {
		return nil, errors.New("config store not configured")
	}
	return openConfigStore(configPath)
}

// loadConfig reads the configuration file, or the defaults when no
// file exists yet.
func loadConfig() (domain.Config, error) {
	store, err := configStore()
	if err != nil {
		return domain.Config{}, err
	}
	return store.Load()
}

// services builds the per-invocation services from the effective
// configuration. The returned closer is never nil.
func services(cfg domain.Config) (Services, func(), error) {
	if buildServices == nil {
		return Services{}, nil, errors.New("services not configured")
	}
	svc, closer, err := buildServices(cfg)
	if closer == nil {
		closer = func() {}
	}
	return svc, closer, err
}
