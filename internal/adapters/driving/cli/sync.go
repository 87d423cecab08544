package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driving"
	"github.com/vellum-labs/kbsync-cli/internal/logger"
)

var (
	syncRoot        string
	syncCollection  string
	syncDryRun      bool
	syncFingerprint bool
	syncNoProgress  bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise the corpus into the index",
	Long: `Scans the corpus tree, diffs it against the index collection and
applies the difference: new files are chunked, embedded and upserted,
files that disappeared are deleted from the index, unchanged files are
left alone.

With --fingerprint, file content is hashed so edited files are
re-indexed in place; without it only appearing and disappearing paths
are detected.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncRoot, "root", "", "corpus root directory (overrides config)")
	syncCmd.Flags().StringVar(&syncCollection, "collection", "", "index collection name (overrides config)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "compute and report the diff without writing")
	syncCmd.Flags().BoolVar(&syncFingerprint, "fingerprint", false, "hash file content to catch in-place edits")
	syncCmd.Flags().BoolVar(&syncNoProgress, "no-progress", false, "disable the live progress display")
	rootCmd.AddCommand(syncCmd)
}

// applyOverrides folds command-line overrides into the configuration
// and re-validates the result.
func applyOverrides(cfg domain.Config, root, collection string, fingerprint bool) (domain.Config, error) {
	if root != "" {
		cfg.RootDir = root
	}
	if collection != "" {
		cfg.Collection = collection
	}
	if fingerprint {
		cfg.DetectModified = true
	}
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg, err = applyOverrides(cfg, syncRoot, syncCollection, syncFingerprint)
	if err != nil {
		return err
	}

	svc, closer, err := services(cfg)
	if err != nil {
		return err
	}
	defer closer()

	if svc.Runner == nil {
		return errors.New("sync service not configured")
	}

	opts := driving.RunOptions{DryRun: syncDryRun}

	var report domain.RunReport
	if showProgress(cmd) {
		report, err = runWithProgress(cmd.Context(), svc.Runner, opts)
	} else {
		report, err = svc.Runner.Run(cmd.Context(), opts)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Print(renderReport(report))

	if report.HasFailures() {
		return fmt.Errorf("sync finished with %d failures", report.FailureCount())
	}
	return nil
}

// showProgress reports whether the live display should run: stdout is
// a terminal, the user did not opt out, and verbose logging is not
// already writing to the screen.
func showProgress(cmd *cobra.Command) bool {
	if syncNoProgress || logger.IsVerbose() {
		return false
	}
	out, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(out.Fd()))
}
