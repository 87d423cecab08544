package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driving"
)

var (
	watchRoot        string
	watchCollection  string
	watchFingerprint bool
	watchDebounce    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the corpus and re-sync on changes",
	Long: `Runs one sync immediately, then watches the corpus tree and re-runs
the sync after each burst of filesystem changes settles. Stop with
Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchRoot, "root", "", "corpus root directory (overrides config)")
	watchCmd.Flags().StringVar(&watchCollection, "collection", "", "index collection name (overrides config)")
	watchCmd.Flags().BoolVar(&watchFingerprint, "fingerprint", false, "hash file content to catch in-place edits")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "quiet period before a change burst triggers a run")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg, err = applyOverrides(cfg, watchRoot, watchCollection, watchFingerprint)
	if err != nil {
		return err
	}

	svc, closer, err := services(cfg)
	if err != nil {
		return err
	}
	defer closer()

	if svc.Watch == nil {
		return errors.New("watch service not configured")
	}

	cmd.Printf("Watching %s; syncing into %q (Ctrl-C to stop)\n", cfg.RootDir, cfg.Collection)

	err = svc.Watch.Watch(cmd.Context(), driving.WatchOptions{
		Debounce: watchDebounce,
		OnReport: func(report domain.RunReport) {
			cmd.Print(renderReport(report))
		},
	})
	if errors.Is(err, context.Canceled) {
		cmd.Println("Watch stopped.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
