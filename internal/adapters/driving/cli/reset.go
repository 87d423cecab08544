package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	resetCollection string
	resetYes        bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every chunk in the index collection",
	Long: `Drops the index collection entirely. The next sync rebuilds it from
the corpus. This cannot be undone.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().StringVar(&resetCollection, "collection", "", "index collection name (overrides config)")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg, err = applyOverrides(cfg, "", resetCollection, false)
	if err != nil {
		return err
	}

	if !resetYes {
		ok, err := confirmReset(cmd, cfg.Collection)
		if err != nil {
			return err
		}
		if !ok {
			cmd.Println("Aborted.")
			return nil
		}
	}

	svc, closer, err := services(cfg)
	if err != nil {
		return err
	}
	defer closer()

	if svc.Admin == nil {
		return errors.New("admin service not configured")
	}

	if err := svc.Admin.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	cmd.Printf("Collection %q deleted.\n", cfg.Collection)
	return nil
}

// confirmReset prompts on the terminal. A non-interactive session has
// no way to answer, so it must pass --yes instead.
func confirmReset(cmd *cobra.Command, collection string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New("refusing to reset without --yes in a non-interactive session")
	}

	cmd.Printf("This deletes every chunk in collection %q. Continue? [y/N]: ", collection)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
