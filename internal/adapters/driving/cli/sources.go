package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	sourcesCollection string
	sourcesJSON       bool
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the sources currently in the index",
	Long: `Lists every source document the index collection currently holds,
as recorded in the chunk metadata. Fingerprinted sources carry a
content hash and are re-indexed when the file content changes.`,
	RunE: runSources,
}

func init() {
	sourcesCmd.Flags().StringVar(&sourcesCollection, "collection", "", "index collection name (overrides config)")
	sourcesCmd.Flags().BoolVar(&sourcesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg, err = applyOverrides(cfg, "", sourcesCollection, false)
	if err != nil {
		return err
	}

	svc, closer, err := services(cfg)
	if err != nil {
		return err
	}
	defer closer()

	if svc.Admin == nil {
		return errors.New("admin service not configured")
	}

	sources, err := svc.Admin.Sources(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing sources: %w", err)
	}

	if sourcesJSON {
		data, err := json.MarshalIndent(sources, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal sources: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(sources) == 0 {
		cmd.Printf("Collection %q is empty.\n", cfg.Collection)
		return nil
	}

	cmd.Printf("%d sources in collection %q:\n", len(sources), cfg.Collection)
	for _, src := range sources {
		if src.Fingerprinted {
			cmd.Printf("  %s (fingerprinted)\n", src.Source)
		} else {
			cmd.Printf("  %s\n", src.Source)
		}
	}
	return nil
}
