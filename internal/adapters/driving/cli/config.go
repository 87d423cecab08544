package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	Long: `Shows and initializes the configuration file. Without a subcommand,
prints the effective configuration.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	store, err := configStore()
	if err != nil {
		return err
	}
	if store.Exists() && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", store.Path())
	}
	if err := store.Save(domain.DefaultConfig()); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	cmd.Printf("Wrote %s\n", store.Path())
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := configStore()
	if err != nil {
		return err
	}
	cfg, err := store.Load()
	if err != nil {
		return err
	}

	origin := store.Path()
	if !store.Exists() {
		origin += " (missing, showing defaults)"
	}
	cmd.Printf("Configuration: %s\n\n", origin)

	cmd.Println("Corpus:")
	cmd.Printf("  Root directory:   %s\n", cfg.RootDir)
	cmd.Printf("  Extensions:       %s\n", strings.Join(cfg.Extensions, ", "))
	cmd.Printf("  Detect modified:  %t\n", cfg.DetectModified)
	cmd.Println()

	cmd.Println("Index:")
	cmd.Printf("  Collection:       %s\n", cfg.Collection)
	cmd.Printf("  Backend:          %s\n", cfg.Backend.Kind)
	if cfg.Backend.Kind == domain.BackendChroma {
		cmd.Printf("  URL:              %s\n", cfg.Backend.URL)
	}
	if cfg.Backend.DataDir != "" {
		cmd.Printf("  Data directory:   %s\n", cfg.Backend.DataDir)
	}
	cmd.Println()

	cmd.Println("Chunking:")
	cmd.Printf("  Chunk size:       %d runes\n", cfg.ChunkSize)
	cmd.Printf("  Chunk overlap:    %d runes\n", cfg.ChunkOverlap)
	cmd.Printf("  Batch size:       %d chunks\n", cfg.BatchSize)
	cmd.Printf("  Parallel loads:   %d\n", cfg.MaxParallelLoads)
	cmd.Println()

	cmd.Println("Embedding:")
	cmd.Printf("  Provider:         %s\n", cfg.Embedding.Provider)
	cmd.Printf("  Model:            %s\n", cfg.Embedding.Model)
	if cfg.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL:         %s\n", cfg.Embedding.BaseURL)
	}
	if cfg.Embedding.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit:       %.1f req/s\n", cfg.Embedding.RequestsPerSecond)
	}
	return nil
}
