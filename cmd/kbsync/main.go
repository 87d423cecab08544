package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vellum-labs/kbsync-cli/internal/adapters/driven/ai"
	"github.com/vellum-labs/kbsync-cli/internal/adapters/driven/backend"
	configfile "github.com/vellum-labs/kbsync-cli/internal/adapters/driven/config/file"
	"github.com/vellum-labs/kbsync-cli/internal/adapters/driving/cli"
	"github.com/vellum-labs/kbsync-cli/internal/chunker"
	"github.com/vellum-labs/kbsync-cli/internal/connectors/filesystem"
	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driven"
	"github.com/vellum-labs/kbsync-cli/internal/core/services"
	"github.com/vellum-labs/kbsync-cli/internal/loaders"
)

// version is stamped by the release build via -ldflags.
var version = "dev"

func main() {
	// A .env next to the binary supplies API keys during development.
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.SetConfigOpener(func(path string) (driven.ConfigStore, error) {
		return configfile.NewConfigStore(path)
	})
	cli.SetFactory(buildServices)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}

// buildServices assembles the adapters and services for one command
// invocation from the effective configuration.
func buildServices(cfg domain.Config) (cli.Services, func(), error) {
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	var opts []filesystem.Option
	if cfg.DetectModified {
		opts = append(opts, filesystem.WithFingerprints())
	}
	connector := filesystem.New(cfg.RootDir, cfg.Extensions, opts...)

	registry := loaders.NewRegistry()
	loaders.RegisterDefaults(registry)

	splitter := chunker.New(
		chunker.WithChunkSize(cfg.ChunkSize),
		chunker.WithOverlap(cfg.ChunkOverlap),
	)

	// The memory backend never embeds, so don't make it a reason to
	// require a reachable embedding service.
	var embedder driven.EmbeddingService
	if cfg.Backend.Kind != domain.BackendMemory {
		var err error
		embedder, err = ai.CreateAndValidateEmbeddingService(cfg.Embedding)
		if err != nil {
			return cli.Services{}, nil, err
		}
	}

	idx, err := backend.New(cfg.Backend, embedder)
	if err != nil {
		if embedder != nil {
			_ = embedder.Close()
		}
		return cli.Services{}, nil, err
	}

	engine := services.NewEngine(cfg, connector, registry, splitter, idx)

	svc := cli.Services{
		Runner: engine,
		Watch:  services.NewWatchService(engine, connector),
		Admin:  services.NewAdmin(cfg.Collection, idx),
	}
	// Backends own their embedder, so closing the index closes both.
	closer := func() {
		_ = idx.Close()
	}
	return svc, closer, nil
}
