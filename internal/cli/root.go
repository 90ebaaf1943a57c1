// Package cli implements the docctl command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"docchat/internal/app"
	"docchat/internal/config"
	"docchat/internal/indexer"
	"docchat/internal/service"
)

const rootLongDesc string = `docctl operates on the same document store and Ollama backend as the API server.

Commands:
  docctl ingest FILE...      Store files as one new document
  docctl docs                List stored documents
  docctl show DOC_ID         Print the chunks of a document
  docctl ask QUESTION        Ask a question over stored and ad-hoc evidence
  docctl stats               Corpus and embedding cache statistics

Configuration is read from the environment and .env, as for the server.`

const rootShortDesc string = "docctl - document chat operator tool"

// StatsProvider computes corpus statistics.
type StatsProvider interface {
	CorpusStats(ctx context.Context, embedModel string) (*indexer.CorpusStats, error)
}

// Env is what commands operate on.
type Env struct {
	Ingest     service.IngestService
	Documents  service.DocumentService
	Chat       service.ChatService
	Stats      StatsProvider
	EmbedModel string
	// CacheEntries reports the embedding cache size; nil when unavailable.
	CacheEntries func(ctx context.Context) (int, error)
}

// Builder constructs an Env and a function releasing it.
type Builder func(ctx context.Context, debug bool) (*Env, func() error, error)

// NewRootCmd creates the docctl command tree around build.
func NewRootCmd(build Builder) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "docctl",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	cmd.AddCommand(
		newIngestCmd(build),
		newDocsCmd(build),
		newShowCmd(build),
		newAskCmd(build),
		newStatsCmd(build),
	)
	return cmd
}

// DefaultBuilder loads configuration and wires the application. Logs go to stderr.
func DefaultBuilder(ctx context.Context, debug bool) (*Env, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if debug {
		cfg.LogLevel = slog.LevelDebug
	}
	slog.SetDefault(app.NewLogger(cfg, os.Stderr))

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	return &Env{
		Ingest:       a.IngestService,
		Documents:    a.DocumentService,
		Chat:         a.ChatService,
		Stats:        a.Pipeline,
		EmbedModel:   cfg.EmbedModel,
		CacheEntries: a.CacheEntries,
	}, a.Close, nil
}

// withEnv builds the Env for one command run and releases it afterwards.
func withEnv(cmd *cobra.Command, build Builder, run func(ctx context.Context, env *Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return fmt.Errorf("could not get debug flag: %w", err)
	}

	env, closeEnv, err := build(ctx, debug)
	if err != nil {
		return err
	}
	defer func() {
		if closeEnv != nil {
			if err := closeEnv(); err != nil {
				slog.Warn("failed to release resources", "error", err)
			}
		}
	}()

	return run(ctx, env)
}
