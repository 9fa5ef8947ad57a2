package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"reelsmith/internal/composer"
	"reelsmith/internal/config"
	"reelsmith/internal/journal"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/preflight"
	"reelsmith/internal/publisher"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/services/music"
	"reelsmith/internal/services/tts"
	"reelsmith/internal/services/visuals"
	"reelsmith/internal/workflow"
	"reelsmith/internal/worklist"
	sheetsbackend "reelsmith/internal/worklist/sheets"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process all pending work items once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, cleanup, err := buildOrchestrator(cmd.Context(), ctx, skipPreflight)
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := orch.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sweep finished in %s: %d fetched, %d completed, %d failed\n",
				summary.Duration.Round(summaryPrecision), summary.Fetched, summary.Completed, summary.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip startup environment checks")
	return cmd
}

// buildOrchestrator wires the configured backend and stage services into a
// ready orchestrator. The cleanup func closes whatever stores were opened.
func buildOrchestrator(runCtx context.Context, ctx *commandContext, skipPreflight bool) (*workflow.Orchestrator, func(), error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := ctx.newLogger()
	if err != nil {
		return nil, nil, err
	}

	if !skipPreflight {
		if err := preflight.Err(preflight.RunAll(runCtx, cfg)); err != nil {
			return nil, nil, err
		}
	}

	store, err := journal.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = store.Close() }

	backend, opts, err := selectBackend(runCtx, cfg, store, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	scripts := llm.New(cfg)
	voice := tts.New(cfg)
	scenes := visuals.New(cfg)
	bed := music.New(cfg)
	generator := pipeline.NewGenerator(cfg, scripts, voice, scenes, bed, logger)

	orch := workflow.New(cfg, backend,
		generator,
		composer.New(cfg, logger),
		publisher.New(cfg, logger),
		logger,
		opts...)
	return orch, cleanup, nil
}

// selectBackend returns the authoritative work item backend. With the sheets
// backend the journal becomes a best-effort local mirror.
func selectBackend(runCtx context.Context, cfg *config.Config, store *journal.Store, logger *slog.Logger) (worklist.Backend, []workflow.Option, error) {
	switch cfg.Source.Backend {
	case config.BackendSheets:
		client, err := sheetsbackend.New(runCtx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, []workflow.Option{workflow.WithMirror(store)}, nil
	default:
		return store, nil, nil
	}
}
