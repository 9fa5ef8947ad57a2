package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

const summaryPrecision = time.Millisecond * 100

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Poll for pending work items until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// A second daemon against the same journal would double-claim
			// items, so hold an advisory lock for the process lifetime.
			lockPath := filepath.Join(cfg.Paths.LogDir, "reelsmith.lock")
			lock := flock.New(lockPath)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire daemon lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another reelsmith daemon already holds %s", lockPath)
			}
			defer func() { _ = lock.Unlock() }()

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			orch, cleanup, err := buildOrchestrator(signalCtx, ctx, skipPreflight)
			if err != nil {
				return err
			}
			defer cleanup()

			err = orch.RunContinuous(signalCtx)
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Shutdown complete")
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip startup environment checks")
	return cmd
}
