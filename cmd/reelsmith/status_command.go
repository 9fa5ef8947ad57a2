package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/journal"
	"reelsmith/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report environment readiness and journal contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			depRows := make([][]string, 0, 4)
			for _, status := range preflight.CheckSystemDeps(cfg) {
				rendered := status.Detail
				if status.Available {
					rendered = status.Command
				}
				depRows = append(depRows, []string{status.Name, yesNo(status.Available), rendered})
			}
			fmt.Fprintln(out, "External binaries:")
			fmt.Fprint(out, renderTable(
				[]string{"Binary", "Available", "Detail"},
				depRows,
			))

			checkRows := make([][]string, 0, 6)
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				checkRows = append(checkRows, []string{result.Name, yesNo(result.Passed), result.Detail})
			}
			fmt.Fprintln(out, "Preflight checks:")
			fmt.Fprint(out, renderTable(
				[]string{"Check", "Passed", "Detail"},
				checkRows,
			))

			return ctx.withJournal(func(store *journal.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				total := 0
				for _, count := range stats {
					total += count
				}
				fmt.Fprintf(out, "Journal: %d items (%s)\n", total, store.Path())
				return nil
			})
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
