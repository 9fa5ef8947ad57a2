package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"reelsmith/internal/journal"
	"reelsmith/internal/worklist"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the local work journal",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueHistoryCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func (c *commandContext) withJournal(fn func(*journal.Store) error) error {
	store, err := c.openJournal()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var id string
	var hints string

	cmd := &cobra.Command{
		Use:   "add <topic>",
		Short: "Add a pending work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.TrimSpace(args[0])
			if topic == "" {
				return fmt.Errorf("topic must not be empty")
			}
			if strings.TrimSpace(id) == "" {
				id = "video_" + uuid.NewString()[:8]
			}
			return ctx.withJournal(func(store *journal.Store) error {
				item, err := store.Add(cmd.Context(), worklist.Item{
					ID:          id,
					Topic:       topic,
					PromptHints: strings.TrimSpace(hints),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", item.ID, item.Topic)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Explicit item identifier")
	cmd.Flags().StringVar(&hints, "hints", "", "Visual prompt hints passed to generation")
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]worklist.Status, 0, len(listStatuses))
			for _, raw := range listStatuses {
				status, err := worklist.ParseStatus(raw)
				if err != nil {
					return err
				}
				statuses = append(statuses, status)
			}
			return ctx.withJournal(func(store *journal.Store) error {
				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Journal is empty")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						item.ID,
						item.Topic,
						string(item.Status),
						fmt.Sprintf("%d", item.AttemptCount),
						item.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Topic", "Status", "Attempts", "Created"},
					rows, 3,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (pending, in_progress, completed, failed)")
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show journal status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				order := []worklist.Status{
					worklist.StatusPending,
					worklist.StatusInProgress,
					worklist.StatusCompleted,
					worklist.StatusFailed,
				}
				var rows [][]string
				for _, status := range order {
					if count := stats[status]; count > 0 {
						rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
					}
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Journal is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Status", "Count"},
					rows, 1,
				))
				return nil
			})
		},
	}
}

func newQueueHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <item-id>",
		Short: "Show the recorded result and attempt errors for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID := strings.TrimSpace(args[0])
			return ctx.withJournal(func(store *journal.Store) error {
				out := cmd.OutOrStdout()

				item, err := store.GetByID(cmd.Context(), itemID)
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("no item %q in the journal", itemID)
				}
				fmt.Fprintf(out, "%s  %q  status=%s attempts=%d\n", item.ID, item.Topic, item.Status, item.AttemptCount)

				result, err := store.Result(cmd.Context(), itemID)
				if err != nil {
					return err
				}
				switch {
				case result == nil:
					fmt.Fprintln(out, "No result recorded yet")
				case result.FinalStatus == worklist.StatusCompleted:
					fmt.Fprintf(out, "Published %s: %s\n", result.Timestamp.Local().Format(time.RFC822), result.OutputRef)
				default:
					fmt.Fprintf(out, "Failed %s: %s\n", result.Timestamp.Local().Format(time.RFC822), result.ErrorDetail)
				}

				records, err := store.Errors(cmd.Context(), itemID)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{
						fmt.Sprintf("%d", record.AttemptNumber),
						record.Stage,
						record.Message,
						record.Timestamp.Local().Format("2006-01-02 15:04:05"),
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Attempt", "Stage", "Error", "Recorded"},
					rows, 0,
				))
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <item-id>",
		Short: "Return a failed item to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID := strings.TrimSpace(args[0])
			return ctx.withJournal(func(store *journal.Store) error {
				reset, err := store.RetryFailed(cmd.Context(), itemID)
				if err != nil {
					return err
				}
				if !reset {
					return fmt.Errorf("item %q is not in failed status", itemID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item %s returned to pending\n", itemID)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var failedOnly bool
	var completedOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove journal items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				var removed int64
				var err error
				switch {
				case failedOnly:
					removed, err = store.ClearFailed(cmd.Context())
				case completedOnly:
					removed, err = store.ClearCompleted(cmd.Context())
				default:
					removed, err = store.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d items\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Remove only failed items")
	cmd.Flags().BoolVar(&completedOnly, "completed", false, "Remove only completed items")
	return cmd
}
