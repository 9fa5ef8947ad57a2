package workflow

import (
	"context"
	"errors"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/worklist"
)

type staleReclaimer interface {
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// RunOnce performs a single sweep: fetch all pending items and drive each to
// a terminal status. Individual item failures are reflected in the summary,
// not the returned error; a non-nil error means source or sink failure and
// an aborted sweep.
func (o *Orchestrator) RunOnce(ctx context.Context) (Summary, error) {
	start := time.Now()
	o.reclaimStale(ctx)

	items, err := o.source.FetchPending(ctx)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrInfrastructure,
			"sweep", "fetch_pending", "fetch pending work items", err)
	}

	summary := Summary{Fetched: len(items)}
	if len(items) == 0 {
		o.logger.Debug("no pending work items",
			logging.String(logging.FieldEventType, "sweep_empty"))
		summary.Duration = time.Since(start)
		return summary, nil
	}

	o.logger.Info("sweep started",
		logging.String(logging.FieldEventType, "sweep_started"),
		logging.Int("pending", len(items)))
	o.notify(func(ctx context.Context) error {
		return o.notifier.NotifySweepStarted(ctx, len(items))
	})

	for i := range items {
		if ctx.Err() != nil {
			// Remaining items stay pending for the next sweep.
			o.logger.Info("sweep interrupted",
				logging.String(logging.FieldEventType, "sweep_interrupted"),
				logging.Int("remaining", len(items)-i))
			summary.Duration = time.Since(start)
			return summary, ctx.Err()
		}

		item := items[i]
		result, err := o.processItem(ctx, &item)
		if err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
		// The in-flight item must reach its terminal state even when a
		// shutdown arrived mid-item; cancellation is honored at the top
		// of the loop, never between a finished pipeline and its result.
		resultCtx := context.WithoutCancel(ctx)
		if err := o.sink.RecordResult(resultCtx, result); err != nil {
			summary.Duration = time.Since(start)
			return summary, services.Wrap(services.ErrInfrastructure,
				"sweep", "record_result", "record item result", err)
		}
		o.mirrorResult(resultCtx, result)

		if result.FinalStatus == worklist.StatusCompleted {
			summary.Completed++
			o.notify(func(ctx context.Context) error {
				return o.notifier.NotifyItemPublished(ctx, item.Topic, result.OutputRef)
			})
		} else {
			summary.Failed++
			o.notify(func(ctx context.Context) error {
				return o.notifier.NotifyItemFailed(ctx, item.ID, result.ErrorDetail)
			})
		}
	}

	summary.Duration = time.Since(start)
	o.logger.Info("sweep completed",
		logging.String(logging.FieldEventType, "sweep_completed"),
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Duration("duration", summary.Duration))
	o.notify(func(ctx context.Context) error {
		return o.notifier.NotifySweepCompleted(ctx, summary.Completed, summary.Failed, summary.Duration)
	})
	return summary, nil
}

// RunContinuous sweeps repeatedly, waiting the configured poll interval
// between sweeps. Cancellation is honored between sweeps and during the
// wait; it returns the context error so callers can distinguish a clean
// shutdown from an infrastructure exit.
func (o *Orchestrator) RunContinuous(ctx context.Context) error {
	interval := time.Duration(o.cfg.Workflow.PollInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	for {
		if _, err := o.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			o.logger.Error("sweep aborted",
				logging.String(logging.FieldEventType, "sweep_aborted"),
				logging.Error(err))
			o.notify(func(ctx context.Context) error {
				return o.notifier.NotifyError(ctx, err, "sweep")
			})
			if o.cfg.Workflow.ExitOnInfraError {
				return err
			}
		}
		if err := o.sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// reclaimStale returns in_progress items abandoned by a crashed run to
// pending. Only backends with claim bookkeeping support this.
func (o *Orchestrator) reclaimStale(ctx context.Context) {
	timeout := time.Duration(o.cfg.Workflow.StaleClaimTimeout) * time.Second
	if timeout <= 0 {
		return
	}
	reclaimer, ok := o.source.(staleReclaimer)
	if !ok {
		return
	}
	count, err := reclaimer.ReclaimStale(ctx, timeout)
	if err != nil {
		o.logger.Warn("stale claim reclaim failed",
			logging.String(logging.FieldEventType, "reclaim_failed"),
			logging.Error(err))
		return
	}
	if count > 0 {
		o.logger.Info("reclaimed stale items",
			logging.String(logging.FieldEventType, "reclaim_completed"),
			logging.Int64("count", count))
	}
}

// notify fires a notification without letting a notification failure affect
// the sweep.
func (o *Orchestrator) notify(send func(ctx context.Context) error) {
	if o.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := send(ctx); err != nil {
		o.logger.Warn("notification failed",
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.Error(err))
	}
}
