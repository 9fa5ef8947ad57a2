package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/worklist"
)

const maxRetryDelay = time.Minute

// processItem drives one item to a terminal status. Stage failures are
// contained here and converted into error records and retry decisions; only
// sink failures propagate, because without a working sink no outcome can be
// reported.
func (o *Orchestrator) processItem(ctx context.Context, item *worklist.Item) (worklist.Result, error) {
	maxAttempts := o.cfg.Workflow.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	itemCtx := services.WithItemID(ctx, item.ID)
	logger := o.logger.With(logging.String(logging.FieldItemID, item.ID))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptCtx := services.WithAttempt(itemCtx, attempt)
		attemptCtx = services.WithRequestID(attemptCtx, uuid.NewString())
		attemptLogger := logger.With(logging.Int(logging.FieldAttempt, attempt))

		if err := o.source.MarkInProgress(attemptCtx, item, attempt); err != nil {
			attemptLogger.Warn("claim update failed; continuing",
				logging.String(logging.FieldEventType, "claim_update_failed"),
				logging.Error(err))
		}
		o.mirrorItem(attemptCtx, *item)

		// Stage calls are atomic from the orchestrator's perspective.
		// Shutdown is honored between attempts and during retry waits,
		// never by cancelling an in-flight external call.
		watchURL, stageErr := o.runPipeline(context.WithoutCancel(attemptCtx), *item)
		if stageErr == nil {
			attemptLogger.Info("item published",
				logging.String(logging.FieldEventType, "item_completed"),
				logging.String("watch_url", watchURL))
			return worklist.Result{
				ItemID:      item.ID,
				FinalStatus: worklist.StatusCompleted,
				OutputRef:   watchURL,
				Timestamp:   time.Now().UTC(),
			}, nil
		}

		lastErr = stageErr
		details := services.Details(stageErr)
		record := worklist.ErrorRecord{
			ItemID:        item.ID,
			AttemptNumber: attempt,
			Stage:         details.Stage,
			Message:       failureMessage(stageErr),
			Timestamp:     time.Now().UTC(),
		}
		// Persisting an attempt outcome is part of the in-flight item;
		// a shutdown arriving mid-attempt must not turn the write into a
		// spurious infrastructure failure.
		persistCtx := context.WithoutCancel(attemptCtx)
		if sinkErr := o.sink.RecordError(persistCtx, record); sinkErr != nil {
			return worklist.Result{}, services.Wrap(services.ErrInfrastructure,
				"sweep", "record_error", "record attempt failure", sinkErr)
		}
		o.mirrorError(persistCtx, record)

		attemptLogger.Error("attempt failed",
			logging.String(logging.FieldEventType, "attempt_failed"),
			logging.String(logging.FieldStage, details.Stage),
			logging.String(logging.FieldErrorKind, string(details.Kind)),
			logging.Error(stageErr))

		if o.cfg.Workflow.FailFastPermanent && services.IsPermanent(stageErr) {
			attemptLogger.Warn("permanent failure; skipping remaining retries",
				logging.String(logging.FieldEventType, "retries_skipped"))
			break
		}
		if attempt == maxAttempts {
			break
		}
		if err := o.sleep(ctx, o.retryDelay(attempt)); err != nil {
			attemptLogger.Warn("shutdown requested during retry wait",
				logging.String(logging.FieldEventType, "retries_interrupted"))
			break
		}
	}

	return worklist.Result{
		ItemID:      item.ID,
		FinalStatus: worklist.StatusFailed,
		ErrorDetail: failureMessage(lastErr),
		Timestamp:   time.Now().UTC(),
	}, nil
}

// runPipeline executes one full attempt: generate assets, compose the video,
// publish it. Every attempt starts from scratch; partial artifacts from a
// failed attempt are overwritten, never reused.
func (o *Orchestrator) runPipeline(ctx context.Context, item worklist.Item) (string, error) {
	assets, err := o.generator.Generate(ctx, item)
	if err != nil {
		return "", err
	}
	videoPath, err := o.composer.Compose(ctx, item, assets)
	if err != nil {
		return "", err
	}
	return o.publisher.Publish(ctx, item, assets.Script, videoPath)
}

func (o *Orchestrator) retryDelay(attempt int) time.Duration {
	base := time.Duration(o.cfg.Workflow.RetryDelay) * time.Second
	if base <= 0 {
		base = time.Second
	}
	if o.cfg.Workflow.RetryBackoff != "exponential" {
		return base
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}

func failureMessage(err error) string {
	if err == nil {
		return "failed without error detail"
	}
	details := services.Details(err)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = strings.TrimSpace(err.Error())
	}
	if message == "" {
		message = "failed without error detail"
	}
	if details.Stage != "" {
		return details.Stage + ": " + message
	}
	return message
}
