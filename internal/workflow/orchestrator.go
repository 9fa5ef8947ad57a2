// Package workflow drives work items from pending to a terminal state. A
// sweep fetches the pending items once, runs script generation, asset
// synthesis, composition, and publishing for each item with bounded retries,
// and records exactly one result per item.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/journal"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/worklist"
)

// ContentGenerator produces the script and media assets for one work item.
type ContentGenerator interface {
	Generate(ctx context.Context, item worklist.Item) (*pipeline.Assets, error)
}

// VideoComposer assembles generated assets into a rendered video file.
type VideoComposer interface {
	Compose(ctx context.Context, item worklist.Item, assets *pipeline.Assets) (string, error)
}

// VideoPublisher uploads a rendered video and returns its public watch URL.
type VideoPublisher interface {
	Publish(ctx context.Context, item worklist.Item, script *llm.Script, videoPath string) (string, error)
}

// Orchestrator owns the per-item retry loop and the sweep lifecycle. Stage
// services never retry internally; every retry decision is made here.
type Orchestrator struct {
	cfg       *config.Config
	source    worklist.Source
	sink      worklist.Sink
	mirror    *journal.Store
	generator ContentGenerator
	composer  VideoComposer
	publisher VideoPublisher
	notifier  notifications.Service
	logger    *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// Summary reports the outcome of a single sweep.
type Summary struct {
	Fetched   int
	Completed int
	Failed    int
	Duration  time.Duration
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithNotifier overrides the notification service (used in tests).
func WithNotifier(notifier notifications.Service) Option {
	return func(o *Orchestrator) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

// WithMirror records a best-effort local copy of items, results, and error
// records in the journal while a remote backend remains authoritative.
func WithMirror(store *journal.Store) Option {
	return func(o *Orchestrator) {
		o.mirror = store
	}
}

// New constructs an orchestrator over the given backend and stage services.
func New(cfg *config.Config, backend worklist.Backend, generator ContentGenerator, composer VideoComposer, publisher VideoPublisher, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		cfg:       cfg,
		source:    backend,
		sink:      backend,
		generator: generator,
		composer:  composer,
		publisher: publisher,
		notifier:  notifications.NewService(cfg),
		logger:    logging.NewComponentLogger(logger, "workflow"),
	}
	o.sleep = o.waitFor
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (o *Orchestrator) mirrorItem(ctx context.Context, item worklist.Item) {
	if o.mirror == nil {
		return
	}
	if err := o.mirror.Upsert(ctx, item); err != nil {
		o.logger.Warn("journal mirror rejected item",
			logging.String(logging.FieldItemID, item.ID),
			logging.Error(err))
	}
}

func (o *Orchestrator) mirrorResult(ctx context.Context, result worklist.Result) {
	if o.mirror == nil {
		return
	}
	if err := o.mirror.RecordResult(ctx, result); err != nil {
		o.logger.Warn("journal mirror rejected result",
			logging.String(logging.FieldItemID, result.ItemID),
			logging.Error(err))
	}
}

func (o *Orchestrator) mirrorError(ctx context.Context, record worklist.ErrorRecord) {
	if o.mirror == nil {
		return
	}
	if err := o.mirror.RecordError(ctx, record); err != nil {
		o.logger.Warn("journal mirror rejected error record",
			logging.String(logging.FieldItemID, record.ItemID),
			logging.Error(err))
	}
}
