package worklist

import "context"

// Source provides pending work items and accepts claim updates.
type Source interface {
	// FetchPending returns every item currently eligible for processing.
	FetchPending(ctx context.Context) ([]Item, error)
	// MarkInProgress records that processing of the item has started and
	// bumps its attempt count to the given value.
	MarkInProgress(ctx context.Context, item *Item, attempt int) error
}

// Sink accepts terminal outcomes and per-attempt error records.
type Sink interface {
	// RecordResult writes the item's single terminal outcome and moves the
	// item into its final status.
	RecordResult(ctx context.Context, result Result) error
	// RecordError appends one failed-attempt record.
	RecordError(ctx context.Context, record ErrorRecord) error
}

// Backend combines reading and writing against one work source.
type Backend interface {
	Source
	Sink
}
