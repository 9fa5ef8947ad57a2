package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reelsmith/internal/worklist"
)

const itemColumns = "id, topic, prompt_hints, status, attempt_count, sheet_row, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*worklist.Item, error) {
	var (
		id          string
		topic       string
		promptHints sql.NullString
		statusStr   string
		attempts    int
		sheetRow    int
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&topic,
		&promptHints,
		&statusStr,
		&attempts,
		&sheetRow,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &worklist.Item{
		ID:           id,
		Topic:        topic,
		PromptHints:  promptHints.String,
		Status:       worklist.Status(statusStr),
		AttemptCount: attempts,
		Row:          sheetRow,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

// Add inserts a new pending work item.
func (s *Store) Add(ctx context.Context, item worklist.Item) (*worklist.Item, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO work_items (
            id, topic, prompt_hints, status, attempt_count, sheet_row, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.Topic,
		nullableString(item.PromptHints),
		worklist.StatusPending,
		0,
		item.Row,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert work item: %w", err)
	}

	return s.GetByID(ctx, item.ID)
}

// Upsert mirrors an item fetched from an external source, keeping the
// journal row's identity stable across sweeps.
func (s *Store) Upsert(ctx context.Context, item worklist.Item) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO work_items (
            id, topic, prompt_hints, status, attempt_count, sheet_row, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            topic = excluded.topic,
            prompt_hints = excluded.prompt_hints,
            status = excluded.status,
            attempt_count = excluded.attempt_count,
            sheet_row = excluded.sheet_row,
            updated_at = excluded.updated_at`,
		item.ID,
		item.Topic,
		nullableString(item.PromptHints),
		item.Status,
		item.AttemptCount,
		item.Row,
		timestamp,
		timestamp,
	); err != nil {
		return fmt.Errorf("upsert work item: %w", err)
	}
	return nil
}

// GetByID fetches a work item by identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*worklist.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM work_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get work item: %w", err)
	}
	return item, nil
}

// List returns work items filtered by status set, or all items when no
// status is provided, ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...worklist.Status) ([]*worklist.Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM work_items`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close()

	var items []*worklist.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// FetchPending returns every pending work item, oldest first. Part of the
// worklist.Source contract.
func (s *Store) FetchPending(ctx context.Context) ([]worklist.Item, error) {
	ptrs, err := s.List(ctx, worklist.StatusPending)
	if err != nil {
		return nil, err
	}
	items := make([]worklist.Item, 0, len(ptrs))
	for _, p := range ptrs {
		items = append(items, *p)
	}
	return items, nil
}

// MarkInProgress claims the item and records the attempt number. Part of
// the worklist.Source contract.
func (s *Store) MarkInProgress(ctx context.Context, item *worklist.Item, attempt int) error {
	if item == nil {
		return errors.New("item is nil")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE work_items
         SET status = ?, attempt_count = ?, claimed_at = ?, updated_at = ?
         WHERE id = ?`,
		worklist.StatusInProgress,
		attempt,
		now,
		now,
		item.ID,
	); err != nil {
		return fmt.Errorf("mark in progress: %w", err)
	}
	item.Status = worklist.StatusInProgress
	item.AttemptCount = attempt
	return nil
}

// RecordResult writes the item's terminal outcome and transitions its
// status. Part of the worklist.Sink contract. A second result for the same
// item replaces the first so that retried sweeps stay idempotent.
func (s *Store) RecordResult(ctx context.Context, result worklist.Result) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	recorded := result.Timestamp
	if recorded.IsZero() {
		recorded = time.Now().UTC()
	}

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO results (item_id, final_status, output_ref, error_detail, recorded_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(item_id) DO UPDATE SET
            final_status = excluded.final_status,
            output_ref = excluded.output_ref,
            error_detail = excluded.error_detail,
            recorded_at = excluded.recorded_at`,
		result.ItemID,
		result.FinalStatus,
		nullableString(result.OutputRef),
		nullableString(result.ErrorDetail),
		recorded.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("record result: %w", err)
	}

	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE work_items SET status = ?, claimed_at = NULL, updated_at = ? WHERE id = ?`,
		result.FinalStatus,
		now,
		result.ItemID,
	); err != nil {
		return fmt.Errorf("finalize work item: %w", err)
	}
	return nil
}

// RecordError appends one failed-attempt record. Part of the worklist.Sink
// contract.
func (s *Store) RecordError(ctx context.Context, record worklist.ErrorRecord) error {
	recorded := record.Timestamp
	if recorded.IsZero() {
		recorded = time.Now().UTC()
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO error_records (item_id, attempt_number, stage, message, recorded_at)
         VALUES (?, ?, ?, ?, ?)`,
		record.ItemID,
		record.AttemptNumber,
		record.Stage,
		record.Message,
		recorded.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("record error: %w", err)
	}
	return nil
}

// Result returns the terminal outcome for an item, or nil when none exists.
func (s *Store) Result(ctx context.Context, itemID string) (*worklist.Result, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT item_id, final_status, output_ref, error_detail, recorded_at
         FROM results WHERE item_id = ?`,
		itemID,
	)
	var (
		id          string
		finalStatus string
		outputRef   sql.NullString
		errorDetail sql.NullString
		recordedRaw sql.NullString
	)
	err := row.Scan(&id, &finalStatus, &outputRef, &errorDetail, &recordedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	result := &worklist.Result{
		ItemID:      id,
		FinalStatus: worklist.Status(finalStatus),
		OutputRef:   outputRef.String,
		ErrorDetail: errorDetail.String,
	}
	if recorded, err := parseTimeString(recordedRaw.String); err == nil {
		result.Timestamp = recorded
	}
	return result, nil
}

// Errors returns the failed-attempt records for an item, oldest first.
func (s *Store) Errors(ctx context.Context, itemID string) ([]worklist.ErrorRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT item_id, attempt_number, stage, message, recorded_at
         FROM error_records WHERE item_id = ? ORDER BY id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("query error records: %w", err)
	}
	defer rows.Close()

	var records []worklist.ErrorRecord
	for rows.Next() {
		var (
			record      worklist.ErrorRecord
			recordedRaw sql.NullString
		)
		if err := rows.Scan(&record.ItemID, &record.AttemptNumber, &record.Stage, &record.Message, &recordedRaw); err != nil {
			return nil, err
		}
		if recorded, err := parseTimeString(recordedRaw.String); err == nil {
			record.Timestamp = recorded
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
