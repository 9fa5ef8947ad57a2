package journal

import (
	"context"
	"fmt"
	"time"

	"reelsmith/internal/worklist"
)

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[worklist.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM work_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[worklist.Status]int)
	for rows.Next() {
		var status worklist.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// ReclaimStale resets in_progress items whose claim is older than the given
// cutoff back to pending. Items stuck after a crash become eligible again on
// the next sweep. Returns the number of items reclaimed.
func (s *Store) ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE work_items
         SET status = ?, claimed_at = NULL, updated_at = ?
         WHERE status = ? AND claimed_at IS NOT NULL AND claimed_at < ?`,
		worklist.StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		worklist.StatusInProgress,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale items: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves a failed item back to pending with a fresh attempt
// budget, clearing its previous result. Returns false when the item does not
// exist or is not failed.
func (s *Store) RetryFailed(ctx context.Context, itemID string) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE work_items
         SET status = ?, attempt_count = 0, claimed_at = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		worklist.StatusPending,
		now,
		itemID,
		worklist.StatusFailed,
	)
	if err != nil {
		return false, fmt.Errorf("retry failed item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}
	if err := s.execWithoutResultRetry(ctx, `DELETE FROM results WHERE item_id = ?`, itemID); err != nil {
		return false, fmt.Errorf("clear previous result: %w", err)
	}
	return true, nil
}

// Remove deletes an item and its history by identifier.
func (s *Store) Remove(ctx context.Context, itemID string) (bool, error) {
	if err := s.execWithoutResultRetry(ctx, `DELETE FROM error_records WHERE item_id = ?`, itemID); err != nil {
		return false, fmt.Errorf("delete error records: %w", err)
	}
	if err := s.execWithoutResultRetry(ctx, `DELETE FROM results WHERE item_id = ?`, itemID); err != nil {
		return false, fmt.Errorf("delete result: %w", err)
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM work_items WHERE id = ?`, itemID)
	if err != nil {
		return false, fmt.Errorf("delete work item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes completed items and their history.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	return s.clearByStatus(ctx, worklist.StatusCompleted)
}

// ClearFailed removes failed items and their history.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	return s.clearByStatus(ctx, worklist.StatusFailed)
}

func (s *Store) clearByStatus(ctx context.Context, status worklist.Status) (int64, error) {
	if err := s.execWithoutResultRetry(
		ctx,
		`DELETE FROM error_records WHERE item_id IN (SELECT id FROM work_items WHERE status = ?)`,
		status,
	); err != nil {
		return 0, fmt.Errorf("clear error records: %w", err)
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`DELETE FROM results WHERE item_id IN (SELECT id FROM work_items WHERE status = ?)`,
		status,
	); err != nil {
		return 0, fmt.Errorf("clear results: %w", err)
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM work_items WHERE status = ?`, status)
	if err != nil {
		return 0, fmt.Errorf("clear work items: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all items, results, and error records.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	if err := s.execWithoutResultRetry(ctx, `DELETE FROM error_records`); err != nil {
		return 0, fmt.Errorf("clear error records: %w", err)
	}
	if err := s.execWithoutResultRetry(ctx, `DELETE FROM results`); err != nil {
		return 0, fmt.Errorf("clear results: %w", err)
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM work_items`)
	if err != nil {
		return 0, fmt.Errorf("clear journal: %w", err)
	}
	return res.RowsAffected()
}
