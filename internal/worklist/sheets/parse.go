package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"reelsmith/internal/worklist"
)

// Input sheet layout, one item per row after the header:
//
//	A: item id      B: topic      C: prompt hints
//	D: status       E: attempt count
const (
	colID = iota
	colTopic
	colPrompts
	colStatus
	colAttempts
)

func cell(row []any, idx int) string {
	if idx >= len(row) {
		return ""
	}
	value, ok := row[idx].(string)
	if !ok {
		return fmt.Sprint(row[idx])
	}
	return strings.TrimSpace(value)
}

// parseRow converts one spreadsheet row into a work item. rowNumber is the
// 1-based sheet row. The returned bool is false for rows that carry no work:
// blank topics and rows already in a terminal or claimed state.
func parseRow(rowNumber int, row []any) (worklist.Item, bool, error) {
	topic := cell(row, colTopic)
	if topic == "" {
		return worklist.Item{}, false, nil
	}

	status, err := worklist.ParseStatus(cell(row, colStatus))
	if err != nil {
		return worklist.Item{}, false, fmt.Errorf("row %d: %w", rowNumber, err)
	}
	if status != worklist.StatusPending {
		return worklist.Item{}, false, nil
	}

	id := cell(row, colID)
	if id == "" {
		id = fmt.Sprintf("video_%d", rowNumber)
	}

	attempts := 0
	if raw := cell(row, colAttempts); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return worklist.Item{}, false, fmt.Errorf("row %d: attempt count %q: %w", rowNumber, raw, err)
		}
		attempts = parsed
	}

	return worklist.Item{
		ID:           id,
		Topic:        topic,
		PromptHints:  cell(row, colPrompts),
		Status:       status,
		AttemptCount: attempts,
		Row:          rowNumber,
	}, true, nil
}

// parseRows walks the value grid returned by the Sheets API, skipping the
// header row. Rows that fail to parse are reported alongside the items that
// did parse so one bad row never hides the rest of the sheet. stuck counts
// rows still claimed in_progress, which only an operator can reset.
func parseRows(values [][]any) (items []worklist.Item, stuck int, errs []error) {
	seenID := make(map[string]int)
	for i, row := range values {
		if i == 0 {
			continue
		}
		rowNumber := i + 1
		item, ok, err := parseRow(rowNumber, row)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			if cell(row, colTopic) != "" {
				if status, statusErr := worklist.ParseStatus(cell(row, colStatus)); statusErr == nil && status == worklist.StatusInProgress {
					stuck++
				}
			}
			continue
		}
		if prev, dup := seenID[item.ID]; dup {
			errs = append(errs, fmt.Errorf("row %d: duplicate id %q (first seen at row %d)", rowNumber, item.ID, prev))
			continue
		}
		seenID[item.ID] = rowNumber
		items = append(items, item)
	}
	return items, stuck, errs
}
