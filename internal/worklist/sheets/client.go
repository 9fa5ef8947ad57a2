// Package sheets implements the Google Sheets work source: pending items are
// read from an input sheet, status updates are written back in place, and
// results and error records are appended to dedicated sheets.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/worklist"
)

const timestampLayout = "2006-01-02 15:04:05"

// Client talks to one spreadsheet. It implements worklist.Backend.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	inputSheet    string
	resultsSheet  string
	errorSheet    string
	logger        *slog.Logger

	mu sync.Mutex
	// rows maps item ids to their input sheet row, refreshed on each fetch.
	// RecordResult needs it to write the final status back to the row.
	rows map[string]int
}

// New builds a sheets client from configuration using service account
// credentials.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.Sheets.CredentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "source", "connect", "create sheets service", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.Sheets.SpreadsheetID,
		inputSheet:    cfg.Sheets.InputSheet,
		resultsSheet:  cfg.Sheets.ResultsSheet,
		errorSheet:    cfg.Sheets.ErrorSheet,
		logger:        logger.With(logging.String(logging.FieldComponent, "sheets")),
	}, nil
}

func wrapAPIError(op, msg string, err error) error {
	marker := services.ErrInfrastructure
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 403 || apiErr.Code == 404:
			marker = services.ErrConfiguration
		}
	}
	return services.Wrap(marker, "source", op, msg, err)
}

// FetchPending reads the input sheet and returns every row still eligible
// for processing. Malformed rows are logged and skipped.
func (c *Client) FetchPending(ctx context.Context) ([]worklist.Item, error) {
	readRange := fmt.Sprintf("%s!A:E", c.inputSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("fetch", "read input sheet", err)
	}

	items, stuck, parseErrs := parseRows(resp.Values)
	for _, parseErr := range parseErrs {
		c.logger.Warn("skipping malformed row", logging.Error(parseErr))
	}
	if stuck > 0 {
		c.logger.Warn("rows stuck in_progress need a manual status reset",
			logging.String(logging.FieldEventType, "stuck_rows_observed"),
			logging.Int("count", stuck))
	}

	c.mu.Lock()
	c.rows = make(map[string]int, len(items))
	for _, item := range items {
		c.rows[item.ID] = item.Row
	}
	c.mu.Unlock()

	return items, nil
}

func (c *Client) rowFor(itemID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows[itemID]
}

// MarkInProgress writes the claimed status and attempt count back to the
// item's row.
func (c *Client) MarkInProgress(ctx context.Context, item *worklist.Item, attempt int) error {
	if item.Row <= 0 {
		return services.Wrap(services.ErrValidation, "source", "claim", fmt.Sprintf("item %s has no sheet row", item.ID), nil)
	}
	writeRange := fmt.Sprintf("%s!D%d:E%d", c.inputSheet, item.Row, item.Row)
	body := &sheetsapi.ValueRange{
		Values: [][]any{{string(worklist.StatusInProgress), attempt}},
	}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, body).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return wrapAPIError("claim", fmt.Sprintf("mark item %s in progress", item.ID), err)
	}
	item.Status = worklist.StatusInProgress
	item.AttemptCount = attempt
	return nil
}

// RecordResult updates the item's status cell and appends one row to the
// results sheet.
func (c *Client) RecordResult(ctx context.Context, result worklist.Result) error {
	recorded := result.Timestamp
	if recorded.IsZero() {
		recorded = time.Now().UTC()
	}

	outcome := result.OutputRef
	if result.FinalStatus == worklist.StatusFailed {
		outcome = result.ErrorDetail
	}
	appendRange := fmt.Sprintf("%s!A:E", c.resultsSheet)
	body := &sheetsapi.ValueRange{
		Values: [][]any{{
			recorded.Format(timestampLayout),
			result.ItemID,
			string(result.FinalStatus),
			outcome,
			"",
		}},
	}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, appendRange, body).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return wrapAPIError("record_result", fmt.Sprintf("append result for item %s", result.ItemID), err)
	}

	if row := c.rowFor(result.ItemID); row > 0 {
		writeRange := fmt.Sprintf("%s!D%d", c.inputSheet, row)
		statusBody := &sheetsapi.ValueRange{Values: [][]any{{string(result.FinalStatus)}}}
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, statusBody).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return wrapAPIError("record_result", fmt.Sprintf("update status for item %s", result.ItemID), err)
		}
	}
	return nil
}

// RecordError appends one failed-attempt row to the error log sheet.
func (c *Client) RecordError(ctx context.Context, record worklist.ErrorRecord) error {
	recorded := record.Timestamp
	if recorded.IsZero() {
		recorded = time.Now().UTC()
	}
	appendRange := fmt.Sprintf("%s!A:E", c.errorSheet)
	body := &sheetsapi.ValueRange{
		Values: [][]any{{
			recorded.Format(timestampLayout),
			record.ItemID,
			record.AttemptNumber,
			record.Stage,
			record.Message,
		}},
	}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, appendRange, body).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return wrapAPIError("record_error", fmt.Sprintf("append error for item %s", record.ItemID), err)
	}
	return nil
}
