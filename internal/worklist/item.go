// Package worklist defines the work item model shared by the source
// backends, the journal, and the workflow orchestrator.
package worklist

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a work item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ParseStatus converts stored text into a Status. Spreadsheet cells are
// free-form, so matching is case-insensitive and tolerant of surrounding
// whitespace; an empty cell means pending.
func ParseStatus(raw string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	switch normalized {
	case "", string(StatusPending):
		return StatusPending, nil
	case string(StatusInProgress):
		return StatusInProgress, nil
	case string(StatusCompleted):
		return StatusCompleted, nil
	case string(StatusFailed):
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}

// IsTerminal reports whether the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Item is a single video request drawn from the work source.
type Item struct {
	ID           string
	Topic        string
	PromptHints  string
	Status       Status
	AttemptCount int
	// Row is the 1-based spreadsheet row the item came from. Zero for
	// items that originate in the local queue.
	Row       int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate reports whether the item carries enough data to process.
func (i *Item) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("work item missing id")
	}
	if strings.TrimSpace(i.Topic) == "" {
		return fmt.Errorf("work item %s missing topic", i.ID)
	}
	return nil
}

// Result records the single terminal outcome of a work item.
type Result struct {
	ItemID      string
	FinalStatus Status
	// OutputRef is the published video URL for completed items.
	OutputRef   string
	ErrorDetail string
	Timestamp   time.Time
}

// ErrorRecord captures one failed processing attempt.
type ErrorRecord struct {
	ItemID        string
	AttemptNumber int
	Stage         string
	Message       string
	Timestamp     time.Time
}

// Stage names used in error records and log fields.
const (
	StageScript      = "script"
	StageVoiceover   = "voiceover"
	StageMusic       = "music"
	StageScenes      = "scenes"
	StageComposition = "composition"
	StagePublish     = "publish"
)
