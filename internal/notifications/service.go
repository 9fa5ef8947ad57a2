// Package notifications pushes workflow events to an ntfy topic. Without a
// configured topic every notification is a no-op.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelsmith/internal/config"
)

const userAgent = "Reelsmith/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifySweepStarted(ctx context.Context, count int) error
	NotifySweepCompleted(ctx context.Context, completed, failed int, duration time.Duration) error
	NotifyItemPublished(ctx context.Context, title, watchURL string) error
	NotifyItemFailed(ctx context.Context, itemID, detail string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		items:    cfg.Notifications.Items,
		sweeps:   cfg.Notifications.Sweeps,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	items    bool
	sweeps   bool
	errors   bool
}

func (n *ntfyService) NotifySweepStarted(ctx context.Context, count int) error {
	if !n.sweeps {
		return nil
	}
	data := payload{
		title:   "Reelsmith - Sweep Started",
		message: fmt.Sprintf("Processing %d pending videos", count),
		tags:    []string{"reelsmith", "sweep", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySweepCompleted(ctx context.Context, completed, failed int, duration time.Duration) error {
	if !n.sweeps {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title, message string
	if failed == 0 {
		title = "Reelsmith - Sweep Complete"
		message = fmt.Sprintf("Sweep complete: %d videos published in %s", completed, duration)
	} else {
		title = "Reelsmith - Sweep Complete (with failures)"
		message = fmt.Sprintf("Sweep complete: %d published, %d failed in %s", completed, failed, duration)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"reelsmith", "sweep", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyItemPublished(ctx context.Context, title, watchURL string) error {
	if !n.items {
		return nil
	}
	title = strings.TrimSpace(title)
	message := fmt.Sprintf("Published: %s", title)
	if watchURL = strings.TrimSpace(watchURL); watchURL != "" {
		message = fmt.Sprintf("%s\n%s", message, watchURL)
	}
	data := payload{
		title:    "Reelsmith - Video Published",
		message:  message,
		tags:     []string{"reelsmith", "video", "published"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyItemFailed(ctx context.Context, itemID, detail string) error {
	if !n.items {
		return nil
	}
	data := payload{
		title:    "Reelsmith - Video Failed",
		message:  fmt.Sprintf("Item %s exhausted its retries: %s", itemID, strings.TrimSpace(detail)),
		tags:     []string{"reelsmith", "video", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Reelsmith - Error",
		message:  builder.String(),
		tags:     []string{"reelsmith", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reelsmith - Test",
		message:  "Notification system test",
		tags:     []string{"reelsmith", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySweepStarted(context.Context, int) error { return nil }

func (noopService) NotifySweepCompleted(context.Context, int, int, time.Duration) error { return nil }

func (noopService) NotifyItemPublished(context.Context, string, string) error { return nil }

func (noopService) NotifyItemFailed(context.Context, string, string) error { return nil }

func (noopService) NotifyError(context.Context, error, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
