package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stemstrip/internal/config"
)

const userAgent = "Stemstrip-Go/0.1.0"

// Service defines the notification surface exposed to the batch runner.
type Service interface {
	NotifyRunStarted(ctx context.Context, count int) error
	NotifyRunCompleted(ctx context.Context, processed, skipped, failed int, duration time.Duration) error
	NotifyItemFailed(ctx context.Context, item, stage string, cause error) error
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

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
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
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, count int) error {
	noun := "archives"
	if count == 1 {
		noun = "archive"
	}
	data := payload{
		title:   "Stemstrip - Run Started",
		message: fmt.Sprintf("Started processing %d %s", count, noun),
		tags:    []string{"stemstrip", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, processed, skipped, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title string
	var message string
	if failed == 0 {
		title = "Stemstrip - Run Complete"
		message = fmt.Sprintf("✅ Run complete: %d processed, %d skipped in %s", processed, skipped, durationText)
	} else {
		title = "Stemstrip - Run Complete (with errors)"
		message = fmt.Sprintf("Run complete: %d processed, %d skipped, %d failed in %s", processed, skipped, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"stemstrip", "run", "completed"},
	}
	if failed > 0 {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyItemFailed(ctx context.Context, item, stage string, cause error) error {
	var builder strings.Builder
	builder.WriteString("❌ Failed: ")
	builder.WriteString(strings.TrimSpace(item))
	if stage = strings.TrimSpace(stage); stage != "" {
		builder.WriteString(" (")
		builder.WriteString(stage)
		builder.WriteString(")")
	}
	if cause != nil {
		builder.WriteString("\n")
		builder.WriteString(strings.TrimSpace(cause.Error()))
	}

	data := payload{
		title:    "Stemstrip - Archive Failed",
		message:  builder.String(),
		tags:     []string{"stemstrip", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Stemstrip - Test",
		message:  "Notification system test",
		tags:     []string{"stemstrip", "test"},
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

func (noopService) NotifyRunStarted(context.Context, int) error { return nil }
func (noopService) NotifyRunCompleted(context.Context, int, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyItemFailed(context.Context, string, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
