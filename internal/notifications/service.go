package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tunely/internal/config"
	"tunely/internal/queue"
)

const userAgent = "tunely-notifier"

// Service defines the notification surface exposed to the workflow.
type Service interface {
	NotifyRequestCompleted(ctx context.Context, req *queue.Request) error
	NotifyRequestFailed(ctx context.Context, req *queue.Request) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
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
	}
}

// Enabled reports whether svc delivers anything.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
	// click is opened when the notification is tapped.
	click string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRequestCompleted(ctx context.Context, req *queue.Request) error {
	return n.send(ctx, payload{
		title:   "Tunely - Ready",
		message: fmt.Sprintf("🎤 Karaoke ready: %s", req.DisplayName()),
		tags:    []string{"tunely", "karaoke", "completed"},
		click:   req.PublishedURL,
	})
}

func (n *ntfyService) NotifyRequestFailed(ctx context.Context, req *queue.Request) error {
	var builder strings.Builder
	builder.WriteString("❌ ")
	builder.WriteString(req.DisplayName())
	if f := req.Failure; f != nil {
		fmt.Fprintf(&builder, " failed while %s (%s): %s", f.Stage, f.Kind, strings.TrimSpace(f.Reason))
		if f.Recoverable {
			builder.WriteString("\nResubmit to retry.")
		}
	} else {
		builder.WriteString(" failed")
	}
	return n.send(ctx, payload{
		title:    "Tunely - Failed",
		message:  builder.String(),
		tags:     []string{"tunely", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Tunely - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"tunely", "test"},
		priority: "low",
	})
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
	if data.click != "" {
		req.Header.Set("Click", data.click)
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

func (noopService) NotifyRequestCompleted(context.Context, *queue.Request) error { return nil }
func (noopService) NotifyRequestFailed(context.Context, *queue.Request) error    { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
