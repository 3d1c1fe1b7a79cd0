package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"helixprint/internal/config"
)

const userAgent = "helixprint/1.0"

// Event identifies a notification type.
type Event string

const (
	EventPrintStarted   Event = "print_started"
	EventPrintCompleted Event = "print_completed"
	EventPrintFailed    Event = "print_failed"
	EventPrintCancelled Event = "print_cancelled"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries event fields such as "filename" or "error".
type Payload map[string]any

// Service publishes notification events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
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

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	msg, ok := buildPayload(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func buildPayload(event Event, data Payload) (payload, bool) {
	name := data.str("filename")
	switch event {
	case EventPrintStarted:
		message := fmt.Sprintf("Printing %s", name)
		if mods := data.list("modifications"); len(mods) > 0 {
			message += "\nModifications: " + strings.Join(mods, ", ")
		}
		return payload{
			title:   "helixprint - Print Started",
			message: message,
			tags:    []string{"helixprint", "print", "started"},
		}, true
	case EventPrintCompleted:
		return payload{
			title:   "helixprint - Print Complete",
			message: fmt.Sprintf("Finished %s", name),
			tags:    []string{"helixprint", "print", "completed"},
		}, true
	case EventPrintFailed:
		return payload{
			title:    "helixprint - Print Failed",
			message:  fmt.Sprintf("Print of %s ended with an error", name),
			tags:     []string{"helixprint", "print", "error"},
			priority: "high",
		}, true
	case EventPrintCancelled:
		return payload{
			title:   "helixprint - Print Cancelled",
			message: fmt.Sprintf("Print of %s was cancelled", name),
			tags:    []string{"helixprint", "print", "cancelled"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("Error")
		if where := data.str("context"); where != "" {
			builder.WriteString(" with ")
			builder.WriteString(where)
		}
		builder.WriteString(": ")
		builder.WriteString(data.str("error"))
		return payload{
			title:    "helixprint - Error",
			message:  builder.String(),
			tags:     []string{"helixprint", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return payload{
			title:    "helixprint - Test",
			message:  "Notification system test",
			tags:     []string{"helixprint", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
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

func (p Payload) str(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (p Payload) list(key string) []string {
	if p == nil {
		return nil
	}
	if v, ok := p[key].([]string); ok {
		return v
	}
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
