package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"mpd2mp4/internal/config"
)

const userAgent = "mpd2mp4/0.1.0"

// Service defines the notification surface exposed to the converter.
type Service interface {
	NotifyConversionCompleted(ctx context.Context, outputPath, strategy string, elapsed time.Duration) error
	NotifyConversionFailed(ctx context.Context, source string, err error) error
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

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
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
	if svc == nil {
		return false
	}
	_, noop := svc.(noopService)
	return !noop
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

func (n *ntfyService) NotifyConversionCompleted(ctx context.Context, outputPath, strategy string, elapsed time.Duration) error {
	name := filepath.Base(strings.TrimSpace(outputPath))
	message := fmt.Sprintf("Saved %s", name)
	if elapsed > 0 {
		message += fmt.Sprintf(" in %s", elapsed.Round(time.Second))
	}
	tags := []string{"mpd2mp4", "completed"}
	if strategy = strings.TrimSpace(strategy); strategy != "" {
		tags = append(tags, strategy)
	}
	return n.send(ctx, payload{
		title:   "mpd2mp4 - Conversion Complete",
		message: message,
		tags:    tags,
	})
}

func (n *ntfyService) NotifyConversionFailed(ctx context.Context, source string, err error) error {
	var builder strings.Builder
	builder.WriteString("Conversion failed")
	if source = strings.TrimSpace(source); source != "" {
		builder.WriteString(": ")
		builder.WriteString(source)
	}
	if err != nil {
		builder.WriteString("\n")
		builder.WriteString(err.Error())
	}
	return n.send(ctx, payload{
		title:    "mpd2mp4 - Error",
		message:  builder.String(),
		tags:     []string{"mpd2mp4", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "mpd2mp4 - Test",
		message:  "Notification system test",
		tags:     []string{"mpd2mp4", "test"},
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

func (noopService) NotifyConversionCompleted(context.Context, string, string, time.Duration) error {
	return nil
}
func (noopService) NotifyConversionFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
