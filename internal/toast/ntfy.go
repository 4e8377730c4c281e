package toast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"orderbell/internal/config"
)

const userAgent = "Orderbell-Go/0.1.0"

type ntfyChannel struct {
	endpoint string
	client   *http.Client
}

// NewNtfyChannel mirrors toasts to the configured ntfy topic. It returns nil
// when no topic is configured; Multi skips nil channels.
func NewNtfyChannel(cfg *config.Config) Channel {
	if cfg == nil {
		return nil
	}
	topic := strings.TrimSpace(cfg.Toast.NtfyTopic)
	if topic == "" {
		return nil
	}
	timeout := cfg.NtfyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyChannel{endpoint: topic, client: &http.Client{Timeout: timeout}}
}

func ntfyPriority(s Severity) string {
	switch s {
	case SeverityError:
		return "urgent"
	case SeveritySuccess, SeverityWarning:
		return "high"
	default:
		return ""
	}
}

func (n *ntfyChannel) Show(ctx context.Context, t Toast) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(t.Message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", "Orderbell - New Order")
	req.Header.Set("Tags", "orderbell,order,bell")
	if priority := ntfyPriority(t.Severity); priority != "" {
		req.Header.Set("Priority", priority)
	}
	if t.Link != "" {
		req.Header.Set("Click", t.Link)
		if label := strings.TrimSpace(t.ActionLabel); label != "" {
			req.Header.Set("Actions", fmt.Sprintf("view, %s, %s", label, t.Link))
		}
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
