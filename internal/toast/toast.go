package toast

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"orderbell/internal/logging"
)

// Severity selects how prominently a toast is rendered.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity falls back to SeverityInfo for unknown values.
func ParseSeverity(value string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(value))) {
	case SeveritySuccess:
		return SeveritySuccess
	case SeverityWarning:
		return SeverityWarning
	case SeverityError:
		return SeverityError
	default:
		return SeverityInfo
	}
}

// Toast is one dismissible, auto-expiring alert.
type Toast struct {
	ID          string        `json:"id"`
	OrderID     string        `json:"order_id,omitempty"`
	Message     string        `json:"message"`
	ActionLabel string        `json:"action_label,omitempty"`
	Link        string        `json:"link,omitempty"`
	Severity    Severity      `json:"severity"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
	ExpiresAt   time.Time     `json:"expires_at"`
	OnAction    func()        `json:"-"`
}

// Channel displays toasts.
type Channel interface {
	Show(ctx context.Context, t Toast) error
}

// ChannelFunc adapts a function to Channel.
type ChannelFunc func(ctx context.Context, t Toast) error

func (f ChannelFunc) Show(ctx context.Context, t Toast) error { return f(ctx, t) }

type multi []Channel

// Multi shows each toast on every non-nil channel. Failures are joined; one
// failing channel does not prevent the others from running.
func Multi(channels ...Channel) Channel {
	out := make(multi, 0, len(channels))
	for _, ch := range channels {
		if ch != nil {
			out = append(out, ch)
		}
	}
	return out
}

func (m multi) Show(ctx context.Context, t Toast) error {
	var errs []error
	for _, ch := range m {
		if err := ch.Show(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type logChannel struct {
	logger *slog.Logger
}

// NewLogChannel records each toast as an info log line.
func NewLogChannel(logger *slog.Logger) Channel {
	return logChannel{logger: logging.NewComponentLogger(logger, "toast")}
}

func (l logChannel) Show(_ context.Context, t Toast) error {
	l.logger.Info("toast shown",
		logging.String(logging.FieldOrderID, t.OrderID),
		logging.String("message", t.Message),
		logging.String("severity", string(t.Severity)),
		logging.String(logging.FieldEventType, "toast_shown"),
	)
	return nil
}
