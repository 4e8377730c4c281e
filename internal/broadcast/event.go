package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"orderbell/internal/logging"
	"orderbell/internal/toast"
)

// EventType labels order alert events.
const EventType = "order.alert"

// Event is the JSON payload published for each alert.
type Event struct {
	MessageID string    `json:"message_id"`
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	Severity  string    `json:"severity"`
	EmittedAt time.Time `json:"emitted_at"`
}

// Publisher delivers an encoded event to the broker.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
	Close() error
}

// Channel adapts a Publisher to toast.Channel.
type Channel struct {
	publisher Publisher
	clock     clockwork.Clock
	logger    *slog.Logger
}

// NewChannel wraps publisher.
func NewChannel(publisher Publisher, clock clockwork.Clock, logger *slog.Logger) *Channel {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Channel{
		publisher: publisher,
		clock:     clock,
		logger:    logging.NewComponentLogger(logger, "broadcast"),
	}
}

// Show publishes the toast as an Event.
func (c *Channel) Show(ctx context.Context, t toast.Toast) error {
	event := Event{
		MessageID: uuid.NewString(),
		Type:      EventType,
		OrderID:   t.OrderID,
		Message:   t.Message,
		Link:      t.Link,
		Severity:  string(t.Severity),
		EmittedAt: c.clock.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode alert event: %w", err)
	}
	if err := c.publisher.Publish(ctx, body); err != nil {
		return fmt.Errorf("publish alert event: %w", err)
	}
	c.logger.Debug("alert event published",
		logging.String(logging.FieldOrderID, t.OrderID),
		logging.String("message_id", event.MessageID),
	)
	return nil
}

// Close releases the broker connection.
func (c *Channel) Close() error {
	return c.publisher.Close()
}
