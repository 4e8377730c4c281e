package broadcast

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// confirmation is the broker's verdict for one published message.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

type publishFunc func(ctx context.Context, msg amqp.Publishing) (confirmation, error)

// AMQPPublisher publishes to a durable topic exchange with publisher confirms.
// Each message waits on its own deferred confirmation, so an abandoned wait
// never leaks into the next publish.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	publish  publishFunc
}

// DialAMQP connects to url and declares exchange.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	p := &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}
	p.publish = func(ctx context.Context, msg amqp.Publishing) (confirmation, error) {
		if conn.IsClosed() {
			return nil, errors.New("amqp connection is closed")
		}
		dc, err := ch.PublishWithDeferredConfirmWithContext(ctx, exchange, EventType, false, false, msg)
		if err != nil {
			return nil, err
		}
		if dc == nil {
			return nil, errors.New("amqp channel is not in confirm mode")
		}
		return dc, nil
	}
	return p, nil
}

// Publish sends body with routing key EventType and waits for the broker ack.
func (p *AMQPPublisher) Publish(ctx context.Context, body []byte) error {
	conf, err := p.publish(ctx, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now(),
		Type:         EventType,
		Body:         body,
	})
	if err != nil {
		return err
	}
	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return errors.New("publish NACK from broker")
	}
	return nil
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
