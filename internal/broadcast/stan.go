package broadcast

import (
	"context"
	"fmt"

	stan "github.com/nats-io/stan.go"
)

// STANPublisher publishes to a NATS Streaming subject.
type STANPublisher struct {
	conn    stan.Conn
	subject string
}

// ConnectSTAN joins clusterID as clientID through the NATS server at url.
func ConnectSTAN(url, clusterID, clientID, subject string) (*STANPublisher, error) {
	sc, err := stan.Connect(clusterID, clientID, stan.NatsURL(url))
	if err != nil {
		return nil, fmt.Errorf("connect nats streaming: %w", err)
	}
	return &STANPublisher{conn: sc, subject: subject}, nil
}

// Publish blocks until the streaming server acknowledges the message.
func (p *STANPublisher) Publish(ctx context.Context, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.conn.Publish(p.subject, body)
}

// Close closes the streaming connection.
func (p *STANPublisher) Close() error {
	return p.conn.Close()
}
