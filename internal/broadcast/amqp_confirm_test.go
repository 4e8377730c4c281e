package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// pendingConfirm resolves once the broker verdict is sent on result.
type pendingConfirm struct {
	result chan bool
}

func (c *pendingConfirm) WaitContext(ctx context.Context) (bool, error) {
	select {
	case ack := <-c.result:
		return ack, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

type confirmRecorder struct {
	mu       sync.Mutex
	confirms []*pendingConfirm
}

func (r *confirmRecorder) publish(context.Context, amqp.Publishing) (confirmation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &pendingConfirm{result: make(chan bool, 1)}
	r.confirms = append(r.confirms, c)
	return c, nil
}

func (r *confirmRecorder) at(i int) *pendingConfirm {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.confirms[i]
}

func TestAMQPAbandonedConfirmDoesNotLeakIntoNextPublish(t *testing.T) {
	rec := &confirmRecorder{}
	pub := &AMQPPublisher{exchange: "orderbell.alerts", publish: rec.publish}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pub.Publish(ctx, []byte(`{"n":1}`)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	// The first message is acked late, after its publisher gave up.
	rec.at(0).result <- true

	done := make(chan error, 1)
	go func() { done <- pub.Publish(context.Background(), []byte(`{"n":2}`)) }()
	waitConfirms(t, rec, 2)
	rec.at(1).result <- false

	if err := <-done; err == nil {
		t.Fatal("expected the second publish to report its own NACK")
	}
}

func TestAMQPPublishAck(t *testing.T) {
	rec := &confirmRecorder{}
	pub := &AMQPPublisher{exchange: "orderbell.alerts", publish: rec.publish}

	done := make(chan error, 1)
	go func() { done <- pub.Publish(context.Background(), []byte(`{}`)) }()
	waitConfirms(t, rec, 1)
	rec.at(0).result <- true
	if err := <-done; err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func waitConfirms(t *testing.T, rec *confirmRecorder, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		rec.mu.Lock()
		got := len(rec.confirms)
		rec.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d publishes", n)
}
