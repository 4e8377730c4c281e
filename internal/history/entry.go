package history

import (
	"context"
	"time"
)

// Source identifies what produced an alert.
type Source string

const (
	SourcePoll Source = "poll"
	SourceTest Source = "test"
)

// Entry is one emitted alert.
type Entry struct {
	ID        int64     `json:"id"`
	OrderID   string    `json:"order_id"`
	Message   string    `json:"message"`
	Amount    float64   `json:"amount"`
	ItemCount int       `json:"item_count"`
	Customer  string    `json:"customer,omitempty"`
	Delayed   bool      `json:"delayed"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists alert history.
type Store interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
	Close() error
}
