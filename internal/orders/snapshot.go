package orders

import (
	"sync"
	"time"
)

// Snapshot holds the most recent successful order list.
type Snapshot struct {
	mu        sync.RWMutex
	orders    []Order
	fetchedAt time.Time
}

// Store replaces the snapshot contents.
func (s *Snapshot) Store(list []Order, at time.Time) {
	copied := make([]Order, len(list))
	copy(copied, list)
	s.mu.Lock()
	s.orders = copied
	s.fetchedAt = at
	s.mu.Unlock()
}

// Load returns a copy of the snapshot and when it was taken.
func (s *Snapshot) Load() ([]Order, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]Order, len(s.orders))
	copy(copied, s.orders)
	return copied, s.fetchedAt
}

// Get returns a single order from the snapshot.
func (s *Snapshot) Get(id string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, order := range s.orders {
		if order.ID == id {
			return order, true
		}
	}
	return Order{}, false
}

// Filter keeps orders whose status satisfies keep.
func Filter(list []Order, keep func(Status) bool) []Order {
	out := make([]Order, 0, len(list))
	for _, order := range list {
		if keep(order.Status) {
			out = append(out, order)
		}
	}
	return out
}

// Replace swaps in an updated copy of an order already in the snapshot. It
// reports whether the order was present.
func (s *Snapshot) Replace(order Order) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == order.ID {
			s.orders[i] = order
			return true
		}
	}
	return false
}
