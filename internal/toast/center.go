package toast

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrNotFound reports an unknown toast id.
	ErrNotFound = errors.New("toast not found")
	// ErrExpired reports a toast that expired, was dismissed, or already ran its action.
	ErrExpired = errors.New("toast no longer active")
)

const maxClosed = 256

type entry struct {
	toast Toast
	seq   uint64
	timer clockwork.Timer
}

// Center keeps active toasts in memory and enforces expiry and at-most-once
// action semantics.
type Center struct {
	clock clockwork.Clock

	mu          sync.Mutex
	seq         uint64
	active      map[string]*entry
	closed      map[string]struct{}
	closedOrder []string
}

// NewCenter returns an empty center driven by clock.
func NewCenter(clock clockwork.Clock) *Center {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Center{
		clock:  clock,
		active: make(map[string]*entry),
		closed: make(map[string]struct{}),
	}
}

// Show registers t as active. A zero Duration keeps it until dismissed.
func (c *Center) Show(_ context.Context, t Toast) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := c.clock.Now()
	t.CreatedAt = now
	if t.Duration > 0 {
		t.ExpiresAt = now.Add(t.Duration)
	}

	c.mu.Lock()
	c.seq++
	e := &entry{toast: t, seq: c.seq}
	c.active[t.ID] = e
	if t.Duration > 0 {
		id := t.ID
		e.timer = c.clock.AfterFunc(t.Duration, func() { c.expire(id) })
	}
	c.mu.Unlock()
	return nil
}

func (c *Center) expire(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.active[id]; ok {
		c.closeLocked(id)
	}
}

// closeLocked moves id from active to the closed set. Caller holds c.mu.
func (c *Center) closeLocked(id string) {
	if e, ok := c.active[id]; ok && e.timer != nil {
		e.timer.Stop()
	}
	delete(c.active, id)
	if _, ok := c.closed[id]; ok {
		return
	}
	c.closed[id] = struct{}{}
	c.closedOrder = append(c.closedOrder, id)
	if len(c.closedOrder) > maxClosed {
		oldest := c.closedOrder[0]
		c.closedOrder = c.closedOrder[1:]
		delete(c.closed, oldest)
	}
}

// Activate runs the toast's action and closes it.
func (c *Center) Activate(id string) error {
	c.mu.Lock()
	e, ok := c.active[id]
	if !ok {
		_, wasClosed := c.closed[id]
		c.mu.Unlock()
		if wasClosed {
			return ErrExpired
		}
		return ErrNotFound
	}
	action := e.toast.OnAction
	c.closeLocked(id)
	c.mu.Unlock()

	if action != nil {
		action()
	}
	return nil
}

// Dismiss closes the toast without running its action.
func (c *Center) Dismiss(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.active[id]; !ok {
		if _, wasClosed := c.closed[id]; wasClosed {
			return ErrExpired
		}
		return ErrNotFound
	}
	c.closeLocked(id)
	return nil
}

// List returns active toasts, oldest first.
func (c *Center) List() []Toast {
	c.mu.Lock()
	entries := make([]*entry, 0, len(c.active))
	for _, e := range c.active {
		entries = append(entries, e)
	}
	c.mu.Unlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]Toast, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.toast)
	}
	return out
}

// Len reports how many toasts are active.
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}
