package visibility

import "sync"

// Hub fans visibility changes out to subscribers. A new Hub reports visible.
type Hub struct {
	// deliver serializes state changes together with their fan-out so
	// subscribers observe changes in the order they were applied.
	deliver sync.Mutex
	mu      sync.Mutex
	visible bool
	nextID  int
	subs    map[int]func(bool)
}

// NewHub returns a hub that starts visible.
func NewHub() *Hub {
	return &Hub{visible: true, subs: make(map[int]func(bool))}
}

// Visible reports the last value passed to Set.
func (h *Hub) Visible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visible
}

// Set records the new visibility and notifies subscribers when it changed.
// It reports whether a change occurred. Subscribers must not call Set.
func (h *Hub) Set(visible bool) bool {
	h.deliver.Lock()
	defer h.deliver.Unlock()

	h.mu.Lock()
	if h.visible == visible {
		h.mu.Unlock()
		return false
	}
	h.visible = visible
	subs := make([]func(bool), 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	for _, fn := range subs {
		fn(visible)
	}
	return true
}

// Subscribe registers fn for change events. The returned function removes the
// subscription and is safe to call more than once.
func (h *Hub) Subscribe(fn func(bool)) func() {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	return h.unsubscriber(id)
}

// Watch subscribes fn and immediately delivers the current value. No change
// can slip between the registration and the initial delivery.
func (h *Hub) Watch(fn func(bool)) func() {
	if fn == nil {
		return func() {}
	}
	h.deliver.Lock()
	defer h.deliver.Unlock()

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	current := h.visible
	h.mu.Unlock()

	fn(current)
	return h.unsubscriber(id)
}

func (h *Hub) unsubscriber(id int) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}
