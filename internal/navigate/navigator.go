package navigate

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const maxPending = 64

// Request is one navigation the operator asked for.
type Request struct {
	OrderID     string    `json:"order_id"`
	URL         string    `json:"url"`
	RequestedAt time.Time `json:"requested_at"`
}

// Navigator collects navigation requests until a UI drains them.
type Navigator struct {
	adminURL string
	clock    clockwork.Clock

	mu      sync.Mutex
	pending []Request
}

// New returns a navigator that builds links under adminURL.
func New(adminURL string, clock clockwork.Clock) *Navigator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Navigator{adminURL: strings.TrimRight(strings.TrimSpace(adminURL), "/"), clock: clock}
}

// OrderURL returns the admin link for an order.
func (n *Navigator) OrderURL(id string) string {
	path := "/orders/" + url.PathEscape(id)
	if n == nil || n.adminURL == "" {
		return path
	}
	return n.adminURL + path
}

// GoToOrder queues a navigation request for id. The oldest request is
// dropped once maxPending are waiting.
func (n *Navigator) GoToOrder(id string) {
	id = strings.TrimSpace(id)
	if n == nil || id == "" {
		return
	}
	req := Request{OrderID: id, URL: n.OrderURL(id), RequestedAt: n.clock.Now()}
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.pending) >= maxPending {
		n.pending = n.pending[1:]
	}
	n.pending = append(n.pending, req)
}

// Drain returns and clears queued requests.
func (n *Navigator) Drain() []Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	if out == nil {
		out = []Request{}
	}
	return out
}
