package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"orderbell/internal/logging"
	"orderbell/internal/orders"
)

// DefaultInterval is the tick cadence used when none is configured.
const DefaultInterval = 20 * time.Second

// State is the poller lifecycle state.
type State string

const (
	StateStopped      State = "stopped"
	StateInitializing State = "initializing"
	StateRunning      State = "running"
)

// Fetcher returns a full order snapshot.
type Fetcher interface {
	FetchOrders(ctx context.Context) ([]orders.Order, error)
}

// Sink receives batches of newly detected orders.
type Sink interface {
	Deliver(ctx context.Context, batch []orders.Order)
	DropPending() int
}

// Options configures a Poller.
type Options struct {
	Fetcher      Fetcher
	Sink         Sink
	Clock        clockwork.Clock
	Logger       *slog.Logger
	Interval     time.Duration
	FetchTimeout time.Duration
	Snapshot     *orders.Snapshot
}

// Stats summarizes poller state for status surfaces.
type Stats struct {
	State       State     `json:"state"`
	Initialized bool      `json:"initialized"`
	KnownOrders int       `json:"known_orders"`
	NewOrders   int       `json:"new_orders"`
	Ticks       int64     `json:"ticks"`
	LastPollAt  time.Time `json:"last_poll_at,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// Poller owns the known-order set and the new-orders counter.
type Poller struct {
	fetcher      Fetcher
	sink         Sink
	clock        clockwork.Clock
	logger       *slog.Logger
	interval     time.Duration
	fetchTimeout time.Duration
	snapshot     *orders.Snapshot

	mu          sync.Mutex
	state       State
	initialized bool
	known       map[string]struct{}
	counter     int
	generation  uint64
	parent      context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	ticks       int64
	lastPollAt  time.Time
	lastError   string
}

// New constructs a stopped poller.
func New(opts Options) *Poller {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Snapshot == nil {
		opts.Snapshot = &orders.Snapshot{}
	}
	return &Poller{
		fetcher:      opts.Fetcher,
		sink:         opts.Sink,
		clock:        opts.Clock,
		logger:       logging.NewComponentLogger(opts.Logger, "poller"),
		interval:     opts.Interval,
		fetchTimeout: opts.FetchTimeout,
		snapshot:     opts.Snapshot,
		state:        StateStopped,
		known:        make(map[string]struct{}),
	}
}

// Start seeds the known set and arms the tick loop. It is a no-op while the
// poller is initializing or running.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateStopped {
		return
	}
	p.generation++
	gen := p.generation
	runCtx, cancel := context.WithCancel(ctx)
	ticker := p.clock.NewTicker(p.interval)
	done := make(chan struct{})

	p.parent = ctx
	p.cancel = cancel
	p.done = done
	p.state = StateInitializing

	p.logger.Info("order polling starting",
		logging.Duration("interval", p.interval),
		logging.Int("known_orders", len(p.known)),
		logging.String(logging.FieldEventType, "poller_started"),
	)

	go func() {
		defer close(done)
		defer ticker.Stop()
		p.seed(runCtx, gen)
		for {
			select {
			case <-runCtx.Done():
				p.abandon(gen, runCtx.Err())
				return
			case <-ticker.Chan():
				p.tick(runCtx, gen)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit. A fetch in flight is
// abandoned and its result discarded. Stop is a no-op when already stopped.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.state == StateStopped {
		p.mu.Unlock()
		return
	}
	p.generation++
	p.state = StateStopped
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	cancel()
	<-done
	p.logger.Info("order polling stopped", logging.String(logging.FieldEventType, "poller_stopped"))
}

// abandon returns the poller to Stopped when its loop exits because the parent
// context ended rather than through Stop, so a later Start arms a fresh loop.
func (p *Poller) abandon(gen uint64, cause error) {
	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		return
	}
	p.generation++
	p.state = StateStopped
	cancel := p.cancel
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	logging.WarnWithContext(p.logger, "order polling ended by context cancellation", "poller_abandoned",
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "restart polling with 'orderbell start'"),
		logging.String(logging.FieldImpact, "no new orders detected until polling restarts"),
	)
}

// ResetCounter zeroes the new-orders counter and drops alerts still queued
// for a hidden surface. It reports how many queued alerts were dropped.
func (p *Poller) ResetCounter() int {
	p.mu.Lock()
	p.counter = 0
	p.mu.Unlock()
	dropped := 0
	if p.sink != nil {
		dropped = p.sink.DropPending()
	}
	p.logger.Info("new order counter reset",
		logging.Int("dropped_pending", dropped),
		logging.String(logging.FieldEventType, "counter_reset"),
	)
	return dropped
}

// ResetSession forgets every known order and resets the counter. A running
// poller is restarted so the next seed fetch repopulates the known set.
func (p *Poller) ResetSession() int {
	p.mu.Lock()
	wasRunning := p.state != StateStopped
	parent := p.parent
	p.mu.Unlock()

	if wasRunning {
		p.Stop()
	}
	p.mu.Lock()
	p.known = make(map[string]struct{})
	p.initialized = false
	p.mu.Unlock()
	dropped := p.ResetCounter()

	p.logger.Info("poller session reset", logging.String(logging.FieldEventType, "session_reset"))
	if wasRunning && parent != nil && parent.Err() == nil {
		p.Start(parent)
	}
	return dropped
}

func (p *Poller) fetch(ctx context.Context) ([]orders.Order, error) {
	if p.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.fetchTimeout)
		defer cancel()
	}
	return p.fetcher.FetchOrders(ctx)
}

// seed adds every fetched id to the known set without alerting. The poller is
// marked initialized even when the fetch fails.
func (p *Poller) seed(ctx context.Context, gen uint64) {
	list, err := p.fetch(ctx)
	now := p.clock.Now()

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		return
	}
	p.lastPollAt = now
	if err == nil {
		for _, order := range list {
			p.known[order.ID] = struct{}{}
		}
		p.snapshot.Store(list, now)
		p.lastError = ""
	} else {
		p.lastError = err.Error()
	}
	p.initialized = true
	p.state = StateRunning
	known := len(p.known)
	p.mu.Unlock()

	if err != nil {
		logging.WarnWithContext(p.logger, "seed fetch failed; polling continues with existing known orders", "order_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check backend.base_url and network connectivity"),
			logging.String(logging.FieldImpact, "orders created before the next successful poll may alert"),
		)
		return
	}
	p.logger.Info("known orders seeded",
		logging.Int("known_orders", known),
		logging.String(logging.FieldEventType, "poller_seeded"),
	)
}

func (p *Poller) tick(ctx context.Context, gen uint64) {
	list, err := p.fetch(ctx)
	now := p.clock.Now()

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		return
	}
	p.ticks++
	p.lastPollAt = now
	if err != nil {
		p.lastError = err.Error()
		p.mu.Unlock()
		logging.WarnWithContext(p.logger, "order fetch failed; will retry next tick", "order_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check backend availability"),
			logging.String(logging.FieldImpact, "new orders detected on a later tick"),
		)
		return
	}
	p.lastError = ""
	candidates := p.diffLocked(list)
	p.counter += len(candidates)
	total := p.counter
	p.snapshot.Store(list, now)
	p.mu.Unlock()

	if len(candidates) == 0 {
		p.logger.Debug("no new orders", logging.Int("fetched", len(list)))
		return
	}
	p.logger.Info("new orders detected",
		logging.Int(logging.FieldBatchSize, len(candidates)),
		logging.Int("new_orders", total),
		logging.String(logging.FieldEventType, "orders_detected"),
	)
	if p.sink != nil {
		p.sink.Deliver(ctx, candidates)
	}
}

// diffLocked returns orders absent from the known set, in fetch order, and
// records their ids. Caller holds p.mu.
func (p *Poller) diffLocked(list []orders.Order) []orders.Order {
	var candidates []orders.Order
	for _, order := range list {
		if _, ok := p.known[order.ID]; ok {
			continue
		}
		p.known[order.ID] = struct{}{}
		candidates = append(candidates, order)
	}
	return candidates
}

// State reports the lifecycle state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Initialized reports whether a seed fetch has completed this session.
func (p *Poller) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

// NewOrdersCount reports orders detected since the last reset.
func (p *Poller) NewOrdersCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counter
}

// KnownCount reports the size of the known-order set.
func (p *Poller) KnownCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.known)
}

// Stats returns a consistent view of poller state.
func (p *Poller) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		State:       p.state,
		Initialized: p.initialized,
		KnownOrders: len(p.known),
		NewOrders:   p.counter,
		Ticks:       p.ticks,
		LastPollAt:  p.lastPollAt,
		LastError:   p.lastError,
	}
}

// Snapshot returns the most recent successful fetch.
func (p *Poller) Snapshot() ([]orders.Order, time.Time) {
	return p.snapshot.Load()
}
