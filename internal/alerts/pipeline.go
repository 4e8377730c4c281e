package alerts

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"orderbell/internal/audio"
	"orderbell/internal/history"
	"orderbell/internal/logging"
	"orderbell/internal/orders"
	"orderbell/internal/toast"
)

const (
	DefaultRepeatCount   = 3
	DefaultGap           = 200 * time.Millisecond
	DefaultToastDuration = 10 * time.Second
	DefaultActionLabel   = "View Order"
)

// Navigator opens an order's detail view.
type Navigator interface {
	GoToOrder(id string)
	OrderURL(id string) string
}

// Recorder stores emitted alerts.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) error
}

// Options configures a Pipeline. Zero values select defaults.
type Options struct {
	Toasts        toast.Channel
	Audio         audio.Player
	Navigator     Navigator
	Recorder      Recorder
	Clock         clockwork.Clock
	Logger        *slog.Logger
	RepeatCount   int
	Gap           time.Duration
	ToastDuration time.Duration
	ActionLabel   string
	Severity      toast.Severity
}

type pendingOrder struct {
	order    orders.Order
	queuedAt time.Time
}

// Pipeline owns the visibility flag and the pending notification queue.
type Pipeline struct {
	toasts        toast.Channel
	player        audio.Player
	navigator     Navigator
	recorder      Recorder
	clock         clockwork.Clock
	logger        *slog.Logger
	repeat        int
	gap           time.Duration
	toastDuration time.Duration
	actionLabel   string
	severity      toast.Severity

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	visible bool
	pending []pendingOrder

	// emitMu keeps toast emission in FIFO order across deliveries and flushes.
	emitMu sync.Mutex
	// audioMu prevents urgent cycles from overlapping.
	audioMu sync.Mutex
	wg      sync.WaitGroup

	emitted     atomic.Int64
	audioCycles atomic.Int64
}

// New constructs a visible pipeline.
func New(opts Options) *Pipeline {
	if opts.Toasts == nil {
		opts.Toasts = toast.Multi()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.RepeatCount <= 0 {
		opts.RepeatCount = DefaultRepeatCount
	}
	if opts.Gap < 0 {
		opts.Gap = 0
	}
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = DefaultToastDuration
	}
	if opts.ActionLabel == "" {
		opts.ActionLabel = DefaultActionLabel
	}
	if opts.Severity == "" {
		opts.Severity = toast.SeveritySuccess
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		toasts:        opts.Toasts,
		player:        opts.Audio,
		navigator:     opts.Navigator,
		recorder:      opts.Recorder,
		clock:         opts.Clock,
		logger:        logging.NewComponentLogger(opts.Logger, "alerts"),
		repeat:        opts.RepeatCount,
		gap:           opts.Gap,
		toastDuration: opts.ToastDuration,
		actionLabel:   opts.ActionLabel,
		severity:      opts.Severity,
		ctx:           ctx,
		cancel:        cancel,
		visible:       true,
	}
}

// Deliver handles one batch of new orders. While visible it emits a toast per
// order and starts one urgent audio cycle; while hidden it queues the batch.
func (p *Pipeline) Deliver(ctx context.Context, batch []orders.Order) {
	if len(batch) == 0 {
		return
	}
	p.mu.Lock()
	if !p.visible {
		now := p.clock.Now()
		for _, order := range batch {
			p.pending = append(p.pending, pendingOrder{order: order, queuedAt: now})
		}
		queued := len(p.pending)
		p.mu.Unlock()
		p.logger.Info("surface hidden; alerts queued",
			logging.Int(logging.FieldBatchSize, len(batch)),
			logging.Int("pending", queued),
			logging.String(logging.FieldEventType, "alerts_queued"),
		)
		return
	}
	p.emitMu.Lock()
	p.mu.Unlock()

	items := make([]pendingOrder, 0, len(batch))
	for _, order := range batch {
		items = append(items, pendingOrder{order: order})
	}
	p.emit(ctx, items, false, history.SourcePoll)
	p.emitMu.Unlock()
	p.startUrgent()
}

// SetVisible updates the visibility flag. A hidden to visible transition
// flushes the pending queue in FIFO order and starts one urgent audio cycle.
func (p *Pipeline) SetVisible(visible bool) {
	p.mu.Lock()
	wasVisible := p.visible
	p.visible = visible
	if wasVisible || !visible || len(p.pending) == 0 {
		p.mu.Unlock()
		return
	}
	queued := p.pending
	p.pending = nil
	p.emitMu.Lock()
	p.mu.Unlock()

	p.logger.Info("surface visible; flushing queued alerts",
		logging.Int(logging.FieldBatchSize, len(queued)),
		logging.String(logging.FieldEventType, "alerts_flushed"),
	)
	p.emit(p.ctx, queued, true, history.SourcePoll)
	p.emitMu.Unlock()
	p.startUrgent()
}

// Visible reports the current visibility flag.
func (p *Pipeline) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// PendingCount reports how many orders wait for the surface to become visible.
func (p *Pipeline) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// DropPending discards queued orders without alerting and reports how many
// were dropped.
func (p *Pipeline) DropPending() int {
	p.mu.Lock()
	dropped := len(p.pending)
	p.pending = nil
	p.mu.Unlock()
	if dropped > 0 {
		p.logger.Info("queued alerts dropped",
			logging.Int("dropped", dropped),
			logging.String(logging.FieldEventType, "alerts_dropped"),
		)
	}
	return dropped
}

// Emitted reports how many toasts the pipeline has emitted.
func (p *Pipeline) Emitted() int64 { return p.emitted.Load() }

// AudioCycles reports how many urgent audio cycles have started.
func (p *Pipeline) AudioCycles() int64 { return p.audioCycles.Load() }

// TestNotification emits an alert for the fixed test order regardless of
// visibility, then plays one urgent cycle and waits for it.
func (p *Pipeline) TestNotification(ctx context.Context) {
	order := orders.TestOrder(p.clock.Now())
	p.emitMu.Lock()
	p.emit(ctx, []pendingOrder{{order: order}}, false, history.SourceTest)
	p.emitMu.Unlock()
	p.PlayUrgent(ctx)
}

func (p *Pipeline) emit(ctx context.Context, items []pendingOrder, delayed bool, source history.Source) {
	for _, item := range items {
		order := item.order
		message := FormatOrderMessage(order)
		t := toast.Toast{
			OrderID:     order.ID,
			Message:     message,
			ActionLabel: p.actionLabel,
			Severity:    p.severity,
			Duration:    p.toastDuration,
		}
		if p.navigator != nil {
			nav := p.navigator
			id := order.ID
			t.Link = nav.OrderURL(id)
			t.OnAction = func() { nav.GoToOrder(id) }
		}
		if err := p.toasts.Show(ctx, t); err != nil {
			logging.WarnWithContext(p.logger, "toast delivery incomplete", "toast_delivery_failed",
				logging.String(logging.FieldOrderID, order.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check ntfy topic and broker connectivity"),
				logging.String(logging.FieldImpact, "alert missing from one or more channels"),
			)
		}
		p.emitted.Add(1)

		attrs := []logging.Attr{
			logging.String(logging.FieldOrderID, order.ID),
			logging.String("message", message),
			logging.Bool("delayed", delayed),
			logging.String(logging.FieldEventType, "order_alert_emitted"),
		}
		if delayed && !item.queuedAt.IsZero() {
			attrs = append(attrs, logging.Duration("queued_for", p.clock.Since(item.queuedAt)))
		}
		p.logger.Info("order alert emitted", logging.Args(attrs...)...)

		p.record(ctx, history.Entry{
			OrderID:   order.ID,
			Message:   message,
			Amount:    order.BillAmount,
			ItemCount: order.TotalQuantity(),
			Customer:  order.CustomerName,
			Delayed:   delayed,
			Source:    source,
			CreatedAt: p.clock.Now(),
		})
	}
}

func (p *Pipeline) record(ctx context.Context, entry history.Entry) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, entry); err != nil {
		logging.WarnWithContext(p.logger, "alert history write failed", "history_write_failed",
			logging.String(logging.FieldOrderID, entry.OrderID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "alert missing from history"),
		)
	}
}

func (p *Pipeline) startUrgent() {
	if p.player == nil {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.PlayUrgent(p.ctx)
	}()
}

// PlayUrgent plays the bell RepeatCount times with Gap between playbacks.
// The first failure ends the cycle and is logged, never returned.
func (p *Pipeline) PlayUrgent(ctx context.Context) {
	if p.player == nil {
		return
	}
	p.audioMu.Lock()
	defer p.audioMu.Unlock()
	p.audioCycles.Add(1)

	for i := 0; i < p.repeat; i++ {
		if i > 0 && p.gap > 0 {
			select {
			case <-ctx.Done():
				return
			case <-p.clock.After(p.gap):
			}
		}
		if err := p.player.Play(ctx); err != nil {
			logging.WarnWithContext(p.logger, "audio playback failed; alert shown without sound", "audio_playback_failed",
				logging.Int("playback", i+1),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'orderbell audio preload' or check the sound file and player"),
				logging.String(logging.FieldImpact, "urgent bell cut short"),
			)
			return
		}
	}
}

// Wait blocks until in-flight audio cycles finish.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Close cancels in-flight audio cycles and waits for them to exit.
func (p *Pipeline) Close() {
	p.cancel()
	p.wg.Wait()
}
