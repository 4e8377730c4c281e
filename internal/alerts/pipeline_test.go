package alerts_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"orderbell/internal/alerts"
	"orderbell/internal/history"
	"orderbell/internal/orders"
	"orderbell/internal/toast"
)

type stubToasts struct {
	mu    sync.Mutex
	shown []toast.Toast
}

func (s *stubToasts) Show(_ context.Context, t toast.Toast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, t)
	return nil
}

func (s *stubToasts) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.shown))
	for _, t := range s.shown {
		out = append(out, t.OrderID)
	}
	return out
}

func (s *stubToasts) at(i int) toast.Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown[i]
}

type stubPlayer struct {
	mu    sync.Mutex
	plays int
	err   error
}

func (s *stubPlayer) Play(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays++
	return s.err
}

func (s *stubPlayer) Preload(context.Context) error { return nil }

func (s *stubPlayer) Ready() bool { return true }

func (s *stubPlayer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays
}

type stubNavigator struct {
	mu  sync.Mutex
	ids []string
}

func (s *stubNavigator) GoToOrder(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
}

func (s *stubNavigator) OrderURL(id string) string { return "https://admin.test/orders/" + id }

type stubRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (s *stubRecorder) Record(_ context.Context, e history.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func waitFor(t *testing.T, timeout time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func order(id string, qty int, amount float64) orders.Order {
	return orders.Order{ID: id, BillAmount: amount, Items: []orders.Item{{Name: "Dish", Quantity: qty}}}
}

func newPipeline(t *testing.T, opts alerts.Options) *alerts.Pipeline {
	t.Helper()
	p := alerts.New(opts)
	t.Cleanup(p.Close)
	return p
}

func TestVisibleBatchEmitsToastsAndOneAudioCycle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	toasts := &stubToasts{}
	player := &stubPlayer{}
	p := newPipeline(t, alerts.Options{Toasts: toasts, Audio: player, Clock: clock, Gap: 200 * time.Millisecond})

	p.Deliver(context.Background(), []orders.Order{order("A", 1, 10), order("B", 2, 20)})

	if got := toasts.messages(); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("expected toasts for A and B, got %v", got)
	}
	waitFor(t, time.Second, func() bool { return player.count() == 1 })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for want := 2; want <= 3; want++ {
		if err := clock.BlockUntilContext(ctx, 1); err != nil {
			t.Fatalf("waiting for gap timer: %v", err)
		}
		if player.count() != want-1 {
			t.Fatalf("playback %d started before the gap elapsed", want)
		}
		clock.Advance(200 * time.Millisecond)
		waitFor(t, time.Second, func() bool { return player.count() == want })
	}
	p.Wait()

	if player.count() != 3 {
		t.Fatalf("expected exactly 3 playbacks, got %d", player.count())
	}
	if p.AudioCycles() != 1 {
		t.Fatalf("expected one audio cycle per batch, got %d", p.AudioCycles())
	}
}

func TestHiddenBatchesQueueUntilVisible(t *testing.T) {
	toasts := &stubToasts{}
	player := &stubPlayer{}
	p := newPipeline(t, alerts.Options{Toasts: toasts, Audio: player, Gap: 0})

	p.SetVisible(false)
	p.Deliver(context.Background(), []orders.Order{order("A", 1, 10), order("B", 1, 10)})
	p.Deliver(context.Background(), []orders.Order{order("C", 1, 10)})

	if len(toasts.messages()) != 0 || player.count() != 0 {
		t.Fatalf("expected no alerts while hidden, toasts=%v plays=%d", toasts.messages(), player.count())
	}
	if p.PendingCount() != 3 {
		t.Fatalf("expected 3 pending, got %d", p.PendingCount())
	}

	p.SetVisible(true)
	p.Wait()

	got := toasts.messages()
	if len(got) != 3 || got[0] != "A" || got[1] != "B" || got[2] != "C" {
		t.Fatalf("expected FIFO flush A,B,C got %v", got)
	}
	if p.PendingCount() != 0 {
		t.Fatalf("expected empty queue after flush, got %d", p.PendingCount())
	}
	if p.AudioCycles() != 1 || player.count() != 3 {
		t.Fatalf("expected one cycle of 3 plays, cycles=%d plays=%d", p.AudioCycles(), player.count())
	}

	p.SetVisible(true)
	p.Wait()
	if len(toasts.messages()) != 3 || p.AudioCycles() != 1 {
		t.Fatal("expected repeated visible signal to be a no-op")
	}
}

func TestVisibleAgainWithEmptyQueueIsSilent(t *testing.T) {
	toasts := &stubToasts{}
	player := &stubPlayer{}
	p := newPipeline(t, alerts.Options{Toasts: toasts, Audio: player})

	p.SetVisible(false)
	p.SetVisible(true)
	p.Wait()
	if len(toasts.messages()) != 0 || p.AudioCycles() != 0 {
		t.Fatal("expected no alerts for an empty flush")
	}
}

func TestDropPendingClearsQueue(t *testing.T) {
	toasts := &stubToasts{}
	player := &stubPlayer{}
	p := newPipeline(t, alerts.Options{Toasts: toasts, Audio: player})

	p.SetVisible(false)
	p.Deliver(context.Background(), []orders.Order{order("A", 1, 10)})
	if dropped := p.DropPending(); dropped != 1 {
		t.Fatalf("expected 1 dropped, got %d", dropped)
	}
	p.SetVisible(true)
	p.Wait()
	if len(toasts.messages()) != 0 || player.count() != 0 {
		t.Fatal("expected dropped orders to never alert")
	}
	if p.DropPending() != 0 {
		t.Fatal("expected empty queue")
	}
}

func TestAudioFailureIsSwallowedAndToastStillShown(t *testing.T) {
	toasts := &stubToasts{}
	player := &stubPlayer{err: errors.New("autoplay blocked")}
	p := newPipeline(t, alerts.Options{Toasts: toasts, Audio: player, Gap: 0})

	p.Deliver(context.Background(), []orders.Order{order("A", 1, 10)})
	p.Wait()

	if len(toasts.messages()) != 1 {
		t.Fatalf("expected toast despite audio failure, got %v", toasts.messages())
	}
	if player.count() != 1 {
		t.Fatalf("expected cycle to stop at first failure, got %d plays", player.count())
	}
}

func TestToastActionNavigatesToOrder(t *testing.T) {
	toasts := &stubToasts{}
	nav := &stubNavigator{}
	p := newPipeline(t, alerts.Options{Toasts: toasts, Navigator: nav, ToastDuration: 5 * time.Second, Severity: toast.SeverityInfo})

	p.Deliver(context.Background(), []orders.Order{order("ORDER-42", 1, 10)})

	shown := toasts.at(0)
	if shown.ActionLabel != "View Order" || shown.Duration != 5*time.Second || shown.Severity != toast.SeverityInfo {
		t.Fatalf("unexpected toast settings %+v", shown)
	}
	if shown.Link != "https://admin.test/orders/ORDER-42" {
		t.Fatalf("unexpected link %q", shown.Link)
	}
	shown.OnAction()
	if len(nav.ids) != 1 || nav.ids[0] != "ORDER-42" {
		t.Fatalf("expected navigation to ORDER-42, got %v", nav.ids)
	}
}

func TestRecorderMarksDelayedAlerts(t *testing.T) {
	rec := &stubRecorder{}
	p := newPipeline(t, alerts.Options{Toasts: &stubToasts{}, Recorder: rec})

	p.Deliver(context.Background(), []orders.Order{order("now", 1, 10)})
	p.SetVisible(false)
	p.Deliver(context.Background(), []orders.Order{order("later", 3, 30)})
	p.SetVisible(true)

	if len(rec.entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(rec.entries))
	}
	if rec.entries[0].Delayed || !rec.entries[1].Delayed {
		t.Fatalf("unexpected delayed flags %+v", rec.entries)
	}
	if rec.entries[1].ItemCount != 3 || rec.entries[1].Amount != 30 || rec.entries[1].Source != history.SourcePoll {
		t.Fatalf("unexpected entry %+v", rec.entries[1])
	}
}

func TestTestNotificationIgnoresVisibility(t *testing.T) {
	toasts := &stubToasts{}
	player := &stubPlayer{}
	rec := &stubRecorder{}
	p := newPipeline(t, alerts.Options{Toasts: toasts, Audio: player, Recorder: rec, Gap: 0})

	p.SetVisible(false)
	p.TestNotification(context.Background())

	if got := toasts.messages(); len(got) != 1 || got[0] != "TEST123456" {
		t.Fatalf("expected test toast, got %v", got)
	}
	if toasts.at(0).Message != "🔔 New Order TEST1234! 2 items - ₹200.00 from Test Customer" {
		t.Fatalf("unexpected test message %q", toasts.at(0).Message)
	}
	if player.count() != 3 {
		t.Fatalf("expected test notification to wait for 3 plays, got %d", player.count())
	}
	if rec.entries[0].Source != history.SourceTest {
		t.Fatalf("expected test source, got %q", rec.entries[0].Source)
	}
	if p.PendingCount() != 0 {
		t.Fatal("test notification must not queue")
	}
}

func TestEmptyBatchIsIgnored(t *testing.T) {
	toasts := &stubToasts{}
	player := &stubPlayer{}
	p := newPipeline(t, alerts.Options{Toasts: toasts, Audio: player})
	p.Deliver(context.Background(), nil)
	p.Wait()
	if len(toasts.messages()) != 0 || p.AudioCycles() != 0 {
		t.Fatal("expected empty batch to be ignored")
	}
}
