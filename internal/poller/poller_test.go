package poller_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"orderbell/internal/orders"
	"orderbell/internal/poller"
)

const interval = 20 * time.Second

type fetchResult struct {
	ids []string
	err error
}

// scriptedFetcher returns results in order and repeats the last one.
type scriptedFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
	block   chan struct{}
}

func (f *scriptedFetcher) FetchOrders(ctx context.Context) ([]orders.Order, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	block := f.block
	var res fetchResult
	if len(f.results) > 0 {
		if idx >= len(f.results) {
			idx = len(f.results) - 1
		}
		res = f.results[idx]
	}
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if res.err != nil {
		return nil, res.err
	}
	list := make([]orders.Order, 0, len(res.ids))
	for _, id := range res.ids {
		list = append(list, orders.Order{ID: id})
	}
	return list, nil
}

func (f *scriptedFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingSink struct {
	mu      sync.Mutex
	batches [][]string
	drops   int
}

func (s *recordingSink) Deliver(_ context.Context, batch []orders.Order) {
	ids := make([]string, 0, len(batch))
	for _, o := range batch {
		ids = append(ids, o.ID)
	}
	s.mu.Lock()
	s.batches = append(s.batches, ids)
	s.mu.Unlock()
}

func (s *recordingSink) DropPending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drops++
	return 0
}

func (s *recordingSink) snapshot() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.batches))
	copy(out, s.batches)
	return out
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

func newPoller(t *testing.T, fetcher *scriptedFetcher, sink *recordingSink) (*poller.Poller, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	p := poller.New(poller.Options{Fetcher: fetcher, Sink: sink, Clock: clock, Interval: interval})
	t.Cleanup(p.Stop)
	return p, clock
}

// tickAndWait advances one interval and waits for the resulting fetch.
func tickAndWait(t *testing.T, clock *clockwork.FakeClock, fetcher *scriptedFetcher, wantCalls int) {
	t.Helper()
	clock.Advance(interval)
	waitFor(t, time.Second, func() bool { return fetcher.count() >= wantCalls })
}

func TestSeedThenDetectNewOrder(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{ids: []string{"A", "B"}},
		{ids: []string{"A", "B", "C"}},
	}}
	sink := &recordingSink{}
	p, clock := newPoller(t, fetcher, sink)

	p.Start(context.Background())
	waitFor(t, time.Second, p.Initialized)
	if len(sink.snapshot()) != 0 {
		t.Fatalf("seed fetch must not notify, got %v", sink.snapshot())
	}
	if p.State() != poller.StateRunning || p.KnownCount() != 2 {
		t.Fatalf("unexpected state after seed: %+v", p.Stats())
	}

	tickAndWait(t, clock, fetcher, 2)
	waitFor(t, time.Second, func() bool { return len(sink.snapshot()) == 1 })

	batches := sink.snapshot()
	if len(batches[0]) != 1 || batches[0][0] != "C" {
		t.Fatalf("expected batch [C], got %v", batches)
	}
	if p.NewOrdersCount() != 1 {
		t.Fatalf("expected counter 1, got %d", p.NewOrdersCount())
	}

	snap, at := p.Snapshot()
	if len(snap) != 3 || at.IsZero() {
		t.Fatalf("expected snapshot of 3 orders, got %d at %s", len(snap), at)
	}
}

func TestOrdersReportedAtMostOnce(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{ids: nil},
		{ids: []string{"A", "B"}},
		{ids: []string{"B", "A", "C"}},
		{ids: []string{"C"}},
		{ids: []string{"A", "D", "C"}},
	}}
	sink := &recordingSink{}
	p, clock := newPoller(t, fetcher, sink)

	p.Start(context.Background())
	waitFor(t, time.Second, p.Initialized)
	for call := 2; call <= 5; call++ {
		tickAndWait(t, clock, fetcher, call)
		waitFor(t, time.Second, func() bool { return p.Stats().Ticks == int64(call-1) })
	}

	batches := sink.snapshot()
	want := [][]string{{"A", "B"}, {"C"}, {"D"}}
	if len(batches) != len(want) {
		t.Fatalf("expected %d batches, got %v", len(want), batches)
	}
	for i := range want {
		if len(batches[i]) != len(want[i]) {
			t.Fatalf("batch %d: got %v want %v", i, batches[i], want[i])
		}
		for j := range want[i] {
			if batches[i][j] != want[i][j] {
				t.Fatalf("batch %d: got %v want %v", i, batches[i], want[i])
			}
		}
	}
	if p.NewOrdersCount() != 4 {
		t.Fatalf("expected counter 4, got %d", p.NewOrdersCount())
	}
}

func TestFetchFailureLeavesStateAndContinues(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{ids: []string{"A"}},
		{err: errors.New("connection refused")},
		{ids: []string{"A", "B"}},
	}}
	sink := &recordingSink{}
	p, clock := newPoller(t, fetcher, sink)

	p.Start(context.Background())
	waitFor(t, time.Second, p.Initialized)

	tickAndWait(t, clock, fetcher, 2)
	waitFor(t, time.Second, func() bool { return p.Stats().LastError != "" })
	if p.KnownCount() != 1 || len(sink.snapshot()) != 0 {
		t.Fatalf("failed tick must not change state: known=%d batches=%v", p.KnownCount(), sink.snapshot())
	}

	tickAndWait(t, clock, fetcher, 3)
	waitFor(t, time.Second, func() bool { return len(sink.snapshot()) == 1 })
	if got := sink.snapshot()[0]; len(got) != 1 || got[0] != "B" {
		t.Fatalf("expected batch [B], got %v", got)
	}
	if p.Stats().LastError != "" {
		t.Fatalf("expected error cleared after success, got %q", p.Stats().LastError)
	}
	if p.State() != poller.StateRunning {
		t.Fatalf("expected poller still running, got %s", p.State())
	}
}

func TestSeedFailureStillInitializes(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{err: errors.New("timeout")},
		{ids: []string{"A"}},
	}}
	sink := &recordingSink{}
	p, clock := newPoller(t, fetcher, sink)

	p.Start(context.Background())
	waitFor(t, time.Second, p.Initialized)
	if p.KnownCount() != 0 {
		t.Fatalf("expected empty known set, got %d", p.KnownCount())
	}

	tickAndWait(t, clock, fetcher, 2)
	waitFor(t, time.Second, func() bool { return len(sink.snapshot()) == 1 })
}

func TestStartTwiceArmsOneLoop(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{ids: []string{"A"}}}}
	sink := &recordingSink{}
	p, clock := newPoller(t, fetcher, sink)

	p.Start(context.Background())
	p.Start(context.Background())
	waitFor(t, time.Second, p.Initialized)
	if fetcher.count() != 1 {
		t.Fatalf("expected one seed fetch, got %d", fetcher.count())
	}

	tickAndWait(t, clock, fetcher, 2)
	time.Sleep(50 * time.Millisecond)
	if fetcher.count() != 2 {
		t.Fatalf("expected exactly one fetch per interval, got %d calls", fetcher.count())
	}
}

func TestStopIsIdempotentAndDiscardsInFlightFetch(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{ids: []string{"A"}}, {ids: []string{"A", "B"}}}}
	sink := &recordingSink{}
	p, clock := newPoller(t, fetcher, sink)

	p.Stop()

	p.Start(context.Background())
	waitFor(t, time.Second, p.Initialized)

	fetcher.mu.Lock()
	fetcher.block = make(chan struct{})
	fetcher.mu.Unlock()

	tickAndWait(t, clock, fetcher, 2)
	p.Stop()
	p.Stop()

	if p.State() != poller.StateStopped {
		t.Fatalf("expected stopped, got %s", p.State())
	}
	if len(sink.snapshot()) != 0 {
		t.Fatalf("abandoned fetch must not notify, got %v", sink.snapshot())
	}
	if p.KnownCount() != 1 {
		t.Fatalf("expected known set unchanged, got %d", p.KnownCount())
	}

	clock.Advance(interval)
	time.Sleep(20 * time.Millisecond)
	if fetcher.count() != 2 {
		t.Fatalf("expected no fetches after stop, got %d", fetcher.count())
	}
}

func TestKnownSetSurvivesRestart(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{ids: []string{"A"}},
		{ids: []string{"A", "B"}},
		{ids: []string{"A", "B"}},
		{ids: []string{"A", "B", "C"}},
	}}
	sink := &recordingSink{}
	p, clock := newPoller(t, fetcher, sink)

	p.Start(context.Background())
	waitFor(t, time.Second, p.Initialized)
	tickAndWait(t, clock, fetcher, 2)
	waitFor(t, time.Second, func() bool { return len(sink.snapshot()) == 1 })
	p.Stop()

	p.Start(context.Background())
	waitFor(t, time.Second, func() bool { return fetcher.count() == 3 && p.State() == poller.StateRunning })
	tickAndWait(t, clock, fetcher, 4)
	waitFor(t, time.Second, func() bool { return len(sink.snapshot()) == 2 })

	batches := sink.snapshot()
	if len(batches[1]) != 1 || batches[1][0] != "C" {
		t.Fatalf("expected only C after restart, got %v", batches)
	}
	if p.NewOrdersCount() != 2 {
		t.Fatalf("expected counter 2 across restart, got %d", p.NewOrdersCount())
	}
}

func TestResetCounterDropsPending(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{ids: nil}, {ids: []string{"A", "B"}}}}
	sink := &recordingSink{}
	p, clock := newPoller(t, fetcher, sink)

	p.Start(context.Background())
	waitFor(t, time.Second, p.Initialized)
	tickAndWait(t, clock, fetcher, 2)
	waitFor(t, time.Second, func() bool { return p.NewOrdersCount() == 2 })

	p.ResetCounter()
	if p.NewOrdersCount() != 0 {
		t.Fatalf("expected counter 0, got %d", p.NewOrdersCount())
	}
	if sink.drops != 1 {
		t.Fatalf("expected pending queue dropped once, got %d", sink.drops)
	}
	if p.KnownCount() != 2 {
		t.Fatalf("counter reset must keep known ids, got %d", p.KnownCount())
	}
}

func TestResetSessionReseeds(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{ids: []string{"A"}},
		{ids: []string{"A", "B"}},
		{ids: []string{"A", "B", "C"}},
	}}
	sink := &recordingSink{}
	p, clock := newPoller(t, fetcher, sink)

	p.Start(context.Background())
	waitFor(t, time.Second, p.Initialized)
	tickAndWait(t, clock, fetcher, 2)
	waitFor(t, time.Second, func() bool { return len(sink.snapshot()) == 1 })

	p.ResetSession()
	waitFor(t, time.Second, func() bool { return fetcher.count() == 3 && p.Initialized() })

	if p.State() != poller.StateRunning {
		t.Fatalf("expected poller restarted, got %s", p.State())
	}
	if p.KnownCount() != 3 || p.NewOrdersCount() != 0 {
		t.Fatalf("expected reseeded known set of 3 and zero counter, got %+v", p.Stats())
	}
	if len(sink.snapshot()) != 1 {
		t.Fatalf("reseed must not notify, got %v", sink.snapshot())
	}
}

func TestResetSessionWhileStopped(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{ids: []string{"A"}}}}
	sink := &recordingSink{}
	p, _ := newPoller(t, fetcher, sink)

	p.Start(context.Background())
	waitFor(t, time.Second, p.Initialized)
	p.Stop()

	p.ResetSession()
	if p.State() != poller.StateStopped || p.Initialized() || p.KnownCount() != 0 {
		t.Fatalf("unexpected state after reset: %+v", p.Stats())
	}
}

func TestParentCancellationReturnsToStopped(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{ids: []string{"A"}},
		{ids: []string{"A"}},
		{ids: []string{"A", "B"}},
	}}
	sink := &recordingSink{}
	p, clock := newPoller(t, fetcher, sink)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	waitFor(t, time.Second, p.Initialized)
	cancel()
	waitFor(t, time.Second, func() bool { return p.State() == poller.StateStopped })

	p.Start(context.Background())
	waitFor(t, time.Second, func() bool { return fetcher.count() == 2 && p.State() == poller.StateRunning })
	tickAndWait(t, clock, fetcher, 3)
	waitFor(t, time.Second, func() bool { return len(sink.snapshot()) == 1 })
	if got := sink.snapshot()[0]; len(got) != 1 || got[0] != "B" {
		t.Fatalf("expected batch [B] after restart, got %v", got)
	}
}

func TestResetSessionSkipsRestartWhenParentDone(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{ids: []string{"A"}}}}
	sink := &recordingSink{}
	p, _ := newPoller(t, fetcher, sink)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	waitFor(t, time.Second, p.Initialized)

	fetcher.mu.Lock()
	fetcher.block = make(chan struct{})
	fetcher.mu.Unlock()
	cancel()

	p.ResetSession()
	waitFor(t, time.Second, func() bool { return p.State() == poller.StateStopped })
	time.Sleep(20 * time.Millisecond)
	if p.State() != poller.StateStopped || p.Initialized() {
		t.Fatalf("expected stopped and uninitialized after reset on a dead context, got %+v", p.Stats())
	}

	p.Start(context.Background())
	waitFor(t, time.Second, func() bool { return fetcher.count() == 2 })
	if p.State() == poller.StateStopped {
		t.Fatal("expected Start to arm a new loop")
	}
	close(fetcher.block)
	waitFor(t, time.Second, p.Initialized)
}

func TestSlowFetchDoesNotOverlapTicks(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{ids: []string{"A"}},
		{ids: []string{"A", "B"}},
	}}
	sink := &recordingSink{}
	p, clock := newPoller(t, fetcher, sink)

	p.Start(context.Background())
	waitFor(t, time.Second, p.Initialized)

	release := make(chan struct{})
	fetcher.mu.Lock()
	fetcher.block = release
	fetcher.mu.Unlock()

	tickAndWait(t, clock, fetcher, 2)
	for i := 0; i < 3; i++ {
		clock.Advance(interval)
	}
	time.Sleep(50 * time.Millisecond)
	if got := fetcher.count(); got != 2 {
		t.Fatalf("expected one fetch in flight, got %d calls", got)
	}

	fetcher.mu.Lock()
	fetcher.block = nil
	fetcher.mu.Unlock()
	close(release)

	waitFor(t, time.Second, func() bool { return fetcher.count() == 3 })
	time.Sleep(50 * time.Millisecond)
	if got := fetcher.count(); got != 3 {
		t.Fatalf("expected buffered ticks to coalesce into one fetch, got %d calls", got)
	}
	batches := sink.snapshot()
	if len(batches) != 1 || len(batches[0]) != 1 || batches[0][0] != "B" {
		t.Fatalf("expected single batch [B], got %v", batches)
	}
}
