package navigate_test

import (
	"fmt"
	"testing"

	"github.com/jonboulle/clockwork"

	"orderbell/internal/navigate"
)

func TestGoToOrderQueuesAndDrains(t *testing.T) {
	clock := clockwork.NewFakeClock()
	nav := navigate.New("https://admin.example.com/", clock)

	nav.GoToOrder("abc")
	nav.GoToOrder("")
	nav.GoToOrder("def")

	got := nav.Drain()
	if len(got) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(got))
	}
	if got[0].OrderID != "abc" || got[0].URL != "https://admin.example.com/orders/abc" {
		t.Fatalf("unexpected first request %+v", got[0])
	}
	if !got[1].RequestedAt.Equal(clock.Now()) {
		t.Fatalf("expected fake clock timestamp, got %s", got[1].RequestedAt)
	}
	if again := nav.Drain(); len(again) != 0 {
		t.Fatalf("expected empty feed after drain, got %v", again)
	}
}

func TestGoToOrderBoundsFeed(t *testing.T) {
	nav := navigate.New("", nil)
	for i := 0; i < 70; i++ {
		nav.GoToOrder(fmt.Sprintf("o%d", i))
	}
	got := nav.Drain()
	if len(got) != 64 {
		t.Fatalf("expected bounded feed of 64, got %d", len(got))
	}
	if got[0].OrderID != "o6" {
		t.Fatalf("expected oldest entries dropped, first is %q", got[0].OrderID)
	}
	if got[0].URL != "/orders/o6" {
		t.Fatalf("unexpected relative url %q", got[0].URL)
	}
}
