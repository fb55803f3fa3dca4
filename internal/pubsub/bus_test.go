package pubsub

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/cardops/cardtrack/internal/card"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublish_DeliversToEverySubscriberOnce(t *testing.T) {
	bus := New(testLogger())

	var mu sync.Mutex
	counts := make(map[string]int)
	for _, name := range []string{"a", "b", "c"} {
		name := name
		bus.Subscribe(func(card.Card) {
			mu.Lock()
			counts[name]++
			mu.Unlock()
		})
	}

	bus.Publish(card.Card{ID: "card-001"})

	for _, name := range []string{"a", "b", "c"} {
		if counts[name] != 1 {
			t.Fatalf("subscriber %s received %d deliveries, want 1", name, counts[name])
		}
	}
}

func TestPublish_RegistrationOrder(t *testing.T) {
	bus := New(testLogger())

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		bus.Subscribe(func(card.Card) { order = append(order, i) })
	}

	bus.Publish(card.Card{ID: "card-001"})

	for i, got := range order {
		if got != i {
			t.Fatalf("delivery order %v, want ascending registration order", order)
		}
	}
}

func TestUnsubscribe_StopsDeliveryAndIsIdempotent(t *testing.T) {
	bus := New(testLogger())

	var a, b int
	unsub := bus.Subscribe(func(card.Card) { a++ })
	bus.Subscribe(func(card.Card) { b++ })

	bus.Publish(card.Card{ID: "card-001"})
	unsub()
	unsub() // second call is a no-op
	bus.Publish(card.Card{ID: "card-001"})

	if a != 1 {
		t.Fatalf("unsubscribed callback received %d deliveries, want 1", a)
	}
	if b != 2 {
		t.Fatalf("remaining callback received %d deliveries, want 2", b)
	}
}

func TestPublish_PanickingSubscriberIsIsolated(t *testing.T) {
	bus := New(testLogger())

	var before, after int
	bus.Subscribe(func(card.Card) { before++ })
	bus.Subscribe(func(card.Card) { panic("boom") })
	bus.Subscribe(func(card.Card) { after++ })

	bus.Publish(card.Card{ID: "card-001"})

	if before != 1 || after != 1 {
		t.Fatalf("deliveries before=%d after=%d, want 1 and 1", before, after)
	}
}

func TestPublish_SubscriberGetsOwnCopy(t *testing.T) {
	bus := New(testLogger())

	bus.Subscribe(func(c card.Card) {
		c.StatusHistory[0].Notes = "mutated"
	})
	var seen card.Card
	bus.Subscribe(func(c card.Card) { seen = c })

	bus.Publish(card.Card{
		ID:            "card-001",
		StatusHistory: []card.StatusEvent{{ID: "evt-1", Notes: "original"}},
	})

	if seen.StatusHistory[0].Notes != "original" {
		t.Fatalf("mutation leaked between subscribers: %q", seen.StatusHistory[0].Notes)
	}
}

func TestPublish_ConcurrentSubscribeIsSafe(t *testing.T) {
	bus := New(testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := bus.Subscribe(func(card.Card) {})
			unsub()
		}()
		go func() {
			defer wg.Done()
			bus.Publish(card.Card{ID: "card-001"})
		}()
	}
	wg.Wait()
}
