// Package pubsub implements the in-process update notification bus: a
// process-lifetime registry of subscriber callbacks that receive a snapshot
// of every successfully updated card.
package pubsub

import (
	"log/slog"
	"sync"

	"github.com/cardops/cardtrack/internal/card"
)

// Subscriber receives one updated card per successful status update.
type Subscriber func(card.Card)

type subscription struct {
	id uint64
	fn Subscriber
}

// Bus is a synchronous publish/subscribe registry. It is constructed once at
// wiring time and passed to whichever components need it; there is no
// package-level instance. Safe for concurrent use.
type Bus struct {
	mu   sync.Mutex
	next uint64
	subs []subscription
	log  *slog.Logger
}

// New constructs an empty bus. The logger records panicking subscribers.
func New(log *slog.Logger) *Bus {
	return &Bus{log: log}
}

// Subscribe registers fn and returns an unsubscribe function. The returned
// function deregisters exactly once and is safe to call multiple times.
// Callbacks are invoked in registration order.
func (b *Bus) Subscribe(fn Subscriber) func() {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers c to every currently registered subscriber, synchronously
// and in registration order. The subscriber list is copied before iterating
// so callbacks may subscribe or unsubscribe during delivery. A panicking
// subscriber does not prevent delivery to the remaining ones.
func (b *Bus) Publish(c card.Card) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(s, c.Clone())
	}
}

func (b *Bus) deliver(s subscription, c card.Card) {
	defer func() {
		if rec := recover(); rec != nil && b.log != nil {
			b.log.Error("subscriber panic", "card_id", c.ID, "err", rec)
		}
	}()
	s.fn(c)
}
