package observability

import (
	"context"
	"sync"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Observer receives lifecycle events.
// Observers run synchronously on the publisher's goroutine and must not block.
type Observer interface {
	OnEvent(ctx context.Context, e domain.Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, e domain.Event)

// OnEvent calls f(ctx, e).
func (f ObserverFunc) OnEvent(ctx context.Context, e domain.Event) { f(ctx, e) }

type subscription struct {
	id       uint64
	observer Observer
}

// Bus fans events out to every subscribed observer, in subscription order.
// The engine publishes to it without knowing who listens.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers an observer and returns a function that removes it.
func (b *Bus) Subscribe(o Observer) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, observer: o})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to all observers. A nil bus is a valid no-op sink.
func (b *Bus) Publish(ctx context.Context, e domain.Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.observer.OnEvent(ctx, e)
	}
}

// Len returns the number of subscribed observers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
