package events

import (
	"sync"
	"time"
)

// DefaultHistoryLimit bounds how many events a MemoryBus retains.
const DefaultHistoryLimit = 4096

// EventBus provides publish/subscribe for run events.
type EventBus interface {
	Publish(event Event)
	Subscribe(filter ...EventType) <-chan Event
	Unsubscribe(ch <-chan Event)
	History(since time.Time) []Event
}

type subscriber struct {
	ch     chan Event
	filter map[EventType]bool // empty means all events
}

// MemoryBus is an in-memory implementation of EventBus. Slow subscribers
// lose events instead of blocking the runner.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers []subscriber
	history     []Event
	limit       int
	seq         uint64
}

// NewMemoryBus creates a new in-memory event bus keeping at most
// DefaultHistoryLimit events.
func NewMemoryBus() *MemoryBus {
	return NewMemoryBusWithLimit(DefaultHistoryLimit)
}

// NewMemoryBusWithLimit creates a bus whose history holds at most limit
// events; older ones are dropped first. A limit <= 0 means unbounded.
func NewMemoryBusWithLimit(limit int) *MemoryBus {
	return &MemoryBus{
		history: make([]Event, 0, 256),
		limit:   limit,
	}
}

func (b *MemoryBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// The lock is held through the fan-out so Unsubscribe cannot close a
	// channel mid-send. Sends never block.
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	event.Seq = b.seq
	b.history = append(b.history, event)
	if b.limit > 0 && len(b.history) > b.limit {
		b.history = append(b.history[:0:0], b.history[len(b.history)-b.limit:]...)
	}

	for _, sub := range b.subscribers {
		if len(sub.filter) > 0 && !sub.filter[event.Type] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

func (b *MemoryBus) Subscribe(filter ...EventType) <-chan Event {
	ch := make(chan Event, 64)
	sub := subscriber{ch: ch}
	if len(filter) > 0 {
		sub.filter = make(map[EventType]bool, len(filter))
		for _, f := range filter {
			sub.filter[f] = true
		}
	}

	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()

	return ch
}

func (b *MemoryBus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub.ch == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

func (b *MemoryBus) History(since time.Time) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Event
	for _, e := range b.history {
		if !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out
}

// CaseHistory returns the retained events of one suite case, in publish order.
func (b *MemoryBus) CaseHistory(suite, name string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Event
	for _, e := range b.history {
		if e.Suite == suite && e.Case == name {
			out = append(out, e)
		}
	}
	return out
}
