package bus

import (
	"strings"
	"sync"
)

// Bus is an in-process publish/subscribe event bus with namespace filtering.
// The last event published under each kind is retained so that replay
// subscribers immediately see the most recent value, not a full backlog.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscription
	last map[string]Event
	next int
}

type subscription struct {
	namespace string
	ch        chan Event
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		subs: make(map[int]*subscription),
		last: make(map[string]Event),
	}
}

// Publish sends an event to all subscribers whose namespace is a prefix of event.Kind.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	b.last[evt.Kind] = evt
	b.mu.Unlock()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if strings.HasPrefix(evt.Kind, sub.namespace) {
			select {
			case sub.ch <- evt:
			default:
				// Drop event if subscriber is full (non-blocking).
			}
		}
	}
}

// Subscribe returns a channel that receives events matching the given namespace prefix.
// bufSize controls the channel buffer. Returns the channel and an unsubscribe function.
func (b *Bus) Subscribe(namespace string, bufSize int) (<-chan Event, func()) {
	return b.subscribe(namespace, bufSize, false)
}

// SubscribeReplay is Subscribe plus replay of the most recent matching event:
// a late subscriber immediately receives the newest event already published
// under the namespace, then live events as usual.
func (b *Bus) SubscribeReplay(namespace string, bufSize int) (<-chan Event, func()) {
	return b.subscribe(namespace, bufSize, true)
}

func (b *Bus) subscribe(namespace string, bufSize int, replay bool) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	if replay {
		if evt, ok := b.newestFor(namespace); ok {
			select {
			case ch <- evt:
			default:
			}
		}
	}
	id := b.next
	b.next++
	b.subs[id] = &subscription{namespace: namespace, ch: ch}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Forget drops retained events under the namespace. Used when the publisher
// that produced them is disposed, so its last value is not replayed into an
// unrelated successor.
func (b *Bus) Forget(namespace string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for kind := range b.last {
		if strings.HasPrefix(kind, namespace) {
			delete(b.last, kind)
		}
	}
}

// newestFor returns the most recently published retained event whose kind
// matches the namespace. Caller must hold the lock.
func (b *Bus) newestFor(namespace string) (Event, bool) {
	var newest Event
	found := false
	for kind, evt := range b.last {
		if !strings.HasPrefix(kind, namespace) {
			continue
		}
		if !found || evt.Timestamp.After(newest.Timestamp) {
			newest = evt
			found = true
		}
	}
	return newest, found
}
