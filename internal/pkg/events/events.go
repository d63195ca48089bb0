// Package events provides a small synchronous event bus. The API layer uses it
// to announce a forced logout without importing the state store, and the store
// subscribes to it at startup.
package events

import "sync"

// Event names a signal carried by the bus.
type Event string

// AuthLogout is published when the server rejects the farmer session.
const AuthLogout Event = "agromitra:auth-logout"

// Handler reacts to a published event.
type Handler func(Event)

// Bus delivers published events to the handlers subscribed to them.
// Handlers run synchronously on the publisher's goroutine.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[Event]map[int]Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: map[Event]map[int]Handler{}}
}

// Subscribe registers h for e and returns a function that removes it.
// The returned function is safe to call more than once.
func (b *Bus) Subscribe(e Event, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.handlers[e] == nil {
		b.handlers[e] = map[int]Handler{}
	}
	b.handlers[e][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[e], id)
		})
	}
}

// Publish invokes every handler subscribed to e.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[e]))
	for _, h := range b.handlers[e] {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(e)
	}
}
