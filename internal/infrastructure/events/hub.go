package events

import (
	"errors"
	"sync"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
)

// Hub fans kernel events out to in-process subscribers. Slow subscribers
// lose events instead of blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan kernel.Event
	nextID uint64
	buffer int
}

// NewHub creates a hub whose subscriber channels hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: make(map[uint64]chan kernel.Event), buffer: buffer}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan kernel.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	key := h.nextID
	ch := make(chan kernel.Event, h.buffer)
	h.subs[key] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, key)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish implements kernel.Publisher.
func (h *Hub) Publish(event kernel.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Multi publishes to every publisher and joins their errors.
type Multi []kernel.Publisher

// Publish implements kernel.Publisher.
func (m Multi) Publish(event kernel.Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
