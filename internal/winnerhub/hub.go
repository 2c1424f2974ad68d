package winnerhub

import (
	"sync"

	"github.com/nantokaworks/spinwheel/internal/shared/logger"
	"github.com/nantokaworks/spinwheel/internal/types"
	"go.uber.org/zap"
)

const subscriberBuffer = 16

// Subscriber is one live observer connection. Records arrive on C in
// publish order; C is closed when the subscriber is removed.
type Subscriber struct {
	C <-chan types.WinnerRecord

	send chan types.WinnerRecord
}

// Hub fans the latest winner out to all subscribed observers. Publishing
// never blocks: a subscriber whose buffer is full is dropped instead.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*Subscriber]struct{}
	latest      *types.WinnerRecord
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[*Subscriber]struct{})}
}

// Subscribe registers a new observer. The latest known winner, if any,
// is delivered first, then every record published while connected.
func (h *Hub) Subscribe() *Subscriber {
	send := make(chan types.WinnerRecord, subscriberBuffer)
	sub := &Subscriber{C: send, send: send}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	if h.latest != nil {
		send <- *h.latest
	}
	count := len(h.subscribers)
	h.mu.Unlock()

	logger.Debug("Winner subscriber connected", zap.Int("total_subscribers", count))
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call after the
// hub already dropped the subscriber.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *Subscriber) {
	if _, ok := h.subscribers[sub]; !ok {
		return
	}
	delete(h.subscribers, sub)
	close(sub.send)
}

// Publish records the new latest winner and fans it out. Subscribers that
// cannot keep up are dropped rather than blocking the publisher.
func (h *Hub) Publish(record types.WinnerRecord) {
	h.mu.Lock()
	h.latest = &record

	var dropped int
	for sub := range h.subscribers {
		select {
		case sub.send <- record:
		default:
			h.removeLocked(sub)
			dropped++
		}
	}
	remaining := len(h.subscribers)
	h.mu.Unlock()

	if dropped > 0 {
		logger.Warn("Dropped slow winner subscribers",
			zap.Int("dropped", dropped),
			zap.Int("remaining", remaining))
	}
}

// Latest returns the most recently published record, or nil.
func (h *Hub) Latest() *types.WinnerRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest == nil {
		return nil
	}
	copied := *h.latest
	return &copied
}

// SubscriberCount returns the number of connected observers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
