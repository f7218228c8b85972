package service

import (
	"sync"

	"gearledger/domain"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
)

// subscriberQueueSize bounds the per-subscriber event queue. A subscriber
// that falls this far behind is evicted rather than back-pressuring the
// publisher.
const subscriberQueueSize = 16

// Hub fans push-plane events out to SSE subscribers. Each subscriber owns a
// bounded queue; delivery is best-effort with no backlog: an event published
// with zero subscribers is simply gone, and a full queue evicts its
// subscriber. Per-subscriber ordering is FIFO; there is no ordering guarantee
// across subscribers.
type Hub struct {
	logger log.Logger

	mu   sync.Mutex
	subs map[uuid.UUID]chan domain.Event
}

// NewHub creates an empty hub.
func NewHub(logger log.Logger) *Hub {
	return &Hub{
		logger: log.WithPrefix(logger, "component", "hub"),
		subs:   make(map[uuid.UUID]chan domain.Event),
	}
}

// Subscribe registers a new subscriber queue and returns its id and receive
// side. The caller must Unsubscribe when the connection goes away.
func (h *Hub) Subscribe() (uuid.UUID, <-chan domain.Event) {
	id := uuid.New()
	ch := make(chan domain.Event, subscriberQueueSize)

	h.mu.Lock()
	h.subs[id] = ch
	count := len(h.subs)
	h.mu.Unlock()

	level.Debug(h.logger).Log("msg", "subscriber registered", "id", id, "subscribers", count)
	return id, ch
}

// Unsubscribe removes the subscriber and closes its queue. Safe to call for
// an already-evicted id.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()

	if ok {
		close(ch)
		level.Debug(h.logger).Log("msg", "subscriber removed", "id", id)
	}
}

// Publish enqueues the event on every subscriber queue without blocking.
// Subscribers whose queue is full are evicted. The sends happen under the
// mutex: they cannot block, and holding it means a concurrent Unsubscribe
// cannot close a queue between lookup and send.
func (h *Hub) Publish(evt domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- evt:
		default:
			delete(h.subs, id)
			close(ch)
			level.Info(h.logger).Log("msg", "evicting slow subscriber", "id", id, "event", evt.Type)
		}
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
