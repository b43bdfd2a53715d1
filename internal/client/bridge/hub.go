package bridge

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// Hub fans SYNC_DONE messages out to connected subscribers.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Message
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Message)}
}

// Subscribe returns a channel of messages and a function that detaches it.
func (h *Hub) Subscribe() (<-chan Message, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Message, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

// Broadcast delivers m to every subscriber that has room for it.
func (h *Hub) Broadcast(m Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, ch := range h.subs {
		select {
		case ch <- m:
			delivered++
		default:
		}
	}
	return delivered
}

// NotifySyncDone broadcasts the end-of-pass message.
func (h *Hub) NotifySyncDone(_ context.Context, count int) {
	h.Broadcast(Message{Type: TypeSyncDone, Count: count})
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
