package http

import (
	"context"
	"errors"
	"sync"

	"weekly-quiz-service/internal/domain"
)

var (
	// ErrNotConnected is returned when the participant has no open socket.
	ErrNotConnected = errors.New("participant not connected")
	// ErrSendBufferFull is returned when every socket of the participant is backed up.
	ErrSendBufferFull = errors.New("send buffer full")
)

const sendBuffer = 16

// client is one websocket connection. Only the owning handler closes send.
type client struct {
	participantID string
	send          chan outboundMessage[any]

	mu     sync.Mutex
	closed bool
}

func newClient(participantID string) *client {
	return &client{participantID: participantID, send: make(chan outboundMessage[any], sendBuffer)}
}

// offer queues msg without blocking.
func (c *client) offer(msg outboundMessage[any]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub tracks live connections per participant and delivers notices to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*client]struct{})}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.participantID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.participantID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.participantID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.participantID)
	}
}

// Connected returns how many participants have at least one socket.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify pushes notice to every socket of participantID. It succeeds when at
// least one socket accepted the message.
func (h *Hub) Notify(_ context.Context, participantID string, notice domain.Notice) error {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[participantID]))
	for c := range h.clients[participantID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return ErrNotConnected
	}
	delivered := false
	for _, c := range targets {
		if c.offer(outboundMessage[any]{Type: "notice", Payload: notice}) {
			delivered = true
		}
	}
	if !delivered {
		return ErrSendBufferFull
	}
	return nil
}
