// Package realtime pushes events to connected websocket clients grouped into rooms.
package realtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/schedulo/internal/events"
	"github.com/spec-kit/schedulo/internal/observability"
)

const sendBuffer = 16

// Conn is the subset of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Message is the frame delivered to clients.
type Message struct {
	Event     events.EventType `json:"event"`
	Data      interface{}      `json:"data"`
	Timestamp time.Time        `json:"timestamp"`
}

// Client is one registered socket.
type Client struct {
	conn   Conn
	rooms  []string
	send   chan Message
	done   chan struct{}
	closer sync.Once
}

// Hub tracks clients by room. A client whose buffer is full is dropped.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		logger:  logger,
		metrics: metrics,
	}
}

// Register adds conn to rooms and starts its writer.
func (h *Hub) Register(conn Conn, rooms ...string) *Client {
	client := &Client{
		conn:  conn,
		rooms: rooms,
		send:  make(chan Message, sendBuffer),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	for _, room := range rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[room] = members
		}
		members[client] = struct{}{}
	}
	h.mu.Unlock()

	h.metrics.RealtimeConnected(1)
	go h.writeLoop(client)
	return client
}

// Unregister removes the client from every room and closes its socket. Safe to call twice.
func (h *Hub) Unregister(client *Client) {
	client.closer.Do(func() {
		h.mu.Lock()
		for _, room := range client.rooms {
			if members, ok := h.rooms[room]; ok {
				delete(members, client)
				if len(members) == 0 {
					delete(h.rooms, room)
				}
			}
		}
		h.mu.Unlock()

		close(client.done)
		_ = client.conn.Close()
		h.metrics.RealtimeConnected(-1)
	})
}

// Done is closed once the client has been unregistered.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// RoomSize reports how many clients are in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast queues msg for every client in any of rooms. A client in several of the rooms
// receives it once. It returns the number of clients the message was queued for.
func (h *Hub) Broadcast(msg Message, rooms ...string) int {
	h.mu.RLock()
	targets := make(map[*Client]struct{})
	for _, room := range rooms {
		for client := range h.rooms[room] {
			targets[client] = struct{}{}
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for client := range targets {
		select {
		case <-client.done:
			continue
		default:
		}
		select {
		case client.send <- msg:
			delivered++
		default:
			h.logger.Warn("dropping slow realtime client", zap.Strings("rooms", client.rooms))
			go h.Unregister(client)
		}
	}
	return delivered
}

// HandleEvent relays a dispatcher event to its rooms. It satisfies events.EventHandler.
func (h *Hub) HandleEvent(_ context.Context, event events.Event) error {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	n := h.Broadcast(Message{Event: event.Type, Data: event.Payload, Timestamp: ts}, event.Rooms...)
	h.logger.Debug("event relayed",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int("clients", n))
	return nil
}

func (h *Hub) writeLoop(client *Client) {
	for {
		select {
		case <-client.done:
			return
		case msg := <-client.send:
			if err := client.conn.WriteJSON(msg); err != nil {
				h.logger.Debug("realtime write failed", zap.Error(err))
				h.Unregister(client)
				return
			}
		}
	}
}
