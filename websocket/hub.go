// Package websocket pushes realtime events to connected clients over
// room-scoped subscriptions. With Redis configured, events fan out across
// instances through a pub/sub channel.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/structs"
)

// envelope is the message exchanged over the Redis bridge.
type envelope struct {
	Room  string                 `json:"room"`
	Event *structs.RealtimeEvent `json:"event"`
}

// Hub tracks connected clients and their room subscriptions.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}

	rc      *redis.Client
	channel string
	logger  *logger.Logger

	done chan struct{}
}

// NewHub creates a hub. rc may be nil, in which case events stay
// in-process.
func NewHub(rc *redis.Client, channel string, log *logger.Logger) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		rc:      rc,
		channel: channel,
		logger:  log,
		done:    make(chan struct{}),
	}
}

// Run subscribes to the Redis bridge until the context is cancelled. It is
// a no-op without Redis.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.rc == nil {
		<-ctx.Done()
		return
	}

	sub := h.rc.Subscribe(ctx, h.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn(ctx, "dropping malformed realtime message", "error", err)
				continue
			}
			h.broadcast(env.Room, env.Event)
		}
	}
}

// Publish implements service.Publisher. With Redis, the event goes through
// the bridge so every instance delivers it; without, it is delivered
// directly.
func (h *Hub) Publish(room string, event *structs.RealtimeEvent) {
	if h.rc != nil {
		payload, err := json.Marshal(envelope{Room: room, Event: event})
		if err != nil {
			h.logger.Error(context.Background(), "failed to marshal realtime event", "error", err)
			return
		}
		if err := h.rc.Publish(context.Background(), h.channel, payload).Err(); err != nil {
			h.logger.Warn(context.Background(), "failed to publish realtime event, delivering locally", "error", err)
			h.broadcast(room, event)
		}
		return
	}
	h.broadcast(room, event)
}

// broadcast delivers an event to the local subscribers of a room.
func (h *Hub) broadcast(room string, event *structs.RealtimeEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error(context.Background(), "failed to marshal realtime event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[room] {
		client.enqueue(payload)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	close(c.send)
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
