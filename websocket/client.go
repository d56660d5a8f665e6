package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ncobase/taskflow/structs"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
	sendBuffer     = 64
)

// clientMessage is what clients send upstream.
type clientMessage struct {
	Action string         `json:"action"` // join | leave | typing | presence
	Room   string         `json:"room,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// Client is one websocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	rooms  map[string]struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		rooms:  make(map[string]struct{}),
	}
}

// enqueue queues a payload for delivery, dropping the message if the
// client cannot keep up.
func (c *Client) enqueue(payload []byte) {
	select {
	case c.send <- payload:
	default:
	}
}

// allowedRoom restricts subscriptions to the known room namespaces. A
// user's private room only admits its owner.
func (c *Client) allowedRoom(room string) bool {
	switch {
	case strings.HasPrefix(room, "user:"):
		return room == structs.UserRoom(c.userID)
	case strings.HasPrefix(room, "task:"), strings.HasPrefix(room, "team:"), strings.HasPrefix(room, "list:"):
		return true
	default:
		return false
	}
}

// readPump consumes upstream messages until the connection drops.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.announcePresence("offline")
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug(ctx, "websocket closed unexpectedly", "user", c.userID, "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		c.handle(&msg)
	}
}

func (c *Client) handle(msg *clientMessage) {
	switch msg.Action {
	case "join":
		if c.allowedRoom(msg.Room) {
			c.hub.join(c, msg.Room)
		}
	case "leave":
		c.hub.leave(c, msg.Room)
	case "typing":
		if _, subscribed := c.rooms[msg.Room]; subscribed {
			data := msg.Data
			if data == nil {
				data = map[string]any{}
			}
			data["user"] = c.userID
			c.hub.Publish(msg.Room, &structs.RealtimeEvent{
				Type:      structs.EventCommentTyping,
				Data:      data,
				Timestamp: time.Now(),
			})
		}
	case "presence":
		status, _ := msg.Data["status"].(string)
		if status == "" {
			status = "online"
		}
		c.announcePresence(status)
	}
}

// announcePresence pushes the user's presence to every room they joined.
func (c *Client) announcePresence(status string) {
	event := &structs.RealtimeEvent{
		Type:      structs.EventUserPresence,
		Data:      map[string]any{"user": c.userID, "status": status},
		Timestamp: time.Now(),
	}
	for room := range c.rooms {
		if !strings.HasPrefix(room, "user:") {
			c.hub.Publish(room, event)
		}
	}
}

// writePump drains the send queue and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
