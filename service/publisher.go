package service

import (
	"time"

	"github.com/ncobase/taskflow/structs"
)

// Publisher pushes realtime events to room subscribers. The websocket hub
// implements it; tests use NoopPublisher.
type Publisher interface {
	Publish(room string, event *structs.RealtimeEvent)
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(string, *structs.RealtimeEvent) {}

// newEvent builds a realtime event envelope.
func newEvent(eventType string, data any) *structs.RealtimeEvent {
	return &structs.RealtimeEvent{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}
}
