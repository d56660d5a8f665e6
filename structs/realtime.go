package structs

import "time"

// Realtime event types pushed over the websocket.
const (
	EventTaskCreated         = "task:created"
	EventTaskUpdated         = "task:updated"
	EventTaskDeleted         = "task:deleted"
	EventCommentCreated      = "comment:created"
	EventCommentUpdated      = "comment:updated"
	EventCommentDeleted      = "comment:deleted"
	EventReactionUpdated     = "reaction:updated"
	EventNotificationCreated = "notification:created"
	EventTeamUpdated         = "team:updated"
	EventListUpdated         = "list:updated"
	EventActivityCreated     = "activity:created"
	EventCommentTyping       = "comment:typing"
	EventUserPresence        = "user:presence"
)

// RealtimeEvent is the wire envelope for every pushed event.
type RealtimeEvent struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Room name helpers. Clients join rooms to scope the events they receive.

// UserRoom returns the private room of a user.
func UserRoom(userID string) string { return "user:" + userID }

// TaskRoom returns the room for a task's watchers.
func TaskRoom(taskID string) string { return "task:" + taskID }

// TeamRoom returns the room for a team.
func TeamRoom(teamID string) string { return "team:" + teamID }

// ListRoom returns the room for a shared list.
func ListRoom(listID string) string { return "list:" + listID }
