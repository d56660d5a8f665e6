package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/structs"
)

func testHub() *Hub {
	return NewHub(nil, "realtime:test", logger.StdLogger())
}

func TestHubRoomDelivery(t *testing.T) {
	hub := testHub()

	alice := newClient(hub, nil, "alice")
	bob := newClient(hub, nil, "bob")
	hub.register(alice)
	hub.register(bob)
	hub.join(alice, structs.TaskRoom("t1"))
	hub.join(bob, structs.TaskRoom("t1"))
	hub.join(bob, structs.TaskRoom("t2"))

	event := &structs.RealtimeEvent{
		Type:      structs.EventTaskUpdated,
		Data:      map[string]any{"id": "t1"},
		Timestamp: time.Now(),
	}
	hub.Publish(structs.TaskRoom("t1"), event)

	for _, c := range []*Client{alice, bob} {
		select {
		case payload := <-c.send:
			var got structs.RealtimeEvent
			require.NoError(t, json.Unmarshal(payload, &got))
			assert.Equal(t, structs.EventTaskUpdated, got.Type)
		default:
			t.Fatalf("client %s received nothing", c.userID)
		}
	}

	hub.Publish(structs.TaskRoom("t2"), event)
	assert.Empty(t, alice.send, "alice is not subscribed to t2")
	assert.Len(t, bob.send, 1)
}

func TestHubUnregisterLeavesRooms(t *testing.T) {
	hub := testHub()

	c := newClient(hub, nil, "alice")
	hub.register(c)
	hub.join(c, structs.TeamRoom("team1"))
	require.Equal(t, 1, hub.ClientCount())

	hub.unregister(c)
	assert.Equal(t, 0, hub.ClientCount())

	_, ok := <-c.send
	assert.False(t, ok, "send channel is closed")

	// publishing to the abandoned room must not panic
	hub.Publish(structs.TeamRoom("team1"), &structs.RealtimeEvent{Type: structs.EventTeamUpdated})
}

func TestHubDropsWhenClientIsSlow(t *testing.T) {
	hub := testHub()

	c := newClient(hub, nil, "alice")
	hub.register(c)
	hub.join(c, structs.ListRoom("l1"))

	event := &structs.RealtimeEvent{Type: structs.EventListUpdated}
	for i := 0; i < sendBuffer+10; i++ {
		hub.Publish(structs.ListRoom("l1"), event)
	}
	assert.Len(t, c.send, sendBuffer, "overflow is dropped, not blocked on")
}

func TestAllowedRoom(t *testing.T) {
	c := newClient(testHub(), nil, "alice")

	assert.True(t, c.allowedRoom(structs.UserRoom("alice")))
	assert.False(t, c.allowedRoom(structs.UserRoom("bob")), "foreign user rooms are off limits")
	assert.True(t, c.allowedRoom(structs.TaskRoom("t1")))
	assert.True(t, c.allowedRoom(structs.TeamRoom("team1")))
	assert.True(t, c.allowedRoom(structs.ListRoom("l1")))
	assert.False(t, c.allowedRoom("admin:all"))
	assert.False(t, c.allowedRoom(""))
}

func TestHandleJoinAndTyping(t *testing.T) {
	hub := testHub()
	c := newClient(hub, nil, "alice")
	hub.register(c)

	c.handle(&clientMessage{Action: "join", Room: structs.UserRoom("bob")})
	assert.Empty(t, c.rooms, "unauthorized join is ignored")

	c.handle(&clientMessage{Action: "join", Room: structs.TaskRoom("t1")})
	require.Contains(t, c.rooms, structs.TaskRoom("t1"))

	watcher := newClient(hub, nil, "bob")
	hub.register(watcher)
	hub.join(watcher, structs.TaskRoom("t1"))

	c.handle(&clientMessage{Action: "typing", Room: structs.TaskRoom("t1")})
	select {
	case payload := <-watcher.send:
		var got structs.RealtimeEvent
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, structs.EventCommentTyping, got.Type)
		data, ok := got.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice", data["user"])
	default:
		t.Fatal("typing event was not delivered")
	}

	c.handle(&clientMessage{Action: "typing", Room: structs.TaskRoom("t9")})
	assert.Empty(t, watcher.send, "typing in unsubscribed rooms is ignored")
}
