package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ncobase/taskflow/middleware"
	"github.com/ncobase/taskflow/structs"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin clients are expected; the bearer token gates access.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades an authenticated request to a websocket connection.
// The client is auto-joined to its private user room.
func Handler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.logger.Warn(c.Request.Context(), "websocket upgrade failed", "error", err)
			return
		}

		client := newClient(hub, conn, userID)
		hub.register(client)
		hub.join(client, structs.UserRoom(userID))

		go client.writePump()
		go client.readPump(c.Request.Context())
	}
}
