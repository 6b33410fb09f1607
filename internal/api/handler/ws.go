package handler

import (
	"errors"
	"log"
	"net/http"

	"datelink/backend/internal/chathub"
	"datelink/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket authenticates the handshake and upgrades to a realtime
// session. Authentication happens exactly once, here, before any event is
// accepted: a request that fails token resolution never registers presence.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		// Browser websocket clients cannot set headers on the handshake.
		token = c.Query("token")
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token missing"})
		return
	}

	user, err := h.Storage.GetUserByToken(token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	banned, err := h.Storage.IsUserBanned(user.ID)
	if err != nil {
		log.Printf("Ban check failed for %s: %v", user.ID, err)
	}
	if banned {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account suspended"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
		return
	}

	client := chathub.NewWebSocketClient(user.ID, user.Username, conn, h.Hub)

	h.Hub.RegisterCh <- client
	client.Run()
}
