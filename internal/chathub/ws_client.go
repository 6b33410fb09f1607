package chathub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"datelink/backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// WebSocketClient implements the Client interface over a gorilla/websocket
// connection. The user identity is resolved before the upgrade (see the ws
// handler); by the time a client exists it is authenticated.
type WebSocketClient struct {
	UserID   string
	Username string
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan models.Event

	closeOnce sync.Once
	done      chan struct{}
}

// NewWebSocketClient wraps an upgraded connection in a session.
func NewWebSocketClient(userID, username string, conn *websocket.Conn, hub *Hub) *WebSocketClient {
	return &WebSocketClient{
		UserID:   userID,
		Username: username,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan models.Event, sendBufferSize),
		done:     make(chan struct{}),
	}
}

func (c *WebSocketClient) GetUserID() string                   { return c.UserID }
func (c *WebSocketClient) GetUsername() string                 { return c.Username }
func (c *WebSocketClient) GetSendChannel() chan<- models.Event { return c.Send }

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close signals the session to shut down and closes the connection, which
// stops both pumps. The Send channel itself is never closed: the old session's
// read pump, or a hub event already in flight, may still push a frame after a
// replacement closed the session, and such a send has to be a no-op rather
// than a panic.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Conn.Close()
	})
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.UnregisterCh <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			break
		}

		var ev models.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			log.Printf("Error decoding frame from %s: %v", c.UserID, err)
			continue
		}

		c.dispatch(ev)
	}
}

// dispatch routes one inbound frame. Validation failures are acknowledged on
// this session; nothing reaches the hub until the frame is well-formed.
func (c *WebSocketClient) dispatch(ev models.Event) {
	switch ev.Event {
	case models.EventJoinRoom:
		if ev.Room == "" {
			c.ack(models.EventRoomJoined, "room name required")
			return
		}
		c.Hub.JoinRoom(c, ev.Room)

	case models.EventLeaveRoom:
		if ev.Room == "" {
			c.ack(models.EventRoomLeft, "room name required")
			return
		}
		c.Hub.LeaveRoom(c, ev.Room)

	case models.EventSendMessage:
		if ev.ReceiverID == "" {
			c.ack(models.EventMessageSent, "receiverId required")
			return
		}
		ev.SenderID = c.UserID
		c.Hub.Deliver(ev)

	default:
		log.Printf("Unknown event %q from %s", ev.Event, c.UserID)
	}
}

func (c *WebSocketClient) ack(event, errMsg string) {
	select {
	case c.Send <- models.Ack(event, false, errMsg):
	default:
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case ev := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("Error encoding frame for %s: %v", c.UserID, err)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
