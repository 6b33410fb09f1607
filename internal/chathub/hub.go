package chathub

import (
	"encoding/json"
	"log"
	"time"

	"datelink/backend/internal/models"
	"datelink/backend/internal/storage"
)

// OfflineNotifier is told about messages that could not be live-delivered so
// it can reach the receiver on another channel (Telegram today).
type OfflineNotifier interface {
	NotifyNewMessage(receiverID, senderID, content string)
}

// roomRequest is a join or leave command from one session.
type roomRequest struct {
	client Client
	room   string
	leave  bool
}

// Hub owns the realtime state: which users are connected and which rooms they
// joined. All of that state is mutated only inside Run, so sessions talk to
// the hub exclusively through its channels.
type Hub struct {
	Presence *Presence
	Rooms    *Rooms

	RegisterCh   chan Client
	UnregisterCh chan Client
	IncomingCh   chan models.Event
	RoomCh       chan roomRequest

	Storage  storage.Storage
	Notifier OfflineNotifier

	newUserCh chan models.PublicProfile
}

// NewHub builds a hub. Each test can own an isolated instance; nothing here
// is package-global.
func NewHub(s storage.Storage) *Hub {
	return &Hub{
		Presence:     NewPresence(),
		Rooms:        NewRooms(),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		IncomingCh:   make(chan models.Event),
		RoomCh:       make(chan roomRequest),
		Storage:      s,
		newUserCh:    make(chan models.PublicProfile),
	}
}

// SetNotifier attaches the offline notifier. Optional.
func (h *Hub) SetNotifier(n OfflineNotifier) {
	h.Notifier = n
}

// Run is the hub's dispatcher goroutine. One event is handled to completion
// before the next one runs, which is what lets Presence and Rooms stay free
// of locks.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.RegisterCh:
			if prev := h.Presence.Register(client); prev != nil {
				prev.Close()
			}
			log.Printf("Session registered for user %s", client.GetUserID())

		case client := <-h.UnregisterCh:
			if h.Presence.Unregister(client) {
				h.Rooms.DropUser(client.GetUserID())
				client.Close()
				log.Printf("Session removed for user %s", client.GetUserID())
			}

		case req := <-h.RoomCh:
			h.handleRoom(req)

		case msg := <-h.IncomingCh:
			h.fanOut(msg)

		case profile := <-h.newUserCh:
			h.broadcastNewUser(profile)
		}
	}
}

// JoinRoom asks the dispatcher to add the session to a room.
func (h *Hub) JoinRoom(client Client, room string) {
	h.RoomCh <- roomRequest{client: client, room: room}
}

// LeaveRoom asks the dispatcher to remove the session from a room.
func (h *Hub) LeaveRoom(client Client, room string) {
	h.RoomCh <- roomRequest{client: client, room: room, leave: true}
}

// Deliver hands a message envelope to the dispatcher for live fan-out.
// SenderID must already be set by the caller. The envelope is delivered at
// most once and never retried; durable delivery is the REST path's job.
func (h *Hub) Deliver(msg models.Event) {
	h.IncomingCh <- msg
}

// AnnounceNewUser feeds a registration announcement into the dispatcher,
// which forwards it to every session in the new-users room.
func (h *Hub) AnnounceNewUser(profile models.PublicProfile) {
	h.newUserCh <- profile
}

func (h *Hub) handleRoom(req roomRequest) {
	// A request from a session that was already replaced is dropped whole:
	// the user's rooms belong to the replacement now, and the stale session
	// must not be acked either.
	if current, ok := h.Presence.Lookup(req.client.GetUserID()); !ok || current != req.client {
		return
	}

	ackEvent := models.EventRoomJoined
	if req.leave {
		h.Rooms.Leave(req.room, req.client.GetUserID())
		ackEvent = models.EventRoomLeft
	} else {
		h.Rooms.Join(req.room, req.client.GetUserID())
	}

	ack := models.Ack(ackEvent, true, "")
	ack.Room = req.room
	h.send(req.client, ack)
}

// fanOut resolves the receiver's live session and delivers the envelope to
// it, then acknowledges the outcome to the sender's session. It never touches
// the messages table: persistence already happened (or will) on the REST path.
func (h *Hub) fanOut(msg models.Event) {
	now := time.Now()
	out := msg
	out.Event = models.EventNewMessage
	out.Timestamp = &now

	receiver, online := h.Presence.Lookup(msg.ReceiverID)
	if online {
		// Sender and receiver may be the same user; self-delivery is fine.
		h.send(receiver, out)
	} else if h.Notifier != nil {
		go h.Notifier.NotifyNewMessage(msg.ReceiverID, msg.SenderID, msg.Content)
	}

	sender, ok := h.Presence.Lookup(msg.SenderID)
	if !ok {
		return // REST-originated delivery with no live sender session
	}
	ack := models.Ack(models.EventMessageSent, online, "")
	if online {
		ack.MessageID = msg.ID
	} else {
		ack.Error = "receiver not connected"
	}
	h.send(sender, ack)
}

func (h *Hub) broadcastNewUser(profile models.PublicProfile) {
	ev := models.Event{Event: models.EventNewUser, User: &profile}
	for _, userID := range h.Rooms.Members(models.RoomNewUsers) {
		if client, ok := h.Presence.Lookup(userID); ok {
			h.send(client, ev)
		}
	}
}

// send pushes an event onto a session's channel without ever blocking the
// dispatcher. A session whose write pump cannot keep up loses the frame.
func (h *Hub) send(client Client, ev models.Event) {
	select {
	case client.GetSendChannel() <- ev:
	default:
		log.Printf("Dropping %s frame for slow session %s", ev.Event, client.GetUserID())
	}
}

// ListenNewUsers subscribes to the registration announcements published by
// the REST layer (possibly from another instance) and feeds them into the
// dispatcher. Run separately from Run, typically `go hub.ListenNewUsers()`.
func (h *Hub) ListenNewUsers() {
	pubsub := h.Storage.SubscribeNewUsers()
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var profile models.PublicProfile
		if err := json.Unmarshal([]byte(msg.Payload), &profile); err != nil {
			log.Printf("Error unmarshalling new-user announcement: %v", err)
			continue
		}
		h.AnnounceNewUser(profile)
	}
}
