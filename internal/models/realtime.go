package models

import "time"

// Realtime event names carried over the websocket channel.
const (
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSendMessage = "send_message"

	EventRoomJoined  = "room_joined"
	EventRoomLeft    = "room_left"
	EventNewMessage  = "new_message"
	EventMessageSent = "message_sent"
	EventNewUser     = "new_user"
)

// RoomNewUsers receives a broadcast whenever someone registers.
const RoomNewUsers = "new_users"

// Event is the single frame shape used in both directions on the websocket.
// Which fields are set depends on Event; unset fields are omitted on the wire.
type Event struct {
	Event string `json:"event"`

	// Room operations.
	Room string `json:"room,omitempty"`

	// Message envelope. ID is the client-side message identifier and is
	// echoed back verbatim in the message_sent acknowledgment.
	ID          string `json:"id,omitempty"`
	SenderID    string `json:"senderId,omitempty"`
	ReceiverID  string `json:"receiverId,omitempty"`
	Content     string `json:"content,omitempty"`
	MessageType string `json:"messageType,omitempty"`

	// Acknowledgments. Success is a pointer so that data frames, which carry
	// no ack, omit it instead of reporting false.
	Success   *bool      `json:"success,omitempty"`
	MessageID string     `json:"messageId,omitempty"`
	Error     string     `json:"error,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`

	// new_user broadcast payload.
	User *PublicProfile `json:"user,omitempty"`
}

// Ack builds an acknowledgment frame for the given event name.
func Ack(event string, ok bool, errMsg string) Event {
	return Event{Event: event, Success: &ok, Error: errMsg}
}
