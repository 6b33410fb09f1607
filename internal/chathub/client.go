package chathub

import "datelink/backend/internal/models"

// Client is the interface for a live, authenticated realtime session.
// It abstracts the underlying transport so the hub can manage any kind of
// connection uniformly; the only implementation today is WebSocketClient.
type Client interface {
	// GetUserID returns the identifier of the user bound to this session.
	GetUserID() string
	// GetUsername returns the display name resolved during authentication.
	GetUsername() string

	// GetSendChannel returns the channel the hub writes outbound events to.
	// It is a send-only channel; the session's write pump drains it.
	GetSendChannel() chan<- models.Event

	// Run starts the session's read and write pumps.
	Run()
	// Close shuts the session down and releases its send channel.
	Close()
}
