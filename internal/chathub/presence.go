package chathub

// Presence maps a user id to their currently connected session. At most one
// session per user is tracked; registering a second one replaces the first.
//
// Presence is process-local state owned by the hub: it is only mutated from
// the hub's Run goroutine, never persisted, and discarded on restart.
type Presence struct {
	clients map[string]Client
}

// NewPresence returns an empty registry.
func NewPresence() *Presence {
	return &Presence{clients: make(map[string]Client)}
}

// Register records the session for its user and returns the session it
// replaced, if any, so the caller can close it.
func (p *Presence) Register(client Client) Client {
	prev := p.clients[client.GetUserID()]
	p.clients[client.GetUserID()] = client
	return prev
}

// Unregister removes the session, but only if it is still the one on record.
// A session that was already replaced by a newer connection must not knock
// the replacement out when its own disconnect finally arrives.
func (p *Presence) Unregister(client Client) bool {
	current, ok := p.clients[client.GetUserID()]
	if !ok || current != client {
		return false
	}
	delete(p.clients, client.GetUserID())
	return true
}

// Lookup returns the live session for the user, if one is connected.
// It never blocks and never touches persistence.
func (p *Presence) Lookup(userID string) (Client, bool) {
	client, ok := p.clients[userID]
	return client, ok
}

// Online reports whether the user currently has a session.
func (p *Presence) Online(userID string) bool {
	_, ok := p.clients[userID]
	return ok
}

// Count returns the number of connected sessions.
func (p *Presence) Count() int {
	return len(p.clients)
}
