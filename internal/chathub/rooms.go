package chathub

// Rooms tracks which users have joined which named broadcast group.
// Like Presence it is process-local, owned by the hub's Run goroutine, and
// makes no ordering guarantee across rooms.
type Rooms struct {
	members map[string]map[string]struct{}
}

// NewRooms returns an empty tracker.
func NewRooms() *Rooms {
	return &Rooms{members: make(map[string]map[string]struct{})}
}

// Join adds the user to the room, creating the room if needed. Idempotent.
func (r *Rooms) Join(room, userID string) {
	set, ok := r.members[room]
	if !ok {
		set = make(map[string]struct{})
		r.members[room] = set
	}
	set[userID] = struct{}{}
}

// Leave removes the user from the room. Leaving a room the user is not in is
// a no-op. Empty rooms are pruned.
func (r *Rooms) Leave(room, userID string) {
	set, ok := r.members[room]
	if !ok {
		return
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(r.members, room)
	}
}

// DropUser removes the user from every room. Called on disconnect.
func (r *Rooms) DropUser(userID string) {
	for room, set := range r.members {
		delete(set, userID)
		if len(set) == 0 {
			delete(r.members, room)
		}
	}
}

// Contains reports whether the user is currently in the room.
func (r *Rooms) Contains(room, userID string) bool {
	set, ok := r.members[room]
	if !ok {
		return false
	}
	_, in := set[userID]
	return in
}

// Members returns the ids of the users currently in the room.
func (r *Rooms) Members(room string) []string {
	set := r.members[room]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}
