package chat

// PresenceTracker holds the set of online users, keyed by connection id.
// Full snapshots replace the set wholesale; deltas patch it. Username
// collisions across different ids are allowed and kept as-is. Not safe for
// concurrent use; the session serializes access.
type PresenceTracker struct {
	order []string
	byID  map[string]User
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{byID: make(map[string]User)}
}

// SetAll replaces the whole set with the snapshot's membership.
func (p *PresenceTracker) SetAll(users []User) {
	p.order = p.order[:0]
	p.byID = make(map[string]User, len(users))
	for _, u := range users {
		if _, ok := p.byID[u.ID]; ok {
			continue
		}
		p.byID[u.ID] = u
		p.order = append(p.order, u.ID)
	}
}

// Add upserts a user by id. Reports whether the set changed.
func (p *PresenceTracker) Add(u User) bool {
	if prev, ok := p.byID[u.ID]; ok {
		if prev == u {
			return false
		}
		p.byID[u.ID] = u
		return true
	}
	p.byID[u.ID] = u
	p.order = append(p.order, u.ID)
	return true
}

// Remove drops a user by id. Reports whether the set changed.
func (p *PresenceTracker) Remove(id string) bool {
	if _, ok := p.byID[id]; !ok {
		return false
	}
	delete(p.byID, id)
	for i, oid := range p.order {
		if oid == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the user with the given id.
func (p *PresenceTracker) Get(id string) (User, bool) {
	u, ok := p.byID[id]
	return u, ok
}

// Users returns the current set in arrival order.
func (p *PresenceTracker) Users() []User {
	out := make([]User, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.byID[id])
	}
	return out
}

func (p *PresenceTracker) Len() int {
	return len(p.order)
}

// Reset clears the set. Called on (re)connect; the server resends an
// authoritative snapshot.
func (p *PresenceTracker) Reset() {
	p.order = nil
	p.byID = make(map[string]User)
}
