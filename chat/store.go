package chat

// MessageStore is the append-only ordered log of the session. Entries are
// never reordered or removed; Reaction and SeenBy are the only fields that
// mutate in place. Not safe for concurrent use; the session serializes
// access.
type MessageStore struct {
	log  []Message
	byID map[string]int
}

func NewMessageStore() *MessageStore {
	return &MessageStore{byID: make(map[string]int)}
}

// Append adds a message to the log. Duplicate ids are dropped so that
// at-least-once delivery from the transport cannot double an entry.
// Reports whether the message was appended.
func (s *MessageStore) Append(msg Message) bool {
	if _, ok := s.byID[msg.ID]; ok {
		return false
	}
	s.byID[msg.ID] = len(s.log)
	s.log = append(s.log, msg)
	return true
}

// ApplyReaction overwrites the message's reaction, last write wins.
// System messages never take reactions.
func (s *MessageStore) ApplyReaction(id, emoji string) error {
	i, ok := s.byID[id]
	if !ok {
		return ErrUnknownMessage
	}
	if s.log[i].System {
		return nil
	}
	s.log[i].Reaction = emoji
	return nil
}

// ApplySeen adds viewer to the message's seen set. Duplicates and system
// messages are no-ops.
func (s *MessageStore) ApplySeen(id, viewer string) error {
	i, ok := s.byID[id]
	if !ok {
		return ErrUnknownMessage
	}
	m := &s.log[i]
	if m.System || m.SeenByContains(viewer) {
		return nil
	}
	m.SeenBy = append(m.SeenBy, viewer)
	return nil
}

// Get returns a copy of the message with the given id.
func (s *MessageStore) Get(id string) (Message, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Message{}, false
	}
	return s.log[i].clone(), true
}

// Messages returns a copy of the log in append order.
func (s *MessageStore) Messages() []Message {
	out := make([]Message, len(s.log))
	for i := range s.log {
		out[i] = s.log[i].clone()
	}
	return out
}

func (s *MessageStore) Len() int {
	return len(s.log)
}

// Reset discards the log. Called on (re)connect; the log is scoped to one
// connection.
func (s *MessageStore) Reset() {
	s.log = nil
	s.byID = make(map[string]int)
}
