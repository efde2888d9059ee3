package chat

// Message is one entry in the session's ordered log. The id is
// server-assigned and immutable; only Reaction and SeenBy mutate after
// append, and only through the store.
type Message struct {
	ID          string   `json:"id"`
	Sender      string   `json:"sender,omitempty"`
	Body        string   `json:"body"`
	System      bool     `json:"system,omitempty"`
	RecipientID string   `json:"recipientId,omitempty"`
	Reaction    string   `json:"reaction,omitempty"`
	SeenBy      []string `json:"seenBy,omitempty"`
}

// SeenByContains reports whether viewer already acknowledged the message.
func (m *Message) SeenByContains(viewer string) bool {
	for _, v := range m.SeenBy {
		if v == viewer {
			return true
		}
	}
	return false
}

func (m *Message) clone() Message {
	out := *m
	if m.SeenBy != nil {
		out.SeenBy = append([]string(nil), m.SeenBy...)
	}
	return out
}

// User is one online participant. IDs are connection-scoped and unique;
// usernames are display names and may collide across ids.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
