package chat

import (
	"encoding/json"
	"fmt"
)

type EventType string

// The closed set of wire events. DecodeInbound rejects anything else.
const (
	EventJoin           EventType = "join"
	EventMessage        EventType = "message"
	EventPrivateMessage EventType = "private_message"
	EventTyping         EventType = "typing"
	EventReaction       EventType = "reaction"
	EventMessageSeen    EventType = "message_seen"
	EventUserList       EventType = "user_list"
	EventUserJoined     EventType = "user_joined"
	EventUserLeft       EventType = "user_left"
)

// Envelope is the frame every event travels in, both directions.
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound payloads (client -> server).

type JoinPayload struct {
	Username string `json:"username"`
}

type SendPayload struct {
	Body string `json:"body"`
}

type PrivateSendPayload struct {
	RecipientID string `json:"recipientId"`
	Body        string `json:"body"`
}

type TypingPayload struct {
	IsTyping bool `json:"isTyping"`
}

type ReactionPayload struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type SeenPayload struct {
	MessageID string `json:"messageId"`
}

// MarshalEvent encodes payload inside an Envelope.
func MarshalEvent(event EventType, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return json.Marshal(&Envelope{Event: event, Data: data})
}

// InboundEvent is the tagged union of everything the server can push.
// Dispatching is a single type switch in the session, so the taxonomy
// stays exhaustive and checkable.
type InboundEvent interface {
	inbound()
}

// MessageEvent carries a new public or private message. Private is derived
// from the envelope's event name, not from the payload.
type MessageEvent struct {
	ID          string `json:"id"`
	Sender      string `json:"sender"`
	Body        string `json:"body"`
	System      bool   `json:"system,omitempty"`
	RecipientID string `json:"recipientId,omitempty"`
	Private     bool   `json:"-"`
}

// UserListEvent is a full presence snapshot; it replaces the set wholesale.
type UserListEvent struct {
	Users []User `json:"users"`
}

type UserJoinedEvent struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type UserLeftEvent struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type TypingEvent struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type ReactionEvent struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type SeenEvent struct {
	MessageID string `json:"messageId"`
	Viewer    string `json:"viewer"`
}

func (*MessageEvent) inbound()    {}
func (*UserListEvent) inbound()   {}
func (*UserJoinedEvent) inbound() {}
func (*UserLeftEvent) inbound()   {}
func (*TypingEvent) inbound()     {}
func (*ReactionEvent) inbound()   {}
func (*SeenEvent) inbound()       {}

// DecodeInbound parses a raw frame into its typed variant.
func DecodeInbound(raw []byte) (InboundEvent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var ev InboundEvent
	switch env.Event {
	case EventMessage:
		ev = &MessageEvent{}
	case EventPrivateMessage:
		ev = &MessageEvent{Private: true}
	case EventUserList:
		ev = &UserListEvent{}
	case EventUserJoined:
		ev = &UserJoinedEvent{}
	case EventUserLeft:
		ev = &UserLeftEvent{}
	case EventTyping:
		ev = &TypingEvent{}
	case EventReaction:
		ev = &ReactionEvent{}
	case EventMessageSeen:
		ev = &SeenEvent{}
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}

	if err := json.Unmarshal(env.Data, ev); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Event, err)
	}
	return ev, nil
}
