// Package devserver is an in-process reference server speaking the chat
// wire protocol. It exists for development and integration tests; it is
// not the production server, which lives outside this repo.
package devserver

import (
	"encoding/json"
	"log"

	"chatsync/chat"

	"github.com/google/uuid"
)

type frame struct {
	client *client
	env    chat.Envelope
}

// Hub owns every connected client and routes their frames. All state is
// confined to the Run goroutine; pumps only talk to it through channels.
type Hub struct {
	clients    map[string]*client
	register   chan *client
	unregister chan *client
	inbound    chan frame
	quit       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
		inbound:    make(chan frame, 256),
		quit:       make(chan struct{}),
	}
}

// Shutdown stops the run loop and closes every connection.
func (h *Hub) Shutdown() {
	close(h.quit)
}

func (h *Hub) Run() {
	log.Println("[HUB] Main loop started. Listening for events...")
	for {
		select {
		case <-h.quit:
			log.Println("[HUB] Quit signal received. Shutting down all client connections...")
			for _, c := range h.clients {
				delete(h.clients, c.id)
				c.close()
			}
			return

		case c := <-h.register:
			h.clients[c.id] = c
			log.Printf("[HUB] Connection %s registered. Total active: %d", c.id, len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c.id]; !ok {
				break
			}
			delete(h.clients, c.id)
			c.close()
			log.Printf("[HUB] Connection %s unregistered. Total active: %d", c.id, len(h.clients))
			if c.username != "" {
				h.broadcast(chat.EventUserLeft, &chat.UserLeftEvent{ID: c.id, Username: c.username}, "")
				h.systemMessage(c.username + " left the chat")
			}

		case f := <-h.inbound:
			h.handle(f.client, f.env)
		}
	}
}

// handle routes one inbound frame. Unknown events are dropped; clients
// cannot crash the hub.
func (h *Hub) handle(c *client, env chat.Envelope) {
	switch env.Event {
	case chat.EventJoin:
		var p chat.JoinPayload
		if json.Unmarshal(env.Data, &p) != nil || p.Username == "" {
			return
		}
		c.username = p.Username
		log.Printf("[HUB] %s joined as %q", c.id, c.username)
		c.sendEvent(chat.EventUserList, &chat.UserListEvent{Users: h.userList()})
		h.broadcast(chat.EventUserJoined, &chat.UserJoinedEvent{ID: c.id, Username: c.username}, c.id)
		h.systemMessage(c.username + " joined the chat")

	case chat.EventMessage:
		var p chat.SendPayload
		if json.Unmarshal(env.Data, &p) != nil || c.username == "" {
			return
		}
		h.broadcast(chat.EventMessage, &chat.MessageEvent{
			ID:     uuid.NewString(),
			Sender: c.username,
			Body:   p.Body,
		}, "")

	case chat.EventPrivateMessage:
		var p chat.PrivateSendPayload
		if json.Unmarshal(env.Data, &p) != nil || c.username == "" {
			return
		}
		msg := &chat.MessageEvent{
			ID:          uuid.NewString(),
			Sender:      c.username,
			Body:        p.Body,
			RecipientID: p.RecipientID,
		}
		// Echo to the sender; deliver to the recipient if online.
		c.sendEvent(chat.EventPrivateMessage, msg)
		if target, ok := h.clients[p.RecipientID]; ok && target.id != c.id {
			target.sendEvent(chat.EventPrivateMessage, msg)
		} else if !ok {
			log.Printf("[HUB] Private message failed: recipient %s offline", p.RecipientID)
		}

	case chat.EventTyping:
		var p chat.TypingPayload
		if json.Unmarshal(env.Data, &p) != nil || c.username == "" {
			return
		}
		h.broadcast(chat.EventTyping, &chat.TypingEvent{
			Username: c.username,
			IsTyping: p.IsTyping,
		}, c.id)

	case chat.EventReaction:
		var p chat.ReactionPayload
		if json.Unmarshal(env.Data, &p) != nil || c.username == "" {
			return
		}
		h.broadcast(chat.EventReaction, &chat.ReactionEvent{
			MessageID: p.MessageID,
			Emoji:     p.Emoji,
		}, "")

	case chat.EventMessageSeen:
		var p chat.SeenPayload
		if json.Unmarshal(env.Data, &p) != nil || c.username == "" {
			return
		}
		h.broadcast(chat.EventMessageSeen, &chat.SeenEvent{
			MessageID: p.MessageID,
			Viewer:    c.username,
		}, "")

	default:
		log.Printf("[HUB] Dropping unknown event %q from %s", env.Event, c.id)
	}
}

func (h *Hub) userList() []chat.User {
	users := make([]chat.User, 0, len(h.clients))
	for _, c := range h.clients {
		if c.username == "" {
			continue
		}
		users = append(users, chat.User{ID: c.id, Username: c.username})
	}
	return users
}

// broadcast fans an event out to every joined client except the one with
// id skip.
func (h *Hub) broadcast(event chat.EventType, payload any, skip string) {
	raw, err := chat.MarshalEvent(event, payload)
	if err != nil {
		log.Printf("[HUB] Marshal %s failed: %v", event, err)
		return
	}
	for _, c := range h.clients {
		if c.id == skip || c.username == "" {
			continue
		}
		select {
		case c.send <- raw:
		default:
			log.Printf("[HUB] WARNING: Connection %s buffer full. Evicting slow consumer.", c.id)
			go func(c *client) { h.unregister <- c }(c)
		}
	}
}

func (h *Hub) systemMessage(body string) {
	h.broadcast(chat.EventMessage, &chat.MessageEvent{
		ID:     uuid.NewString(),
		Body:   body,
		System: true,
	}, "")
}
