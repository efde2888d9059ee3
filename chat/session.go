package chat

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// Option configures a Session at construction.
type Option func(*Session)

// WithTypingExpiry overrides how long a peer stays in the typing set
// without a follow-up event. Zero disables the expiry.
func WithTypingExpiry(d time.Duration) Option {
	return func(s *Session) { s.typingExpiry = d }
}

// WithLogger overrides the session's logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithHeader sets extra HTTP headers for the websocket handshake.
func WithHeader(h http.Header) Option {
	return func(s *Session) { s.header = h }
}

// Session is the single entry and exit point between the wire and the
// stores: presentation code issues commands through it, and every inbound
// event is decoded and dispatched through it. No component mutates
// another's state directly.
//
// One mutex serializes inbound dispatch, commands, and typing-expiry
// callbacks, so every mutation runs to completion before the next event is
// processed. Inbound events keep transport order because a single read
// pump decodes and dispatches them one at a time.
type Session struct {
	logger       *log.Logger
	header       http.Header
	typingExpiry time.Duration
	conn         transport

	mu         sync.Mutex
	username   string
	joined     bool
	store      *MessageStore
	presence   *PresenceTracker
	typing     *TypingIndicator
	typingSent bool
	seenSent   map[string]struct{}
	onUpdate   func()
}

// transport is what the session needs from its connection manager.
type transport interface {
	Open(ctx context.Context) error
	Close()
	Emit(event EventType, payload any) error
	IsConnected() bool
}

// New builds a session for the given websocket URL. Nothing is dialed
// until Connect.
func New(url string, opts ...Option) *Session {
	s := &Session{
		logger:       log.New(os.Stderr, "", log.LstdFlags),
		typingExpiry: DefaultTypingExpiry,
		store:        NewMessageStore(),
		presence:     NewPresenceTracker(),
		seenSent:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.typing = NewTypingIndicator(s.typingExpiry, s.expireTyping)
	s.conn = newConn(url, s.header, s.logger, connHandlers{
		onFrame: s.handleFrame,
		onOpen:  s.handleOpen,
		onClose: s.handleClose,
	})
	return s
}

// OnUpdate registers the render trigger: fn is invoked after every state
// mutation (message append, presence or typing change, connectivity flip).
// The snapshot accessors are safe to call from inside fn.
func (s *Session) OnUpdate(fn func()) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

// Connect joins the chat as username. The username must be non-empty after
// trimming. Calling Connect while already connected is a no-op; no
// duplicate transport is ever opened.
func (s *Session) Connect(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}

	s.mu.Lock()
	if s.joined && s.conn.IsConnected() {
		s.mu.Unlock()
		return nil
	}
	s.username = username
	s.joined = true
	s.mu.Unlock()

	if err := s.conn.Open(ctx); err != nil {
		s.mu.Lock()
		s.joined = false
		s.mu.Unlock()
		return err
	}
	return nil
}

// Disconnect tears the session down: the transport closes, typing-expiry
// timers are cancelled, and no command survives across the boundary. State
// is rebuilt from server snapshots on the next Connect.
func (s *Session) Disconnect() {
	s.conn.Close()

	s.mu.Lock()
	s.joined = false
	s.typingSent = false
	s.typing.Reset()
	s.mu.Unlock()

	s.notify()
}

// SendMessage emits a public message. The entry appears in the log only
// when the server echoes it back, so the log always reflects what the
// server actually broadcast.
func (s *Session) SendMessage(body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyBody
	}
	if !s.conn.IsConnected() {
		return ErrNotConnected
	}
	return s.conn.Emit(EventMessage, SendPayload{Body: body})
}

// SendPrivateMessage emits a message visible only to the recipient and the
// local user. Same no-local-echo rule as SendMessage.
func (s *Session) SendPrivateMessage(recipientID, body string) error {
	if recipientID == "" {
		return ErrNoRecipient
	}
	if strings.TrimSpace(body) == "" {
		return ErrEmptyBody
	}
	if !s.conn.IsConnected() {
		return ErrNotConnected
	}
	return s.conn.Emit(EventPrivateMessage, PrivateSendPayload{
		RecipientID: recipientID,
		Body:        body,
	})
}

// SetTyping reports the local user's typing state. Emission is
// edge-triggered: a frame goes out only when the requested state differs
// from the last emitted state, so redundant calls from the UI cost
// nothing on the wire.
func (s *Session) SetTyping(isTyping bool) error {
	if !s.conn.IsConnected() {
		return ErrNotConnected
	}

	s.mu.Lock()
	if s.typingSent == isTyping {
		s.mu.Unlock()
		return nil
	}
	s.typingSent = isTyping
	s.mu.Unlock()

	if err := s.conn.Emit(EventTyping, TypingPayload{IsTyping: isTyping}); err != nil {
		s.mu.Lock()
		s.typingSent = !isTyping
		s.mu.Unlock()
		return err
	}
	return nil
}

// SendReaction reacts to a message. The reaction lands in the log when the
// server broadcasts it back.
func (s *Session) SendReaction(messageID, emoji string) error {
	if messageID == "" {
		return ErrNoTarget
	}
	if emoji == "" {
		return ErrEmptyBody
	}
	if !s.conn.IsConnected() {
		return ErrNotConnected
	}
	return s.conn.Emit(EventReaction, ReactionPayload{
		MessageID: messageID,
		Emoji:     emoji,
	})
}

// MarkSeen emits a read receipt for a message. Idempotent: receipts for
// system messages, the local user's own messages, and messages already
// acknowledged this connection are swallowed.
func (s *Session) MarkSeen(messageID string) error {
	if messageID == "" {
		return ErrNoTarget
	}
	if !s.conn.IsConnected() {
		return ErrNotConnected
	}

	s.mu.Lock()
	msg, ok := s.store.Get(messageID)
	if !ok {
		s.mu.Unlock()
		return ErrUnknownMessage
	}
	if !s.shouldAcknowledge(&msg) {
		s.mu.Unlock()
		return nil
	}
	s.seenSent[messageID] = struct{}{}
	s.mu.Unlock()

	return s.conn.Emit(EventMessageSeen, SeenPayload{MessageID: messageID})
}

// IsConnected is the live connectivity signal for the presentation layer.
func (s *Session) IsConnected() bool {
	return s.conn.IsConnected()
}

// Username returns the name the session joined with.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Messages returns a copy of the ordered log.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Messages()
}

// Users returns a copy of the online set.
func (s *Session) Users() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence.Users()
}

// TypingUsers returns the peers currently flagged as typing.
func (s *Session) TypingUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing.Users()
}

// handleOpen runs on every transport open, first connect and reconnects
// alike. Local state is discarded because the server resends authoritative
// snapshots to a fresh join.
func (s *Session) handleOpen() {
	s.mu.Lock()
	s.store.Reset()
	s.presence.Reset()
	s.typing.Reset()
	s.typingSent = false
	s.seenSent = make(map[string]struct{})
	username := s.username
	s.mu.Unlock()

	s.logger.Printf("[SESSION] Connected, joining as %s", username)
	if err := s.conn.Emit(EventJoin, JoinPayload{Username: username}); err != nil {
		s.logger.Printf("[SESSION] Join emission failed: %v", err)
	}
	s.notify()
}

func (s *Session) handleClose() {
	s.logger.Println("[SESSION] Connection closed")

	s.mu.Lock()
	s.typingSent = false
	s.typing.Reset()
	s.mu.Unlock()

	s.notify()
}

// handleFrame decodes one inbound frame and dispatches it. Malformed or
// unknown frames are logged and dropped; nothing inbound is fatal.
func (s *Session) handleFrame(raw []byte) {
	ev, err := DecodeInbound(raw)
	if err != nil {
		s.logger.Printf("[SESSION] Dropping frame: %v", err)
		return
	}
	s.dispatch(ev)
}

// dispatch is the single routing table from wire events to store
// mutations.
func (s *Session) dispatch(ev InboundEvent) {
	var ack string

	s.mu.Lock()
	changed := false

	switch e := ev.(type) {
	case *MessageEvent:
		msg := Message{
			ID:          e.ID,
			Sender:      e.Sender,
			Body:        e.Body,
			System:      e.System,
			RecipientID: e.RecipientID,
		}
		if !s.store.Append(msg) {
			s.logger.Printf("[SESSION] Dropping duplicate message %s", e.ID)
			break
		}
		changed = true
		if s.shouldAcknowledge(&msg) {
			s.seenSent[msg.ID] = struct{}{}
			ack = msg.ID
		}

	case *UserListEvent:
		s.presence.SetAll(e.Users)
		changed = true

	case *UserJoinedEvent:
		changed = s.presence.Add(User{ID: e.ID, Username: e.Username})

	case *UserLeftEvent:
		changed = s.presence.Remove(e.ID)

	case *TypingEvent:
		if e.Username != s.username {
			changed = s.typing.Set(e.Username, e.IsTyping)
		}

	case *ReactionEvent:
		if err := s.store.ApplyReaction(e.MessageID, e.Emoji); err != nil {
			s.logger.Printf("[SESSION] Reaction for unknown message %s, ignoring", e.MessageID)
		} else {
			changed = true
		}

	case *SeenEvent:
		if err := s.store.ApplySeen(e.MessageID, e.Viewer); err != nil {
			s.logger.Printf("[SESSION] Receipt for unknown message %s, ignoring", e.MessageID)
		} else {
			changed = true
		}
	}
	s.mu.Unlock()

	if ack != "" {
		// Auto read-receipt: exactly one message_seen per newly appended
		// eligible message, deduplicated for the whole connection.
		if err := s.conn.Emit(EventMessageSeen, SeenPayload{MessageID: ack}); err != nil {
			s.logger.Printf("[SESSION] Seen emission failed: %v", err)
		}
	}
	if changed {
		s.notify()
	}
}

// shouldAcknowledge reports whether a message needs an automatic read
// receipt: non-system, not authored locally, not yet acknowledged this
// connection. Caller holds s.mu.
func (s *Session) shouldAcknowledge(m *Message) bool {
	if m.System || m.Sender == s.username {
		return false
	}
	_, sent := s.seenSent[m.ID]
	return !sent
}

// expireTyping is the typing-expiry hook; it runs on a timer goroutine.
func (s *Session) expireTyping(username string) {
	s.mu.Lock()
	changed := s.typing.Set(username, false)
	s.mu.Unlock()

	if changed {
		s.logger.Printf("[SESSION] Typing indicator for %s expired", username)
		s.notify()
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	fn := s.onUpdate
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}
