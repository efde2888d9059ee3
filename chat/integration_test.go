package chat_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatsync/chat"
	"chatsync/internal/devserver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

func startHub(t *testing.T) string {
	t.Helper()
	hub := devserver.NewHub()
	go hub.Run()
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(func() {
		srv.Close()
		hub.Shutdown()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func connectUser(t *testing.T, url, username string) *chat.Session {
	t.Helper()
	s := chat.New(url, chat.WithTypingExpiry(300*time.Millisecond))
	require.NoError(t, s.Connect(context.Background(), username))
	t.Cleanup(s.Disconnect)

	require.Eventually(t, func() bool {
		return s.IsConnected() && hasUser(s, username)
	}, waitFor, tick, "%s should see itself online", username)
	return s
}

func hasUser(s *chat.Session, username string) bool {
	for _, u := range s.Users() {
		if u.Username == username {
			return true
		}
	}
	return false
}

func userID(s *chat.Session, username string) string {
	for _, u := range s.Users() {
		if u.Username == username {
			return u.ID
		}
	}
	return ""
}

func findByBody(s *chat.Session, body string) (chat.Message, bool) {
	for _, m := range s.Messages() {
		if m.Body == body && !m.System {
			return m, true
		}
	}
	return chat.Message{}, false
}

func TestPublicMessageFlow(t *testing.T) {
	url := startHub(t)
	alice := connectUser(t, url, "alice")
	bob := connectUser(t, url, "bob")

	require.Eventually(t, func() bool {
		return hasUser(alice, "bob")
	}, waitFor, tick, "alice should learn about bob")

	require.NoError(t, alice.SendMessage("hello room"))

	for _, s := range []*chat.Session{alice, bob} {
		require.Eventually(t, func() bool {
			m, ok := findByBody(s, "hello room")
			return ok && m.Sender == "alice"
		}, waitFor, tick, "the echoed message should reach %s", s.Username())
	}

	// Bob's auto read-receipt lands back on alice's copy.
	require.Eventually(t, func() bool {
		m, ok := findByBody(alice, "hello room")
		return ok && m.SeenByContains("bob")
	}, waitFor, tick, "alice should see bob's receipt")
}

func TestJoinAnnouncementsAndPresence(t *testing.T) {
	url := startHub(t)
	alice := connectUser(t, url, "alice")
	bob := connectUser(t, url, "bob")

	require.Eventually(t, func() bool {
		_, ok := findByBody(alice, "bob joined the chat")
		return ok
	}, waitFor, tick)
	m, _ := findByBody(alice, "bob joined the chat")
	assert.True(t, m.System)

	bob.Disconnect()

	require.Eventually(t, func() bool {
		return !hasUser(alice, "bob")
	}, waitFor, tick, "alice should see bob leave")
}

func TestPrivateMessageRouting(t *testing.T) {
	url := startHub(t)
	alice := connectUser(t, url, "alice")
	bob := connectUser(t, url, "bob")
	carol := connectUser(t, url, "carol")

	require.Eventually(t, func() bool {
		return hasUser(alice, "bob") && hasUser(alice, "carol")
	}, waitFor, tick)

	require.NoError(t, alice.SendPrivateMessage(userID(alice, "bob"), "psst"))

	for _, s := range []*chat.Session{alice, bob} {
		require.Eventually(t, func() bool {
			m, ok := findByBody(s, "psst")
			return ok && m.RecipientID != ""
		}, waitFor, tick, "%s should hold the private message", s.Username())
	}

	// Carol has bob's public traffic by now but never the private message.
	_, leaked := findByBody(carol, "psst")
	assert.False(t, leaked, "private messages must not reach third parties")
}

func TestReactionFanOut(t *testing.T) {
	url := startHub(t)
	alice := connectUser(t, url, "alice")
	bob := connectUser(t, url, "bob")

	require.NoError(t, alice.SendMessage("react to me"))

	var id string
	require.Eventually(t, func() bool {
		m, ok := findByBody(bob, "react to me")
		if ok {
			id = m.ID
		}
		return ok
	}, waitFor, tick)

	require.NoError(t, bob.SendReaction(id, "❤️"))
	require.NoError(t, bob.SendReaction(id, "👍"))

	require.Eventually(t, func() bool {
		m, ok := findByBody(alice, "react to me")
		return ok && m.Reaction == "👍"
	}, waitFor, tick, "last reaction wins on every replica")
}

func TestTypingIndicatorPropagatesAndExpires(t *testing.T) {
	url := startHub(t)
	alice := connectUser(t, url, "alice")
	bob := connectUser(t, url, "bob")

	require.NoError(t, bob.SetTyping(true))

	require.Eventually(t, func() bool {
		users := alice.TypingUsers()
		return len(users) == 1 && users[0] == "bob"
	}, waitFor, tick, "alice should see bob typing")

	// Bob never sends the explicit stop; the expiry clears him anyway.
	require.Eventually(t, func() bool {
		return len(alice.TypingUsers()) == 0
	}, waitFor, tick, "the indicator must not stay stuck")
}

func TestReconnectAfterServerDrop(t *testing.T) {
	hub := devserver.NewHub()
	go hub.Run()
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(func() {
		srv.Close()
		hub.Shutdown()
	})
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	alice := connectUser(t, url, "alice")
	require.NoError(t, alice.SendMessage("before the drop"))
	require.Eventually(t, func() bool {
		_, ok := findByBody(alice, "before the drop")
		return ok
	}, waitFor, tick)

	srv.CloseClientConnections()

	require.Eventually(t, func() bool {
		return alice.IsConnected() && hasUser(alice, "alice")
	}, 10*time.Second, 25*time.Millisecond, "alice should reconnect and rejoin")

	// The log is scoped to the connection: the reset discarded it.
	_, stale := findByBody(alice, "before the drop")
	assert.False(t, stale, "pre-reconnect messages must not survive the reset")
}
