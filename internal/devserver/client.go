package devserver

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"chatsync/chat"
	"chatsync/internal/ratelimit"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	id       string
	username string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	limiter  *ratelimit.Limiter
	once     sync.Once
}

// Handler upgrades requests and starts the client pumps. Mount it on the
// websocket path.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[HUB] Upgrade error: %v", err)
			return
		}

		c := &client{
			id:      uuid.NewString(),
			hub:     h,
			conn:    conn,
			send:    make(chan []byte, 256),
			limiter: ratelimit.New(20, 50*time.Millisecond),
		}
		h.register <- c

		go c.writePump()
		go c.readPump()
	}
}

func (c *client) close() {
	c.once.Do(func() {
		c.conn.Close()
		close(c.send)
	})
}

func (c *client) sendEvent(event chat.EventType, payload any) {
	raw, err := chat.MarshalEvent(event, payload)
	if err != nil {
		log.Printf("[HUB] Marshal %s failed: %v", event, err)
		return
	}
	select {
	case c.send <- raw:
	default:
		log.Printf("[HUB] WARNING: Connection %s buffer full, dropping %s", c.id, event)
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[HUB] Unexpected close from %s: %v", c.id, err)
			}
			break
		}

		if !c.limiter.Allow() {
			log.Printf("[HUB] Rate limit exceeded for %s, dropping frame", c.id)
			continue
		}

		var env chat.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		c.hub.inbound <- frame{client: c, env: env}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(10 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
