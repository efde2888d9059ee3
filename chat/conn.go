package chat

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 10 * time.Second
	maxFrameSize = 4096
	sendBuffer   = 256

	reconnectBase = 500 * time.Millisecond
	reconnectMax  = 30 * time.Second
)

// connHandlers are the hooks a Conn reports through. All three are invoked
// from the Conn's own goroutines (never from Open or Close), so a caller
// may hold its own locks around Open/Close/Emit.
type connHandlers struct {
	onFrame func(raw []byte)
	onOpen  func()
	onClose func()
}

// Conn owns the websocket handle and its lifecycle: dialing, the read and
// write pumps, ping/pong keepalive, and reconnection with exponential
// backoff. Exactly one Conn exists per session; nothing else touches the
// transport.
type Conn struct {
	url      string
	header   http.Header
	logger   *log.Logger
	handlers connHandlers

	connected atomic.Bool

	mu      sync.Mutex
	ws      *websocket.Conn
	send    chan []byte
	opened  bool
	dialing bool
	closed  bool
}

func newConn(url string, header http.Header, logger *log.Logger, h connHandlers) *Conn {
	return &Conn{
		url:      url,
		header:   header,
		logger:   logger,
		handlers: h,
	}
}

// IsConnected is the live connectivity signal, flipped on transport
// open/close.
func (c *Conn) IsConnected() bool {
	return c.connected.Load()
}

// Open dials the server and starts the pumps. Opening an already-open Conn
// is a no-op, so a duplicate connect never produces a duplicate transport.
func (c *Conn) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.opened || c.dialing {
		c.mu.Unlock()
		return nil
	}
	c.dialing = true
	c.closed = false
	c.mu.Unlock()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, c.header)

	c.mu.Lock()
	c.dialing = false
	if c.closed {
		c.mu.Unlock()
		if ws != nil {
			ws.Close()
		}
		return ErrNotConnected
	}
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrConnectionFailed, c.url, err)
	}
	c.start(ws)
	return nil
}

// Close shuts the transport down and cancels any pending reconnect. The
// Conn can be reopened later with Open.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.opened = false
	ws := c.ws
	send := c.send
	c.ws = nil
	c.send = nil
	if send != nil {
		close(send)
	}
	c.mu.Unlock()

	c.connected.Store(false)
	if ws != nil {
		ws.Close()
	}
}

// Emit encodes the event and queues it for the write pump.
func (c *Conn) Emit(event EventType, payload any) error {
	frame, err := MarshalEvent(event, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.send == nil || !c.connected.Load() {
		return ErrNotConnected
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Conn) start(ws *websocket.Conn) {
	send := make(chan []byte, sendBuffer)

	c.mu.Lock()
	if c.closed || c.opened {
		c.mu.Unlock()
		ws.Close()
		return
	}
	c.ws = ws
	c.send = send
	c.opened = true
	c.mu.Unlock()
	c.connected.Store(true)

	go c.writePump(ws, send)
	go c.readPump(ws)
}

func (c *Conn) readPump(ws *websocket.Conn) {
	if c.handlers.onOpen != nil {
		c.handlers.onOpen()
	}

	defer func() {
		ws.Close()
		c.connected.Store(false)

		c.mu.Lock()
		closed := c.closed
		c.opened = false
		if c.ws == ws {
			c.ws = nil
		}
		c.mu.Unlock()

		if c.handlers.onClose != nil {
			c.handlers.onClose()
		}
		if !closed {
			go c.reconnect()
		}
	}()

	ws.SetReadLimit(maxFrameSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Printf("[CONN] Unexpected close: %v", err)
			}
			return
		}
		if c.handlers.onFrame != nil {
			c.handlers.onFrame(frame)
		}
	}
}

func (c *Conn) writePump(ws *websocket.Conn, send chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case frame, ok := <-send:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reconnect redials with exponential backoff until the dial succeeds or
// Close is called. The server resends authoritative snapshots after a
// rejoin, so the session resets its stores in the onOpen hook.
func (c *Conn) reconnect() {
	backoff := reconnectBase
	for {
		time.Sleep(backoff)

		c.mu.Lock()
		if c.closed || c.opened || c.dialing {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		c.logger.Printf("[CONN] Reconnecting to %s...", c.url)
		ws, _, err := websocket.DefaultDialer.Dial(c.url, c.header)
		if err == nil {
			c.start(ws)
			return
		}

		c.logger.Printf("[CONN] Reconnect failed: %v", err)
		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}
