package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// connWrapper serializes writes to the underlying websocket connection.
type connWrapper struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

func newConnWrapper(c *websocket.Conn) *connWrapper {
	return &connWrapper{conn: c}
}

func (w *connWrapper) WriteJSON(v any) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *connWrapper) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}

// Client pumps messages between one websocket connection and its session.
// Outbound messages go through a buffered channel so room broadcasts never
// block on a slow connection.
type Client struct {
	ID string

	conn    *connWrapper
	outbox  chan any
	closing sync.Once
	logger  *zap.SugaredLogger
}

func NewClient(conn *websocket.Conn, id string, sendBuffer int, logger *zap.SugaredLogger) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}

	return &Client{
		ID:     id,
		conn:   newConnWrapper(conn),
		outbox: make(chan any, sendBuffer),
		logger: logger,
	}
}

// Send queues msg for delivery without blocking. It reports false when the
// outbox is full and the message was dropped, or the client is closing.
func (c *Client) Send(msg any) bool {
	defer func() {
		// Losing the race against closeOutbox is tolerated: presence and
		// broadcasts are best-effort.
		_ = recover()
	}()

	select {
	case c.outbox <- msg:
		return true
	default:
		return false
	}
}

// ReadMessage is the inbound pump: it feeds every frame to the session and
// closes the session when the transport drops.
func (c *Client) ReadMessage(session *Session) {
	defer func() {
		session.Close()
		c.closeOutbox()
		_ = c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warnw("ws read error", "conn", c.ID, "err", err)
			}
			return
		}

		session.Handle(raw)
	}
}

// WriteMessage is the outbound pump; it exits when the outbox is closed.
func (c *Client) WriteMessage() {
	defer func() {
		_ = c.conn.Close()
	}()

	for msg := range c.outbox {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Warnw("ws write error", "conn", c.ID, "err", err)
			return
		}
	}
}

func (c *Client) closeOutbox() {
	c.closing.Do(func() { close(c.outbox) })
}

// SetMaxMessageBytes caps inbound frame size.
func (c *Client) SetMaxMessageBytes(limit int64) {
	if limit > 0 {
		c.conn.conn.SetReadLimit(limit)
	}
}
