package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client wraps a websocket connection with a write lock and close-once
// semantics. gorilla sockets do not allow concurrent writers; broadcasts and
// the owning handler may write at the same time.
type Client struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

// WriteJSON marshals v and writes it as a single text frame.
func (c *Client) WriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// ReadJSON reads the next text frame into v. Reads are owned by a single
// goroutine (the gateway during the handshake, the handler afterwards).
func (c *Client) ReadJSON(v interface{}) error {
	return c.conn.ReadJSON(v)
}

// Close closes the underlying socket. Safe to call more than once; only the
// first call reaches the connection.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// CloseWithStatus sends a close control frame with the given code and reason,
// then closes the socket. Best effort: the control write may fail if the peer
// is already gone.
func (c *Client) CloseWithStatus(code int, reason string) error {
	c.writeMu.Lock()
	deadline := time.Now().Add(5 * time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	c.writeMu.Unlock()
	return c.Close()
}
