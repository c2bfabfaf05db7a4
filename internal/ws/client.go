package ws

import (
	"github.com/gorilla/websocket"
)

// Client is one websocket connection. A connection carries exactly one
// session and may join any number of rooms over its lifetime.
type Client struct {
	conn    *connWrapper
	Message chan *WSMessage

	SessionID string
	Name      string // display name, set on first join
}

func NewClient(conn *websocket.Conn, sessionID string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		conn:      newConnWrapper(conn),
		Message:   make(chan *WSMessage, buffer), // buffered to avoid dead-locks on slow clients
		SessionID: sessionID,
	}
}

// ReadMessage pumps inbound envelopes into the core until the connection
// drops, then unregisters the session.
func (c *Client) ReadMessage(core *Core) {
	defer func() {
		core.Unregister() <- c
		_ = c.conn.Close()
	}()

	for {
		var env Envelope
		if err := c.conn.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				core.log.Warnw("ws read error", "session", c.SessionID, "error", err)
			}
			break
		}
		core.inbound <- inboundEvent{client: c, env: env}
	}
}

// WriteMessage drains the outbound buffer onto the wire.
func (c *Client) WriteMessage(core *Core) {
	defer func() {
		_ = c.conn.Close()
	}()

	for msg := range c.Message {
		if err := c.conn.WriteJSON(msg); err != nil {
			core.log.Warnw("ws write error", "session", c.SessionID, "error", err)
			break
		}
	}
}
