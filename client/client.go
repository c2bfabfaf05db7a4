// Package client is the Go SDK for a board server. It maintains a local
// Mirror of the joined room and keeps it converged with the server: local
// operations apply optimistically and go out on the wire, remote events fold
// in as they arrive, and the client's own echoes are suppressed by origin
// session id.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/stelliform/sketchsphere/internal/domain"
	"github.com/stelliform/sketchsphere/internal/shape"
	"github.com/stelliform/sketchsphere/internal/ws"
)

type Client struct {
	conn   *websocket.Conn
	Mirror *Mirror

	mu     sync.Mutex // guards conn writes, roomID and closed
	roomID string
	closed bool

	eventHandler func(ws.Envelope)
	errorHandler func(error)
}

// Dial connects to a board server. baseURL accepts http(s) or ws(s) schemes;
// the path defaults to /ws.
func Dial(ctx context.Context, baseURL string) (*Client, error) {
	wsURL := baseURL
	if after, ok := strings.CutPrefix(baseURL, "https://"); ok {
		wsURL = "wss://" + after
	} else if after, ok := strings.CutPrefix(baseURL, "http://"); ok {
		wsURL = "ws://" + after
	}
	if !strings.HasSuffix(wsURL, "/ws") {
		wsURL += "/ws"
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to websocket: %w", err)
	}

	return &Client{
		conn:   conn,
		Mirror: NewMirror(),
	}, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// SetEventHandler registers a callback invoked for every server event, after
// the Mirror has absorbed it. Useful for chat and cursor events the Mirror
// does not track.
func (c *Client) SetEventHandler(handler func(ws.Envelope)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventHandler = handler
}

func (c *Client) SetErrorHandler(handler func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorHandler = handler
}

// Listen reads server events until the connection drops or ctx is done.
// Cancelling ctx closes the connection, which unblocks the pending read.
func (c *Client) Listen(ctx context.Context) error {
	defer c.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-stop:
		}
	}()

	for {
		var env ws.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("websocket read error: %w", err)
			}
			return err
		}

		if err := c.Mirror.Apply(env); err != nil {
			c.mu.Lock()
			handler := c.errorHandler
			c.mu.Unlock()
			if handler != nil {
				handler(err)
			}
			continue
		}

		c.mu.Lock()
		handler := c.eventHandler
		c.mu.Unlock()
		if handler != nil {
			handler(env)
		}
	}
}

// JoinRoom enters a room. Any previously joined room is left first, so the
// server stops broadcasting its events to this session, and the Mirror is
// retargeted so the incoming board-state snapshot starts clean.
func (c *Client) JoinRoom(roomID, name string) error {
	c.mu.Lock()
	prior := c.roomID
	c.roomID = roomID
	c.mu.Unlock()

	if prior != "" && prior != roomID {
		if err := c.send(&ws.WSMessage{Type: ws.LeaveRoom, RoomID: prior}); err != nil {
			return err
		}
	}
	c.Mirror.Reset(roomID)

	return c.emit(ws.JoinRoom, ws.JoinRoomPayload{
		User: domain.User{Name: name},
	})
}

func (c *Client) LeaveRoom() error {
	c.mu.Lock()
	roomID := c.roomID
	c.roomID = ""
	c.mu.Unlock()

	if roomID == "" {
		return nil
	}
	c.Mirror.Reset("")
	return c.send(&ws.WSMessage{Type: ws.LeaveRoom, RoomID: roomID})
}

// DrawStart begins a stroke. When el.ID is empty a fresh id is assigned. The
// returned id is what DrawMove appends to.
func (c *Client) DrawStart(el domain.Element) (string, error) {
	if el.ID == "" {
		el.ID = uuid.NewString()
	}
	c.Mirror.LocalDrawStart(el)
	return el.ID, c.emit(ws.DrawStart, ws.DrawStartPayload{Element: el})
}

// DrawMove extends the active stroke by one point.
func (c *Client) DrawMove(p domain.Point) error {
	elementID := c.Mirror.ActiveElementID()
	if elementID == "" {
		return fmt.Errorf("no active stroke")
	}
	c.Mirror.LocalDrawMove(p)
	return c.emit(ws.DrawMove, ws.DrawMovePayload{ElementID: elementID, Point: p})
}

func (c *Client) DrawEnd() error {
	elementID := c.Mirror.ActiveElementID()
	if elementID == "" {
		return fmt.Errorf("no active stroke")
	}
	c.Mirror.LocalDrawEnd()
	return c.emit(ws.DrawEnd, ws.DrawEndPayload{ElementID: elementID})
}

// DrawEndRecognized finishes the active stroke and runs shape classification
// over its points. When the stroke matches a canonical shape it is converted
// in place through a shape-update, so every member sees the cleaned-up
// geometry. ok reports whether a conversion happened.
func (c *Client) DrawEndRecognized() (kind domain.Kind, ok bool, err error) {
	elementID := c.Mirror.ActiveElementID()
	if elementID == "" {
		return "", false, fmt.Errorf("no active stroke")
	}
	if err := c.DrawEnd(); err != nil {
		return "", false, err
	}

	stroke, found := c.Mirror.Element(elementID)
	if !found || stroke.Type != domain.KindFreehand {
		return "", false, nil
	}
	recognized, matched := shape.Recognize(stroke.Points)
	if !matched {
		return "", false, nil
	}

	if err := c.ShapeUpdate(elementID, recognized.AsPatch()); err != nil {
		return "", false, err
	}
	return recognized.Type, true, nil
}

func (c *Client) ShapeUpdate(elementID string, patch domain.Patch) error {
	c.Mirror.LocalShapeUpdate(elementID, patch)
	return c.emit(ws.ShapeUpdate, ws.ShapeUpdatePayload{ElementID: elementID, UpdatedAttrs: patch})
}

func (c *Client) ClearBoard() error {
	c.Mirror.LocalClear()
	return c.send(&ws.WSMessage{Type: ws.ClearBoard, RoomID: c.currentRoom()})
}

func (c *Client) SendMessage(text string) error {
	return c.emit(ws.MessageSend, ws.ChatPayload{Message: text})
}

func (c *Client) CursorMove(x, y float64) error {
	return c.emit(ws.CursorMove, ws.CursorPayload{X: x, Y: y})
}

func (c *Client) CursorLeave() error {
	return c.send(&ws.WSMessage{Type: ws.CursorLeave, RoomID: c.currentRoom()})
}

// CallUser sends an opaque WebRTC offer to another session in the room.
func (c *Client) CallUser(toSessionID string, signal json.RawMessage) error {
	return c.emit(ws.CallUser, ws.SignalPayload{To: toSessionID, Signal: signal})
}

func (c *Client) AnswerCall(toSessionID string, signal json.RawMessage) error {
	return c.emit(ws.AnswerCall, ws.SignalPayload{To: toSessionID, Signal: signal})
}

func (c *Client) currentRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) emit(eventType string, data any) error {
	return c.send(&ws.WSMessage{
		Type:   eventType,
		RoomID: c.currentRoom(),
		Data:   data,
	})
}

func (c *Client) send(msg *ws.WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("websocket connection is closed")
	}
	return c.conn.WriteJSON(msg)
}

func decode(data json.RawMessage, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}
