// Package ws is the broadcast core: it owns every live connection, routes
// inbound protocol events through the room registry, and fans the resulting
// broadcasts out to room members. All room mutations funnel through a single
// Run goroutine, so join/leave and element operations are serialized per
// process and no client ever observes a half-applied operation.
package ws

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/stelliform/sketchsphere/internal/domain"
	"github.com/stelliform/sketchsphere/internal/registry"
)

type inboundEvent struct {
	client *Client
	env    Envelope
}

type Core struct {
	reg *registry.Registry
	log *zap.SugaredLogger

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent

	clients map[string]*Client            // session id -> connection
	rooms   map[string]map[string]*Client // room id -> members by session id
}

func NewCore(reg *registry.Registry, log *zap.SugaredLogger) *Core {
	return &Core{
		reg:        reg,
		log:        log,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent, 256),
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
	}
}

func (c *Core) Register() chan<- *Client   { return c.register }
func (c *Core) Unregister() chan<- *Client { return c.unregister }

func (c *Core) Run() {
	for {
		select {
		case cl := <-c.register:
			c.clients[cl.SessionID] = cl
			c.send(cl, NewSession(cl.SessionID))
			c.log.Infow("connection registered", "session", cl.SessionID)

		case cl := <-c.unregister:
			c.disconnect(cl)

		case ev := <-c.inbound:
			c.dispatch(ev.client, ev.env)
		}
	}
}

func (c *Core) dispatch(cl *Client, env Envelope) {
	switch env.Type {
	case JoinRoom:
		c.handleJoin(cl, env)
	case LeaveRoom:
		c.handleLeave(cl, env.RoomID)

	case DrawStart:
		var p DrawStartPayload
		if !c.decode(env, &p) {
			return
		}
		p.Element.OriginSessionID = cl.SessionID
		c.reg.AddElement(env.RoomID, p.Element)
		c.broadcast(env.RoomID, &WSMessage{
			Type:   DrawStart,
			RoomID: env.RoomID,
			Origin: cl.SessionID,
			Data:   DrawStartPayload{Element: p.Element},
		}, cl.SessionID)

	case DrawMove:
		var p DrawMovePayload
		if !c.decode(env, &p) {
			return
		}
		c.reg.AppendPoint(env.RoomID, p.ElementID, p.Point)
		c.broadcast(env.RoomID, relay(DrawMove, env, cl.SessionID), cl.SessionID)

	case DrawEnd:
		// No state change; the stroke is already complete in the registry.
		c.broadcast(env.RoomID, relay(DrawEnd, env, cl.SessionID), cl.SessionID)

	case ShapeUpdate:
		var p ShapeUpdatePayload
		if !c.decode(env, &p) {
			return
		}
		c.reg.UpdateElement(env.RoomID, p.ElementID, p.UpdatedAttrs)
		c.broadcast(env.RoomID, relay(ShapeUpdate, env, cl.SessionID), cl.SessionID)

	case ClearBoard:
		c.reg.ClearElements(env.RoomID)
		// Unlike drawing events this goes to every member, sender included;
		// the sender's mirror drops it through echo suppression.
		c.broadcast(env.RoomID, relay(ClearBoard, env, cl.SessionID), "")

	case CursorMove, CursorLeave:
		// Live cursor presence: relayed, never stored.
		c.broadcast(env.RoomID, relay(env.Type, env, cl.SessionID), cl.SessionID)

	case MessageSend:
		var p ChatPayload
		if !c.decode(env, &p) {
			return
		}
		p.UserID = cl.SessionID
		p.UserName = cl.Name
		p.Timestamp = time.Now().UTC().Format(time.RFC3339)
		c.broadcast(env.RoomID, NewMessageReceive(env.RoomID, cl.SessionID, p), cl.SessionID)

	case CallUser, AnswerCall:
		var p SignalPayload
		if !c.decode(env, &p) {
			return
		}
		target, ok := c.clients[p.To]
		if !ok {
			return
		}
		c.send(target, &WSMessage{
			Type: env.Type,
			Data: SignalPayload{From: cl.SessionID, Signal: p.Signal},
		})

	default:
		c.log.Debugw("unknown event dropped", "type", env.Type, "session", cl.SessionID)
	}
}

func (c *Core) handleJoin(cl *Client, env Envelope) {
	var p JoinRoomPayload
	if !c.decode(env, &p) {
		return
	}
	roomID := env.RoomID
	if roomID == "" {
		return
	}

	user := domain.NewUser(cl.SessionID, p.User.Name)
	cl.Name = p.User.Name

	c.reg.AddUser(roomID, user)
	members, ok := c.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		c.rooms[roomID] = members
	}
	members[cl.SessionID] = cl

	// Presence goes to every member, the joiner included. The full user list
	// is a recomputed projection, so client-side lists self-heal even if an
	// earlier notice was dropped.
	c.broadcast(roomID, NewUserJoined(roomID, user), "")
	c.broadcast(roomID, NewRoomUsers(roomID, c.reg.GetUsers(roomID)), "")

	// Only the joiner needs the board snapshot.
	c.send(cl, NewBoardState(roomID, c.reg.GetElements(roomID)))

	c.log.Infow("user joined room", "session", cl.SessionID, "name", user.Name, "room", roomID)
}

func (c *Core) handleLeave(cl *Client, roomID string) {
	members, ok := c.rooms[roomID]
	if !ok {
		return
	}
	delete(members, cl.SessionID)
	if len(members) == 0 {
		delete(c.rooms, roomID)
	}

	removed, survives := c.reg.RemoveUserFrom(roomID, cl.SessionID)
	if removed && survives {
		c.broadcast(roomID, NewUserLeft(roomID, cl.SessionID, cl.Name), "")
		c.broadcast(roomID, NewRoomUsers(roomID, c.reg.GetUsers(roomID)), "")
	}
	c.log.Infow("user left room", "session", cl.SessionID, "room", roomID)
}

func (c *Core) disconnect(cl *Client) {
	if _, ok := c.clients[cl.SessionID]; !ok {
		return
	}
	delete(c.clients, cl.SessionID)

	for roomID, members := range c.rooms {
		if _, ok := members[cl.SessionID]; ok {
			delete(members, cl.SessionID)
			if len(members) == 0 {
				delete(c.rooms, roomID)
			}
		}
	}

	affected, destroyed := c.reg.RemoveUser(cl.SessionID)
	for _, roomID := range affected {
		c.broadcast(roomID, NewUserLeft(roomID, cl.SessionID, cl.Name), "")
		c.broadcast(roomID, NewRoomUsers(roomID, c.reg.GetUsers(roomID)), "")
	}

	close(cl.Message)
	c.log.Infow("connection closed", "session", cl.SessionID,
		"affectedRooms", len(affected), "destroyedRooms", len(destroyed))
}

// broadcast fans a message out to a room's members, skipping the excluded
// session. The send never blocks: a client that cannot keep up loses the
// message (at-most-once, no backpressure).
func (c *Core) broadcast(roomID string, msg *WSMessage, exclude string) {
	members, ok := c.rooms[roomID]
	if !ok {
		return
	}
	for sid, cl := range members {
		if sid == exclude {
			continue
		}
		c.send(cl, msg)
	}
}

func (c *Core) send(cl *Client, msg *WSMessage) {
	select {
	case cl.Message <- msg:
	default:
		c.log.Warnw("client buffer full, dropping message", "session", cl.SessionID, "type", msg.Type)
	}
}

func (c *Core) decode(env Envelope, v any) bool {
	if err := json.Unmarshal(env.Data, v); err != nil {
		c.log.Debugw("malformed payload dropped", "type", env.Type, "error", err)
		return false
	}
	return true
}
