package client

import (
	"sync"

	"github.com/stelliform/sketchsphere/internal/domain"
	"github.com/stelliform/sketchsphere/internal/ws"
)

// Mirror is the client-side replica of one room's board. Local operations
// are applied optimistically before they reach the server; remote events are
// applied as they arrive, except the client's own echoes, which are dropped
// by comparing the event's origin session id. Events stamped with a different
// room id than the one the mirror tracks are ignored, so broadcasts from a
// previously joined room cannot bleed into the current board.
type Mirror struct {
	mu sync.Mutex

	sessionID string
	roomID    string
	elements  []domain.Element
	index     map[string]int
	users     []domain.User

	// The element id the local in-progress stroke appends to. Cleared on
	// draw-end so a stray draw-move cannot extend a finished stroke.
	activeElementID string
}

func NewMirror() *Mirror {
	return &Mirror{index: make(map[string]int)}
}

func (m *Mirror) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Room returns the room id the mirror is currently tracking.
func (m *Mirror) Room() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomID
}

func (m *Mirror) ActiveElementID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeElementID
}

// Elements returns a snapshot copy of the board.
func (m *Mirror) Elements() []domain.Element {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Element, len(m.elements))
	for i, el := range m.elements {
		out[i] = el.Clone()
	}
	return out
}

// Element looks up one element by id.
func (m *Mirror) Element(id string) (domain.Element, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return domain.Element{}, false
	}
	return m.elements[i].Clone(), true
}

func (m *Mirror) Users() []domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.User, len(m.users))
	copy(out, m.users)
	return out
}

// Reset drops all board state and retargets the mirror at roomID, keeping the
// session id. Called on room join so the next board-state snapshot starts from
// a blank slate and stale broadcasts from the prior room are rejected.
func (m *Mirror) Reset(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roomID = roomID
	m.resetLocked()
}

func (m *Mirror) resetLocked() {
	m.elements = nil
	m.index = make(map[string]int)
	m.users = nil
	m.activeElementID = ""
}

// Local optimistic operations. Each mutates the mirror exactly the way the
// server will, so the board is already correct when the echo is suppressed.

func (m *Mirror) LocalDrawStart(el domain.Element) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el.OriginSessionID = m.sessionID
	m.upsertLocked(el.Canonicalize())
	m.activeElementID = el.ID
}

func (m *Mirror) LocalDrawMove(p domain.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendPointLocked(m.activeElementID, p)
}

func (m *Mirror) LocalDrawEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeElementID = ""
}

func (m *Mirror) LocalShapeUpdate(elementID string, patch domain.Patch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patchLocked(elementID, patch)
}

func (m *Mirror) LocalClear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elements = nil
	m.index = make(map[string]int)
	m.activeElementID = ""
}

// Apply folds a server event into the mirror. Events originated by this
// session are ignored: their effect was already applied optimistically.
// Events for a different room than the mirror tracks are ignored too.
func (m *Mirror) Apply(env ws.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if env.RoomID != "" && m.roomID != "" && env.RoomID != m.roomID {
		return nil
	}

	switch env.Type {
	case ws.Session:
		var p ws.SessionPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		m.sessionID = p.SessionID
		return nil

	case ws.BoardState:
		// Authoritative snapshot; replaces everything, echoes included.
		var p ws.BoardStatePayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		m.elements = nil
		m.index = make(map[string]int)
		for _, el := range p.Elements {
			m.upsertLocked(el)
		}
		return nil

	case ws.RoomUsers:
		var p ws.RoomUsersPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		m.users = p.Users
		return nil
	}

	if env.Origin != "" && env.Origin == m.sessionID {
		return nil
	}

	switch env.Type {
	case ws.DrawStart:
		var p ws.DrawStartPayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		m.upsertLocked(p.Element.Canonicalize())

	case ws.DrawMove:
		var p ws.DrawMovePayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		m.appendPointLocked(p.ElementID, p.Point)

	case ws.ShapeUpdate:
		var p ws.ShapeUpdatePayload
		if err := decode(env.Data, &p); err != nil {
			return err
		}
		m.patchLocked(p.ElementID, p.UpdatedAttrs)

	case ws.ClearBoard:
		m.elements = nil
		m.index = make(map[string]int)
		m.activeElementID = ""
	}

	return nil
}

func (m *Mirror) upsertLocked(el domain.Element) {
	if i, ok := m.index[el.ID]; ok {
		m.elements[i] = el
		return
	}
	m.index[el.ID] = len(m.elements)
	m.elements = append(m.elements, el)
}

func (m *Mirror) appendPointLocked(elementID string, p domain.Point) {
	i, ok := m.index[elementID]
	if !ok {
		return
	}
	m.elements[i].Points = append(m.elements[i].Points, p)
}

func (m *Mirror) patchLocked(elementID string, patch domain.Patch) {
	i, ok := m.index[elementID]
	if !ok {
		return
	}
	m.elements[i] = domain.ApplyPatch(m.elements[i], patch)
}
