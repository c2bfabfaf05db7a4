// Package registry owns the authoritative in-memory state of every active
// room: who is in it and what is drawn on it. No other component holds a
// direct reference to a room record; all access goes through the Registry so
// there is a single point of serialization.
package registry

import (
	"sync"

	"github.com/stelliform/sketchsphere/internal/domain"
)

type room struct {
	users    []domain.User // ordered by join time
	elements []domain.Element
	elemIdx  map[string]int // element id -> index into elements
}

type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func New() *Registry {
	return &Registry{
		rooms: make(map[string]*room),
	}
}

// AddUser registers a session in a room, creating the room lazily on first
// join. Re-adding a session that is already present is a no-op.
func (r *Registry) AddUser(roomID string, u domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		rm = &room{elemIdx: make(map[string]int)}
		r.rooms[roomID] = rm
	}

	for _, existing := range rm.users {
		if existing.SessionID == u.SessionID {
			return
		}
	}
	rm.users = append(rm.users, u)
}

// RemoveUser removes the session from every room it belongs to. Rooms that
// reach zero users are destroyed. It returns the affected rooms that still
// exist (their presence needs rebroadcasting) and the rooms that were
// destroyed.
func (r *Registry) RemoveUser(sessionID string) (affected, destroyed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID, rm := range r.rooms {
		if !rm.removeUser(sessionID) {
			continue
		}
		if len(rm.users) == 0 {
			delete(r.rooms, roomID)
			destroyed = append(destroyed, roomID)
		} else {
			affected = append(affected, roomID)
		}
	}
	return affected, destroyed
}

// RemoveUserFrom removes the session from a single room. It reports whether
// the session was a member and whether the room still exists afterwards.
func (r *Registry) RemoveUserFrom(roomID, sessionID string) (removed, survives bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return false, false
	}
	if !rm.removeUser(sessionID) {
		return false, true
	}
	if len(rm.users) == 0 {
		delete(r.rooms, roomID)
		return true, false
	}
	return true, true
}

func (rm *room) removeUser(sessionID string) bool {
	for i, u := range rm.users {
		if u.SessionID == sessionID {
			rm.users = append(rm.users[:i], rm.users[i+1:]...)
			return true
		}
	}
	return false
}

// AddElement appends an element to the room's sequence. Unknown rooms are a
// no-op. An element reusing an existing id replaces it in place, preserving
// id uniqueness within the room.
func (r *Registry) AddElement(roomID string, el domain.Element) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return
	}

	el = el.Canonicalize()
	if i, exists := rm.elemIdx[el.ID]; exists {
		rm.elements[i] = el
		return
	}
	rm.elemIdx[el.ID] = len(rm.elements)
	rm.elements = append(rm.elements, el)
}

// AppendPoint appends one point to an in-progress stroke. This is the hot
// path while drawing: the element is located through the id index, never by
// scanning the sequence. Unknown rooms or elements are a no-op.
func (r *Registry) AppendPoint(roomID, elementID string, p domain.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return
	}
	i, ok := rm.elemIdx[elementID]
	if !ok {
		return
	}
	rm.elements[i].Points = append(rm.elements[i].Points, p)
}

// UpdateElement applies a patch per the element mutation rules: shallow merge
// for same-kind patches, full canonical replacement for kind changes. Unknown
// rooms or elements are a no-op.
func (r *Registry) UpdateElement(roomID, elementID string, p domain.Patch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return
	}
	i, ok := rm.elemIdx[elementID]
	if !ok {
		return
	}
	rm.elements[i] = domain.ApplyPatch(rm.elements[i], p)
}

// ClearElements resets the room's element sequence. Users are unaffected.
func (r *Registry) ClearElements(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return
	}
	rm.elements = nil
	rm.elemIdx = make(map[string]int)
}

// GetUsers returns a copy of the room's user list in join order. Callers can
// hold on to the snapshot; it never mutates underneath them.
func (r *Registry) GetUsers(roomID string) []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return []domain.User{}
	}
	out := make([]domain.User, len(rm.users))
	copy(out, rm.users)
	return out
}

// GetElements returns a deep copy of the room's element sequence.
func (r *Registry) GetElements(roomID string) []domain.Element {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return []domain.Element{}
	}
	out := make([]domain.Element, len(rm.elements))
	for i, el := range rm.elements {
		out[i] = el.Clone()
	}
	return out
}

// HasRoom reports whether a room currently exists.
func (r *Registry) HasRoom(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[roomID]
	return ok
}
