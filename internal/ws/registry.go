// Package ws provides the WebSocket connection registry and the
// authentication gateway wrapped around every socket handler.
package ws

import (
	"sync"

	"go.uber.org/zap"
)

// Conn is the minimal socket surface the registry needs. *Client implements
// it; tests substitute fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Registry is the single authoritative map of live client↔socket bindings
// with room-scoped broadcast. At most one live socket per client id; a second
// connect for the same id closes the prior socket (last-connection-wins).
// All mutations are mutex-guarded.
type Registry struct {
	mu    sync.Mutex
	conns map[string]Conn
	rooms map[string]map[string]bool

	log *zap.Logger
}

// NewRegistry returns an empty Registry.
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		conns: make(map[string]Conn),
		rooms: make(map[string]map[string]bool),
		log:   log,
	}
}

// Connect registers conn under clientID. An existing socket for the same
// client is closed first and its registration replaced.
func (r *Registry) Connect(clientID string, conn Conn) {
	r.mu.Lock()
	old := r.conns[clientID]
	r.conns[clientID] = conn
	r.mu.Unlock()

	if old != nil && old != conn {
		r.log.Debug("evicting prior connection", zap.String("client_id", clientID))
		if err := old.Close(); err != nil {
			r.log.Debug("close of evicted connection", zap.String("client_id", clientID), zap.Error(err))
		}
	}
}

// Promote re-registers the socket held under tempID as clientID. Used by the
// gateway to swap the pre-auth placeholder for the verified identity. Any
// prior socket for clientID is closed first.
func (r *Registry) Promote(tempID, clientID string) {
	r.mu.Lock()
	conn, ok := r.conns[tempID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, tempID)
	old := r.conns[clientID]
	r.conns[clientID] = conn
	r.mu.Unlock()

	if old != nil && old != conn {
		r.log.Debug("evicting prior connection", zap.String("client_id", clientID))
		if err := old.Close(); err != nil {
			r.log.Debug("close of evicted connection", zap.String("client_id", clientID), zap.Error(err))
		}
	}
}

// Disconnect removes clientID's registration and room memberships, but only
// if conn is still the registered socket: a disconnect racing a newer connect
// for the same client must not tear down the newer socket. Idempotent;
// closing an already-closed socket is tolerated and logged.
func (r *Registry) Disconnect(clientID string, conn Conn) {
	r.mu.Lock()
	current, ok := r.conns[clientID]
	if !ok || current != conn {
		r.mu.Unlock()
		return
	}
	delete(r.conns, clientID)
	for roomID, members := range r.rooms {
		delete(members, clientID)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
	r.mu.Unlock()

	if err := conn.Close(); err != nil {
		r.log.Debug("close on disconnect", zap.String("client_id", clientID), zap.Error(err))
	}
}

// JoinRoom adds clientID to the room, creating it if needed. No-op if the
// client has no live socket.
func (r *Registry) JoinRoom(roomID, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[clientID]; !ok {
		return
	}
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]bool)
		r.rooms[roomID] = members
	}
	members[clientID] = true
}

// LeaveRoom removes clientID from the room; empty rooms are dropped.
func (r *Registry) LeaveRoom(roomID, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, clientID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// BroadcastToRoom sends message to every member of the room except
// excludeClient. Sends are independent: a failure for one recipient is
// logged and does not abort delivery to the others.
func (r *Registry) BroadcastToRoom(roomID string, message interface{}, excludeClient string) {
	r.mu.Lock()
	targets := make(map[string]Conn)
	for clientID := range r.rooms[roomID] {
		if clientID == excludeClient {
			continue
		}
		if conn, ok := r.conns[clientID]; ok {
			targets[clientID] = conn
		}
	}
	r.mu.Unlock()

	for clientID, conn := range targets {
		if err := conn.WriteJSON(message); err != nil {
			r.log.Debug("broadcast send failed",
				zap.String("room_id", roomID),
				zap.String("client_id", clientID),
				zap.Error(err),
			)
		}
	}
}

// IsCurrent reports whether conn is still the registered socket for
// clientID. Handler exit paths use it to skip room teardown when a newer
// connection for the same client has taken over.
func (r *Registry) IsCurrent(clientID string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[clientID] == conn
}

// Get returns the live socket for clientID, or nil.
func (r *Registry) Get(clientID string) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[clientID]
}

// ClientCount returns the number of live registrations.
func (r *Registry) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// RoomMembers returns a snapshot of the room's member ids.
func (r *Registry) RoomMembers(roomID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.rooms[roomID]))
	for clientID := range r.rooms[roomID] {
		out = append(out, clientID)
	}
	return out
}
