package handler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"senya-web-backend/internal/ws"
)

// CollabHandler runs the message loop for collaborative note editing
// sessions. Clients join a per-note room and push full-content updates that
// are fanned out to everyone else in the room.
type CollabHandler struct {
	registry *ws.Registry
	log      *zap.Logger
}

// NewCollabHandler returns a CollabHandler broadcasting through registry.
func NewCollabHandler(registry *ws.Registry, log *zap.Logger) *CollabHandler {
	return &CollabHandler{registry: registry, log: log}
}

type collabMessage struct {
	Type    string      `json:"type"`
	Room    string      `json:"room"`
	Content interface{} `json:"content,omitempty"`
}

type statusFrame struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Timestamp string `json:"timestamp"`
}

type updateFrame struct {
	Type      string      `json:"type"`
	Room      string      `json:"room"`
	ClientID  string      `json:"client_id"`
	Content   interface{} `json:"content"`
	Timestamp string      `json:"timestamp"`
}

type collabError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Serve is the ws.Handler for an authenticated collaboration socket. It
// returns when the peer disconnects; rooms the client joined are notified on
// the way out.
func (h *CollabHandler) Serve(ctx context.Context, clientID string, client *ws.Client) {
	joined := make(map[string]bool)
	defer func() { h.teardown(clientID, client, joined) }()

	for {
		var msg collabMessage
		if err := client.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "join":
			if msg.Room == "" {
				h.sendError(client, "join requires a room")
				continue
			}
			h.registry.JoinRoom(msg.Room, clientID)
			joined[msg.Room] = true
			h.registry.BroadcastToRoom(msg.Room, statusFrame{
				Type:      "connection_status",
				Status:    "connected",
				ClientID:  clientID,
				Timestamp: timestamp(),
			}, clientID)

		case "leave":
			if !joined[msg.Room] {
				continue
			}
			delete(joined, msg.Room)
			h.registry.LeaveRoom(msg.Room, clientID)
			h.registry.BroadcastToRoom(msg.Room, statusFrame{
				Type:      "connection_status",
				Status:    "disconnected",
				ClientID:  clientID,
				Timestamp: timestamp(),
			}, clientID)

		case "note_update":
			if !joined[msg.Room] {
				h.sendError(client, "join the room before publishing updates")
				continue
			}
			h.registry.BroadcastToRoom(msg.Room, updateFrame{
				Type:      "note_update",
				Room:      msg.Room,
				ClientID:  clientID,
				Content:   msg.Content,
				Timestamp: timestamp(),
			}, clientID)

		default:
			h.log.Debug("unhandled websocket message type",
				zap.String("client_id", clientID),
				zap.String("type", msg.Type),
			)
			h.sendError(client, "unknown message type")
		}
	}
}

// teardown drops the connection's room memberships and notifies each room.
// Skipped when the registry holds a newer socket for the client: an evicted
// connection draining out must not strip the live connection's rooms or
// announce a disconnect that did not happen.
func (h *CollabHandler) teardown(clientID string, client ws.Conn, joined map[string]bool) {
	if !h.registry.IsCurrent(clientID, client) {
		return
	}
	now := timestamp()
	for room := range joined {
		h.registry.LeaveRoom(room, clientID)
		h.registry.BroadcastToRoom(room, statusFrame{
			Type:      "connection_status",
			Status:    "disconnected",
			ClientID:  clientID,
			Timestamp: now,
		}, clientID)
	}
}

func (h *CollabHandler) sendError(client *ws.Client, message string) {
	if err := client.WriteJSON(collabError{Type: "error", Message: message}); err != nil {
		h.log.Debug("write of collab error frame failed", zap.Error(err))
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
