package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"senya-web-backend/internal/security"
	"senya-web-backend/internal/server/middleware"
)

// authTimeout bounds how long a freshly accepted socket may sit unauthenticated.
const authTimeout = 10 * time.Second

var (
	errAuthFrame = errors.New("expected authenticate message")
	errAuthToken = errors.New("invalid or expired token")
)

// Handler processes messages on an authenticated socket. It owns the read
// loop and returns when the peer disconnects or the conversation is over.
type Handler func(ctx context.Context, clientID string, client *Client)

type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// TokenDecoder validates raw access tokens. Satisfied by *security.TokenProvider.
type TokenDecoder interface {
	DecodeAccess(tokenString string) (*security.Claims, error)
}

// Gateway upgrades HTTP requests to websockets and enforces the first-frame
// authentication handshake before handing the socket to a Handler. Unlike the
// HTTP middleware there is no refresh fallback here: an expired access token
// closes the socket and the client reconnects with a fresh one.
type Gateway struct {
	registry *Registry
	tokens   TokenDecoder
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewGateway returns a Gateway broadcasting through registry and validating
// tokens with tokens.
func NewGateway(registry *Registry, tokens TokenDecoder, log *zap.Logger) *Gateway {
	return &Gateway{
		registry: registry,
		tokens:   tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin is enforced by the CORS layer in front of the router.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Handle returns an http.HandlerFunc that upgrades the request, runs the
// authentication handshake and then invokes next with the verified client id.
// Whatever path the connection takes, the registry entry is removed and the
// socket closed exactly once.
func (g *Gateway) Handle(next Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := g.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the error response.
			g.log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		client := newClient(conn)
		clientID := "pending-" + uuid.New().String()
		g.registry.Connect(clientID, client)
		defer func() {
			if rec := recover(); rec != nil {
				g.log.Error("websocket handler panic",
					zap.String("client_id", clientID),
					zap.Any("panic", rec),
				)
			}
			g.registry.Disconnect(clientID, client)
		}()

		subject, err := g.authenticate(client)
		if err != nil {
			g.reject(client, err)
			return
		}

		g.registry.Promote(clientID, subject)
		clientID = subject
		g.log.Debug("websocket authenticated", zap.String("client_id", clientID))

		ctx := middleware.WithUserID(r.Context(), subject)
		next(ctx, clientID, client)
	}
}

// authenticate reads the first frame and validates it as an access token.
func (g *Gateway) authenticate(client *Client) (string, error) {
	_ = client.conn.SetReadDeadline(time.Now().Add(authTimeout))
	defer func() { _ = client.conn.SetReadDeadline(time.Time{}) }()

	var msg authMessage
	if err := client.ReadJSON(&msg); err != nil {
		return "", errAuthFrame
	}
	if msg.Type != "authenticate" || msg.Token == "" {
		return "", errAuthFrame
	}
	claims, err := g.tokens.DecodeAccess(msg.Token)
	if err != nil {
		return "", errAuthToken
	}
	return claims.Subject, nil
}

func (g *Gateway) reject(client *Client, reason error) {
	frame := errorFrame{Type: "error", Message: reason.Error()}
	if err := client.WriteJSON(frame); err != nil {
		g.log.Debug("write of auth error frame failed", zap.Error(err))
	}
	_ = client.CloseWithStatus(websocket.ClosePolicyViolation, reason.Error())
}
