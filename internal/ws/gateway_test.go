package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"senya-web-backend/internal/security"
)

func dialTest(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestGatewayHandshakeSuccess(t *testing.T) {
	tokens := security.NewTestTokenProvider()
	registry := newTestRegistry()
	gateway := NewGateway(registry, tokens, zap.NewNop())

	seen := make(chan string, 1)
	srv := httptest.NewServer(gateway.Handle(func(ctx context.Context, clientID string, client *Client) {
		seen <- clientID
		// Hold the socket open until the peer goes away.
		var msg map[string]interface{}
		for client.ReadJSON(&msg) == nil {
		}
	}))
	defer srv.Close()

	access, _, err := tokens.IssueAccess("u1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	conn := dialTest(t, srv)
	defer conn.Close()
	if err := conn.WriteJSON(map[string]string{"type": "authenticate", "token": access}); err != nil {
		t.Fatalf("write auth frame: %v", err)
	}

	select {
	case clientID := <-seen:
		if clientID != "u1" {
			t.Errorf("expected handler to see client u1, got %q", clientID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}

	if registry.Get("u1") == nil {
		t.Error("expected authenticated client in registry")
	}
}

func TestGatewayRejectsBadToken(t *testing.T) {
	tokens := security.NewTestTokenProvider()
	registry := newTestRegistry()
	gateway := NewGateway(registry, tokens, zap.NewNop())

	srv := httptest.NewServer(gateway.Handle(func(ctx context.Context, clientID string, client *Client) {
		t.Error("handler must not run for an unauthenticated socket")
	}))
	defer srv.Close()

	conn := dialTest(t, srv)
	defer conn.Close()
	if err := conn.WriteJSON(map[string]string{"type": "authenticate", "token": "garbage"}); err != nil {
		t.Fatalf("write auth frame: %v", err)
	}

	var frame errorFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if frame.Type != "error" || frame.Message == "" {
		t.Errorf("expected error frame with message, got %+v", frame)
	}

	// The next read should surface the policy-violation close.
	var discard map[string]interface{}
	err := conn.ReadJSON(&discard)
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Errorf("expected close 1008, got %v", err)
	}
}

func TestGatewayRejectsRefreshToken(t *testing.T) {
	tokens := security.NewTestTokenProvider()
	registry := newTestRegistry()
	gateway := NewGateway(registry, tokens, zap.NewNop())

	srv := httptest.NewServer(gateway.Handle(func(ctx context.Context, clientID string, client *Client) {
		t.Error("handler must not run for a refresh-token handshake")
	}))
	defer srv.Close()

	refresh, _, err := tokens.IssueRefresh("u1")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	conn := dialTest(t, srv)
	defer conn.Close()
	if err := conn.WriteJSON(map[string]string{"type": "authenticate", "token": refresh}); err != nil {
		t.Fatalf("write auth frame: %v", err)
	}

	var frame errorFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if frame.Type != "error" {
		t.Errorf("expected error frame, got %+v", frame)
	}
}

func TestGatewayRejectsWrongFirstFrame(t *testing.T) {
	tokens := security.NewTestTokenProvider()
	registry := newTestRegistry()
	gateway := NewGateway(registry, tokens, zap.NewNop())

	srv := httptest.NewServer(gateway.Handle(func(ctx context.Context, clientID string, client *Client) {
		t.Error("handler must not run before authentication")
	}))
	defer srv.Close()

	conn := dialTest(t, srv)
	defer conn.Close()
	if err := conn.WriteJSON(map[string]string{"type": "note_update", "content": "hi"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	var frame errorFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if frame.Type != "error" {
		t.Errorf("expected error frame, got %+v", frame)
	}
}

func TestGatewayLastConnectionWins(t *testing.T) {
	tokens := security.NewTestTokenProvider()
	registry := newTestRegistry()
	gateway := NewGateway(registry, tokens, zap.NewNop())

	srv := httptest.NewServer(gateway.Handle(func(ctx context.Context, clientID string, client *Client) {
		var msg map[string]interface{}
		for client.ReadJSON(&msg) == nil {
		}
	}))
	defer srv.Close()

	access, _, err := tokens.IssueAccess("u1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	first := dialTest(t, srv)
	defer first.Close()
	if err := first.WriteJSON(map[string]string{"type": "authenticate", "token": access}); err != nil {
		t.Fatalf("first auth: %v", err)
	}

	waitFor(t, func() bool { return registry.Get("u1") != nil })
	firstConn := registry.Get("u1")

	second := dialTest(t, srv)
	defer second.Close()
	if err := second.WriteJSON(map[string]string{"type": "authenticate", "token": access}); err != nil {
		t.Fatalf("second auth: %v", err)
	}

	waitFor(t, func() bool {
		conn := registry.Get("u1")
		return conn != nil && conn != firstConn
	})
	if registry.ClientCount() != 1 {
		t.Errorf("expected a single registration for the client, got %d", registry.ClientCount())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
