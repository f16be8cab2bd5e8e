package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/yclau/chemladder/internal/game"
)

// dialTestConn returns a connected server/client WebSocket pair backed by an
// in-process test server.
func dialTestConn(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()

	serverConns := make(chan *websocket.Conn, 1)
	done := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
		<-done
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(done) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, _, err := websocket.Dial(ctx, srv.URL, nil)
	if err != nil {
		t.Fatalf("Failed to dial test server: %v", err)
	}
	t.Cleanup(func() { _ = client.CloseNow() })

	server := <-serverConns
	return server, client
}

func readEvent(t *testing.T, conn *websocket.Conn) game.Event {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, payload, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}

	var ev game.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("Failed to decode event: %v", err)
	}
	return ev
}

func TestNotifyDeliversToAllTabs(t *testing.T) {
	hub := NewHub()

	server1, client1 := dialTestConn(t)
	server2, client2 := dialTestConn(t)
	hub.Register("user-1", "tab-1", server1)
	hub.Register("user-1", "tab-2", server2)

	hub.Notify("user-1", game.Event{Type: game.EventClock, SessionID: "session-1"})

	for _, client := range []*websocket.Conn{client1, client2} {
		ev := readEvent(t, client)
		if ev.Type != game.EventClock {
			t.Errorf("Expected clock event, got %s", ev.Type)
		}
		if ev.SessionID != "session-1" {
			t.Errorf("Expected session-1, got %s", ev.SessionID)
		}
	}
}

func TestNotifyDoesNotCrossUsers(t *testing.T) {
	hub := NewHub()

	server1, client1 := dialTestConn(t)
	server2, client2 := dialTestConn(t)
	hub.Register("user-1", "tab-1", server1)
	hub.Register("user-2", "tab-1", server2)

	hub.Notify("user-1", game.Event{Type: game.EventState, SessionID: "session-1"})

	if ev := readEvent(t, client1); ev.Type != game.EventState {
		t.Errorf("Expected state event for user-1, got %s", ev.Type)
	}

	// The other user must see nothing.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, _, err := client2.Read(ctx); err == nil {
		t.Error("Expected no delivery to another user's connection")
	}
}

func TestNotifyWithoutConnectionsIsNoOp(t *testing.T) {
	hub := NewHub()
	hub.Notify("user-1", game.Event{Type: game.EventState, SessionID: "session-1"})
}

func TestRegisterReplacesSameTab(t *testing.T) {
	hub := NewHub()

	server1, client1 := dialTestConn(t)
	server2, client2 := dialTestConn(t)
	hub.Register("user-1", "tab-1", server1)
	hub.Register("user-1", "tab-1", server2)

	// The replaced connection is closed.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, _, err := client1.Read(ctx); err == nil {
		t.Error("Expected the replaced connection to be closed")
	}

	hub.Notify("user-1", game.Event{Type: game.EventSettled, SessionID: "session-1"})
	if ev := readEvent(t, client2); ev.Type != game.EventSettled {
		t.Errorf("Expected settled event on the live connection, got %s", ev.Type)
	}
}

func TestUnregisterIgnoresStaleConn(t *testing.T) {
	hub := NewHub()

	server1, client1 := dialTestConn(t)
	server2, _ := dialTestConn(t)
	hub.Register("user-1", "tab-1", server1)

	// An unregister for a connection that never replaced the live one must
	// leave the live one in place.
	hub.Unregister("user-1", "tab-1", server2)

	hub.Notify("user-1", game.Event{Type: game.EventState, SessionID: "session-1"})
	if ev := readEvent(t, client1); ev.Type != game.EventState {
		t.Errorf("Expected delivery to survive a stale unregister, got %s", ev.Type)
	}
}

func TestUnregisterRemovesConn(t *testing.T) {
	hub := NewHub()

	server1, client1 := dialTestConn(t)
	hub.Register("user-1", "tab-1", server1)
	hub.Unregister("user-1", "tab-1", server1)

	hub.Notify("user-1", game.Event{Type: game.EventState, SessionID: "session-1"})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, _, err := client1.Read(ctx); err == nil {
		t.Error("Expected no delivery after unregister")
	}
}

func TestCloseAllTerminatesConnections(t *testing.T) {
	hub := NewHub()

	server1, client1 := dialTestConn(t)
	server2, client2 := dialTestConn(t)
	hub.Register("user-1", "tab-1", server1)
	hub.Register("user-1", "tab-2", server2)

	hub.CloseAll("user-1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, _, err := client1.Read(ctx); err == nil {
		t.Error("Expected tab-1 connection to be closed")
	}
	if _, _, err := client2.Read(ctx); err == nil {
		t.Error("Expected tab-2 connection to be closed")
	}
}
