// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/fieldpulse/internal/detection"
	"github.com/tomtom215/fieldpulse/internal/models"
)

// serveHub exposes hub on a test server and dials it.
func serveHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	upgrader := &websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, upgrader, w, r)
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return msg
}

func TestClient_PingPong(t *testing.T) {
	t.Parallel()
	hub := startHub(t)
	conn := serveHub(t, hub)

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if msg := readMessage(t, conn); msg["type"] != MessageTypePong {
		t.Errorf("reply = %v", msg)
	}
}

func TestClient_ReceivesBroadcast(t *testing.T) {
	t.Parallel()
	hub := startHub(t)
	conn := serveHub(t, hub)
	waitForClients(t, hub, 1)

	hub.BroadcastActivity(&models.ActivityEvent{EventID: "e9", Action: models.ActionPageView}, detection.Judgement{Severity: detection.SeverityInfo})

	msg := readMessage(t, conn)
	if msg["type"] != MessageTypeActivity {
		t.Fatalf("type = %v", msg["type"])
	}
	data, _ := msg["data"].(map[string]any)
	event, _ := data["event"].(map[string]any)
	if event["eventId"] != "e9" {
		t.Errorf("event = %v", event)
	}
}

func TestClient_DisconnectUnregisters(t *testing.T) {
	t.Parallel()
	hub := startHub(t)
	conn := serveHub(t, hub)
	waitForClients(t, hub, 1)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
	waitForClients(t, hub, 0)
}

func TestNewClient_IDsIncrease(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	a, b := NewClient(hub, nil), NewClient(hub, nil)
	if b.ID() <= a.ID() {
		t.Errorf("ids = %d, %d", a.ID(), b.ID())
	}
	if cap(a.send) != sendBuffer {
		t.Errorf("send buffer = %d", cap(a.send))
	}
}
