package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/midiplexer/internal/activity"
	"github.com/nerrad567/midiplexer/internal/infrastructure/config"
	"github.com/nerrad567/midiplexer/internal/infrastructure/logging"
	"github.com/nerrad567/midiplexer/internal/plexer"
)

func newMockClient(hub *Hub, channels ...string) *WSClient {
	c := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	hub.Register(c)
	c.subscribe(channels)
	return c
}

func receive(t *testing.T, c *WSClient) WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal %q: %v", data, err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return WSMessage{}
	}
}

func expectNothing(t *testing.T, c *WSClient) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message %s", data)
	default:
	}
}

func TestHub_BroadcastToSubscribers(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Discard())
	watcher := newMockClient(hub, ChannelActivity)
	other := newMockClient(hub, ChannelStatus)

	hub.Observe(activity.Event{Kind: activity.KindSceneActivated, Scene: "s1"})

	msg := receive(t, watcher)
	if msg.Type != WSTypeEvent || msg.EventType != ChannelActivity {
		t.Errorf("message = %+v", msg)
	}
	payload, ok := msg.Payload.(map[string]any)
	if !ok || payload["kind"] != "scene_activated" || payload["scene"] != "s1" {
		t.Errorf("payload = %v", msg.Payload)
	}
	expectNothing(t, other)

	if hub.ClientCount() != 2 {
		t.Errorf("ClientCount() = %d, want 2", hub.ClientCount())
	}
}

func TestHub_StatusReplay(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Discard())
	hub.PublishStatus(plexer.Status{Mode: plexer.Scene, ConfigPath: "r.json"})

	late := newMockClient(hub, ChannelStatus)
	msg := receive(t, late)
	payload, _ := msg.Payload.(map[string]any)
	if msg.EventType != ChannelStatus || payload["mode"] != "scene" {
		t.Errorf("replayed = %+v", msg)
	}

	// Subscribing again does not replay.
	late.subscribe([]string{ChannelStatus})
	expectNothing(t, late)

	hub.PublishStatus(plexer.Status{Mode: plexer.Trigger})
	if payload, _ := receive(t, late).Payload.(map[string]any); payload["mode"] != "trigger" {
		t.Errorf("live status = %v", payload)
	}
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Discard())
	c := newMockClient(hub, ChannelActivity)

	hub.Unregister(c)
	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
	// Sending to a departed client must not panic.
	c.trySend([]byte("x"))
	hub.Broadcast(ChannelActivity, "ignored")
}

func TestWSClient_HandleMessage(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Discard())

	tests := []struct {
		name     string
		in       string
		wantType string
	}{
		{"ping", `{"type":"ping","id":"1"}`, WSTypePong},
		{"subscribe", `{"type":"subscribe","id":"2","payload":{"channels":["activity"]}}`, WSTypeResponse},
		{"unsubscribe", `{"type":"unsubscribe","id":"3","payload":{"channels":["activity"]}}`, WSTypeResponse},
		{"bad payload", `{"type":"subscribe","id":"4","payload":{"channels":"activity"}}`, WSTypeError},
		{"unknown type", `{"type":"dance","id":"5"}`, WSTypeError},
		{"invalid json", `{`, WSTypeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newMockClient(hub)
			c.handleMessage([]byte(tt.in))
			if got := receive(t, c); got.Type != tt.wantType {
				t.Errorf("type = %q, want %q (%+v)", got.Type, tt.wantType, got)
			}
		})
	}

	c := newMockClient(hub)
	c.handleMessage([]byte(`{"type":"subscribe","payload":{"channels":["activity"," status "]}}`))
	receive(t, c)
	if !c.isSubscribed(ChannelActivity) || !c.isSubscribed(ChannelStatus) {
		t.Error("subscriptions not recorded")
	}
	c.handleMessage([]byte(`{"type":"unsubscribe","payload":{"channels":["activity"]}}`))
	receive(t, c)
	if c.isSubscribed(ChannelActivity) {
		t.Error("still subscribed to activity")
	}
}

func TestWebSocket_EndToEnd(t *testing.T) {
	env := testServer(t)
	ts := httptest.NewServer(env.srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws?channels=activity"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("handshake status = %d", resp.StatusCode)
	}
	conn.SetReadDeadline(time.Now().Add(testTimeout)) //nolint:errcheck // test deadline

	// The pong proves the query subscription is in place.
	if err := conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "p"}); err != nil {
		t.Fatal(err)
	}
	var pong WSMessage
	if err := conn.ReadJSON(&pong); err != nil || pong.Type != WSTypePong || pong.ID != "p" {
		t.Fatalf("pong = %+v, %v", pong, err)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/scenes/s1/activate", ""); w.Code != http.StatusOK {
		t.Fatalf("activate status = %d", w.Code)
	}

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		payload, _ := msg.Payload.(map[string]any)
		if msg.EventType == ChannelActivity && payload["kind"] == string(activity.KindSceneActivated) {
			if payload["scene"] != "s1" {
				t.Errorf("scene = %v, want s1", payload["scene"])
			}
			return
		}
	}
}
