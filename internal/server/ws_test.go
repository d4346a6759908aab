package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/ayusman/facetrack/internal/geometry"
	"github.com/ayusman/facetrack/internal/overlay"
)

func dialHub(t *testing.T, hub *OverlayHub) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(New(Config{Hub: hub}))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/overlay/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Clients() != 1 {
		t.Fatalf("expected 1 connected client, got %d", hub.Clients())
	}
	return conn
}

func TestOverlayHub_Broadcast(t *testing.T) {
	hub := NewOverlayHub(nil)
	conn := dialHub(t, hub)

	id := ulid.Make()
	rect := geometry.Rect{X: 10, Y: 20, Width: 30, Height: 40}
	hub.Present(overlay.Update{Visible: true, Rect: rect, Text: "has smile :true", FrameID: id})
	hub.HideFace()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var show struct {
		Type    string        `json:"type"`
		Visible bool          `json:"visible"`
		Rect    geometry.Rect `json:"rect"`
		Text    string        `json:"text"`
		FrameID string        `json:"frame_id"`
	}
	if err := conn.ReadJSON(&show); err != nil {
		t.Fatalf("read show: %v", err)
	}
	if show.Type != "show" || !show.Visible || show.Rect != rect || show.FrameID != id.String() {
		t.Errorf("unexpected show message %+v", show)
	}

	var hide struct {
		Type    string `json:"type"`
		Visible bool   `json:"visible"`
	}
	if err := conn.ReadJSON(&hide); err != nil {
		t.Fatalf("read hide: %v", err)
	}
	if hide.Type != "hide" || hide.Visible {
		t.Errorf("unexpected hide message %+v", hide)
	}
}

func TestOverlayHub_Close(t *testing.T) {
	hub := NewOverlayHub(nil)
	conn := dialHub(t, hub)

	hub.Close()

	if hub.Clients() != 0 {
		t.Errorf("expected no clients after Close, got %d", hub.Clients())
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal close, got %v", err)
	}
}

func TestOverlayHub_NoClients(t *testing.T) {
	hub := NewOverlayHub(nil)
	hub.ShowFace(geometry.Rect{Width: 1, Height: 1}, "nobody listening")
	hub.HideFace()
}
