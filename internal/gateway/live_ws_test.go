package gateway

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestHandleLiveWS_RoundTripsPageHelpReply(t *testing.T) {
	s, _ := newTestServer(t, &fakeChatProvider{content: `{"reply": "Try the Discover tab.", "redirect": {"path": "/discover", "label": "Discover"}}`}, nil, true)
	srv := httptest.NewServer(s.BuildMux())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(liveMessage{UserID: "u1", Message: "how do I add a screen?"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp chatOpenResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Reply != "Try the Discover tab." {
		t.Errorf("reply = %q, want %q", resp.Reply, "Try the Discover tab.")
	}
	if resp.Redirect == nil || resp.Redirect.Path != "/discover" {
		t.Errorf("redirect = %+v, want path=/discover", resp.Redirect)
	}
}

func TestHandleLiveWS_SkipsEmptyMessages(t *testing.T) {
	s, _ := newTestServer(t, &fakeChatProvider{content: `{"reply": "ok"}`}, nil, true)
	srv := httptest.NewServer(s.BuildMux())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(liveMessage{UserID: "u1", Message: ""}); err != nil {
		t.Fatalf("write empty message: %v", err)
	}
	if err := conn.WriteJSON(liveMessage{UserID: "u1", Message: "hello"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp chatOpenResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Reply != "ok" {
		t.Errorf("reply = %q, want the reply to the first non-empty message", resp.Reply)
	}
}
