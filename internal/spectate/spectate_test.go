package spectate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/tomz197/bocce/internal/event"
	"github.com/tomz197/bocce/internal/object"
)

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close(websocket.StatusNormalClosure, "") })
	return ws
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", h.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestViewerReceivesMatchEvents(t *testing.T) {
	hub := NewHub(nil, log.New(io.Discard))
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws := dial(t, ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	waitClients(t, hub, 1)

	obs := hub.Observer("m1")
	obs.Notify(event.Power(0.5))
	obs.Notify(event.Turn(object.TeamA))

	var f Frame
	if err := wsjson.Read(ctx, ws, &f); err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.Match != "m1" {
		t.Fatalf("match = %q, want m1", f.Match)
	}
	// Power is not forwarded, so the first frame is the turn.
	if f.Event.Kind != event.TurnChanged {
		t.Fatalf("kind = %v, want turn_changed", f.Event.Kind)
	}
	if got := hub.Stats().TotalConnections; got != 1 {
		t.Fatalf("total connections = %d, want 1", got)
	}
}

func TestMatchFilter(t *testing.T) {
	hub := NewHub(nil, log.New(io.Discard))
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws := dial(t, ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?match=m2")
	waitClients(t, hub, 1)

	hub.Observer("m1").Notify(event.Score([2]int{1, 0}))
	hub.Observer("m2").Notify(event.Score([2]int{0, 3}))

	var f Frame
	if err := wsjson.Read(ctx, ws, &f); err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.Match != "m2" || f.Event.Scores != [2]int{0, 3} {
		t.Fatalf("got %+v, want m2 score 0:3", f)
	}
}

func TestViewerLeavingIsRemoved(t *testing.T) {
	hub := NewHub(nil, log.New(io.Discard))
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitClients(t, hub, 1)
	ws.Close(websocket.StatusNormalClosure, "bye")
	waitClients(t, hub, 0)
}

func TestBroadcastNotHeldUpByClosingViewers(t *testing.T) {
	hub := NewHub(nil, log.New(io.Discard))
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	// This viewer never reads, so its close handshake stalls until timeout.
	dial(t, ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	waitClients(t, hub, 1)

	closed := make(chan struct{})
	go func() {
		hub.CloseAll()
		close(closed)
	}()
	time.Sleep(50 * time.Millisecond)

	sent := make(chan struct{})
	go func() {
		hub.Broadcast(Frame{Match: "m1", Event: event.Turn(object.TeamB)})
		close(sent)
	}()
	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("broadcast waited on viewers closing")
	}

	select {
	case <-closed:
	case <-ctx.Done():
		t.Fatal("CloseAll did not return")
	}
	waitClients(t, hub, 0)
}
