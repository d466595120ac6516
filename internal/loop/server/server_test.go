package server

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestRegisterAndUnregister(t *testing.T) {
	r := NewRegistry(log.New(io.Discard))
	a := r.Register("alice")
	b := r.Register("bob")
	if a.ID == b.ID {
		t.Fatalf("duplicate id %d", a.ID)
	}
	r.SetMatch(b.ID, "m-1")
	got := r.Sessions()
	if len(got) != 2 || got[0].User != "alice" || got[1].MatchID != "m-1" {
		t.Fatalf("sessions = %+v", got)
	}

	r.Unregister(a.ID)
	r.Unregister(a.ID)
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
	if _, ok := <-a.EventsCh; ok {
		t.Fatal("notice channel still open after unregister")
	}
}

func TestShutdownWaitsForSessions(t *testing.T) {
	r := NewRegistry(log.New(io.Discard))
	h := r.Register("carol")
	go func() {
		n := <-h.EventsCh
		if n.Type == NoticeShutdown {
			r.Unregister(h.ID)
		}
	}()
	if !r.Shutdown(2 * time.Second) {
		t.Fatal("shutdown timed out with a cooperative session")
	}
}

func TestShutdownTimesOut(t *testing.T) {
	r := NewRegistry(log.New(io.Discard))
	r.Register("dave")
	if r.Shutdown(50 * time.Millisecond) {
		t.Fatal("shutdown reported success with a session still live")
	}
}
