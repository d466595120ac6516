// Package spectate streams match events to read-only websocket viewers.
package spectate

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/tomz197/bocce/internal/event"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// Frame is one event as sent to viewers.
type Frame struct {
	Match string      `json:"match"`
	Event event.Event `json:"event"`
}

// Stats holds live hub counters.
type Stats struct {
	Viewers          int    `json:"viewers"`
	TotalConnections uint64 `json:"totalConnections"`
	Dropped          uint64 `json:"dropped"`
}

type conn struct {
	ws     *websocket.Conn
	id     string
	match  string // empty follows every match
	sendCh chan Frame
	done   chan struct{}
	once   sync.Once
}

func (c *conn) close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close(websocket.StatusNormalClosure, "")
	})
}

// Hub fans match events out to connected viewers. Slow viewers lose frames
// rather than stall the match.
type Hub struct {
	mu    sync.Mutex
	conns map[*conn]struct{}

	total   atomic.Uint64
	dropped atomic.Uint64

	originPatterns []string
	logger         *log.Logger
}

// NewHub creates a hub. originPatterns is passed to websocket.Accept; empty
// allows same-origin only.
func NewHub(originPatterns []string, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		conns:          make(map[*conn]struct{}),
		originPatterns: originPatterns,
		logger:         logger.With("component", "spectate"),
	}
}

// Observer returns an event observer that publishes matchID's events.
// Power updates arrive every frame while aiming and are not forwarded.
func (h *Hub) Observer(matchID string) event.Observer {
	return event.ObserverFunc(func(e event.Event) {
		if e.Kind == event.PowerChanged {
			return
		}
		h.Broadcast(Frame{Match: matchID, Event: e})
	})
}

// Broadcast queues f for every viewer following its match.
func (h *Hub) Broadcast(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if c.match != "" && c.match != f.Match {
			continue
		}
		select {
		case c.sendCh <- f:
		default:
			h.dropped.Add(1)
			h.logger.Debug("send buffer full, dropping frame", "viewer", c.id)
		}
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Stats returns a snapshot of the hub counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Viewers:          h.Clients(),
		TotalConnections: h.total.Load(),
		Dropped:          h.dropped.Load(),
	}
}

// HandleWS upgrades the request and streams frames until the viewer leaves.
// The optional "match" query parameter limits the feed to one match.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.logger.Warn("accept failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := &conn{
		ws:     ws,
		id:     uuid.NewString()[:8],
		match:  r.URL.Query().Get("match"),
		sendCh: make(chan Frame, sendBuffer),
		done:   make(chan struct{}),
	}
	h.add(c)
	defer h.remove(c)

	// Viewers never send; CloseRead handles pings and cancels on close.
	ctx := ws.CloseRead(r.Context())
	c.writeLoop(ctx, h.logger)
}

func (h *Hub) add(c *conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	h.total.Add(1)
	h.logger.Info("viewer connected", "viewer", c.id, "match", c.match)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	c.close()
	h.logger.Info("viewer left", "viewer", c.id)
}

// CloseAll disconnects every viewer. The close handshakes run after the
// lock is released so broadcasts are not held up.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	conns := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		c.close()
	}
}

func (c *conn) writeLoop(ctx context.Context, logger *log.Logger) {
	for {
		select {
		case f := <-c.sendCh:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c.ws, f)
			cancel()
			if err != nil {
				logger.Debug("write failed", "viewer", c.id, "err", err)
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
