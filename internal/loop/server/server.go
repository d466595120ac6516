// Package server tracks live play sessions so the process can shut down
// gracefully. Each session owns its own match; the registry only holds
// handles for notification and accounting.
package server

import (
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tomz197/bocce/internal/loop/config"
)

// NoticeType identifies a notice sent to a session.
type NoticeType int

const (
	NoticeShutdown NoticeType = iota
)

// Notice is a message from the registry to one session.
type Notice struct {
	Type NoticeType
}

// Handle is a session's registration.
type Handle struct {
	ID       int
	User     string
	MatchID  string
	Started  time.Time
	EventsCh chan Notice // closed on Unregister
}

// Registry holds the live sessions. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int]*Handle
	nextID   int
	logger   *log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		sessions: make(map[int]*Handle),
		nextID:   1,
		logger:   logger.With("component", "registry"),
	}
}

// Register adds a session for user and returns its handle.
func (r *Registry) Register(user string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := &Handle{
		ID:       r.nextID,
		User:     user,
		Started:  time.Now(),
		EventsCh: make(chan Notice, 4),
	}
	r.nextID++
	r.sessions[h.ID] = h
	r.logger.Debug("session registered", "session", h.ID, "user", user, "live", len(r.sessions))
	return h
}

// SetMatch records the match a session is playing.
func (r *Registry) SetMatch(id int, matchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.sessions[id]; ok {
		h.MatchID = matchID
	}
}

// Unregister removes a session and closes its notice channel. Unknown ids
// are ignored.
func (r *Registry) Unregister(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.sessions[id]
	if !ok {
		return
	}
	close(h.EventsCh)
	delete(r.sessions, id)
	r.logger.Debug("session unregistered", "session", id, "user", h.User, "live", len(r.sessions))
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sessions returns a copy of the live handles ordered by id.
func (r *Registry) Sessions() []Handle {
	r.mu.RLock()
	out := make([]Handle, 0, len(r.sessions))
	for _, h := range r.sessions {
		out = append(out, *h)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Shutdown notifies every session and waits for them to leave, up to
// timeout. It reports whether all sessions left in time.
func (r *Registry) Shutdown(timeout time.Duration) bool {
	r.mu.RLock()
	for _, h := range r.sessions {
		select {
		case h.EventsCh <- Notice{Type: NoticeShutdown}:
		default:
		}
	}
	n := len(r.sessions)
	r.mu.RUnlock()
	r.logger.Info("shutdown notice sent", "sessions", n)

	deadline := time.After(timeout)
	ticker := time.NewTicker(config.ShutdownPollInterval)
	defer ticker.Stop()

	for {
		if r.Count() == 0 {
			return true
		}
		select {
		case <-deadline:
			r.logger.Warn("shutdown timed out", "remaining", r.Count())
			return false
		case <-ticker.C:
		}
	}
}
