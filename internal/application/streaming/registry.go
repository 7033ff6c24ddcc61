package streaming

import (
	"sort"
	"sync"
	"time"
)

// SessionInfo describes a live session for diagnostics.
type SessionInfo struct {
	ID         string        `json:"id"`
	RemoteAddr string        `json:"remoteAddr"`
	StartedAt  time.Time     `json:"startedAt"`
	State      StateSnapshot `json:"state"`
}

type session struct {
	id         string
	remoteAddr string
	startedAt  time.Time
	state      *State
	conn       Conn
}

// Registry tracks the sessions currently served by a supervisor.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*session{}}
}

func (r *Registry) add(s *session) {
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List returns live sessions, oldest first.
func (r *Registry) List() []SessionInfo {
	r.mu.RLock()
	sessions := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	out := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionInfo{
			ID:         s.id,
			RemoteAddr: s.remoteAddr,
			StartedAt:  s.startedAt,
			State:      s.state.Snapshot(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// CloseAll ends every live session. Serve calls return once their loops finish.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	sessions := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		s.state.Close()
		_ = s.conn.Close()
	}
}
