package sessions

import (
	"errors"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/rangehost/termgate/internal/pty"
)

var (
	ErrCapacity         = errors.New("maximum session limit reached")
	ErrDuplicateSession = errors.New("session already exists")
)

// Registry is the in-memory table of live sessions. It is the only shared
// mutable state in the gateway; every mutation happens under one mutex so
// the capacity and uniqueness invariants hold under concurrent admissions.
type Registry struct {
	max    int
	logger *log.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry with the given capacity ceiling.
func NewRegistry(max int) *Registry {
	return &Registry{
		max:      max,
		logger:   log.NewWithOptions(os.Stderr, log.Options{Prefix: "sessions"}),
		sessions: make(map[string]*Session),
	}
}

// Max returns the capacity ceiling.
func (r *Registry) Max() int {
	return r.max
}

// Admit creates the registry entry for a session that now owns proc.
// Capacity and ID uniqueness are checked atomically with the insert.
func (r *Registry) Admit(id, userID, environmentID string, proc pty.Process) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.max {
		return nil, ErrCapacity
	}
	if _, exists := r.sessions[id]; exists {
		return nil, ErrDuplicateSession
	}

	s := newSession(id, userID, environmentID, proc)
	r.sessions[id] = s
	r.logger.Info("session admitted",
		"session", id, "user", userID, "environment", environmentID, "active", len(r.sessions))
	return s, nil
}

// Get retrieves a live session by ID.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	return s, ok
}

// Touch records activity for the session, if it still exists.
func (r *Registry) Touch(id string) {
	if s, ok := r.Get(id); ok {
		s.Touch()
	}
}

// Remove deletes the session and terminates its process. It is the single
// cleanup path for every termination trigger and is idempotent: removing an
// absent session reports false and does nothing.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	if err := s.Close(); err != nil {
		r.logger.Warn("session process close", "session", id, "err", err)
	}
	r.logger.Info("session removed", "session", id)
	return true
}

// Size returns the number of live sessions.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// List returns a snapshot of all live sessions.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Shutdown closes every live session. Used on process exit.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	drained := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		drained = append(drained, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range drained {
		if err := s.Close(); err != nil {
			r.logger.Warn("session process close", "session", s.ID, "err", err)
		}
	}
}
