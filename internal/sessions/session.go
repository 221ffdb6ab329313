// Package sessions tracks live terminal sessions and their lifecycle.
//
// A Session is the bound lifetime of one authenticated client's interactive
// process. Sessions live only in memory: the registry entry and the process
// are created together at admission and torn down together by the single
// cleanup path, whichever trigger fires first (explicit close, socket
// disconnect, process exit, idle timeout).
package sessions

import (
	"sync"
	"time"

	"github.com/rangehost/termgate/internal/pty"
)

// Session is the unit of ownership: one authenticated user, one
// environment, one terminal process.
type Session struct {
	ID            string
	UserID        string
	EnvironmentID string
	CreatedAt     time.Time

	proc pty.Process

	mu           sync.Mutex
	lastActivity time.Time
	closed       bool
}

func newSession(id, userID, environmentID string, proc pty.Process) *Session {
	now := time.Now()
	return &Session{
		ID:            id,
		UserID:        userID,
		EnvironmentID: environmentID,
		CreatedAt:     now,
		proc:          proc,
		lastActivity:  now,
	}
}

// Process returns the terminal process this session exclusively owns.
func (s *Session) Process() pty.Process {
	return s.proc
}

// Touch records activity, deferring the idle timeout.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// LastActivity returns the time of the most recent byte in either direction.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// IdleFor reports how long the session has gone without traffic as of now.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActivity())
}

// Close terminates the session's process. Idempotent: only the first call
// has any effect.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.proc.Close()
}
