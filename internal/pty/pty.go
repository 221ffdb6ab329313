// Package pty owns the pseudo-terminal process behind a session.
package pty

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"
)

// termGrace is how long Close waits for the process to exit after SIGTERM
// before force-killing it.
const termGrace = 2 * time.Second

// Process is a session's terminal process as the rest of the gateway sees
// it. *PTY is the production implementation; tests substitute fakes.
type Process interface {
	Read(buf []byte) (int, error)
	Write(data []byte) (int, error)
	Resize(cols, rows uint16) error
	Close() error
	Done() <-chan struct{}
}

// SpawnConfig describes the process to start.
type SpawnConfig struct {
	Shell string
	Args  []string
	Env   []string
	Dir   string
	Cols  uint16
	Rows  uint16
}

// PTY represents a pseudo-terminal running a single interactive process.
// Exactly one session owns a PTY at any time.
type PTY struct {
	ID   string
	file *os.File
	cmd  *exec.Cmd
	done chan struct{}

	mu     sync.Mutex
	closed bool
	cols   uint16
	rows   uint16
}

// Start launches the configured process attached to a new pseudo-terminal.
func Start(cfg SpawnConfig) (*PTY, error) {
	cols, rows := cfg.Cols, cfg.Rows
	if cols == 0 {
		cols = 80
	}
	if rows == 0 {
		rows = 24
	}

	cmd := exec.Command(cfg.Shell, cfg.Args...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	cmd.Env = append(cmd.Env, cfg.Env...)
	cmd.Dir = cfg.Dir

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		return nil, err
	}

	p := &PTY{
		ID:   uuid.New().String(),
		file: ptmx,
		cmd:  cmd,
		done: make(chan struct{}),
		cols: cols,
		rows: rows,
	}

	go func() {
		cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

// Read reads process output from the PTY.
func (p *PTY) Read(buf []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, os.ErrClosed
	}
	file := p.file
	p.mu.Unlock()

	return file.Read(buf)
}

// Write sends input to the process. Writes on a single PTY are ordered.
func (p *PTY) Write(data []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, os.ErrClosed
	}
	file := p.file
	p.mu.Unlock()

	return file.Write(data)
}

// Resize changes the PTY window size. Non-positive or unchanged dimensions
// are a no-op.
func (p *PTY) Resize(cols, rows uint16) error {
	if cols == 0 || rows == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return os.ErrClosed
	}
	if cols == p.cols && rows == p.rows {
		return nil
	}

	if err := pty.Setsize(p.file, &pty.Winsize{Cols: cols, Rows: rows}); err != nil {
		return err
	}
	p.cols, p.rows = cols, rows
	return nil
}

// Close terminates the process and releases the terminal. The first call
// sends SIGTERM, waits briefly for the process to exit, then force-kills;
// later calls return nil immediately. A process that already exited is not
// an error.
func (p *PTY) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	file := p.file
	p.mu.Unlock()

	if p.cmd.Process != nil {
		p.cmd.Process.Signal(syscall.SIGTERM)
	}

	select {
	case <-p.done:
	case <-time.After(termGrace):
		if p.cmd.Process != nil {
			p.cmd.Process.Kill()
		}
	}

	return file.Close()
}

// Done returns a channel closed when the process exits.
func (p *PTY) Done() <-chan struct{} {
	return p.done
}
