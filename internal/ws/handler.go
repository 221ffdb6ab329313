// Package ws implements the socket protocol: a per-connection state machine
// that authenticates the client, admits a session, and relays bytes between
// the WebSocket and the session's terminal process.
package ws

import (
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/rangehost/termgate/internal/auth"
	"github.com/rangehost/termgate/internal/catalog"
	"github.com/rangehost/termgate/internal/pty"
	"github.com/rangehost/termgate/internal/sessions"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256

	defaultCols = 80
	defaultRows = 24
)

// Router upgrades HTTP requests and runs the socket protocol on each
// resulting connection.
type Router struct {
	registry *sessions.Registry
	verifier *auth.Verifier
	catalog  *catalog.Catalog
	launcher pty.Launcher
	upgrader websocket.Upgrader
	logger   *log.Logger
}

// NewRouter creates a WebSocket router. allowedOrigins feeds the upgrader's
// origin check.
func NewRouter(registry *sessions.Registry, verifier *auth.Verifier, cat *catalog.Catalog, launcher pty.Launcher, allowedOrigins []string) *Router {
	return &Router{
		registry: registry,
		verifier: verifier,
		catalog:  cat,
		launcher: launcher,
		logger:   log.NewWithOptions(os.Stderr, log.Options{Prefix: "ws"}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return checkOrigin(r, allowedOrigins)
			},
		},
	}
}

// HandleWebSocket upgrades the request and drives the connection until it
// closes.
func (r *Router) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	wsConn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade", "err", err)
		return
	}

	c := &conn{
		ws:     wsConn,
		router: r,
		send:   make(chan ServerMessage, sendBuffer),
	}
	go c.writePump()
	c.readPump()
}

// Connection states. The Ready/Streaming distinction of the protocol is
// implicit: a ready connection streams as soon as traffic flows.
type connState int

const (
	stateConnected connState = iota
	stateReady
	stateClosed
)

// conn is the per-connection protocol state machine.
type conn struct {
	ws     *websocket.Conn
	router *Router
	send   chan ServerMessage

	mu      sync.Mutex
	state   connState
	session *sessions.Session

	sendMu     sync.Mutex
	sendClosed bool

	cleanupOnce sync.Once
}

// readPump reads client messages until the socket dies, then runs cleanup.
func (c *conn) readPump() {
	defer c.cleanup()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.router.logger.Debug("websocket read", "err", err)
			}
			return
		}

		msg, err := decodeClientMessage(data)
		if err != nil {
			// Malformed or unknown messages are dropped, not fatal.
			continue
		}
		c.dispatch(msg)
	}
}

func (c *conn) dispatch(msg ClientMessage) {
	c.mu.Lock()
	state := c.state
	session := c.session
	c.mu.Unlock()

	switch state {
	case stateConnected:
		// Nothing but authenticate is accepted before the handshake.
		if msg.Type == MsgAuthenticate {
			c.handleAuthenticate(msg)
		}

	case stateReady:
		switch msg.Type {
		case MsgInput:
			if len(msg.Data) == 0 {
				return
			}
			// A write error means the process is gone; the output pump
			// observes the same condition and tears the connection down.
			if _, err := session.Process().Write([]byte(msg.Data)); err == nil {
				session.Touch()
			}
		case MsgResize:
			session.Process().Resize(uint16(msg.Cols), uint16(msg.Rows))
		}

	case stateClosed:
		// Late messages after teardown are ignored.
	}
}

// handleAuthenticate drives the Connected → Ready transition: verify the
// credential, validate the environment, re-check capacity, spawn, admit.
// Every failure emits one error message and shuts the connection down
// without leaving a registry entry behind.
func (c *conn) handleAuthenticate(msg ClientMessage) {
	identity, err := c.router.verifier.Verify(msg.Token)
	if err != nil {
		c.fail("Authentication failed")
		return
	}

	if _, ok := c.router.catalog.Get(msg.EnvironmentID); !ok {
		c.fail("Unknown environment")
		return
	}

	// Admit below is the authoritative capacity check; this early one keeps
	// a full gateway from forking shells it would immediately kill.
	if c.router.registry.Size() >= c.router.registry.Max() {
		c.fail("Maximum session limit reached")
		return
	}

	proc, err := c.router.launcher.Launch(msg.EnvironmentID, defaultCols, defaultRows)
	if err != nil {
		c.router.logger.Error("terminal spawn", "environment", msg.EnvironmentID, "err", err)
		c.fail("Failed to start terminal")
		return
	}

	session, err := c.router.registry.Admit(msg.SessionID, identity.UserID, msg.EnvironmentID, proc)
	if err != nil {
		proc.Close()
		if errors.Is(err, sessions.ErrCapacity) {
			c.fail("Maximum session limit reached")
		} else {
			c.fail("Session already active")
		}
		return
	}

	c.mu.Lock()
	c.state = stateReady
	c.session = session
	c.mu.Unlock()

	go c.outputPump(session)

	c.enqueue(readyMessage(session.ID))
}

// outputPump relays terminal output to the client in production order. A
// read error means the process exited or was terminated; either way the
// connection is done.
func (c *conn) outputPump(session *sessions.Session) {
	defer c.cleanup()

	buf := make([]byte, 32*1024)
	for {
		n, err := session.Process().Read(buf)
		if n > 0 {
			session.Touch()
			c.enqueue(outputMessage(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

// writePump serializes all socket writes and keeps the connection alive
// with pings. It owns closing the underlying socket.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// fail reports a terminal error to the client and shuts the connection down.
func (c *conn) fail(message string) {
	c.enqueue(errorMessage(message))
	c.closeSend()
}

// enqueue hands a message to the write pump. Messages are dropped when the
// connection is tearing down or the client cannot keep up.
func (c *conn) enqueue(msg ServerMessage) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *conn) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// cleanup is the single teardown path for every trigger: socket disconnect,
// explicit close, process exit, or a failed handshake. Safe to invoke from
// multiple goroutines; only the first has any effect, and the registry
// removal it performs is itself idempotent.
func (c *conn) cleanup() {
	c.cleanupOnce.Do(func() {
		c.mu.Lock()
		session := c.session
		c.state = stateClosed
		c.mu.Unlock()

		if session != nil {
			c.router.registry.Remove(session.ID)
		}
		c.closeSend()
	})
}
