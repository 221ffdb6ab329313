package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rangehost/termgate/internal/auth"
	"github.com/rangehost/termgate/internal/catalog"
	"github.com/rangehost/termgate/internal/config"
	"github.com/rangehost/termgate/internal/pty"
	"github.com/rangehost/termgate/internal/sessions"
	"github.com/rangehost/termgate/internal/workdir"
	"github.com/rangehost/termgate/internal/ws"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "server", ReportTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration", "err", err)
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is empty; all credentials will be rejected")
	}

	registry := sessions.NewRegistry(cfg.MaxSessions)

	launcher := pty.NewShellLauncher()
	if cfg.WorkspaceRoot != "" {
		dirs, err := workdir.NewManager(cfg.WorkspaceRoot)
		if err != nil {
			logger.Fatal("workspace root", "path", cfg.WorkspaceRoot, "err", err)
		}
		launcher = pty.NewScratchShellLauncher(dirs)
	}

	server := NewServer(cfg, registry, catalog.Default(), launcher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reaper := sessions.NewReaper(registry, cfg.SessionTimeout)
	go reaper.Run(ctx)

	httpServer := &http.Server{Addr: ":" + cfg.Port, Handler: server.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
		registry.Shutdown()
	}()

	logger.Info("listening",
		"port", cfg.Port, "maxSessions", cfg.MaxSessions, "sessionTimeout", cfg.SessionTimeout)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server", "err", err)
	}
}

// Server wires the provisioning API and the WebSocket endpoint together.
type Server struct {
	cfg      *config.Config
	registry *sessions.Registry
	catalog  *catalog.Catalog
	authmw   *auth.Middleware
	wsRouter *ws.Router
	logger   *log.Logger
}

// NewServer builds the HTTP surface over the given collaborators.
func NewServer(cfg *config.Config, registry *sessions.Registry, cat *catalog.Catalog, launcher pty.Launcher) *Server {
	verifier := auth.NewVerifier(cfg.JWTSecret)
	return &Server{
		cfg:      cfg,
		registry: registry,
		catalog:  cat,
		authmw:   auth.NewMiddleware(verifier),
		wsRouter: ws.NewRouter(registry, verifier, cat, launcher, cfg.AllowedOrigins),
		logger:   log.NewWithOptions(os.Stderr, log.Options{Prefix: "api"}),
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/environments", s.authmw.RequireAuth(s.handleListEnvironments))
	mux.HandleFunc("POST /api/terminal", s.authmw.RequireAuth(s.handleProvision))
	mux.HandleFunc("GET /api/terminal/ws", s.wsRouter.HandleWebSocket)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"sessions": s.registry.Size(),
	})
}

func (s *Server) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"environments": s.catalog.List(),
	})
}

// handleProvision mints a session identifier for a later socket handshake.
// The capacity check here is an admission hint; the handshake re-checks
// before the registry entry is actually created.
func (s *Server) handleProvision(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		EnvironmentID string `json:"environmentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EnvironmentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "environmentId is required"})
		return
	}
	if _, ok := s.catalog.Get(req.EnvironmentID); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown environment"})
		return
	}

	if s.registry.Size() >= s.cfg.MaxSessions {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Maximum session limit reached"})
		return
	}

	sessionID := sessions.NewID(identity.UserID)
	s.logger.Info("session provisioned",
		"session", sessionID, "user", identity.UserID, "environment", req.EnvironmentID)
	writeJSON(w, http.StatusOK, map[string]string{"sessionId": sessionID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
