// Package workdir manages per-session scratch directories. Each terminal
// session gets a private directory under a common root, created at launch
// and removed when the session ends.
package workdir

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrBadKey     = errors.New("invalid workspace key")
	ErrPathEscape = errors.New("path escapes workspace root")
)

// Manager creates and removes scratch directories under a fixed root.
type Manager struct {
	root string
}

// NewManager creates a manager rooted at the given path. The root itself is
// created if missing. Symlinks in the root are resolved up front so later
// containment checks compare real paths.
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, err
	}
	return &Manager{root: resolved}, nil
}

// Root returns the resolved workspace root.
func (m *Manager) Root() string {
	return m.root
}

// resolve maps a key to its directory, rejecting anything that could reach
// outside the root. Keys are single path elements, never paths.
func (m *Manager) resolve(key string) (string, error) {
	if key == "" || key == "." || key == ".." {
		return "", ErrBadKey
	}
	if strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return "", ErrBadKey
	}

	full := filepath.Join(m.root, key)
	if !isPathWithin(full, m.root) {
		return "", ErrPathEscape
	}
	return full, nil
}

// isPathWithin reports whether path is inside root. A plain prefix check
// would wrongly match /workspace-evil against /workspace.
func isPathWithin(path, root string) bool {
	if path == root {
		return false
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// Create makes the scratch directory for the key and returns its path.
func (m *Manager) Create(key string) (string, error) {
	dir, err := m.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

// Remove deletes the key's directory and everything in it. Removing a key
// that was never created is not an error.
func (m *Manager) Remove(key string) error {
	dir, err := m.resolve(key)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}
