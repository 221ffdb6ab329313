package pty

import (
	"sync"

	"github.com/google/uuid"

	"github.com/rangehost/termgate/internal/workdir"
)

// Launcher turns an environment ID into a running terminal process. The
// isolation mechanism behind an environment (container, chroot, plain host
// shell) is the implementation's choice; the gateway is agnostic.
type Launcher interface {
	Launch(environmentID string, cols, rows uint16) (Process, error)
}

// ShellLauncher launches the host shell for every environment. It is the
// default Launcher until per-environment isolation lands. With a workdir
// manager attached, every session starts in its own scratch directory,
// removed when the process ends.
type ShellLauncher struct {
	shell string
	dirs  *workdir.Manager
}

// NewShellLauncher creates a launcher running DefaultShell.
func NewShellLauncher() *ShellLauncher {
	return &ShellLauncher{shell: DefaultShell()}
}

// NewScratchShellLauncher creates a launcher that gives each session a
// private scratch directory under the manager's root.
func NewScratchShellLauncher(dirs *workdir.Manager) *ShellLauncher {
	return &ShellLauncher{shell: DefaultShell(), dirs: dirs}
}

// Launch starts the host shell. The requested environment is exported to
// the process so tooling inside the session can tell what was asked for.
func (l *ShellLauncher) Launch(environmentID string, cols, rows uint16) (Process, error) {
	cfg := SpawnConfig{
		Shell: l.shell,
		Env:   []string{"TERMGATE_ENVIRONMENT=" + environmentID},
		Cols:  cols,
		Rows:  rows,
	}

	if l.dirs == nil {
		return Start(cfg)
	}

	key := uuid.New().String()
	dir, err := l.dirs.Create(key)
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir

	p, err := Start(cfg)
	if err != nil {
		l.dirs.Remove(key)
		return nil, err
	}
	return &scratchProcess{Process: p, dirs: l.dirs, key: key}, nil
}

// scratchProcess ties a scratch directory's lifetime to the process.
type scratchProcess struct {
	Process
	dirs *workdir.Manager
	key  string
	once sync.Once
}

func (p *scratchProcess) Close() error {
	err := p.Process.Close()
	p.once.Do(func() { p.dirs.Remove(p.key) })
	return err
}
