package sessions

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultSweepInterval is how often the reaper scans for idle sessions.
const DefaultSweepInterval = time.Minute

// Reaper terminates sessions that have been idle past the configured
// timeout. It funnels into the registry's cleanup path, so a sweep racing a
// disconnect for the same session is harmless: whoever loses the race is a
// no-op.
type Reaper struct {
	registry *Registry
	timeout  time.Duration
	interval time.Duration
	logger   *log.Logger
}

// NewReaper creates a reaper for the registry with the given idle timeout.
func NewReaper(r *Registry, timeout time.Duration) *Reaper {
	return &Reaper{
		registry: r,
		timeout:  timeout,
		interval: DefaultSweepInterval,
		logger:   log.NewWithOptions(os.Stderr, log.Options{Prefix: "reaper"}),
	}
}

// Run sweeps at a fixed interval until ctx is cancelled.
func (rp *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(rp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rp.Sweep(time.Now())
		}
	}
}

// Sweep removes every session idle longer than the timeout and returns how
// many were reclaimed.
func (rp *Reaper) Sweep(now time.Time) int {
	reaped := 0
	for _, s := range rp.registry.List() {
		idle := s.IdleFor(now)
		if idle <= rp.timeout {
			continue
		}
		// Remove tolerates the session disappearing between List and here.
		if rp.registry.Remove(s.ID) {
			rp.logger.Info("idle session reaped", "session", s.ID, "idle", idle)
			reaped++
		}
	}
	return reaped
}
