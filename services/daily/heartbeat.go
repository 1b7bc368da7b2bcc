package daily

import (
	"context"
	"log/slog"
	"os"
	"time"

	"benficabot/lib/timezone"
)

// Heartbeat periodically writes the current timestamp to a file so an
// external watchdog (cron, systemd) can tell the process is alive.
type Heartbeat struct {
	path     string
	interval time.Duration
	now      func() time.Time
}

func NewHeartbeat(path string) Heartbeat {
	return Heartbeat{
		path:     path,
		interval: time.Minute,
		now:      timezone.Now,
	}
}

// Beat writes the current timestamp once, RFC3339 with a trailing
// newline so `cat` output stays readable.
func (h Heartbeat) Beat() error {
	return os.WriteFile(h.path, []byte(h.now().Format(time.RFC3339)+"\n"), 0644)
}

// Run beats until the context is cancelled. It blocks, call it in a
// goroutine.
func (h Heartbeat) Run(ctx context.Context) {
	err := h.Beat()
	if err != nil {
		slog.ErrorContext(ctx, "failed to write heartbeat file", "path", h.path, "err", err)
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := h.Beat()
			if err != nil {
				slog.ErrorContext(ctx, "failed to write heartbeat file", "path", h.path, "err", err)
			}
		}
	}
}
