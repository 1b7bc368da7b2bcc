package daily

import (
	"encoding/json"
	"log/slog"
	"os"
)

// LastRun remembers, per channel, the last date the daily covers went
// out. It backs the once-per-day guard so restarts never double-post.
type LastRun struct {
	path string
}

func NewLastRun(path string) LastRun {
	return LastRun{path: path}
}

func (l LastRun) read() map[string]string {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read last-run file", "path", l.path, "err", err)
		}
		return map[string]string{}
	}
	dates := map[string]string{}
	err = json.Unmarshal(data, &dates)
	if err != nil {
		slog.Warn("last-run file is corrupt, starting over", "path", l.path, "err", err)
		return map[string]string{}
	}
	return dates
}

// Get returns the YYYY-MM-DD date of the channel's last post, or ""
// when the channel has never been posted to.
func (l LastRun) Get(channelId string) string {
	return l.read()[channelId]
}

// Mark records date as the channel's last post date, preserving the
// entries of other channels.
func (l LastRun) Mark(channelId string, date string) error {
	dates := l.read()
	dates[channelId] = date

	data, err := json.MarshalIndent(dates, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0644)
}
