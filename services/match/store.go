package match

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"benficabot/lib/timezone"
)

// Store is the single-slot cache for the next fixture. The schema on
// disk splits the kickoff into its calendar fields, always Lisbon
// wall-clock time, so the file stays hand-readable.
type Store struct {
	path string
}

func NewStore(path string) Store {
	return Store{path: path}
}

type storedRecord struct {
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Day         int    `json:"day"`
	Hour        int    `json:"hour"`
	Minute      int    `json:"minute"`
	Adversary   string `json:"adversary"`
	Location    string `json:"location"`
	Competition string `json:"competition"`
	Home        bool   `json:"is_home"`
	TVChannel   string `json:"tv_channel,omitempty"`
}

// Load returns the cached record. A missing or unreadable cache is
// "nothing cached", never a failure: the cache is rebuildable from the
// sources at any time.
func (s Store) Load() (Record, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read match cache", "path", s.path, "err", err)
		}
		return Record{}, false
	}

	var stored storedRecord
	err = json.Unmarshal(data, &stored)
	if err != nil {
		slog.Warn("match cache is corrupt, ignoring it", "path", s.path, "err", err)
		return Record{}, false
	}

	return Record{
		Kickoff: time.Date(
			stored.Year, time.Month(stored.Month), stored.Day,
			stored.Hour, stored.Minute, 0, 0,
			timezone.Location,
		),
		Adversary:   stored.Adversary,
		Location:    stored.Location,
		Competition: stored.Competition,
		Home:        stored.Home,
		TVChannel:   stored.TVChannel,
	}, true
}

// Save replaces the cache wholesale. The write goes to a temp file in
// the same directory and is renamed over the target so a reader never
// observes a half-written record.
func (s Store) Save(record Record) error {
	kickoff := record.Kickoff.In(timezone.Location)
	stored := storedRecord{
		Year:        kickoff.Year(),
		Month:       int(kickoff.Month()),
		Day:         kickoff.Day(),
		Hour:        kickoff.Hour(),
		Minute:      kickoff.Minute(),
		Adversary:   record.Adversary,
		Location:    record.Location,
		Competition: record.Competition,
		Home:        record.Home,
		TVChannel:   record.TVChannel,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(data)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	err = tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}
