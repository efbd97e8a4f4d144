// Package config holds the run configuration resolved from flags, the config
// file, and the environment. The pipeline never reads ambient state: a fully
// resolved Config is passed into the engine so a run is deterministic under
// an injected reference date.
package config

import (
	"fmt"
	"time"

	"github.com/YOSHITATSU-1998/event-notify/internal/event"
)

// Defaults for a fresh installation.
const (
	DefaultStorageDir   = "~/.local/share/event-notify"
	DefaultDBFile       = "events.db"
	DefaultWindowMonths = 6
	DefaultFetchTimeout = 15 * time.Second
)

// Config is the resolved configuration for one run.
type Config struct {
	// StorageDir hosts snapshots, manual entry files, the run lock, and by
	// default the SQLite database.
	StorageDir string
	// DBPath locates the SQLite events database.
	DBPath string
	// StoreEnabled toggles persistent-store writes. Disabled means a
	// snapshot-only dry run: scrape, normalize, and capture, but leave the
	// store untouched.
	StoreEnabled bool
	// ReferenceDate overrides the run's "today" (YYYY-MM-DD). Empty means
	// today in JST.
	ReferenceDate string
	// WindowMonths is the future-window length the sync run owns.
	WindowMonths int
	// FetchTimeout bounds each venue page fetch.
	FetchTimeout time.Duration
	// LogLevel is the logrus level name.
	LogLevel string
}

// Reference resolves the run's reference date to midnight UTC of the JST
// calendar day.
func (c Config) Reference() (time.Time, error) {
	if c.ReferenceDate == "" {
		now := time.Now().In(event.JST)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	ref, err := time.Parse("2006-01-02", c.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad reference date %q: %w", c.ReferenceDate, err)
	}
	return ref, nil
}

// Window returns the future window [start, end) the run owns.
func (c Config) Window(ref time.Time) (time.Time, time.Time) {
	months := c.WindowMonths
	if months <= 0 {
		months = DefaultWindowMonths
	}
	return ref, ref.AddDate(0, months, 0)
}
