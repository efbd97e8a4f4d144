package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/YOSHITATSU-1998/event-notify/internal/event"
	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

// SchemaVersion is written into every snapshot item so the format can evolve
// without breaking old readers.
const SchemaVersion = "1.0"

// Item is one record as serialized in a snapshot file.
type Item struct {
	SchemaVersion string    `json:"schema_version"`
	Date          string    `json:"date"`
	Time          string    `json:"time,omitempty"`
	Title         string    `json:"title"`
	Venue         string    `json:"venue"`
	Source        string    `json:"source"`
	Hash          string    `json:"hash"`
	ExtractedAt   time.Time `json:"extracted_at"`
}

// Store writes and reads snapshot files under a single directory.
type Store struct {
	dir string
}

// New creates a snapshot store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the snapshot directory, which also hosts the manual entry
// files and the run lock.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(code venue.Code, runDate string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", runDate, code))
}

// Write captures one venue's records for runDate (YYYY-MM-DD), replacing any
// earlier capture for the same day. The write is atomic: a partial file is
// never visible.
func (s *Store) Write(code venue.Code, runDate string, records []event.Identified) error {
	items := make([]Item, 0, len(records))
	for _, rec := range records {
		items = append(items, Item{
			SchemaVersion: SchemaVersion,
			Date:          rec.Date,
			Time:          rec.Time,
			Title:         rec.Title,
			Venue:         string(rec.Venue),
			Source:        rec.Source,
			Hash:          rec.Fingerprint,
			ExtractedAt:   rec.ExtractedAt,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		return itemKey(items[i]) < itemKey(items[j])
	})

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	path := s.path(code, runDate)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Read loads one venue's capture for runDate. A missing file returns nil
// records and no error: an absent capture is an expected state, not a
// failure.
func (s *Store) Read(code venue.Code, runDate string) ([]event.Identified, error) {
	data, err := os.ReadFile(s.path(code, runDate))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	records := make([]event.Identified, 0, len(items))
	for _, it := range items {
		records = append(records, event.Identified{
			Record: event.Record{
				Date:        it.Date,
				Time:        it.Time,
				Title:       it.Title,
				Venue:       venue.Code(it.Venue),
				Source:      it.Source,
				ExtractedAt: it.ExtractedAt,
			},
			Fingerprint: it.Hash,
		})
	}
	return records, nil
}

func itemKey(it Item) string {
	t := it.Time
	if t == "" {
		t = "99:99"
	}
	return it.Date + "|" + t + "|" + it.Title
}
