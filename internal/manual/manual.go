package manual

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

const (
	// OneShotFile holds entries with a concrete date.
	OneShotFile = "manual_events.json"
	// RecurringFile holds entries with a recurrence rule.
	RecurringFile = "manual_recurring.json"
)

// Entry is one operator-authored event. One-shot entries set Date; recurring
// entries set RRule. The two never mix in one entry.
type Entry struct {
	Venue venue.Code `json:"venue"`
	Date  string     `json:"date,omitempty"`  // YYYY-MM-DD
	RRule string     `json:"rrule,omitempty"` // e.g. FREQ=MONTHLY;BYDAY=3SU
	Time  string     `json:"time,omitempty"`  // HH:MM
	Title string     `json:"title"`
	Notes string     `json:"notes,omitempty"`
}

// Set is the validated manual overlay for a run.
type Set struct {
	OneShot   []Entry
	Recurring []Entry
}

// ValidationError names one malformed entry. The entry is dropped; the rest
// of the file loads.
type ValidationError struct {
	File  string
	Index int
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("manual entry %s[%d]: %v", e.File, e.Index, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

var clockPat = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Load reads both manual entry files from dir. Missing files are fine (an
// empty overlay). Malformed entries come back as ValidationErrors for the
// caller to log; they never block the valid ones.
func Load(dir string) (Set, []*ValidationError, error) {
	var set Set
	var dropped []*ValidationError

	oneShot, errs, err := loadFile(filepath.Join(dir, OneShotFile), OneShotFile, false)
	if err != nil {
		return Set{}, nil, err
	}
	set.OneShot = oneShot
	dropped = append(dropped, errs...)

	recurring, errs, err := loadFile(filepath.Join(dir, RecurringFile), RecurringFile, true)
	if err != nil {
		return Set{}, nil, err
	}
	set.Recurring = recurring
	dropped = append(dropped, errs...)

	return set, dropped, nil
}

func loadFile(path, name string, recurring bool) ([]Entry, []*ValidationError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("reading %s: %w", name, err)
	}

	var raw []Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	var entries []Entry
	var dropped []*ValidationError
	for i, e := range raw {
		if err := validate(e, recurring); err != nil {
			dropped = append(dropped, &ValidationError{File: name, Index: i, Err: err})
			continue
		}
		entries = append(entries, e)
	}
	return entries, dropped, nil
}

func validate(e Entry, recurring bool) error {
	if !venue.Valid(string(e.Venue)) {
		return fmt.Errorf("unknown venue code %q", e.Venue)
	}
	if e.Title == "" {
		return errors.New("empty title")
	}
	if e.Time != "" && !clockPat.MatchString(e.Time) {
		return fmt.Errorf("bad time %q", e.Time)
	}
	if recurring {
		if e.RRule == "" {
			return errors.New("missing rrule")
		}
		if _, err := rrule.StrToRRule(e.RRule); err != nil {
			return fmt.Errorf("bad rrule %q: %w", e.RRule, err)
		}
		if e.Date != "" {
			return errors.New("recurring entry must not set a date")
		}
		return nil
	}
	if e.Date == "" {
		return errors.New("missing date")
	}
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return fmt.Errorf("bad date %q: %w", e.Date, err)
	}
	if e.RRule != "" {
		return errors.New("one-shot entry must not set an rrule")
	}
	return nil
}
