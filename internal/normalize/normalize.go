package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"

	"github.com/YOSHITATSU-1998/event-notify/internal/event"
	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

// rolloverGrace is the window behind the reference date within which a
// yearless month/day is still read as the current year. Anything earlier is
// assumed to belong to the next calendar year, so a "1月5日" listing scraped
// on December 20th lands on next January rather than eleven months in the
// past.
const rolloverGrace = 30 * 24 * time.Hour

var (
	// ErrEmptyTitle is returned when a listing has no title text left after
	// normalization.
	ErrEmptyTitle = errors.New("empty title")
	// ErrNoDate is returned when no parsable date appears in the listing.
	ErrNoDate = errors.New("no parsable date")
)

// RecordError wraps a record-level normalization failure with enough context
// to log it. The failing record is dropped; its venue batch continues.
type RecordError struct {
	Venue venue.Code
	Raw   string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("normalize %s record %q: %v", e.Venue, e.Raw, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// RawRecord is one listing as extracted by a venue scraper, before any
// normalization. The shape is producer-defined and carries no invariants.
type RawRecord struct {
	Venue       venue.Venue
	DateText    string // date and often time text, e.g. "8.29(金) 10:30～"
	TimeText    string // separate time column when the site has one
	Title       string
	Source      string
	ExtractedAt time.Time
}

var (
	// Single date: 8.29 / 8/29 / 1月5日, optional weekday parenthetical.
	datePat = regexp.MustCompile(`(\d{1,2})[./月](\d{1,2})日?(?:\([^)]*\))?`)
	// Date range: 8.13(水)~8.31(日), end month optional (9.3~7).
	rangePat = regexp.MustCompile(
		`(\d{1,2})[./月](\d{1,2})日?(?:\([^)]*\))?\s*[~\-–—]\s*(?:(\d{1,2})[./月])?(\d{1,2})日?(?:\([^)]*\))?`)
	// Clock time with optional 12-hour markers: 10:00 / 午後2:00 / 2:00PM.
	timePat = regexp.MustCompile(`(?i)(午前|午後|AM|PM)?\s*(\d{1,2}):(\d{2})\s*(AM|PM)?`)

	dashFolder = strings.NewReplacer("〜", "~", "～", "~", "－", "-", "—", "–")
)

// Normalize converts one raw listing into canonical records, resolving years
// against ref. A listing with multiple showtimes or a date range expands to
// multiple records. It returns a *RecordError when the title is empty or no
// date can be parsed; callers drop the record and keep going.
func Normalize(raw RawRecord, ref time.Time) ([]event.Record, error) {
	title := event.NormalizeText(raw.Title)
	if title == "" {
		return nil, &RecordError{Venue: raw.Venue.Code, Raw: raw.Title, Err: ErrEmptyTitle}
	}

	text := raw.DateText
	if raw.TimeText != "" {
		text += " " + raw.TimeText
	}
	// Fold full-width digits/colons to ASCII and unify the dash zoo before
	// the regexes see anything.
	text = width.Fold.String(text)
	text = dashFolder.Replace(text)
	// Anything past a '|' is a trailing facility note, not schedule text.
	text = strings.TrimSpace(strings.SplitN(text, "|", 2)[0])

	source := raw.Source
	if source == "" {
		source = raw.Venue.URL
	}

	mk := func(day time.Time, clock string) event.Record {
		return event.Record{
			Date:        day.Format("2006-01-02"),
			Time:        clock,
			Title:       title,
			Venue:       raw.Venue.Code,
			Source:      source,
			ExtractedAt: raw.ExtractedAt,
		}
	}

	var out []event.Record

	// Range listings first: expand every day, reusing the first start time
	// found anywhere in the text.
	if m := rangePat.FindStringSubmatch(text); m != nil {
		m1, _ := strconv.Atoi(m[1])
		d1, _ := strconv.Atoi(m[2])
		m2 := m1
		if m[3] != "" {
			m2, _ = strconv.Atoi(m[3])
		}
		d2, _ := strconv.Atoi(m[4])

		clock := firstTime(text)
		start, ok := resolveDate(ref, m1, d1)
		if ok {
			end, endOK := resolveDate(ref, m2, d2)
			if !endOK || end.Before(start) {
				// A range ending before it starts crossed the new year.
				end = makeDate(start.Year()+1, m2, d2)
				endOK = !end.IsZero()
			}
			for day := start; endOK && !day.After(end); day = day.AddDate(0, 0, 1) {
				out = append(out, mk(day, clock))
			}
		}
		if len(out) > 0 {
			return out, nil
		}
	}

	// Token walk: each date token owns the time tokens that follow it, so
	// "8.29(金) 10:30~ 14:00~ 8.30(土) 10:00~" yields three records. A date
	// glued to its time ("8.29(金)10:30~") is split inside the token.
	var current time.Time
	haveDate := false
	for _, tok := range strings.Fields(text) {
		if loc := datePat.FindStringIndex(tok); loc != nil && loc[0] == 0 {
			dm := datePat.FindStringSubmatch(tok)
			mm, _ := strconv.Atoi(dm[1])
			dd, _ := strconv.Atoi(dm[2])
			if d, ok := resolveDate(ref, mm, dd); ok {
				current = d
				haveDate = true
				if clock, ok := parseClock(tok[loc[1]:]); ok {
					out = append(out, mk(current, clock))
				}
			} else {
				haveDate = false
			}
			continue
		}
		if !haveDate {
			continue
		}
		if clock, ok := parseClock(tok); ok {
			out = append(out, mk(current, clock))
		}
	}
	if len(out) > 0 {
		return out, nil
	}

	// Date-only fallback: no time anywhere, register each date bare.
	for _, dm := range datePat.FindAllStringSubmatch(text, -1) {
		mm, _ := strconv.Atoi(dm[1])
		dd, _ := strconv.Atoi(dm[2])
		if d, ok := resolveDate(ref, mm, dd); ok {
			out = append(out, mk(d, ""))
		}
	}
	if len(out) == 0 {
		return nil, &RecordError{Venue: raw.Venue.Code, Raw: raw.DateText, Err: ErrNoDate}
	}
	return out, nil
}

// resolveDate turns a yearless month/day into a concrete date. If the date
// read in ref's year falls more than the grace window before ref, it belongs
// to the next year.
func resolveDate(ref time.Time, month, day int) (time.Time, bool) {
	d := makeDate(ref.Year(), month, day)
	if d.IsZero() {
		return time.Time{}, false
	}
	cutoff := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC).Add(-rolloverGrace)
	if d.Before(cutoff) {
		d = makeDate(ref.Year()+1, month, day)
		if d.IsZero() {
			return time.Time{}, false
		}
	}
	return d, true
}

// makeDate builds a date and rejects invalid month/day combinations, which
// time.Date would otherwise silently roll over (2/30 becoming 3/2).
func makeDate(year, month, day int) time.Time {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if int(d.Month()) != month || d.Day() != day {
		return time.Time{}
	}
	return d
}

// parseClock extracts an HH:MM time from a single token, accepting 12-hour
// text with AM/PM or 午前/午後 markers. It never fabricates a value: tokens
// without a valid time yield ok=false.
func parseClock(tok string) (string, bool) {
	m := timePat.FindStringSubmatch(tok)
	if m == nil {
		return "", false
	}
	h, _ := strconv.Atoi(m[2])
	mi, _ := strconv.Atoi(m[3])
	if mi > 59 {
		return "", false
	}

	marker := strings.ToUpper(m[1])
	if marker == "" {
		marker = strings.ToUpper(m[4])
	}
	switch marker {
	case "PM", "午後":
		if h > 12 {
			return "", false
		}
		if h < 12 {
			h += 12
		}
	case "AM", "午前":
		if h > 12 {
			return "", false
		}
		if h == 12 {
			h = 0
		}
	}
	if h > 23 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, mi), true
}

// firstTime returns the first parsable clock time anywhere in text, or "".
func firstTime(text string) string {
	for _, tok := range strings.Fields(text) {
		if clock, ok := parseClock(tok); ok {
			return clock
		}
	}
	// Times are not always whitespace-separated from range dashes
	// (10:00~18:00), so fall back to a raw scan.
	if clock, ok := parseClock(text); ok {
		return clock
	}
	return ""
}
