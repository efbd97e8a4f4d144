package event

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

// JST is the pipeline timezone. Venue sites publish schedules in it and the
// run's reference date is taken in it.
var JST = time.FixedZone("JST", 9*60*60)

// Type marks who owns a persisted event row.
type Type string

const (
	// TypeAuto rows come from scraping and are fully owned by the sync run:
	// future-dated ones are replaced wholesale on every refresh.
	TypeAuto Type = "auto"
	// TypeManual rows are curated by an operator and are never created,
	// changed, or deleted by the sync run.
	TypeManual Type = "manual"
)

// Record is a single normalized event listing.
type Record struct {
	Date        string     `json:"date"`           // YYYY-MM-DD
	Time        string     `json:"time,omitempty"` // HH:MM, empty when all-day or unknown
	Title       string     `json:"title"`
	Venue       venue.Code `json:"venue"`
	Source      string     `json:"source"`
	ExtractedAt time.Time  `json:"extracted_at"`
}

// Identified is a Record plus its content fingerprint.
type Identified struct {
	Record
	Fingerprint string `json:"hash"`
}

// Tagged is an Identified record with its resolved ownership type.
type Tagged struct {
	Identified
	Type Type `json:"event_type"`
}

// Persisted mirrors a row of the events table.
type Persisted struct {
	Tagged
	CreatedAt time.Time `json:"created_at"`
	Notes     string    `json:"notes,omitempty"`
}

var (
	collapseSpace = regexp.MustCompile(`\s+`)
	quoteFolder   = strings.NewReplacer(
		"“", `"`, "”", `"`, "‟", `"`, "〝", `"`, "〞", `"`,
		"‘", "'", "’", "'", "＇", "'",
	)
)

// NormalizeText folds text to a stable form for hashing: NFKC (which maps
// full-width letters, digits, and punctuation to their half-width forms),
// unified quotation marks, collapsed whitespace runs, trimmed ends.
func NormalizeText(s string) string {
	x := norm.NFKC.String(s)
	x = quoteFolder.Replace(x)
	x = collapseSpace.ReplaceAllString(x, " ")
	return strings.TrimSpace(x)
}

// Fingerprint derives the content identity of a record: a SHA-256 hex digest
// over the ordered tuple (venue, date, time, normalized title, source). An
// absent time contributes the empty string so all-day listings hash
// consistently across scrapes.
func Fingerprint(r Record) string {
	key := strings.Join([]string{
		string(r.Venue),
		r.Date,
		r.Time,
		NormalizeText(r.Title),
		r.Source,
	}, "|")
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}

// Identify attaches the fingerprint to a record.
func Identify(r Record) Identified {
	return Identified{Record: r, Fingerprint: Fingerprint(r)}
}

// SortKey orders records for snapshots and reports: by date, then time with
// timeless entries last, then title.
func SortKey(r Record) string {
	t := r.Time
	if t == "" {
		t = "99:99"
	}
	return r.Date + "|" + t + "|" + r.Title
}
