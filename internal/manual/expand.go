package manual

import (
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/YOSHITATSU-1998/event-notify/internal/event"
)

// Expand materializes the overlay into canonical records for the run's
// future window [windowStart, windowEnd). One-shot entries pass through when
// their date is in the window; recurring entries expand into every occurrence
// the rule produces inside it.
func Expand(set Set, windowStart, windowEnd time.Time, extractedAt time.Time) []event.Record {
	start := midnight(windowStart)
	end := midnight(windowEnd)

	var out []event.Record

	for _, e := range set.OneShot {
		d, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			continue // Load validated this already
		}
		if d.Before(start) || !d.Before(end) {
			continue
		}
		out = append(out, record(e, e.Date, extractedAt))
	}

	for _, e := range set.Recurring {
		r, err := rrule.StrToRRule(e.RRule)
		if err != nil {
			continue
		}
		// Anchor the rule at the window start; rules are expected to carry
		// their own BYDAY/BYMONTHDAY anchors rather than lean on DTSTART.
		r.DTStart(start)
		for _, occ := range r.Between(start, end, true) {
			if !occ.Before(end) {
				continue
			}
			out = append(out, record(e, occ.Format("2006-01-02"), extractedAt))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Venue != out[j].Venue {
			return out[i].Venue < out[j].Venue
		}
		return event.SortKey(out[i]) < event.SortKey(out[j])
	})
	return out
}

// Merge resolves ownership for the combined batch: records are keyed by
// fingerprint, and when a scraped record and a manual record collide the
// manual tag wins. The result is what the sync engine reconciles against the
// store.
func Merge(scraped []event.Identified, overlay []event.Identified) []event.Tagged {
	merged := make(map[string]event.Tagged, len(scraped)+len(overlay))
	for _, rec := range scraped {
		merged[rec.Fingerprint] = event.Tagged{Identified: rec, Type: event.TypeAuto}
	}
	for _, rec := range overlay {
		// Overwrites a scraped record with the same fingerprint: never
		// downgraded back to auto.
		merged[rec.Fingerprint] = event.Tagged{Identified: rec, Type: event.TypeManual}
	}

	out := make([]event.Tagged, 0, len(merged))
	for _, rec := range merged {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Venue != out[j].Venue {
			return out[i].Venue < out[j].Venue
		}
		return event.SortKey(out[i].Record) < event.SortKey(out[j].Record)
	})
	return out
}

func record(e Entry, date string, extractedAt time.Time) event.Record {
	return event.Record{
		Date:        date,
		Time:        e.Time,
		Title:       event.NormalizeText(e.Title),
		Venue:       e.Venue,
		Source:      "manual",
		ExtractedAt: extractedAt,
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
