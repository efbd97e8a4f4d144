package refresh

import (
	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

// VenueStatus is one venue's line in the run report.
type VenueStatus struct {
	Venue   venue.Code `json:"venue"`
	Name    string     `json:"name"`
	Scraped int        `json:"scraped"`
	Dropped int        `json:"dropped"`
	Failed  bool       `json:"failed"`
	Err     string     `json:"error,omitempty"`
}

// Report summarizes one sync run. A run with failed venues still publishes
// whatever succeeded; StoreApplied is false for dry runs and for runs that
// aborted before the transaction.
type Report struct {
	RunID         string        `json:"run_id"`
	ReferenceDate string        `json:"reference_date"`
	WindowEnd     string        `json:"window_end"`
	Venues        []VenueStatus `json:"venues"`
	ManualActive  int           `json:"manual_active"`
	ManualDropped int           `json:"manual_dropped"`
	Inserted      int           `json:"inserted"`
	Deleted       int           `json:"deleted"`
	Unchanged     int           `json:"unchanged"`
	// SkippedEmpty marks a run that collected nothing at all; the sync step
	// was skipped rather than allowed to empty the stored calendar.
	SkippedEmpty bool `json:"skipped_empty,omitempty"`
	StoreApplied bool `json:"store_applied"`
}

// FailedVenues counts venues that contributed nothing due to an error.
func (r *Report) FailedVenues() int {
	n := 0
	for _, v := range r.Venues {
		if v.Failed {
			n++
		}
	}
	return n
}
