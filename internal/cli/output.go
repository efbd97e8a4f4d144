package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/YOSHITATSU-1998/event-notify/internal/event"
	"github.com/YOSHITATSU-1998/event-notify/internal/refresh"
	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

// renderReport prints the per-venue breakdown and run totals.
func renderReport(w io.Writer, r *refresh.Report) {
	fmt.Fprintf(w, "Run %s  reference=%s  window-end=%s\n", r.RunID, r.ReferenceDate, r.WindowEnd)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Venue", "Code", "Scraped", "Dropped", "Status"})
	for _, v := range r.Venues {
		status := "ok"
		if v.Failed {
			status = "FAILED: " + v.Err
		}
		t.AppendRow(table.Row{v.Name, v.Venue, v.Scraped, v.Dropped, status})
	}
	t.Render()

	fmt.Fprintf(w, "Manual overlay: %d active, %d dropped\n", r.ManualActive, r.ManualDropped)
	switch {
	case r.StoreApplied:
		fmt.Fprintf(w, "Store: %d inserted, %d deleted, %d unchanged\n", r.Inserted, r.Deleted, r.Unchanged)
	case r.SkippedEmpty:
		fmt.Fprintln(w, "Store: not applied (no events collected)")
	default:
		fmt.Fprintln(w, "Store: not applied (dry run)")
	}
	if n := r.FailedVenues(); n > 0 {
		fmt.Fprintf(w, "%d venue(s) failed; their events were not refreshed\n", n)
	}
}

// renderEvents prints persisted rows as a table.
func renderEvents(w io.Writer, events []event.Persisted) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Date", "Time", "Title", "Venue", "Type"})
	for _, e := range events {
		clock := e.Time
		if clock == "" {
			clock = "-"
		}
		name := string(e.Venue)
		if v, err := venue.ByCode(string(e.Venue)); err == nil {
			name = v.Name
		}
		t.AppendRow(table.Row{e.Date, clock, e.Title, name, e.Type})
	}
	t.Render()
}
