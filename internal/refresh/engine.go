package refresh

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/YOSHITATSU-1998/event-notify/internal/config"
	"github.com/YOSHITATSU-1998/event-notify/internal/event"
	"github.com/YOSHITATSU-1998/event-notify/internal/manual"
	"github.com/YOSHITATSU-1998/event-notify/internal/normalize"
	"github.com/YOSHITATSU-1998/event-notify/internal/scraper"
	"github.com/YOSHITATSU-1998/event-notify/internal/snapshot"
	"github.com/YOSHITATSU-1998/event-notify/internal/store"
)

// lockFile serializes the fetch-compute-apply critical section across runs
// sharing a storage directory. Overlapping reconciles against a stale
// future-auto snapshot would race each other's deletes; the lock keeps at
// most one in flight.
const lockFile = "refresh.lock"

// Engine wires the pipeline together for one run.
type Engine struct {
	Sources   []scraper.Source
	Snapshots *snapshot.Store
	Store     *store.Store // nil when persistent-store writes are disabled
	Cfg       config.Config
	Log       *logrus.Logger
}

// Run executes the full pipeline: scrape every venue in parallel, normalize
// and fingerprint, capture snapshots, merge the manual overlay, and
// reconcile the result against the persistent store. A nil error with failed
// venues in the report is a partial success; a non-nil error means the store
// was left exactly as it was.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	ref, err := e.Cfg.Reference()
	if err != nil {
		return nil, err
	}
	windowStart, windowEnd := e.Cfg.Window(ref)
	refDate := windowStart.Format("2006-01-02")
	endDate := windowEnd.Format("2006-01-02")

	report := &Report{
		RunID:         uuid.NewString(),
		ReferenceDate: refDate,
		WindowEnd:     endDate,
	}
	log := e.Log.WithField("run_id", report.RunID)
	log.WithField("reference", refDate).Info("refresh started")

	// Scrape, normalize, fingerprint, and capture, venue by venue.
	results := scraper.FetchAll(ctx, e.Sources)
	var batch []event.Identified
	for _, res := range results {
		status := VenueStatus{Venue: res.Venue.Code, Name: res.Venue.Name}
		vlog := log.WithField("venue", res.Venue.Code)

		if res.Err != nil {
			status.Failed = true
			status.Err = res.Err.Error()
			report.Venues = append(report.Venues, status)
			vlog.WithError(res.Err).Warn("venue fetch failed, contributing zero records")
			continue
		}

		records := e.normalizeVenue(res, ref, refDate, endDate, &status, vlog)
		if err := e.Snapshots.Write(res.Venue.Code, refDate, records); err != nil {
			// The snapshot is an audit artifact; losing it degrades the
			// venue, not the run.
			status.Failed = true
			status.Err = err.Error()
			report.Venues = append(report.Venues, status)
			vlog.WithError(err).Warn("snapshot write failed")
			continue
		}

		status.Scraped = len(records)
		report.Venues = append(report.Venues, status)
		batch = append(batch, records...)
		vlog.WithField("records", len(records)).Debug("venue scraped")
	}

	// Manual overlay: load, expand into the window, merge with precedence.
	overlay := e.loadOverlay(windowStart, windowEnd, report, log)
	tagged := manual.Merge(batch, overlay)

	if e.Store == nil {
		log.Info("store disabled, snapshot-only run")
		return report, nil
	}

	// An empty batch means nothing was collected, not that every event was
	// cancelled. Reconciling against it would delete the whole forward
	// calendar, so the sync step is skipped and the run marked degraded.
	if len(tagged) == 0 {
		report.SkippedEmpty = true
		log.Warn("no events collected, skipping sync")
		return report, nil
	}

	// Fetch-compute-apply is one critical section: the future-auto set must
	// not go stale between the read and the write.
	lock := flock.New(filepath.Join(e.Snapshots.Dir(), lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return report, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return report, fmt.Errorf("another refresh run holds the lock")
	}
	defer lock.Unlock()

	existing, err := e.Store.FutureAuto(ctx, refDate)
	if err != nil {
		return report, err
	}
	diff := event.Diff(existing, tagged)

	inserted, deleted, err := e.Store.Apply(ctx, diff.ToDelete, diff.ToInsert)
	if err != nil {
		return report, err
	}

	// Counts come from the store, not the diff: an insert that no-ops on a
	// fingerprint conflict (a manual row the overlay keeps producing) is an
	// unchanged row, not a new one.
	report.Inserted = inserted
	report.Deleted = deleted
	report.Unchanged = diff.Unchanged + (len(diff.ToInsert) - inserted)
	report.StoreApplied = true

	log.WithFields(logrus.Fields{
		"inserted":  report.Inserted,
		"deleted":   report.Deleted,
		"unchanged": report.Unchanged,
		"failed":    report.FailedVenues(),
	}).Info("refresh complete")
	return report, nil
}

// normalizeVenue turns one venue's raw records into identified, de-duplicated,
// window-filtered records. Malformed records are dropped and counted, never
// fatal to the venue.
func (e *Engine) normalizeVenue(res scraper.VenueResult, ref time.Time, refDate, endDate string, status *VenueStatus, vlog *logrus.Entry) []event.Identified {
	seen := make(map[string]struct{})
	var out []event.Identified

	for _, raw := range res.Records {
		recs, err := normalize.Normalize(raw, ref)
		if err != nil {
			status.Dropped++
			vlog.WithError(err).Debug("dropped malformed record")
			continue
		}
		for _, rec := range recs {
			if rec.Date < refDate || rec.Date >= endDate {
				continue
			}
			id := event.Identify(rec)
			if _, dup := seen[id.Fingerprint]; dup {
				continue
			}
			seen[id.Fingerprint] = struct{}{}
			out = append(out, id)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return event.SortKey(out[i].Record) < event.SortKey(out[j].Record)
	})
	return out
}

// loadOverlay reads and expands the manual entry files. An unreadable file
// degrades to an empty overlay so the scraped feed still syncs; dropped
// entries are counted on the report.
func (e *Engine) loadOverlay(windowStart, windowEnd time.Time, report *Report, log *logrus.Entry) []event.Identified {
	set, dropped, err := manual.Load(e.Snapshots.Dir())
	if err != nil {
		log.WithError(err).Warn("manual overlay unavailable")
		return nil
	}
	report.ManualDropped = len(dropped)
	for _, verr := range dropped {
		log.WithError(verr).Warn("dropped manual entry")
	}

	now := time.Now().In(event.JST)
	records := manual.Expand(set, windowStart, windowEnd, now)
	report.ManualActive = len(records)

	out := make([]event.Identified, 0, len(records))
	for _, rec := range records {
		out = append(out, event.Identify(rec))
	}
	return out
}
