// Package snapshot provides the per-venue, per-day JSON capture of scraped
// records.
//
// Every run writes one file per venue, {date}_{code}.json, holding the
// venue's identified records for that day. The files are an audit trail for
// the sync engine and double as a fallback data source for read-side
// collaborators when the persistent store is disabled. A run that scraped
// nothing still writes an empty array, so "no events" and "scrape failed"
// stay distinguishable.
package snapshot
