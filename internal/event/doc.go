// Package event provides the canonical record types shared by the whole
// pipeline: normalized event listings, their content fingerprints, and the
// pure set-difference used to reconcile a scrape batch against the persistent
// store.
//
// A fingerprint is a SHA-256 digest over the semantic content of a listing
// (venue, date, time, normalized title, source URL). Two scrapes of the same
// listing always produce the same fingerprint, even when the page text drifts
// between full-width and half-width characters or picks up extra whitespace.
package event
