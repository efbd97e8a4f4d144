// Package refresh is the sync engine: it collects canonical records from
// every venue and the manual overlay, computes the change set against the
// persistent store, and applies it in one transaction.
//
// The ownership rule is: auto rows dated today or later belong to the latest
// run. Any such row missing from the new batch is deleted, new fingerprints
// are inserted, identical fingerprints are left alone. Past rows are history
// and manual rows are the operator's; neither is ever touched. One venue
// failing degrades that venue to an empty contribution without blocking the
// others; a store transaction failing aborts the whole sync step with
// nothing applied.
package refresh
