// Package manual loads operator-curated event entries and merges them over
// the scraped feed.
//
// Two files live alongside the snapshots: manual_events.json holds one-shot
// entries with a concrete date, manual_recurring.json holds RFC 5545
// recurrence rules that expand into concrete occurrences for each run's
// future window. Manual entries always win: when a scraped record and a
// manual record resolve to the same fingerprint, the persisted row keeps the
// manual tag, so an operator's entry survives even once a venue site starts
// listing the same event.
package manual
