// Package scraper fetches raw event listings from the venue websites.
//
// Each venue is an independent Source producing raw records; sources run in
// parallel with no shared state and fail independently, so one site being
// down or unparsable never blocks the others. Pages are fetched with a
// retrying HTTP client and parsed with a primary CSS selector, falling back
// to a looser card-style selector when a site drops its table markup.
package scraper
