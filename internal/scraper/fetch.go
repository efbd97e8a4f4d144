package scraper

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/YOSHITATSU-1998/event-notify/internal/normalize"
	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

// VenueResult is one venue's contribution to a run: its raw records, or the
// error that emptied it.
type VenueResult struct {
	Venue   venue.Venue
	Records []normalize.RawRecord
	Err     error
}

// FetchAll runs every source concurrently and collects per-venue results.
// A venue failure is recorded in its result, never returned: the group error
// is always nil and no venue can cancel its siblings.
func FetchAll(ctx context.Context, sources []Source) []VenueResult {
	results := make([]VenueResult, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			records, err := src.Fetch(ctx)
			results[i] = VenueResult{Venue: src.Venue(), Records: records, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
