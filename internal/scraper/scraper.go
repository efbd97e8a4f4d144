package scraper

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/YOSHITATSU-1998/event-notify/internal/event"
	"github.com/YOSHITATSU-1998/event-notify/internal/normalize"
	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

const (
	// UserAgent identifies the bot to venue sites.
	UserAgent = "event-notify/1.0 (+https://github.com/YOSHITATSU-1998/event-notify)"
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 15 * time.Second
)

// FetchError marks one venue's fetch or parse as failed. The venue
// contributes zero records for the run; the others proceed.
type FetchError struct {
	Venue venue.Code
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch venue %s: %v", e.Venue, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Source produces the raw listings for one venue.
type Source interface {
	Venue() venue.Venue
	Fetch(ctx context.Context) ([]normalize.RawRecord, error)
}

// NewClient builds the retrying HTTP client shared by all sources. Retries
// cover transient network errors and 5xx responses; the overall timeout
// bounds each attempt.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 3 * time.Second
	rc.Logger = nil
	rc.HTTPClient.Timeout = timeout
	return rc.StandardClient()
}

// SiteSource scrapes one venue page using its registered selector profile.
type SiteSource struct {
	venue  venue.Venue
	client *http.Client
}

// NewSiteSource creates a source for one venue.
func NewSiteSource(v venue.Venue, client *http.Client) *SiteSource {
	return &SiteSource{venue: v, client: client}
}

// Sources builds a SiteSource for every registered venue.
func Sources(client *http.Client) []Source {
	all := venue.All()
	out := make([]Source, 0, len(all))
	for _, v := range all {
		out = append(out, NewSiteSource(v, client))
	}
	return out
}

// Venue returns the venue this source scrapes.
func (s *SiteSource) Venue() venue.Venue { return s.venue }

// Fetch downloads the venue page and extracts raw listings.
func (s *SiteSource) Fetch(ctx context.Context) ([]normalize.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.venue.URL, nil)
	if err != nil {
		return nil, &FetchError{Venue: s.venue.Code, Err: err}
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{Venue: s.venue.Code, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Venue: s.venue.Code, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &FetchError{Venue: s.venue.Code, Err: fmt.Errorf("parsing HTML: %w", err)}
	}

	return s.parse(doc), nil
}

// cardSplit separates the leading date/time block from the trailing title in
// free-form card text, e.g. "8/30(金) 10:30 〜 ディズニー・オン・アイス".
var cardSplit = regexp.MustCompile(`\s{2,}|\s+[—–-]\s+`)

// parse extracts listings with the primary selector (table rows with a
// date cell and a title cell), then falls back to common card layouts.
func (s *SiteSource) parse(doc *goquery.Document) []normalize.RawRecord {
	now := time.Now().In(event.JST)
	var records []normalize.RawRecord

	doc.Find(s.venue.Primary).Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		if len(cells) < 2 {
			return
		}
		records = append(records, normalize.RawRecord{
			Venue:       s.venue,
			DateText:    cells[0],
			Title:       cells[1],
			Source:      s.venue.URL,
			ExtractedAt: now,
		})
	})
	if len(records) > 0 {
		return records
	}

	doc.Find(s.venue.Fallback).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		parts := cardSplit.Split(text, -1)
		if len(parts) < 2 {
			return
		}
		records = append(records, normalize.RawRecord{
			Venue:       s.venue,
			DateText:    strings.TrimSpace(parts[0]),
			Title:       strings.TrimSpace(parts[len(parts)-1]),
			Source:      s.venue.URL,
			ExtractedAt: now,
		})
	})
	return records
}
