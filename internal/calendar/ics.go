// Package calendar renders persisted events as an iCalendar (RFC 5545) feed,
// importable into any calendar client.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/YOSHITATSU-1998/event-notify/internal/event"
	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

const prodID = "-//event-notify//event-notify//EN"

// defaultDuration is used for timed events; listing pages publish a start
// time but almost never an end time.
const defaultDuration = 2 * time.Hour

// Generate renders rows as one VCALENDAR. Timed events start at their listed
// JST clock time; events without a time become all-day entries. An empty row
// set yields an empty string.
func Generate(rows []event.Persisted, name string) string {
	if len(rows) == 0 {
		return ""
	}

	var ics strings.Builder
	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:" + prodID + "\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if name != "" {
		ics.WriteString(fmt.Sprintf("X-WR-CALNAME:%s\r\n", escapeICS(name)))
	}

	stamp := formatICSTime(time.Now().UTC())
	for _, row := range rows {
		writeEvent(&ics, row, stamp)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, row event.Persisted, stamp string) {
	day, err := time.ParseInLocation("2006-01-02", row.Date, event.JST)
	if err != nil {
		return
	}

	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:%s@event-notify\r\n", row.Fingerprint))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", stamp))

	if start, ok := startAt(day, row.Time); ok {
		ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICSTime(start)))
		ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICSTime(start.Add(defaultDuration))))
	} else {
		ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", day.Format("20060102")))
		ics.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", day.AddDate(0, 0, 1).Format("20060102")))
	}

	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(row.Title)))
	if v, err := venue.ByCode(string(row.Venue)); err == nil {
		ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(v.Name)))
	}
	if row.Source != "" && row.Source != "manual" {
		ics.WriteString(fmt.Sprintf("URL:%s\r\n", row.Source))
	}
	if row.Notes != "" {
		ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(row.Notes)))
	}
	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// startAt resolves a listed HH:MM clock time against its JST calendar day.
func startAt(day time.Time, clock string) (time.Time, bool) {
	if clock == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, event.JST), true
}

// formatICSTime formats a time as an iCalendar UTC datetime.
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes text per RFC 5545.
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
