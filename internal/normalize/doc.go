// Package normalize converts the raw text fields scraped from venue sites
// into canonical event records.
//
// Venue listings arrive as loose Japanese date/time text such as
// "8.29(金) 10:30～ 14:00～" or "8.13(水)～8.31(日) 10:00～18:00". A single
// raw listing can therefore expand to several records: one per showtime, or
// one per day of an exhibition range. Source text never carries a year; the
// year is inferred from the run's reference date with a rollover rule for
// listings that straddle the new year.
package normalize
