package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

func mustVenue(t *testing.T, code string) venue.Venue {
	t.Helper()
	v, err := venue.ByCode(code)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func raw(t *testing.T, dateText, title string) RawRecord {
	t.Helper()
	return RawRecord{
		Venue:       mustVenue(t, "a"),
		DateText:    dateText,
		Title:       title,
		Source:      "https://www.marinemesse.or.jp/messe/event/",
		ExtractedAt: time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC),
	}
}

func ref(t *testing.T, date string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

type want struct {
	date string
	time string
}

func checkRecords(t *testing.T, dateText, refDate string, wants []want) {
	t.Helper()
	recs, err := Normalize(raw(t, dateText, "テスト公演"), ref(t, refDate))
	if err != nil {
		t.Fatalf("Normalize(%q) error: %v", dateText, err)
	}
	if len(recs) != len(wants) {
		t.Fatalf("Normalize(%q) = %d records, want %d: %+v", dateText, len(recs), len(wants), recs)
	}
	for i, w := range wants {
		if recs[i].Date != w.date || recs[i].Time != w.time {
			t.Errorf("record[%d] = %s %q, want %s %q", i, recs[i].Date, recs[i].Time, w.date, w.time)
		}
	}
}

func TestNormalizeSingleDates(t *testing.T) {
	t.Run("date with one time", func(t *testing.T) {
		checkRecords(t, "8.29(金) 10:30～", "2025-08-01", []want{{"2025-08-29", "10:30"}})
	})

	t.Run("date with multiple times expands", func(t *testing.T) {
		checkRecords(t, "8.29(金) 10:30～ 14:00～", "2025-08-01", []want{
			{"2025-08-29", "10:30"},
			{"2025-08-29", "14:00"},
		})
	})

	t.Run("multiple dates each own following times", func(t *testing.T) {
		checkRecords(t, "8.29(金) 10:30～ 14:00～ 8.30(土) 10:00～", "2025-08-01", []want{
			{"2025-08-29", "10:30"},
			{"2025-08-29", "14:00"},
			{"2025-08-30", "10:00"},
		})
	})

	t.Run("date without time registers bare", func(t *testing.T) {
		checkRecords(t, "9.15(月)", "2025-08-01", []want{{"2025-09-15", ""}})
	})

	t.Run("slash separator", func(t *testing.T) {
		checkRecords(t, "8/30 18:00", "2025-08-01", []want{{"2025-08-30", "18:00"}})
	})

	t.Run("kanji month day form", func(t *testing.T) {
		checkRecords(t, "3月15日 13:00", "2025-03-01", []want{{"2025-03-15", "13:00"}})
	})

	t.Run("date glued to time", func(t *testing.T) {
		checkRecords(t, "8.29(金)10:30～", "2025-08-01", []want{{"2025-08-29", "10:30"}})
	})

	t.Run("facility note after pipe ignored", func(t *testing.T) {
		checkRecords(t, "8.29(金) 10:30～ | 第2展示場", "2025-08-01", []want{{"2025-08-29", "10:30"}})
	})

	t.Run("invalid calendar day dropped", func(t *testing.T) {
		_, err := Normalize(raw(t, "2.30", "テスト公演"), ref(t, "2025-08-01"))
		if !errors.Is(err, ErrNoDate) {
			t.Errorf("err = %v, want ErrNoDate", err)
		}
	})
}

func TestNormalizeRanges(t *testing.T) {
	t.Run("range expands per day with first time", func(t *testing.T) {
		recs, err := Normalize(raw(t, "8.13(水)～8.31(日) 10:00～18:00", "テスト公演"), ref(t, "2025-08-01"))
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 19 {
			t.Fatalf("got %d records, want 19", len(recs))
		}
		if recs[0].Date != "2025-08-13" || recs[18].Date != "2025-08-31" {
			t.Errorf("range endpoints = %s .. %s", recs[0].Date, recs[18].Date)
		}
		for _, r := range recs {
			if r.Time != "10:00" {
				t.Fatalf("record %s time = %q, want 10:00", r.Date, r.Time)
			}
		}
	})

	t.Run("end month inherited from start", func(t *testing.T) {
		checkRecords(t, "9.3(水)～7(日)", "2025-08-01", []want{
			{"2025-09-03", ""},
			{"2025-09-04", ""},
			{"2025-09-05", ""},
			{"2025-09-06", ""},
			{"2025-09-07", ""},
		})
	})

	t.Run("wave dash variant", func(t *testing.T) {
		checkRecords(t, "9.3〜9.4", "2025-08-01", []want{
			{"2025-09-03", ""},
			{"2025-09-04", ""},
		})
	})

	t.Run("range across new year", func(t *testing.T) {
		checkRecords(t, "12.30～1.2", "2025-12-20", []want{
			{"2025-12-30", ""},
			{"2025-12-31", ""},
			{"2026-01-01", ""},
			{"2026-01-02", ""},
		})
	})
}

func TestNormalizeYearRollover(t *testing.T) {
	t.Run("december run resolves january listing to next year", func(t *testing.T) {
		checkRecords(t, "1月5日", "2025-12-20", []want{{"2026-01-05", ""}})
	})

	t.Run("spring run keeps current year", func(t *testing.T) {
		checkRecords(t, "3月15日", "2025-03-01", []want{{"2025-03-15", ""}})
	})

	t.Run("recent past stays in current year", func(t *testing.T) {
		// Within the grace window: still the current year even though the
		// date has passed.
		checkRecords(t, "12.1", "2025-12-20", []want{{"2025-12-01", ""}})
	})
}

func TestNormalizeTimes(t *testing.T) {
	t.Run("full-width digits and separators", func(t *testing.T) {
		checkRecords(t, "８.２９（金） １０：３０～", "2025-08-01", []want{{"2025-08-29", "10:30"}})
	})

	t.Run("gogo marker adds twelve hours", func(t *testing.T) {
		checkRecords(t, "3.15 午後2:00", "2025-03-01", []want{{"2025-03-15", "14:00"}})
	})

	t.Run("gozen keeps morning hours", func(t *testing.T) {
		checkRecords(t, "3.15 午前9:30", "2025-03-01", []want{{"2025-03-15", "09:30"}})
	})

	t.Run("pm suffix", func(t *testing.T) {
		checkRecords(t, "3.15 2:00PM", "2025-03-01", []want{{"2025-03-15", "14:00"}})
	})

	t.Run("noon pm unchanged", func(t *testing.T) {
		checkRecords(t, "3.15 12:30PM", "2025-03-01", []want{{"2025-03-15", "12:30"}})
	})

	t.Run("midnight am", func(t *testing.T) {
		checkRecords(t, "3.15 午前12:15", "2025-03-01", []want{{"2025-03-15", "00:15"}})
	})

	t.Run("nonsense time falls back to bare date", func(t *testing.T) {
		checkRecords(t, "3.15 99:99", "2025-03-01", []want{{"2025-03-15", ""}})
	})
}

func TestNormalizeErrors(t *testing.T) {
	t.Run("empty title", func(t *testing.T) {
		_, err := Normalize(raw(t, "8.29", "   "), ref(t, "2025-08-01"))
		if !errors.Is(err, ErrEmptyTitle) {
			t.Errorf("err = %v, want ErrEmptyTitle", err)
		}
		var rerr *RecordError
		if !errors.As(err, &rerr) {
			t.Fatal("error is not a *RecordError")
		}
		if rerr.Venue != venue.MarineMesseA {
			t.Errorf("RecordError venue = %s, want a", rerr.Venue)
		}
	})

	t.Run("no date", func(t *testing.T) {
		_, err := Normalize(raw(t, "調整中", "テスト公演"), ref(t, "2025-08-01"))
		if !errors.Is(err, ErrNoDate) {
			t.Errorf("err = %v, want ErrNoDate", err)
		}
	})
}

func TestNormalizeTitle(t *testing.T) {
	recs, err := Normalize(raw(t, "8.29", "  ライブ　２０２５  "), ref(t, "2025-08-01"))
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Title != "ライブ 2025" {
		t.Errorf("title = %q, want %q", recs[0].Title, "ライブ 2025")
	}
}
