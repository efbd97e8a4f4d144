package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/YOSHITATSU-1998/event-notify/internal/event"
	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func tagged(date, clock, title string, typ event.Type) event.Tagged {
	return event.Tagged{
		Identified: event.Identify(event.Record{
			Date:        date,
			Time:        clock,
			Title:       title,
			Venue:       venue.MarineMesseA,
			Source:      "https://www.marinemesse.or.jp/messe/event/",
			ExtractedAt: time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC),
		}),
		Type: typ,
	}
}

func TestApplyAndFutureAuto(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	past := tagged("2025-07-31", "18:00", "過去イベント", event.TypeAuto)
	today := tagged("2025-08-01", "10:00", "当日イベント", event.TypeAuto)
	future := tagged("2025-09-15", "", "未来イベント", event.TypeAuto)
	curated := tagged("2025-09-20", "19:00", "手動イベント", event.TypeManual)

	inserted, deleted, err := s.Apply(ctx, nil, []event.Tagged{past, today, future, curated})
	if err != nil {
		t.Fatal(err)
	}
	if inserted != 4 || deleted != 0 {
		t.Fatalf("inserted/deleted = %d/%d, want 4/0", inserted, deleted)
	}

	t.Run("future auto excludes past and manual", func(t *testing.T) {
		got, err := s.FutureAuto(ctx, "2025-08-01")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("FutureAuto returned %d rows, want 2", len(got))
		}
		if _, ok := got[today.Fingerprint]; !ok {
			t.Error("today's auto row missing from future set")
		}
		if _, ok := got[future.Fingerprint]; !ok {
			t.Error("future auto row missing from future set")
		}
		if _, ok := got[curated.Fingerprint]; ok {
			t.Error("manual row leaked into future-auto set")
		}
	})

	t.Run("delete removes auto rows", func(t *testing.T) {
		_, deleted, err := s.Apply(ctx, []string{future.Fingerprint}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if deleted != 1 {
			t.Errorf("deleted = %d, want 1", deleted)
		}
		got, err := s.FutureAuto(ctx, "2025-08-01")
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := got[future.Fingerprint]; ok {
			t.Error("deleted row still present")
		}
	})

	t.Run("delete never touches manual rows", func(t *testing.T) {
		// Even when handed a manual fingerprint directly, the delete phase
		// must not remove it.
		_, deleted, err := s.Apply(ctx, []string{curated.Fingerprint}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if deleted != 0 {
			t.Errorf("deleted = %d, want 0", deleted)
		}
		rows, err := s.ListManual(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 || rows[0].Fingerprint != curated.Fingerprint {
			t.Fatalf("manual row was deleted: %+v", rows)
		}
	})

	t.Run("insert conflict leaves existing row untouched", func(t *testing.T) {
		asAuto := curated
		asAuto.Type = event.TypeAuto
		inserted, _, err := s.Apply(ctx, nil, []event.Tagged{asAuto})
		if err != nil {
			t.Fatal(err)
		}
		if inserted != 0 {
			t.Errorf("inserted = %d, want 0 for a no-op conflict", inserted)
		}
		rows, err := s.ListManual(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 {
			t.Fatal("manual row was downgraded by a conflicting insert")
		}
	})

	t.Run("past rows survive everything above", func(t *testing.T) {
		rows, err := s.List(ctx, "2025-07-01", "2025-08-01")
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 || rows[0].Fingerprint != past.Fingerprint {
			t.Fatalf("past row missing: %+v", rows)
		}
	})
}

func TestApplyAtomicity(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	keep := tagged("2025-09-01", "10:00", "維持イベント", event.TypeAuto)
	if _, _, err := s.Apply(ctx, nil, []event.Tagged{keep}); err != nil {
		t.Fatal(err)
	}

	// An insert that trips the event_type CHECK constraint must roll back
	// the delete phase of the same batch.
	bad := tagged("2025-09-02", "", "壊れた行", event.Type("bogus"))
	_, _, err := s.Apply(ctx, []string{keep.Fingerprint}, []event.Tagged{bad})
	if err == nil {
		t.Fatal("expected transaction failure")
	}
	var txErr *TxError
	if !errors.As(err, &txErr) {
		t.Fatalf("err = %T, want *TxError", err)
	}

	got, err := s.FutureAuto(ctx, "2025-08-01")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got[keep.Fingerprint]; !ok {
		t.Error("rolled-back delete was applied anyway")
	}
}

func TestInsertManual(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	rec := event.Identify(event.Record{
		Date:        "2025-12-24",
		Time:        "18:00",
		Title:       "クリスマス公演",
		Venue:       venue.SunPalace,
		Source:      "manual",
		ExtractedAt: time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC),
	})
	if err := s.InsertManual(ctx, rec, "operator note"); err != nil {
		t.Fatal(err)
	}

	rows, err := s.ListManual(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d manual rows, want 1", len(rows))
	}
	if rows[0].Type != event.TypeManual {
		t.Errorf("type = %s, want manual", rows[0].Type)
	}
	if rows[0].Notes != "operator note" {
		t.Errorf("notes = %q", rows[0].Notes)
	}
}

func TestApplyUpgradesAutoRowToManual(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	scraped := tagged("2025-10-05", "19:00", "共通イベント", event.TypeAuto)
	if _, _, err := s.Apply(ctx, nil, []event.Tagged{scraped}); err != nil {
		t.Fatal(err)
	}

	claimed := scraped
	claimed.Type = event.TypeManual

	inserted, _, err := s.Apply(ctx, nil, []event.Tagged{claimed})
	if err != nil {
		t.Fatal(err)
	}
	if inserted != 1 {
		t.Errorf("inserted = %d, want 1 for the ownership upgrade", inserted)
	}

	rows, err := s.ListManual(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Fingerprint != scraped.Fingerprint {
		t.Fatalf("stored row was not upgraded to manual: %+v", rows)
	}

	t.Run("upgrade is idempotent", func(t *testing.T) {
		inserted, _, err := s.Apply(ctx, nil, []event.Tagged{claimed})
		if err != nil {
			t.Fatal(err)
		}
		if inserted != 0 {
			t.Errorf("inserted = %d, want 0 on the second apply", inserted)
		}
	})

	t.Run("upgraded row survives the delete phase", func(t *testing.T) {
		_, deleted, err := s.Apply(ctx, []string{scraped.Fingerprint}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if deleted != 0 {
			t.Errorf("deleted = %d, want 0", deleted)
		}
	})
}
