package event

import (
	"testing"

	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

func tagged(date, title string, typ Type) Tagged {
	return Tagged{
		Identified: Identify(Record{
			Date:   date,
			Title:  title,
			Venue:  venue.MarineMesseA,
			Source: "https://example.test/events",
		}),
		Type: typ,
	}
}

func persisted(rec Tagged) Persisted {
	return Persisted{Tagged: rec}
}

func TestDiff(t *testing.T) {
	kept := tagged("2026-04-01", "継続イベント", TypeAuto)
	stale := tagged("2026-04-02", "中止イベント", TypeAuto)
	fresh := tagged("2026-04-03", "新規イベント", TypeAuto)

	existing := map[string]Persisted{
		kept.Fingerprint:  persisted(kept),
		stale.Fingerprint: persisted(stale),
	}

	t.Run("set difference", func(t *testing.T) {
		res := Diff(existing, []Tagged{kept, fresh})

		if len(res.ToDelete) != 1 || res.ToDelete[0] != stale.Fingerprint {
			t.Errorf("ToDelete = %v, want [%s]", res.ToDelete, stale.Fingerprint)
		}
		if len(res.ToInsert) != 1 || res.ToInsert[0].Fingerprint != fresh.Fingerprint {
			t.Errorf("ToInsert = %v, want the fresh record", res.ToInsert)
		}
		if res.Unchanged != 1 {
			t.Errorf("Unchanged = %d, want 1", res.Unchanged)
		}
	})

	t.Run("identical batch is a no-op", func(t *testing.T) {
		full := map[string]Persisted{
			kept.Fingerprint:  persisted(kept),
			fresh.Fingerprint: persisted(fresh),
		}
		res := Diff(full, []Tagged{kept, fresh})

		if len(res.ToDelete) != 0 || len(res.ToInsert) != 0 {
			t.Errorf("expected no changes, got delete=%v insert=%v", res.ToDelete, res.ToInsert)
		}
		if res.Unchanged != 2 {
			t.Errorf("Unchanged = %d, want 2", res.Unchanged)
		}
	})

	t.Run("empty store inserts everything", func(t *testing.T) {
		res := Diff(nil, []Tagged{kept, fresh})
		if len(res.ToInsert) != 2 || len(res.ToDelete) != 0 {
			t.Errorf("got insert=%d delete=%d, want 2/0", len(res.ToInsert), len(res.ToDelete))
		}
	})

	t.Run("empty batch deletes the future-auto set", func(t *testing.T) {
		res := Diff(existing, nil)
		if len(res.ToDelete) != 2 {
			t.Errorf("ToDelete = %v, want both fingerprints", res.ToDelete)
		}
	})

	t.Run("duplicate batch records counted once", func(t *testing.T) {
		res := Diff(nil, []Tagged{fresh, fresh, fresh})
		if len(res.ToInsert) != 1 {
			t.Errorf("ToInsert = %d records, want 1", len(res.ToInsert))
		}
	})

	t.Run("manual record claims a stored auto row", func(t *testing.T) {
		claimed := kept
		claimed.Type = TypeManual
		res := Diff(existing, []Tagged{claimed, stale})
		if len(res.ToInsert) != 1 || res.ToInsert[0].Type != TypeManual {
			t.Fatalf("ToInsert = %+v, want the claiming manual record", res.ToInsert)
		}
		if res.Unchanged != 1 {
			t.Errorf("Unchanged = %d, want 1", res.Unchanged)
		}
		if len(res.ToDelete) != 0 {
			t.Errorf("ToDelete = %v, want none", res.ToDelete)
		}
	})

	t.Run("manual batch records insert with manual tag", func(t *testing.T) {
		curated := tagged("2026-05-10", "手動イベント", TypeManual)
		res := Diff(existing, []Tagged{kept, stale, curated})
		if len(res.ToInsert) != 1 || res.ToInsert[0].Type != TypeManual {
			t.Fatalf("ToInsert = %+v, want one manual record", res.ToInsert)
		}
	})
}
