package event

import "sort"

// DiffResult is the change set a reconcile run will apply to the store.
type DiffResult struct {
	// ToDelete holds fingerprints of future-dated auto rows that are no
	// longer present in the batch.
	ToDelete []string
	// ToInsert holds batch records whose fingerprints are not yet stored,
	// plus manual records whose stored row is still tagged auto; for those
	// the store upgrades the tag in place.
	ToInsert []Tagged
	// Unchanged counts batch records already stored with the same
	// fingerprint. Fingerprint equality implies content equality, so these
	// need no update at all.
	Unchanged int
}

// Diff computes the change set between the store's future-auto rows and the
// latest batch as a pure set-difference over fingerprints. It performs no
// I/O; callers decide what "existing" means (the store layer only ever feeds
// it auto rows dated today or later, which is what keeps past rows and
// manual rows out of the delete phase).
func Diff(existing map[string]Persisted, batch []Tagged) DiffResult {
	var res DiffResult

	inBatch := make(map[string]struct{}, len(batch))
	for _, rec := range batch {
		inBatch[rec.Fingerprint] = struct{}{}
	}

	for fp := range existing {
		if _, ok := inBatch[fp]; !ok {
			res.ToDelete = append(res.ToDelete, fp)
		}
	}
	sort.Strings(res.ToDelete)

	seen := make(map[string]struct{}, len(batch))
	for _, rec := range batch {
		if _, dup := seen[rec.Fingerprint]; dup {
			continue
		}
		seen[rec.Fingerprint] = struct{}{}

		if p, ok := existing[rec.Fingerprint]; ok {
			// A manual record matching a stored auto row claims ownership:
			// route it through the insert phase so the tag is upgraded.
			// The reverse never downgrades.
			if rec.Type == TypeManual && p.Type == TypeAuto {
				res.ToInsert = append(res.ToInsert, rec)
				continue
			}
			res.Unchanged++
			continue
		}
		res.ToInsert = append(res.ToInsert, rec)
	}

	sort.Slice(res.ToInsert, func(i, j int) bool {
		a, b := res.ToInsert[i], res.ToInsert[j]
		if a.Venue != b.Venue {
			return a.Venue < b.Venue
		}
		return SortKey(a.Record) < SortKey(b.Record)
	})

	return res
}
