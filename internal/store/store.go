package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/YOSHITATSU-1998/event-notify/internal/event"
)

// TxError marks a reconcile transaction that failed and was rolled back. The
// run reports it as a hard failure; the orchestration layer retries the whole
// run, never a half of it.
type TxError struct {
	Err error
}

func (e *TxError) Error() string { return fmt.Sprintf("sync transaction: %v", e.Err) }

func (e *TxError) Unwrap() error { return e.Err }

// Store wraps the SQLite events database.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
  id           INTEGER PRIMARY KEY,
  fingerprint  TEXT NOT NULL UNIQUE,
  date         TEXT NOT NULL,
  time         TEXT,
  title        TEXT NOT NULL,
  venue        TEXT NOT NULL,
  source_url   TEXT,
  event_type   TEXT NOT NULL CHECK (event_type IN ('auto','manual')),
  extracted_at TEXT,
  created_at   TEXT NOT NULL,
  notes        TEXT
);
CREATE INDEX IF NOT EXISTS idx_events_type_date ON events(event_type, date);
CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
`

// Open connects to (or creates) the events database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// FutureAuto returns every auto row dated ref or later, keyed by
// fingerprint. This set, and only this set, is what a sync run is allowed to
// delete from: past rows and manual rows never enter it.
func (s *Store) FutureAuto(ctx context.Context, ref string) (map[string]event.Persisted, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fingerprint, date, time, title, venue, source_url, event_type, extracted_at, created_at, notes
		   FROM events WHERE event_type = 'auto' AND date >= ?`, ref)
	if err != nil {
		return nil, fmt.Errorf("query future auto events: %w", err)
	}
	defer rows.Close()

	out := make(map[string]event.Persisted)
	for rows.Next() {
		p, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out[p.Fingerprint] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate future auto events: %w", err)
	}
	return out, nil
}

// Apply executes one reconcile change set atomically: the delete phase, then
// the insert phase, committed together or not at all. Deletes are restricted
// to auto rows as a second line of defense behind the diff itself. Auto
// inserts use ON CONFLICT DO NOTHING so a fingerprint already present is left
// untouched; manual inserts upgrade a conflicting auto row's tag in place and
// never touch a row that is already manual. The returned counts are actual
// affected rows, so re-applying an identical batch reports zero.
func (s *Store) Apply(ctx context.Context, toDelete []string, toInsert []event.Tagged) (inserted, deleted int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, &TxError{Err: err}
	}
	defer tx.Rollback()

	for _, fp := range toDelete {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM events WHERE fingerprint = ? AND event_type = 'auto'`, fp)
		if err != nil {
			return 0, 0, &TxError{Err: fmt.Errorf("delete %s: %w", fp, err)}
		}
		if n, err := res.RowsAffected(); err == nil {
			deleted += int(n)
		}
	}

	const insertAuto = `INSERT INTO events (fingerprint, date, time, title, venue, source_url, event_type, extracted_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO NOTHING`
	const insertManual = `INSERT INTO events (fingerprint, date, time, title, venue, source_url, event_type, extracted_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET event_type = 'manual'
		 WHERE events.event_type <> 'manual'`

	now := time.Now().In(event.JST).Format(time.RFC3339)
	for _, rec := range toInsert {
		query := insertAuto
		if rec.Type == event.TypeManual {
			query = insertManual
		}
		res, err := tx.ExecContext(ctx, query,
			rec.Fingerprint,
			rec.Date,
			nullable(rec.Time),
			rec.Title,
			string(rec.Venue),
			nullable(rec.Source),
			string(rec.Type),
			rec.ExtractedAt.Format(time.RFC3339),
			now,
		)
		if err != nil {
			return 0, 0, &TxError{Err: fmt.Errorf("insert %s: %w", rec.Fingerprint, err)}
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, &TxError{Err: err}
	}
	return inserted, deleted, nil
}

// InsertManual writes one operator-curated row. This is the manual-entry
// workflow, outside the sync engine; it is the only writer of manual rows.
func (s *Store) InsertManual(ctx context.Context, rec event.Identified, notes string) error {
	now := time.Now().In(event.JST).Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (fingerprint, date, time, title, venue, source_url, event_type, extracted_at, created_at, notes)
		 VALUES (?, ?, ?, ?, ?, ?, 'manual', ?, ?, ?)`,
		rec.Fingerprint,
		rec.Date,
		nullable(rec.Time),
		rec.Title,
		string(rec.Venue),
		nullable(rec.Source),
		rec.ExtractedAt.Format(time.RFC3339),
		now,
		nullable(notes),
	)
	if err != nil {
		return fmt.Errorf("insert manual event: %w", err)
	}
	return nil
}

// ListManual returns every manual row, oldest date first.
func (s *Store) ListManual(ctx context.Context) ([]event.Persisted, error) {
	return s.list(ctx,
		`SELECT fingerprint, date, time, title, venue, source_url, event_type, extracted_at, created_at, notes
		   FROM events WHERE event_type = 'manual' ORDER BY date, time, title`)
}

// List returns every row with from <= date < to, ordered for display.
func (s *Store) List(ctx context.Context, from, to string) ([]event.Persisted, error) {
	return s.list(ctx,
		`SELECT fingerprint, date, time, title, venue, source_url, event_type, extracted_at, created_at, notes
		   FROM events WHERE date >= ? AND date < ? ORDER BY date, time IS NULL, time, title`,
		from, to)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]event.Persisted, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []event.Persisted
	for rows.Next() {
		p, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func scanEvent(rows *sql.Rows) (event.Persisted, error) {
	var (
		p                       event.Persisted
		clock, sourceURL, notes sql.NullString
		extractedAt             sql.NullString
		eventType, created      string
	)
	if err := rows.Scan(&p.Fingerprint, &p.Date, &clock, &p.Title, (*string)(&p.Venue),
		&sourceURL, &eventType, &extractedAt, &created, &notes); err != nil {
		return event.Persisted{}, fmt.Errorf("scan event row: %w", err)
	}
	p.Time = clock.String
	p.Source = sourceURL.String
	p.Type = event.Type(eventType)
	p.Notes = notes.String
	if t, err := time.Parse(time.RFC3339, extractedAt.String); err == nil {
		p.ExtractedAt = t
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		p.CreatedAt = t
	}
	return p, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
