package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/YOSHITATSU-1998/event-notify/internal/event"
	"github.com/YOSHITATSU-1998/event-notify/internal/manual"
	"github.com/YOSHITATSU-1998/event-notify/internal/snapshot"
	"github.com/YOSHITATSU-1998/event-notify/internal/store"
	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

func newManualCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manual",
		Short: "Manage operator-curated event entries",
	}
	cmd.AddCommand(newManualAddCmd())
	cmd.AddCommand(newManualListCmd())
	return cmd
}

func newManualAddCmd() *cobra.Command {
	var entry manual.Entry
	var flagVenue, flagRRule string
	var flagNow bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a manual entry (one-shot with --date, recurring with --rrule)",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := venue.ByCode(flagVenue)
			if err != nil {
				return err
			}
			entry.Venue = v.Code
			entry.RRule = flagRRule

			cfg := resolveConfig()
			snapshots, err := snapshot.New(cfg.StorageDir)
			if err != nil {
				return err
			}

			file := manual.OneShotFile
			if entry.RRule != "" {
				file = manual.RecurringFile
			}
			if err := appendEntry(filepath.Join(snapshots.Dir(), file), entry); err != nil {
				return err
			}
			log.WithField("venue", entry.Venue).Info("manual entry saved")

			// --now also writes the row straight into the store so it shows
			// up before the next refresh. Recurring entries only materialize
			// through refresh.
			if flagNow && entry.RRule == "" {
				if !cfg.StoreEnabled {
					return fmt.Errorf("--now requires the store to be enabled")
				}
				db, err := store.Open(dbPath(cfg, snapshots))
				if err != nil {
					return err
				}
				defer db.Close()

				rec := event.Record{
					Date:        entry.Date,
					Time:        entry.Time,
					Title:       event.NormalizeText(entry.Title),
					Venue:       entry.Venue,
					Source:      "manual",
					ExtractedAt: time.Now().In(event.JST),
				}
				if err := db.InsertManual(context.Background(), event.Identify(rec), entry.Notes); err != nil {
					return err
				}
				log.Info("manual entry inserted into store")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagVenue, "venue", "", "venue code (a, b, c, d, e, f, f_event, g)")
	cmd.Flags().StringVar(&entry.Date, "date", "", "event date YYYY-MM-DD (one-shot)")
	cmd.Flags().StringVar(&flagRRule, "rrule", "", "RFC 5545 recurrence rule, e.g. FREQ=MONTHLY;BYDAY=3SU")
	cmd.Flags().StringVar(&entry.Time, "time", "", "start time HH:MM")
	cmd.Flags().StringVar(&entry.Title, "title", "", "event title")
	cmd.Flags().StringVar(&entry.Notes, "notes", "", "free-text notes")
	cmd.Flags().BoolVar(&flagNow, "now", false, "also insert into the store immediately")
	cmd.MarkFlagRequired("venue")
	cmd.MarkFlagRequired("title")

	return cmd
}

func newManualListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List manual entries (files and stored rows)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := resolveConfig()
			snapshots, err := snapshot.New(cfg.StorageDir)
			if err != nil {
				return err
			}

			set, dropped, err := manual.Load(snapshots.Dir())
			if err != nil {
				return err
			}
			for _, verr := range dropped {
				log.WithError(verr).Warn("invalid manual entry")
			}

			fmt.Printf("One-shot entries: %d\n", len(set.OneShot))
			for _, e := range set.OneShot {
				fmt.Printf("  %s %s  %s  [%s]\n", e.Date, orDash(e.Time), e.Title, e.Venue)
			}
			fmt.Printf("Recurring entries: %d\n", len(set.Recurring))
			for _, e := range set.Recurring {
				fmt.Printf("  %s %s  %s  [%s]\n", e.RRule, orDash(e.Time), e.Title, e.Venue)
			}

			if !cfg.StoreEnabled {
				return nil
			}
			db, err := store.Open(dbPath(cfg, snapshots))
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := db.ListManual(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Stored manual rows: %d\n", len(rows))
			renderEvents(os.Stdout, rows)
			return nil
		},
	}
}

// appendEntry validates nothing beyond JSON shape; the overlay loader
// validates on read, so a bad entry surfaces as a counted drop rather than a
// corrupt file.
func appendEntry(path string, entry manual.Entry) error {
	var entries []manual.Entry
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	entries = append(entries, entry)
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
