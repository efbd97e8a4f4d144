package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/YOSHITATSU-1998/event-notify/internal/calendar"
	"github.com/YOSHITATSU-1998/event-notify/internal/event"
	"github.com/YOSHITATSU-1998/event-notify/internal/snapshot"
	"github.com/YOSHITATSU-1998/event-notify/internal/store"
	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

func newEventsCmd() *cobra.Command {
	var flagDate string
	var flagDays int
	var flagICS bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List persisted events for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := resolveConfig()
			cfg.ReferenceDate = flagDate

			ref, err := cfg.Reference()
			if err != nil {
				return err
			}
			from := ref.Format("2006-01-02")
			to := ref.AddDate(0, 0, flagDays).Format("2006-01-02")

			snapshots, err := snapshot.New(cfg.StorageDir)
			if err != nil {
				return err
			}

			var rows []event.Persisted
			// Without a store the day's snapshots are the fallback source.
			if !cfg.StoreEnabled {
				rows = readSnapshots(snapshots, from)
			} else {
				db, err := store.Open(dbPath(cfg, snapshots))
				if err != nil {
					return err
				}
				defer db.Close()
				rows, err = db.List(context.Background(), from, to)
				if err != nil {
					return err
				}
			}

			if flagICS {
				fmt.Fprint(os.Stdout, calendar.Generate(rows, "Fukuoka Events"))
				return nil
			}
			renderEvents(os.Stdout, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagDate, "date", "", "start date YYYY-MM-DD (default: today in JST)")
	cmd.Flags().IntVar(&flagDays, "days", 1, "number of days to list")
	cmd.Flags().BoolVar(&flagICS, "ics", false, "emit an iCalendar feed instead of a table")
	return cmd
}

func readSnapshots(snapshots *snapshot.Store, runDate string) []event.Persisted {
	var rows []event.Persisted
	for _, v := range venue.All() {
		records, err := snapshots.Read(v.Code, runDate)
		if err != nil {
			log.WithError(err).WithField("venue", v.Code).Warn("snapshot read failed")
			continue
		}
		for _, rec := range records {
			rows = append(rows, event.Persisted{
				Tagged: event.Tagged{Identified: rec, Type: event.TypeAuto},
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return event.SortKey(rows[i].Record) < event.SortKey(rows[j].Record)
	})
	return rows
}
