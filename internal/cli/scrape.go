package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YOSHITATSU-1998/event-notify/internal/refresh"
	"github.com/YOSHITATSU-1998/event-notify/internal/scraper"
	"github.com/YOSHITATSU-1998/event-notify/internal/snapshot"
	"github.com/YOSHITATSU-1998/event-notify/internal/venue"
)

func newScrapeCmd() *cobra.Command {
	var flagDate string

	cmd := &cobra.Command{
		Use:   "scrape [venue-code...]",
		Short: "Capture snapshots for the given venues (all by default) without syncing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := resolveConfig()
			cfg.ReferenceDate = flagDate
			cfg.StoreEnabled = false

			snapshots, err := snapshot.New(cfg.StorageDir)
			if err != nil {
				return err
			}

			client := scraper.NewClient(cfg.FetchTimeout)
			var sources []scraper.Source
			if len(args) == 0 {
				sources = scraper.Sources(client)
			} else {
				for _, code := range args {
					v, err := venue.ByCode(code)
					if err != nil {
						return err
					}
					sources = append(sources, scraper.NewSiteSource(v, client))
				}
			}

			engine := &refresh.Engine{
				Sources:   sources,
				Snapshots: snapshots,
				Cfg:       cfg,
				Log:       log,
			}
			report, err := engine.Run(context.Background())
			if err != nil {
				return err
			}
			renderReport(os.Stdout, report)
			if report.FailedVenues() == len(report.Venues) && len(report.Venues) > 0 {
				return fmt.Errorf("all venues failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagDate, "date", "", "reference date YYYY-MM-DD (default: today in JST)")
	return cmd
}
