package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/YOSHITATSU-1998/event-notify/internal/config"
	"github.com/YOSHITATSU-1998/event-notify/internal/refresh"
	"github.com/YOSHITATSU-1998/event-notify/internal/scraper"
	"github.com/YOSHITATSU-1998/event-notify/internal/snapshot"
	"github.com/YOSHITATSU-1998/event-notify/internal/store"
)

func newRefreshCmd() *cobra.Command {
	var (
		flagDate   string
		flagMonths int
		flagDryRun bool
		flagFormat string
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Scrape all venues and sync future events into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagFormat != "text" && flagFormat != "json" {
				return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
			}

			cfg := resolveConfig()
			cfg.ReferenceDate = flagDate
			if flagMonths > 0 {
				cfg.WindowMonths = flagMonths
			}
			if flagDryRun {
				cfg.StoreEnabled = false
			}

			engine, closeStore, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			report, err := engine.Run(context.Background())
			if err != nil {
				return err
			}

			if flagFormat == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			renderReport(os.Stdout, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagDate, "date", "", "reference date YYYY-MM-DD (default: today in JST)")
	cmd.Flags().IntVar(&flagMonths, "window-months", 0, "future-window length in months (default from config)")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "write snapshots only, leave the store untouched")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "output format: text or json")

	return cmd
}

// buildEngine assembles the pipeline for one run. The returned closer is a
// no-op when the store is disabled.
func buildEngine(cfg config.Config) (*refresh.Engine, func(), error) {
	snapshots, err := snapshot.New(cfg.StorageDir)
	if err != nil {
		return nil, nil, err
	}

	engine := &refresh.Engine{
		Sources:   scraper.Sources(scraper.NewClient(cfg.FetchTimeout)),
		Snapshots: snapshots,
		Cfg:       cfg,
		Log:       log,
	}

	if !cfg.StoreEnabled {
		return engine, func() {}, nil
	}

	db, err := store.Open(dbPath(cfg, snapshots))
	if err != nil {
		return nil, nil, err
	}
	engine.Store = db
	return engine, func() { _ = db.Close() }, nil
}

func dbPath(cfg config.Config, snapshots *snapshot.Store) string {
	if cfg.DBPath != "" {
		return cfg.DBPath
	}
	return filepath.Join(snapshots.Dir(), config.DefaultDBFile)
}
