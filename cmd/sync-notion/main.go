package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/tally-ledger/internal/app"
	"github.com/dvloznov/tally-ledger/internal/config"
	"github.com/dvloznov/tally-ledger/internal/logger"
	"github.com/dvloznov/tally-ledger/internal/notionsync"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	year := flag.Int("year", time.Now().Year(), "Year whose outstanding items are published")
	notionToken := flag.String("notion-token", cfg.NotionToken, "Notion API token (or set NOTION_TOKEN env)")
	notionDBID := flag.String("notion-db-id", cfg.NotionDBID, "Notion database ID (or set NOTION_DB_ID env)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	if log, err = logger.NewFromConfig(cfg.LogLevel, cfg.LogFormat, os.Stdout); err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Invalid logging configuration")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Int("year", *year).
		Str("store", cfg.Store).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	l, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer l.Close()

	stats, err := notionsync.SyncOutstanding(ctx, l.Service, notionsync.NewClient(*notionToken), *notionDBID, *year, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d archived, %d failed.\n",
		stats.Created, stats.Updated, stats.Archived, stats.Failed)
	if stats.Failed > 0 {
		os.Exit(1)
	}
}
