// Package notionsync publishes the outstanding items of a year to a Notion
// database so they can be followed up outside the ledger.
package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/dvloznov/tally-ledger/internal/logger"
	"github.com/jomei/notionapi"
)

const queryPageSize = 100

// SyncStats counts what a sync did, or would do in a dry run.
type SyncStats struct {
	Created  int
	Updated  int
	Archived int
	Failed   int
}

// SyncOutstanding makes the Notion database mirror the outstanding items of year.
// Pages are matched by Transaction ID: matched pages are updated, missing ones
// created, and pages of the same year that are no longer outstanding (or carry no
// Transaction ID) are archived. Pages of other years are left alone.
// Per-page API failures are logged and counted; they do not abort the sync.
func SyncOutstanding(ctx context.Context, source OutstandingSource, notion NotionService, databaseID string, year int, dryRun bool) (SyncStats, error) {
	log := logger.FromContext(ctx).With().Int("year", year).Bool("dry_run", dryRun).Logger()
	var stats SyncStats

	report, err := source.GetOutstanding(ctx, year)
	if err != nil {
		return stats, fmt.Errorf("SyncOutstanding: %w", err)
	}

	// A booking outstanding on both sides appears twice in the report.
	items := make(map[string]*domain.Transaction, len(report.Rows))
	order := make([]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		if _, seen := items[row.ID]; !seen {
			order = append(order, row.ID)
		}
		items[row.ID] = row
	}
	log.Info().Int("outstanding", len(order)).Msg("Retrieved outstanding items")

	pages, err := queryAllPages(ctx, notion, databaseID)
	if err != nil {
		return stats, fmt.Errorf("SyncOutstanding: %w", err)
	}

	existing := make(map[string]string, len(pages))
	for _, page := range pages {
		txID := extractTransactionID(page)
		if txID != "" && items[txID] != nil {
			existing[txID] = string(page.ID)
			continue
		}
		if txID != "" && extractYear(page) != year {
			continue
		}

		if !dryRun {
			if err := notion.ArchivePage(ctx, string(page.ID)); err != nil {
				log.Warn().Err(err).Str("transaction_id", txID).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
				stats.Failed++
				continue
			}
		}
		log.Debug().Str("transaction_id", txID).Str("page_id", string(page.ID)).Msg("Archived stale Notion page")
		stats.Archived++
	}

	for _, id := range order {
		tx := items[id]
		props := OutstandingToNotionProperties(tx, report.PartnerNames[tx.Partner])

		if pageID, ok := existing[id]; ok {
			if !dryRun {
				if _, err := notion.UpdatePage(ctx, pageID, props); err != nil {
					log.Warn().Err(err).Str("transaction_id", id).Str("page_id", pageID).Msg("Failed to update Notion page")
					stats.Failed++
					continue
				}
			}
			stats.Updated++
			continue
		}

		if !dryRun {
			page, err := notion.CreatePage(ctx, databaseID, props)
			if err != nil {
				log.Warn().Err(err).Str("transaction_id", id).Msg("Failed to create Notion page")
				stats.Failed++
				continue
			}
			log.Debug().Str("transaction_id", id).Str("page_id", string(page.ID)).Msg("Created Notion page")
		}
		stats.Created++
	}

	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("archived", stats.Archived).
		Int("failed", stats.Failed).
		Msg("Outstanding items sync completed")
	return stats, nil
}

// queryAllPages follows the database cursor until every page is read.
func queryAllPages(ctx context.Context, notion NotionService, databaseID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: queryPageSize}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}
