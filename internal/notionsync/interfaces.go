package notionsync

import (
	"context"

	"github.com/dvloznov/tally-ledger/internal/ledger"
	"github.com/jomei/notionapi"
)

// NotionService is the slice of the Notion API the sync needs.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	// ArchivePage hides a page; Notion has no hard delete.
	ArchivePage(ctx context.Context, pageID string) error
}

// OutstandingSource yields the discrepancy report that gets published.
type OutstandingSource interface {
	GetOutstanding(ctx context.Context, year int) (*ledger.ReportStruct, error)
}
