package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/dvloznov/tally-ledger/internal/ledger"
)

// LedgerRepository is the BigQuery implementation of ledger.Store and
// ledger.PartnerRepository. It holds a shared BigQuery client to avoid
// creating a new connection for each operation.
type LedgerRepository struct {
	client *bigquery.Client
	ds     Dataset
}

// NewLedgerRepository creates a repository with its own BigQuery client.
func NewLedgerRepository(ctx context.Context, ds Dataset) (*LedgerRepository, error) {
	client, err := bigquery.NewClient(ctx, ds.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("NewLedgerRepository: creating client: %w", err)
	}
	return NewLedgerRepositoryWithClient(client, ds), nil
}

// NewLedgerRepositoryWithClient creates a repository over an existing client.
func NewLedgerRepositoryWithClient(client *bigquery.Client, ds Dataset) *LedgerRepository {
	return &LedgerRepository{client: client, ds: ds}
}

// Close closes the BigQuery client connection. This should be called when
// the repository is no longer needed to release resources.
func (r *LedgerRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// QueryTransactions delegates to QueryTransactionsWithClient with the shared client.
func (r *LedgerRepository) QueryTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	return QueryTransactionsWithClient(ctx, r.client, r.ds, filter)
}

// GetTransaction delegates to GetTransactionWithClient with the shared client.
func (r *LedgerRepository) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return GetTransactionWithClient(ctx, r.client, r.ds, id)
}

// PutTransaction delegates to UpsertTransactionWithClient with the shared client.
func (r *LedgerRepository) PutTransaction(ctx context.Context, tx *domain.Transaction) error {
	return UpsertTransactionWithClient(ctx, r.client, r.ds, tx)
}

// FindPartner delegates to FindPartnerWithClient with the shared client.
func (r *LedgerRepository) FindPartner(ctx context.Context, name string) (*domain.Partner, error) {
	return FindPartnerWithClient(ctx, r.client, r.ds, name)
}

// PutPartner delegates to UpsertPartnerWithClient with the shared client.
func (r *LedgerRepository) PutPartner(ctx context.Context, p *domain.Partner) error {
	return UpsertPartnerWithClient(ctx, r.client, r.ds, p)
}

// ListPartners delegates to ListPartnersWithClient with the shared client.
func (r *LedgerRepository) ListPartners(ctx context.Context) ([]*domain.Partner, error) {
	return ListPartnersWithClient(ctx, r.client, r.ds)
}

// Ensure LedgerRepository implements the ledger interfaces.
var (
	_ ledger.Store             = (*LedgerRepository)(nil)
	_ ledger.PartnerRepository = (*LedgerRepository)(nil)
)
