package ledger

import (
	"context"

	"github.com/dvloznov/tally-ledger/internal/domain"
)

// Store provides the record store operations the ledger needs.
type Store interface {
	// QueryTransactions returns transactions matching filter in store order
	// (insertion order). The order must be stable across calls with no writes between.
	QueryTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)

	// GetTransaction returns the transaction with the given id, or nil if there is none.
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)

	// PutTransaction inserts or replaces the transaction with tx.ID.
	PutTransaction(ctx context.Context, tx *domain.Transaction) error
}

// PartnerResolver maps a partner name or alias to the canonical partner.
type PartnerResolver interface {
	// FindPartner returns the partner answering to name, or nil if there is none.
	FindPartner(ctx context.Context, name string) (*domain.Partner, error)
}

// PartnerRepository is a PartnerResolver that can also register and list partners.
type PartnerRepository interface {
	PartnerResolver

	// PutPartner inserts or replaces a partner.
	PutPartner(ctx context.Context, p *domain.Partner) error

	// ListPartners returns every registered partner.
	ListPartners(ctx context.Context) ([]*domain.Partner, error)
}
