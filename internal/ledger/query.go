package ledger

import (
	"context"
	"fmt"

	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Bookings returns the partner's transactions of year whose account on side equals
// account, in store order. The partner is given by name or alias.
func (s *Service) Bookings(ctx context.Context, year int, partner string, side domain.Side, account int) ([]*domain.Transaction, error) {
	partnerID, err := s.resolvePartner(ctx, partner)
	if err != nil {
		return nil, fmt.Errorf("Bookings: %w", err)
	}
	return s.bookings(ctx, year, partnerID, side, account)
}

func (s *Service) bookings(ctx context.Context, year int, partnerID string, side domain.Side, account int) ([]*domain.Transaction, error) {
	iv := YearInterval(year)
	filter := domain.TransactionFilter{
		From:    &iv.Start,
		To:      &iv.End,
		Partner: partnerID,
	}
	if side == domain.CreditSide {
		filter.Credit = account
	} else {
		filter.Debit = account
	}

	rows, err := s.store.QueryTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("bookings: querying %s side of account %d: %w", side, account, err)
	}
	return rows, nil
}

// sideTotal sums the side amounts of the partner's bookings on account for year.
func (s *Service) sideTotal(ctx context.Context, year int, partnerID string, side domain.Side, account int) (decimal.Decimal, error) {
	rows, err := s.bookings(ctx, year, partnerID, side, account)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sideTotal: %w", err)
	}
	total := decimal.Zero
	for _, tx := range rows {
		total = total.Add(tx.Amount(side))
	}
	return total, nil
}
