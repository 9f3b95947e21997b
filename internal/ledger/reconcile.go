package ledger

import (
	"context"
	"fmt"

	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/dvloznov/tally-ledger/internal/logger"
	"github.com/shopspring/decimal"
)

// stackPlaces is the precision of persisted stacks and of the shortfall test.
const stackPlaces = 2

// RecalculateOutstanding recomputes debit and credit stacks of the partner's bookings
// for year on every clearing account. Runs for the same partner are serialized.
//
// Each side is matched FIFO against the opposite side's total. Matched bookings get a
// zero stack. The first booking whose running total goes negative gets the rounded
// shortfall and ends the pass; bookings after it keep whatever stack they had.
func (s *Service) RecalculateOutstanding(ctx context.Context, partner string, year int) error {
	log := logger.FromContext(ctx)

	partnerID, err := s.resolvePartner(ctx, partner)
	if err != nil {
		return fmt.Errorf("RecalculateOutstanding: %w", err)
	}

	unlock := s.locks.lock(partnerID)
	defer unlock()

	for _, account := range s.cfg.ClearingAccounts {
		if err := s.reconcileAccount(ctx, partnerID, year, account); err != nil {
			log.Error().Err(err).
				Str("partner_id", partnerID).
				Int("year", year).
				Int("account", account).
				Msg("Reconciliation failed")
			return fmt.Errorf("RecalculateOutstanding: account %d: %w", account, err)
		}
	}

	log.Info().
		Str("partner_id", partnerID).
		Int("year", year).
		Ints("accounts", s.cfg.ClearingAccounts).
		Msg("Outstanding recalculated")
	return nil
}

// reconcileAccount runs both passes for one (partner, year, account).
func (s *Service) reconcileAccount(ctx context.Context, partnerID string, year, account int) error {
	availableCredit, err := s.sideTotal(ctx, year, partnerID, domain.CreditSide, account)
	if err != nil {
		return fmt.Errorf("reconcileAccount: %w", err)
	}
	availableDebit, err := s.sideTotal(ctx, year, partnerID, domain.DebitSide, account)
	if err != nil {
		return fmt.Errorf("reconcileAccount: %w", err)
	}

	if err := s.stackPass(ctx, year, partnerID, account, domain.DebitSide, availableCredit); err != nil {
		return fmt.Errorf("reconcileAccount: %w", err)
	}
	if err := s.stackPass(ctx, year, partnerID, account, domain.CreditSide, availableDebit); err != nil {
		return fmt.Errorf("reconcileAccount: %w", err)
	}
	return nil
}

// stackPass consumes available with the side's bookings in store order.
// Bookings are fetched per pass so a booking on both sides of the account
// carries the stack written by the debit pass into the credit pass.
func (s *Service) stackPass(ctx context.Context, year int, partnerID string, account int, side domain.Side, available decimal.Decimal) error {
	log := logger.FromContext(ctx)

	rows, err := s.bookings(ctx, year, partnerID, side, account)
	if err != nil {
		return fmt.Errorf("stackPass: %w", err)
	}

	for _, tx := range rows {
		available = available.Sub(tx.Amount(side))
		remaining := available.RoundBank(stackPlaces)

		if remaining.IsNegative() {
			tx.SetStack(side, remaining)
			if err := s.store.PutTransaction(ctx, tx); err != nil {
				return fmt.Errorf("stackPass: %s stack of %s: %w: %w", side, tx.ID, ErrPersistence, err)
			}
			log.Info().
				Str("transaction_id", tx.ID).
				Str("side", side.String()).
				Int("account", account).
				Str("shortfall", remaining.StringFixed(stackPlaces)).
				Msg("Outstanding booking flagged")
			return nil
		}

		tx.SetStack(side, decimal.Zero)
		if err := s.store.PutTransaction(ctx, tx); err != nil {
			return fmt.Errorf("stackPass: %s stack of %s: %w: %w", side, tx.ID, ErrPersistence, err)
		}
	}
	return nil
}
