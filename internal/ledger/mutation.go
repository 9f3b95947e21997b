package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/dvloznov/tally-ledger/internal/logger"
	"github.com/shopspring/decimal"
)

// Fields is a set of transaction attributes keyed by column name.
type Fields map[string]any

// requiredOnCreate lists the fields CreateTransaction cannot default.
var requiredOnCreate = []string{ColumnDate, ColumnDebitAmount}

// CreateTransaction validates fields and persists a new booking with zero stacks.
// credit_amount defaults to debit_amount, currencies to the configured default
// (credit_currency follows debit_currency when only that is given) and rate to 1.
func (s *Service) CreateTransaction(ctx context.Context, fields Fields) (*domain.Transaction, error) {
	log := logger.FromContext(ctx)

	for _, name := range requiredOnCreate {
		if isBlank(fields[name]) {
			return nil, fmt.Errorf("CreateTransaction: %s: %w", name, ErrMissingField)
		}
	}
	if _, ok := fields[ColumnID]; ok {
		return nil, fmt.Errorf("CreateTransaction: %s: %w", ColumnID, ErrReadOnlyField)
	}

	tx := &domain.Transaction{
		ID:             s.newID(),
		DebitCurrency:  s.cfg.DefaultCurrency,
		CreditCurrency: s.cfg.DefaultCurrency,
		Rate:           decimal.NewFromInt(1),
		CreatedAt:      s.now().UTC(),
	}
	if err := s.applyFields(ctx, tx, fields); err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}
	if _, ok := fields[ColumnCreditAmount]; !ok {
		tx.CreditAmount = tx.DebitAmount
	}
	if _, ok := fields[ColumnCreditCurrency]; !ok {
		tx.CreditCurrency = tx.DebitCurrency
	}

	if err := s.store.PutTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("CreateTransaction: put %s: %w: %w", tx.ID, ErrPersistence, err)
	}

	log.Info().
		Str("transaction_id", tx.ID).
		Str("date", tx.Date.String()).
		Str("debit_amount", tx.DebitAmount.String()).
		Msg("Transaction created")
	return tx.Clone(), nil
}

// UpdateTransaction overwrites the supplied fields of the booking with id. The
// stored record is unchanged when any field fails validation. Stacks are not
// recalculated; callers re-run RecalculateOutstanding after a correction.
func (s *Service) UpdateTransaction(ctx context.Context, id string, fields Fields) (*domain.Transaction, error) {
	log := logger.FromContext(ctx)

	current, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: get %s: %w", id, err)
	}
	if current == nil {
		return nil, fmt.Errorf("UpdateTransaction: %q: %w", id, ErrNotFound)
	}

	if v, ok := fields[ColumnID]; ok {
		supplied, err := coerceString(ColumnID, v)
		if err != nil {
			return nil, fmt.Errorf("UpdateTransaction: %w", err)
		}
		if supplied != current.ID {
			return nil, fmt.Errorf("UpdateTransaction: %s: %w", ColumnID, ErrReadOnlyField)
		}
	}

	updated := current.Clone()
	if err := s.applyFields(ctx, updated, fields); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	if err := s.store.PutTransaction(ctx, updated); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: put %s: %w: %w", id, ErrPersistence, err)
	}

	log.Info().
		Str("transaction_id", id).
		Strs("fields", fieldNames(fields)).
		Msg("Transaction updated")
	return updated.Clone(), nil
}

// applyFields coerces each field onto tx in name order. The id key is checked by
// the callers and skipped here.
func (s *Service) applyFields(ctx context.Context, tx *domain.Transaction, fields Fields) error {
	for _, name := range fieldNames(fields) {
		v := fields[name]
		var err error
		switch name {
		case ColumnID:
			continue
		case ColumnDebitStack, ColumnCreditStack:
			err = fmt.Errorf("%s: %w", name, ErrReadOnlyField)
		case ColumnDate:
			tx.Date, err = coerceDate(name, v)
		case ColumnReference:
			tx.Reference, err = coerceString(name, v)
		case ColumnSource:
			tx.Source, err = coerceString(name, v)
		case ColumnComment:
			tx.Comment, err = coerceString(name, v)
		case ColumnPartner:
			tx.Partner, err = s.coercePartner(ctx, v)
		case ColumnDebit:
			tx.Debit, err = coerceAccount(name, v)
		case ColumnCredit:
			tx.Credit, err = coerceAccount(name, v)
		case ColumnDebitAmount:
			tx.DebitAmount, err = coerceAmount(name, v)
		case ColumnCreditAmount:
			tx.CreditAmount, err = coerceAmount(name, v)
		case ColumnDebitCurrency:
			tx.DebitCurrency, err = coerceCurrency(name, v)
		case ColumnCreditCurrency:
			tx.CreditCurrency, err = coerceCurrency(name, v)
		case ColumnDealValue:
			tx.DealValue, err = coerceDecimal(name, v)
		case ColumnRate:
			tx.Rate, err = coerceDecimal(name, v)
		default:
			err = fmt.Errorf("%s: %w", name, ErrUnknownField)
		}
		if err != nil {
			return fmt.Errorf("applyFields: %w", err)
		}
	}
	return nil
}

// coercePartner resolves a partner name to its id. A blank value detaches the partner.
func (s *Service) coercePartner(ctx context.Context, v any) (string, error) {
	name, err := coerceString(ColumnPartner, v)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", nil
	}
	return s.resolvePartner(ctx, name)
}

func fieldNames(fields Fields) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
