package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// mockStore keeps transactions in insertion order and hands out clones.
type mockStore struct {
	rows []*domain.Transaction

	// PutTransactionFunc, when set, runs before the write and may fail it.
	PutTransactionFunc func(ctx context.Context, tx *domain.Transaction) error
	puts               int
}

func (m *mockStore) QueryTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, tx := range m.rows {
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		if filter.Matches(tx) {
			out = append(out, tx.Clone())
		}
	}
	return out, nil
}

func (m *mockStore) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	for _, tx := range m.rows {
		if tx.ID == id {
			return tx.Clone(), nil
		}
	}
	return nil, nil
}

func (m *mockStore) PutTransaction(ctx context.Context, tx *domain.Transaction) error {
	if m.PutTransactionFunc != nil {
		if err := m.PutTransactionFunc(ctx, tx); err != nil {
			return err
		}
	}
	m.puts++
	for i, row := range m.rows {
		if row.ID == tx.ID {
			m.rows[i] = tx.Clone()
			return nil
		}
	}
	m.rows = append(m.rows, tx.Clone())
	return nil
}

func (m *mockStore) get(id string) *domain.Transaction {
	for _, tx := range m.rows {
		if tx.ID == id {
			return tx
		}
	}
	return nil
}

// mockPartners resolves names against a fixed partner list.
type mockPartners struct {
	partners []*domain.Partner
	err      error
}

func (m *mockPartners) FindPartner(ctx context.Context, name string) (*domain.Partner, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.partners {
		if p.Answers(name) {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockPartners) PutPartner(ctx context.Context, p *domain.Partner) error {
	m.partners = append(m.partners, p)
	return nil
}

func (m *mockPartners) ListPartners(ctx context.Context) ([]*domain.Partner, error) {
	return m.partners, nil
}

func testPartners() *mockPartners {
	return &mockPartners{partners: []*domain.Partner{
		{ID: "p-acme", Name: "ACME GmbH", OtherNames: []string{"acme"}},
		{ID: "p-globex", Name: "Globex", OtherNames: []string{"globex corp"}},
	}}
}

var testNow = time.Date(2024, time.February, 15, 10, 0, 0, 0, time.UTC)

func newTestService(store Store, partners PartnerResolver) *Service {
	seq := 0
	return New(store, partners, Config{ClearingAccounts: []int{2310, 5310}},
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("tx-%03d", seq)
		}),
	)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// booking builds a transaction for a partner. amount is used on both sides.
func booking(id, day, partner string, debit, credit int, amount string) *domain.Transaction {
	return &domain.Transaction{
		ID:             id,
		Date:           date(day),
		Partner:        partner,
		Debit:          debit,
		Credit:         credit,
		DebitAmount:    dec(amount),
		CreditAmount:   dec(amount),
		DebitCurrency:  "EUR",
		CreditCurrency: "EUR",
		Rate:           decimal.NewFromInt(1),
	}
}

func ids(rows []*domain.Transaction) string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return strings.Join(out, ",")
}
