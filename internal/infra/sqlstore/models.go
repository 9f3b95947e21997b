package sqlstore

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Transaction is the transactions table.
type Transaction struct {
	ID             string          `gorm:"size:36;not null;primaryKey"`
	BookingDate    time.Time       `gorm:"type:date;not null;index"`
	Reference      string          `gorm:"size:255"`
	Source         string          `gorm:"size:255"`
	Comment        string          `gorm:"type:text"`
	PartnerID      string          `gorm:"size:36;index"`
	DebitAccount   int             `gorm:"index"`
	CreditAccount  int             `gorm:"index"`
	DebitAmount    decimal.Decimal `gorm:"type:decimal(20,2)"`
	CreditAmount   decimal.Decimal `gorm:"type:decimal(20,2)"`
	DebitCurrency  string          `gorm:"size:3"`
	CreditCurrency string          `gorm:"size:3"`
	DealValue      decimal.Decimal `gorm:"type:decimal(20,2)"`
	Rate           decimal.Decimal `gorm:"type:decimal(20,8)"`
	DebitStack     decimal.Decimal `gorm:"type:decimal(20,2);default:0"`
	CreditStack    decimal.Decimal `gorm:"type:decimal(20,2);default:0"`
	CreatedAt      time.Time       `gorm:"index"`
	UpdatedAt      time.Time
}

// Partner is the partners table. Aliases live in partner_aliases.
type Partner struct {
	ID        string         `gorm:"size:36;not null;primaryKey"`
	Name      string         `gorm:"size:255;index"`
	Aliases   []PartnerAlias `gorm:"foreignKey:PartnerID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PartnerAlias is one alternative name of a partner.
type PartnerAlias struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	PartnerID string `gorm:"size:36;index"`
	Name      string `gorm:"size:255;index"`
}

// Model wraps a table struct for migration.
type Model struct {
	Model interface{}
}

// RegisterModels lists the tables in migration order.
func RegisterModels() []Model {
	return []Model{
		{Model: Partner{}},
		{Model: PartnerAlias{}},
		{Model: Transaction{}},
	}
}

func transactionFromDomain(tx *domain.Transaction) *Transaction {
	return &Transaction{
		ID:             tx.ID,
		BookingDate:    tx.Date.In(time.UTC),
		Reference:      tx.Reference,
		Source:         tx.Source,
		Comment:        tx.Comment,
		PartnerID:      tx.Partner,
		DebitAccount:   tx.Debit,
		CreditAccount:  tx.Credit,
		DebitAmount:    tx.DebitAmount,
		CreditAmount:   tx.CreditAmount,
		DebitCurrency:  tx.DebitCurrency,
		CreditCurrency: tx.CreditCurrency,
		DealValue:      tx.DealValue,
		Rate:           tx.Rate,
		DebitStack:     tx.DebitStack,
		CreditStack:    tx.CreditStack,
		CreatedAt:      tx.CreatedAt,
	}
}

func (m *Transaction) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:             m.ID,
		Date:           civil.DateOf(m.BookingDate),
		Reference:      m.Reference,
		Source:         m.Source,
		Comment:        m.Comment,
		Partner:        m.PartnerID,
		Debit:          m.DebitAccount,
		Credit:         m.CreditAccount,
		DebitAmount:    m.DebitAmount,
		CreditAmount:   m.CreditAmount,
		DebitCurrency:  m.DebitCurrency,
		CreditCurrency: m.CreditCurrency,
		DealValue:      m.DealValue,
		Rate:           m.Rate,
		DebitStack:     m.DebitStack,
		CreditStack:    m.CreditStack,
		CreatedAt:      m.CreatedAt,
	}
}

func partnerFromDomain(p *domain.Partner) *Partner {
	m := &Partner{ID: p.ID, Name: p.Name}
	for _, name := range p.OtherNames {
		m.Aliases = append(m.Aliases, PartnerAlias{PartnerID: p.ID, Name: name})
	}
	return m
}

func (m *Partner) toDomain() *domain.Partner {
	p := &domain.Partner{ID: m.ID, Name: m.Name}
	for _, a := range m.Aliases {
		p.OtherNames = append(p.OtherNames, a.Name)
	}
	return p
}
