package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionRow is a ledger.transactions record.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	BookingDate civil.Date          `bigquery:"booking_date"` // REQUIRED
	Reference   bigquery.NullString `bigquery:"reference"`    // NULLABLE
	Source      bigquery.NullString `bigquery:"source"`       // NULLABLE
	Comment     bigquery.NullString `bigquery:"comment"`      // NULLABLE

	PartnerID bigquery.NullString `bigquery:"partner_id"` // NULLABLE

	DebitAccount  bigquery.NullInt64 `bigquery:"debit_account"`  // NULLABLE
	CreditAccount bigquery.NullInt64 `bigquery:"credit_account"` // NULLABLE

	DebitAmount    *big.Rat `bigquery:"debit_amount"`    // REQUIRED NUMERIC
	CreditAmount   *big.Rat `bigquery:"credit_amount"`   // REQUIRED NUMERIC
	DebitCurrency  string   `bigquery:"debit_currency"`  // REQUIRED STRING
	CreditCurrency string   `bigquery:"credit_currency"` // REQUIRED STRING

	DealValue *big.Rat `bigquery:"deal_value"` // NULLABLE NUMERIC
	Rate      *big.Rat `bigquery:"rate"`       // NULLABLE NUMERIC

	DebitStack  *big.Rat `bigquery:"debit_stack"`  // NULLABLE NUMERIC
	CreditStack *big.Rat `bigquery:"credit_stack"` // NULLABLE NUMERIC

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

// PartnerRow is a ledger.partners record.
type PartnerRow struct {
	PartnerID  string    `bigquery:"partner_id"`  // REQUIRED
	Name       string    `bigquery:"name"`        // REQUIRED
	OtherNames []string  `bigquery:"other_names"` // REPEATED STRING
	CreatedTS  time.Time `bigquery:"created_ts"`  // REQUIRED
}

// TransactionToRow maps a domain transaction to its BigQuery row.
func TransactionToRow(tx *domain.Transaction) *TransactionRow {
	row := &TransactionRow{
		TransactionID:  tx.ID,
		BookingDate:    tx.Date,
		Reference:      nullString(tx.Reference),
		Source:         nullString(tx.Source),
		Comment:        nullString(tx.Comment),
		PartnerID:      nullString(tx.Partner),
		DebitAmount:    tx.DebitAmount.Rat(),
		CreditAmount:   tx.CreditAmount.Rat(),
		DebitCurrency:  tx.DebitCurrency,
		CreditCurrency: tx.CreditCurrency,
		DealValue:      tx.DealValue.Rat(),
		Rate:           tx.Rate.Rat(),
		DebitStack:     tx.DebitStack.Rat(),
		CreditStack:    tx.CreditStack.Rat(),
		CreatedTS:      tx.CreatedAt,
	}
	if tx.Debit != 0 {
		row.DebitAccount = bigquery.NullInt64{Int64: int64(tx.Debit), Valid: true}
	}
	if tx.Credit != 0 {
		row.CreditAccount = bigquery.NullInt64{Int64: int64(tx.Credit), Valid: true}
	}
	return row
}

// ToDomain maps the row back to a domain transaction. NULL strings become ""
// and NULL numerics become zero.
func (r *TransactionRow) ToDomain() *domain.Transaction {
	tx := &domain.Transaction{
		ID:             r.TransactionID,
		Date:           r.BookingDate,
		Reference:      r.Reference.StringVal,
		Source:         r.Source.StringVal,
		Comment:        r.Comment.StringVal,
		Partner:        r.PartnerID.StringVal,
		DebitAmount:    ratToDecimal(r.DebitAmount),
		CreditAmount:   ratToDecimal(r.CreditAmount),
		DebitCurrency:  r.DebitCurrency,
		CreditCurrency: r.CreditCurrency,
		DealValue:      ratToDecimal(r.DealValue),
		Rate:           ratToDecimal(r.Rate),
		DebitStack:     ratToDecimal(r.DebitStack),
		CreditStack:    ratToDecimal(r.CreditStack),
		CreatedAt:      r.CreatedTS,
	}
	if r.DebitAccount.Valid {
		tx.Debit = int(r.DebitAccount.Int64)
	}
	if r.CreditAccount.Valid {
		tx.Credit = int(r.CreditAccount.Int64)
	}
	return tx
}

// nullString stores "" as NULL.
func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

// PartnerToRow maps a domain partner to its BigQuery row.
func PartnerToRow(p *domain.Partner, created time.Time) *PartnerRow {
	others := p.OtherNames
	if others == nil {
		others = []string{}
	}
	return &PartnerRow{
		PartnerID:  p.ID,
		Name:       p.Name,
		OtherNames: others,
		CreatedTS:  created,
	}
}

// ToDomain maps the row back to a domain partner.
func (r *PartnerRow) ToDomain() *domain.Partner {
	return &domain.Partner{
		ID:         r.PartnerID,
		Name:       r.Name,
		OtherNames: r.OtherNames,
	}
}

// NUMERIC carries 9 fractional digits, so the exact quotient fits in 12.
const numericPrecision = 12

func ratToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	if r.IsInt() {
		return decimal.NewFromBigInt(r.Num(), 0)
	}
	return decimal.NewFromBigRat(r, numericPrecision)
}
