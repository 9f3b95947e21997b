package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Transaction is one booking in the general ledger.
// DebitStack and CreditStack are the reconciliation annotations: zero means the
// booking is matched by the opposite side's activity for its partner, account and
// year; a negative value is the signed shortfall of the first unmatched booking.
// Only the reconciliation engine writes them.
type Transaction struct {
	ID        string     // assigned once at creation
	Date      civil.Date // booking date
	Reference string     // document reference that legalizes the booking
	Source    string     // source of the related document
	Comment   string

	Partner string // partner id, empty when the booking has no partner

	Debit  int // debit account code, 0 when absent
	Credit int // credit account code, 0 when absent

	DebitAmount    decimal.Decimal
	CreditAmount   decimal.Decimal // differs from DebitAmount when currencies differ
	DebitCurrency  string
	CreditCurrency string

	DealValue decimal.Decimal
	Rate      decimal.Decimal

	DebitStack  decimal.Decimal
	CreditStack decimal.Decimal

	CreatedAt time.Time // insertion time, defines store order
}

// Clone returns a copy that shares no mutable state with t.
func (t *Transaction) Clone() *Transaction {
	c := *t
	return &c
}

// Side selects which half of a booking a query or a pass works on.
type Side int

const (
	// DebitSide matches bookings by their debit account.
	DebitSide Side = iota
	// CreditSide matches bookings by their credit account.
	CreditSide
)

func (s Side) String() string {
	if s == CreditSide {
		return "credit"
	}
	return "debit"
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == CreditSide {
		return DebitSide
	}
	return CreditSide
}

// Account returns the account code on side s.
func (t *Transaction) Account(s Side) int {
	if s == CreditSide {
		return t.Credit
	}
	return t.Debit
}

// Amount returns the amount booked on side s.
func (t *Transaction) Amount(s Side) decimal.Decimal {
	if s == CreditSide {
		return t.CreditAmount
	}
	return t.DebitAmount
}

// Stack returns the reconciliation annotation of side s.
func (t *Transaction) Stack(s Side) decimal.Decimal {
	if s == CreditSide {
		return t.CreditStack
	}
	return t.DebitStack
}

// SetStack sets the reconciliation annotation of side s.
func (t *Transaction) SetStack(s Side, v decimal.Decimal) {
	if s == CreditSide {
		t.CreditStack = v
		return
	}
	t.DebitStack = v
}

// TransactionFilter is a conjunctive set of predicates over transactions.
// Zero values mean "no predicate". From is inclusive, To is exclusive.
type TransactionFilter struct {
	From *civil.Date
	To   *civil.Date

	Partner string
	Debit   int
	Credit  int

	// NonZeroDebitStack and NonZeroCreditStack select outstanding items.
	NonZeroDebitStack  bool
	NonZeroCreditStack bool

	// Limit caps the number of rows returned, 0 means unlimited.
	Limit int
}

// Matches reports whether t satisfies every predicate of f (Limit aside).
// Stores that filter in memory use it; query-backed stores translate f instead.
func (f TransactionFilter) Matches(t *Transaction) bool {
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && !t.Date.Before(*f.To) {
		return false
	}
	if f.Partner != "" && t.Partner != f.Partner {
		return false
	}
	if f.Debit != 0 && t.Debit != f.Debit {
		return false
	}
	if f.Credit != 0 && t.Credit != f.Credit {
		return false
	}
	if f.NonZeroDebitStack && t.DebitStack.IsZero() {
		return false
	}
	if f.NonZeroCreditStack && t.CreditStack.IsZero() {
		return false
	}
	return true
}
