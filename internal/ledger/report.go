package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/tally-ledger/internal/domain"
)

// ReportKind names the view a report was built for.
type ReportKind string

const (
	ReportLedger      ReportKind = "ledger"
	ReportOutstanding ReportKind = "outstanding"
	ReportList        ReportKind = "transactions"
)

// Column names, in rendering order.
const (
	ColumnID             = "id"
	ColumnDate           = "date"
	ColumnReference      = "reference"
	ColumnSource         = "source"
	ColumnComment        = "comment"
	ColumnPartner        = "partner"
	ColumnPartnerName    = "partner_name"
	ColumnDebit          = "debit"
	ColumnCredit         = "credit"
	ColumnDebitAmount    = "debit_amount"
	ColumnCreditAmount   = "credit_amount"
	ColumnDebitCurrency  = "debit_currency"
	ColumnCreditCurrency = "credit_currency"
	ColumnDealValue      = "deal_value"
	ColumnRate           = "rate"
	ColumnDebitStack     = "debit_stack"
	ColumnCreditStack    = "credit_stack"
)

// AllColumns is the default attribute list of a report.
var AllColumns = []string{
	ColumnID, ColumnDate, ColumnReference, ColumnSource, ColumnComment,
	ColumnPartner, ColumnPartnerName, ColumnDebit, ColumnCredit,
	ColumnDebitAmount, ColumnCreditAmount, ColumnDebitCurrency, ColumnCreditCurrency,
	ColumnDealValue, ColumnRate, ColumnDebitStack, ColumnCreditStack,
}

// ReportStruct is a request-scoped view handed to a renderer.
type ReportStruct struct {
	Kind  ReportKind
	Title string
	Attrs []string
	Rows  []*domain.Transaction

	// PartnerNames maps partner id to canonical name, nil when unknown.
	PartnerNames map[string]string
}

// Value returns the text form of column for row. Amounts use two decimals,
// a zero account code renders empty.
func (r *ReportStruct) Value(row *domain.Transaction, column string) string {
	switch column {
	case ColumnID:
		return row.ID
	case ColumnDate:
		return row.Date.String()
	case ColumnReference:
		return row.Reference
	case ColumnSource:
		return row.Source
	case ColumnComment:
		return row.Comment
	case ColumnPartner:
		return row.Partner
	case ColumnPartnerName:
		return r.PartnerNames[row.Partner]
	case ColumnDebit:
		return accountText(row.Debit)
	case ColumnCredit:
		return accountText(row.Credit)
	case ColumnDebitAmount:
		return row.DebitAmount.StringFixed(2)
	case ColumnCreditAmount:
		return row.CreditAmount.StringFixed(2)
	case ColumnDebitCurrency:
		return row.DebitCurrency
	case ColumnCreditCurrency:
		return row.CreditCurrency
	case ColumnDealValue:
		return row.DealValue.StringFixed(2)
	case ColumnRate:
		return row.Rate.String()
	case ColumnDebitStack:
		return row.DebitStack.StringFixed(2)
	case ColumnCreditStack:
		return row.CreditStack.StringFixed(2)
	}
	return ""
}

func accountText(code int) string {
	if code == 0 {
		return ""
	}
	return strconv.Itoa(code)
}

// ParseColumns validates a column selection. An empty selection means AllColumns.
func ParseColumns(columns []string) ([]string, error) {
	if len(columns) == 0 {
		out := make([]string, len(AllColumns))
		copy(out, AllColumns)
		return out, nil
	}

	known := make(map[string]bool, len(AllColumns))
	for _, c := range AllColumns {
		known[c] = true
	}
	out := make([]string, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		if !known[c] {
			return nil, fmt.Errorf("ParseColumns: %q: %w", c, ErrUnknownField)
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// GetOutstanding returns every outstanding booking of year across all partners:
// debit-side items for each clearing account, then credit-side items.
func (s *Service) GetOutstanding(ctx context.Context, year int) (*ReportStruct, error) {
	report, err := s.outstanding(ctx, year, "")
	if err != nil {
		return nil, fmt.Errorf("GetOutstanding: %w", err)
	}
	return report, nil
}

// GetOutstandingItems is GetOutstanding narrowed to one partner when partner is set.
func (s *Service) GetOutstandingItems(ctx context.Context, year int, partner string) (*ReportStruct, error) {
	partnerID := ""
	if strings.TrimSpace(partner) != "" {
		id, err := s.resolvePartner(ctx, partner)
		if err != nil {
			return nil, fmt.Errorf("GetOutstandingItems: %w", err)
		}
		partnerID = id
	}
	report, err := s.outstanding(ctx, year, partnerID)
	if err != nil {
		return nil, fmt.Errorf("GetOutstandingItems: %w", err)
	}
	if partnerID != "" {
		report.Title = fmt.Sprintf("Outstanding items %d, %s", year, partner)
	}
	return report, nil
}

func (s *Service) outstanding(ctx context.Context, year int, partnerID string) (*ReportStruct, error) {
	iv := YearInterval(year)
	var rows []*domain.Transaction
	for _, side := range []domain.Side{domain.DebitSide, domain.CreditSide} {
		for _, account := range s.cfg.ClearingAccounts {
			filter := domain.TransactionFilter{From: &iv.Start, To: &iv.End, Partner: partnerID}
			if side == domain.CreditSide {
				filter.Credit = account
				filter.NonZeroCreditStack = true
			} else {
				filter.Debit = account
				filter.NonZeroDebitStack = true
			}
			found, err := s.store.QueryTransactions(ctx, filter)
			if err != nil {
				return nil, fmt.Errorf("outstanding: %s side of account %d: %w", side, account, err)
			}
			rows = append(rows, found...)
		}
	}
	return s.newReport(ctx, ReportOutstanding, fmt.Sprintf("Outstanding items %d", year), rows, nil)
}

// GetLedger returns every booking in the interval resolved from f, or every booking
// ever recorded when f carries no interval key. The export is unbounded.
func (s *Service) GetLedger(ctx context.Context, f Filter, columns []string) (*ReportStruct, error) {
	iv, ok, err := ResolveInterval(f, s.Today())
	if err != nil {
		return nil, fmt.Errorf("GetLedger: %w", err)
	}

	var filter domain.TransactionFilter
	title := "Ledger"
	if ok {
		filter.From, filter.To = &iv.Start, &iv.End
		title = "Ledger " + iv.String()
	}

	rows, err := s.store.QueryTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("GetLedger: querying transactions: %w", err)
	}
	report, err := s.newReport(ctx, ReportLedger, title, rows, columns)
	if err != nil {
		return nil, fmt.Errorf("GetLedger: %w", err)
	}
	return report, nil
}

// ListTransactions returns up to the configured limit of bookings of year, narrowed
// to month (1..12) and partner when given. A zero year means the current year.
func (s *Service) ListTransactions(ctx context.Context, year, month int, partner string) (*ReportStruct, error) {
	if year == 0 {
		year = s.Today().Year
	}
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("ListTransactions: year %d: %w", year, ErrInvalidFilter)
	}

	iv := YearInterval(year)
	if month != 0 {
		if month < 1 || month > 12 {
			return nil, fmt.Errorf("ListTransactions: month %d: %w", month, ErrInvalidFilter)
		}
		iv = MonthInterval(year, time.Month(month))
	}

	filter := domain.TransactionFilter{From: &iv.Start, To: &iv.End, Limit: s.cfg.ListLimit}
	if strings.TrimSpace(partner) != "" {
		id, err := s.resolvePartner(ctx, partner)
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		filter.Partner = id
	}

	rows, err := s.store.QueryTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: querying transactions: %w", err)
	}
	if len(rows) > s.cfg.ListLimit {
		rows = rows[:s.cfg.ListLimit]
	}
	return s.newReport(ctx, ReportList, "Transactions "+iv.String(), rows, nil)
}

func (s *Service) newReport(ctx context.Context, kind ReportKind, title string, rows []*domain.Transaction, columns []string) (*ReportStruct, error) {
	attrs, err := ParseColumns(columns)
	if err != nil {
		return nil, fmt.Errorf("newReport: %w", err)
	}
	names, err := s.partnerNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("newReport: %w", err)
	}
	if rows == nil {
		rows = []*domain.Transaction{}
	}
	return &ReportStruct{
		Kind:         kind,
		Title:        title,
		Attrs:        attrs,
		Rows:         rows,
		PartnerNames: names,
	}, nil
}
