package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dvloznov/tally-ledger/internal/domain"
)

func outstandingFixture() *mockStore {
	d1 := booking("d1", "2024-01-10", "p-acme", 2310, 1200, "40")
	d1.DebitStack = dec("-30")
	c1 := booking("c1", "2024-01-11", "p-globex", 1200, 5310, "20")
	c1.CreditStack = dec("-20")
	d2 := booking("d2", "2024-02-10", "p-globex", 5310, 1200, "15")
	d2.DebitStack = dec("-15")
	old := booking("old", "2023-06-01", "p-acme", 2310, 1200, "99")
	old.DebitStack = dec("-99")
	matched := booking("m1", "2024-03-01", "p-acme", 2310, 1200, "10")
	elsewhere := booking("e1", "2024-03-02", "p-acme", 4000, 1200, "10")
	elsewhere.DebitStack = dec("-10")

	return &mockStore{rows: []*domain.Transaction{c1, d1, d2, old, matched, elsewhere}}
}

func TestGetOutstanding(t *testing.T) {
	svc := newTestService(outstandingFixture(), testPartners())

	report, err := svc.GetOutstanding(context.Background(), 2024)
	if err != nil {
		t.Fatalf("GetOutstanding failed: %v", err)
	}

	// Debit side for 2310 then 5310, then credit side.
	if got := ids(report.Rows); got != "d1,d2,c1" {
		t.Errorf("rows = %s, want d1,d2,c1", got)
	}
	if report.Kind != ReportOutstanding {
		t.Errorf("Kind = %s, want %s", report.Kind, ReportOutstanding)
	}
	if len(report.Attrs) != len(AllColumns) {
		t.Errorf("Attrs = %v, want all columns", report.Attrs)
	}
	if got := report.Value(report.Rows[0], ColumnPartnerName); got != "ACME GmbH" {
		t.Errorf("partner_name = %q, want ACME GmbH", got)
	}
}

func TestGetOutstandingItems(t *testing.T) {
	svc := newTestService(outstandingFixture(), testPartners())
	ctx := context.Background()

	report, err := svc.GetOutstandingItems(ctx, 2024, "globex")
	if err != nil {
		t.Fatalf("GetOutstandingItems failed: %v", err)
	}
	if got := ids(report.Rows); got != "d2,c1" {
		t.Errorf("rows = %s, want d2,c1", got)
	}

	all, err := svc.GetOutstandingItems(ctx, 2024, "")
	if err != nil {
		t.Fatalf("GetOutstandingItems failed: %v", err)
	}
	if got := ids(all.Rows); got != "d1,d2,c1" {
		t.Errorf("rows = %s, want d1,d2,c1", got)
	}

	if _, err := svc.GetOutstandingItems(ctx, 2024, "Initech"); !errors.Is(err, ErrUnknownPartner) {
		t.Errorf("Expected ErrUnknownPartner, got: %v", err)
	}
}

func TestGetLedger(t *testing.T) {
	store := &mockStore{rows: []*domain.Transaction{
		booking("a", "2023-12-31", "", 1000, 2000, "1"),
		booking("b", "2024-01-01", "", 1000, 2000, "1"),
		booking("c", "2024-03-31", "", 1000, 2000, "1"),
		booking("d", "2024-04-01", "", 1000, 2000, "1"),
		booking("e", "2024-12-31", "", 1000, 2000, "1"),
	}}
	svc := newTestService(store, testPartners())

	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{name: "no filter exports everything", filter: Filter{}, want: "a,b,c,d,e"},
		{name: "year alone exports everything", filter: Filter{Year: "2024"}, want: "a,b,c,d,e"},
		{name: "first quarter", filter: Filter{Year: "2024", Quarter: "q1"}, want: "b,c"},
		{name: "last quarter", filter: Filter{Quarter: "last"}, want: "a"},
		{name: "december", filter: Filter{Month: "2024-12"}, want: "e"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := svc.GetLedger(context.Background(), tt.filter, nil)
			if err != nil {
				t.Fatalf("GetLedger failed: %v", err)
			}
			if got := ids(report.Rows); got != tt.want {
				t.Errorf("rows = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := svc.GetLedger(context.Background(), Filter{Quarter: "q9"}, nil); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("Expected ErrInvalidFilter, got: %v", err)
	}
}

func TestGetLedger_Columns(t *testing.T) {
	store := &mockStore{rows: []*domain.Transaction{
		booking("a", "2024-01-05", "p-acme", 2310, 1200, "12.5"),
	}}
	svc := newTestService(store, testPartners())

	report, err := svc.GetLedger(context.Background(), Filter{}, []string{"date", " Debit_Amount ", "date", "debit"})
	if err != nil {
		t.Fatalf("GetLedger failed: %v", err)
	}
	if fmt.Sprint(report.Attrs) != "[date debit_amount debit]" {
		t.Errorf("Attrs = %v, want [date debit_amount debit]", report.Attrs)
	}
	row := report.Rows[0]
	if got := report.Value(row, ColumnDebitAmount); got != "12.50" {
		t.Errorf("debit_amount = %q, want 12.50", got)
	}
	if got := report.Value(row, ColumnDebit); got != "2310" {
		t.Errorf("debit = %q, want 2310", got)
	}

	if _, err := svc.GetLedger(context.Background(), Filter{}, []string{"colour"}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Expected ErrUnknownField, got: %v", err)
	}
}

func TestListTransactions(t *testing.T) {
	store := &mockStore{}
	for i := 0; i < 120; i++ {
		store.rows = append(store.rows, booking(fmt.Sprintf("t%03d", i), "2024-03-10", "p-acme", 2310, 1200, "1"))
	}
	store.rows = append(store.rows,
		booking("feb", "2024-02-10", "p-globex", 2310, 1200, "1"),
		booking("prev", "2023-03-10", "p-globex", 2310, 1200, "1"),
	)
	svc := newTestService(store, testPartners())
	ctx := context.Background()

	report, err := svc.ListTransactions(ctx, 2024, 0, "")
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(report.Rows) != DefaultListLimit {
		t.Errorf("rows = %d, want %d", len(report.Rows), DefaultListLimit)
	}

	report, err = svc.ListTransactions(ctx, 2024, 2, "")
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if got := ids(report.Rows); got != "feb" {
		t.Errorf("rows = %s, want feb", got)
	}

	report, err = svc.ListTransactions(ctx, 0, 0, "globex")
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if got := ids(report.Rows); got != "feb" {
		t.Errorf("current year rows = %s, want feb", got)
	}

	if _, err := svc.ListTransactions(ctx, 2024, 13, ""); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("Expected ErrInvalidFilter, got: %v", err)
	}
	if _, err := svc.ListTransactions(ctx, 2024, 0, "Initech"); !errors.Is(err, ErrUnknownPartner) {
		t.Errorf("Expected ErrUnknownPartner, got: %v", err)
	}
}

func TestParseColumns(t *testing.T) {
	cols, err := ParseColumns(nil)
	if err != nil {
		t.Fatalf("ParseColumns failed: %v", err)
	}
	cols[0] = "changed"
	if AllColumns[0] != ColumnID {
		t.Error("ParseColumns must return a copy of AllColumns")
	}
}
