package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

func TestRecalculateOutstanding_FirstShortfall(t *testing.T) {
	stale := booking("d4", "2024-05-01", "p-acme", 2310, 1200, "40")
	stale.DebitStack = dec("-5")

	store := &mockStore{rows: []*domain.Transaction{
		booking("d1", "2024-01-10", "p-acme", 2310, 1200, "40"),
		booking("c1", "2024-01-20", "p-acme", 1200, 2310, "90"),
		booking("d2", "2024-02-10", "p-acme", 2310, 1200, "40"),
		booking("d3", "2024-03-10", "p-acme", 2310, 1200, "40"),
		stale,
	}}
	svc := newTestService(store, testPartners())

	if err := svc.RecalculateOutstanding(context.Background(), "acme", 2024); err != nil {
		t.Fatalf("RecalculateOutstanding failed: %v", err)
	}

	want := map[string]string{"d1": "0", "d2": "0", "d3": "-30", "d4": "-5"}
	for id, stack := range want {
		got := store.get(id).DebitStack
		if !got.Equal(dec(stack)) {
			t.Errorf("%s debit_stack = %s, want %s", id, got, stack)
		}
	}
	if got := store.get("d3").DebitStack.StringFixed(2); got != "-30.00" {
		t.Errorf("d3 debit_stack rendered = %s, want -30.00", got)
	}

	// Credit pass: 90 against 160 of debit activity is fully covered.
	if got := store.get("c1").CreditStack; !got.IsZero() {
		t.Errorf("c1 credit_stack = %s, want 0", got)
	}
}

func TestRecalculateOutstanding_Conservation(t *testing.T) {
	d1 := booking("d1", "2024-01-10", "p-acme", 5310, 1200, "25.50")
	d1.DebitStack = dec("-12")
	d2 := booking("d2", "2024-06-10", "p-acme", 5310, 1200, "74.50")
	d2.DebitStack = dec("-74.50")

	store := &mockStore{rows: []*domain.Transaction{
		d1,
		booking("c1", "2024-02-01", "p-acme", 1200, 5310, "60"),
		d2,
		booking("c2", "2024-07-01", "p-acme", 1200, 5310, "40"),
	}}
	svc := newTestService(store, testPartners())

	if err := svc.RecalculateOutstanding(context.Background(), "ACME GmbH", 2024); err != nil {
		t.Fatalf("RecalculateOutstanding failed: %v", err)
	}

	for _, id := range []string{"d1", "d2"} {
		if got := store.get(id).DebitStack; !got.IsZero() {
			t.Errorf("%s debit_stack = %s, want 0", id, got)
		}
	}
	for _, id := range []string{"c1", "c2"} {
		if got := store.get(id).CreditStack; !got.IsZero() {
			t.Errorf("%s credit_stack = %s, want 0", id, got)
		}
	}
}

func TestRecalculateOutstanding_Idempotent(t *testing.T) {
	store := &mockStore{rows: []*domain.Transaction{
		booking("d1", "2024-01-10", "p-acme", 2310, 1200, "100"),
		booking("c1", "2024-01-11", "p-acme", 1200, 2310, "30"),
		booking("d2", "2024-01-12", "p-acme", 2310, 1200, "15"),
		booking("c2", "2024-02-01", "p-acme", 1200, 5310, "70"),
		booking("d3", "2024-02-02", "p-acme", 5310, 1200, "20"),
	}}
	svc := newTestService(store, testPartners())
	ctx := context.Background()

	snapshot := func() map[string][2]decimal.Decimal {
		out := make(map[string][2]decimal.Decimal)
		for _, tx := range store.rows {
			out[tx.ID] = [2]decimal.Decimal{tx.DebitStack, tx.CreditStack}
		}
		return out
	}

	if err := svc.RecalculateOutstanding(ctx, "acme", 2024); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	first := snapshot()
	if err := svc.RecalculateOutstanding(ctx, "acme", 2024); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	second := snapshot()

	for id, a := range first {
		b := second[id]
		if !a[0].Equal(b[0]) || !a[1].Equal(b[1]) {
			t.Errorf("%s stacks changed between runs: %v -> %v", id, a, b)
		}
	}
	if got := first["d1"][0]; !got.Equal(dec("-70")) {
		t.Errorf("d1 debit_stack = %s, want -70", got)
	}
	if got := first["c2"][1]; !got.Equal(dec("-50")) {
		t.Errorf("c2 credit_stack = %s, want -50", got)
	}
}

func TestRecalculateOutstanding_Rounding(t *testing.T) {
	tests := []struct {
		name      string
		debit     string
		wantStack string
	}{
		{name: "half cent rounds to zero", debit: "10.005", wantStack: "0"},
		{name: "shortfall rounds half to even", debit: "10.015", wantStack: "-0.02"},
		{name: "exact cover", debit: "10.00", wantStack: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{rows: []*domain.Transaction{
				booking("c1", "2024-03-01", "p-acme", 1200, 2310, "10"),
				booking("d1", "2024-03-02", "p-acme", 2310, 1200, tt.debit),
			}}
			svc := newTestService(store, testPartners())

			if err := svc.RecalculateOutstanding(context.Background(), "acme", 2024); err != nil {
				t.Fatalf("RecalculateOutstanding failed: %v", err)
			}
			if got := store.get("d1").DebitStack; !got.Equal(dec(tt.wantStack)) {
				t.Errorf("debit_stack = %s, want %s", got, tt.wantStack)
			}
		})
	}
}

func TestRecalculateOutstanding_BothSidesOnAccount(t *testing.T) {
	store := &mockStore{rows: []*domain.Transaction{
		booking("x1", "2024-04-01", "p-acme", 2310, 2310, "50"),
		booking("c1", "2024-04-02", "p-acme", 1200, 2310, "20"),
	}}
	svc := newTestService(store, testPartners())

	if err := svc.RecalculateOutstanding(context.Background(), "acme", 2024); err != nil {
		t.Fatalf("RecalculateOutstanding failed: %v", err)
	}

	x1 := store.get("x1")
	if !x1.DebitStack.IsZero() || !x1.CreditStack.IsZero() {
		t.Errorf("x1 stacks = %s/%s, want 0/0", x1.DebitStack, x1.CreditStack)
	}
	if got := store.get("c1").CreditStack; !got.Equal(dec("-20")) {
		t.Errorf("c1 credit_stack = %s, want -20", got)
	}
}

func TestRecalculateOutstanding_Scope(t *testing.T) {
	other := booking("o1", "2024-01-10", "p-globex", 2310, 1200, "40")
	other.DebitStack = dec("-1")
	lastYear := booking("y1", "2023-12-31", "p-acme", 2310, 1200, "40")
	lastYear.DebitStack = dec("-2")
	nonClearing := booking("n1", "2024-01-10", "p-acme", 4000, 1200, "40")
	nonClearing.DebitStack = dec("-3")

	store := &mockStore{rows: []*domain.Transaction{
		other, lastYear, nonClearing,
		booking("d1", "2024-01-10", "p-acme", 2310, 1200, "40"),
	}}
	svc := newTestService(store, testPartners())

	if err := svc.RecalculateOutstanding(context.Background(), "acme", 2024); err != nil {
		t.Fatalf("RecalculateOutstanding failed: %v", err)
	}

	for id, want := range map[string]string{"o1": "-1", "y1": "-2", "n1": "-3", "d1": "-40"} {
		if got := store.get(id).DebitStack; !got.Equal(dec(want)) {
			t.Errorf("%s debit_stack = %s, want %s", id, got, want)
		}
	}
}

func TestRecalculateOutstanding_UnknownPartner(t *testing.T) {
	store := &mockStore{rows: []*domain.Transaction{
		booking("d1", "2024-01-10", "p-acme", 2310, 1200, "40"),
	}}
	svc := newTestService(store, testPartners())

	err := svc.RecalculateOutstanding(context.Background(), "Initech", 2024)
	if !errors.Is(err, ErrUnknownPartner) {
		t.Fatalf("Expected ErrUnknownPartner, got: %v", err)
	}
	if store.puts != 0 {
		t.Errorf("Expected no writes, got %d", store.puts)
	}
}

func TestRecalculateOutstanding_NoClearingAccounts(t *testing.T) {
	store := &mockStore{rows: []*domain.Transaction{
		booking("d1", "2024-01-10", "p-acme", 2310, 1200, "40"),
	}}
	svc := New(store, testPartners(), Config{})

	if err := svc.RecalculateOutstanding(context.Background(), "acme", 2024); err != nil {
		t.Fatalf("Expected no-op, got: %v", err)
	}
	if store.puts != 0 {
		t.Errorf("Expected no writes, got %d", store.puts)
	}
}

func TestRecalculateOutstanding_PersistenceFailure(t *testing.T) {
	store := &mockStore{rows: []*domain.Transaction{
		booking("c1", "2024-01-01", "p-acme", 1200, 2310, "100"),
		booking("d1", "2024-01-10", "p-acme", 2310, 1200, "40"),
		booking("d2", "2024-01-11", "p-acme", 2310, 1200, "40"),
	}}
	store.get("d1").DebitStack = dec("-9")
	store.get("d2").DebitStack = dec("-9")

	writeErr := errors.New("store unavailable")
	store.PutTransactionFunc = func(ctx context.Context, tx *domain.Transaction) error {
		if tx.ID == "d2" {
			return writeErr
		}
		return nil
	}
	svc := newTestService(store, testPartners())

	err := svc.RecalculateOutstanding(context.Background(), "acme", 2024)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("Expected ErrPersistence, got: %v", err)
	}
	if !errors.Is(err, writeErr) {
		t.Errorf("Expected cause to be wrapped, got: %v", err)
	}
	if got := store.get("d1").DebitStack; !got.IsZero() {
		t.Errorf("d1 write before the failure should stay committed, got %s", got)
	}
	if got := store.get("d2").DebitStack; !got.Equal(dec("-9")) {
		t.Errorf("d2 should be unchanged, got %s", got)
	}
	// The credit pass never ran.
	if store.puts != 1 {
		t.Errorf("Expected 1 committed write, got %d", store.puts)
	}
}

func TestRecalculateOutstanding_ConcurrentSamePartner(t *testing.T) {
	store := &lockedStore{mockStore: &mockStore{rows: []*domain.Transaction{
		booking("d1", "2024-01-10", "p-acme", 2310, 1200, "40"),
		booking("c1", "2024-01-20", "p-acme", 1200, 2310, "30"),
	}}}
	svc := newTestService(store, testPartners())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.RecalculateOutstanding(context.Background(), "acme", 2024)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("RecalculateOutstanding failed: %v", err)
		}
	}
	if got := store.get("d1").DebitStack; !got.Equal(dec("-10")) {
		t.Errorf("d1 debit_stack = %s, want -10", got)
	}
	if len(svc.locks.locks) != 0 {
		t.Errorf("Expected partner locks to be released, %d left", len(svc.locks.locks))
	}
}

// lockedStore makes mockStore safe for concurrent tests.
type lockedStore struct {
	mu sync.Mutex
	*mockStore
}

func (l *lockedStore) QueryTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mockStore.QueryTransactions(ctx, filter)
}

func (l *lockedStore) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mockStore.GetTransaction(ctx, id)
}

func (l *lockedStore) PutTransaction(ctx context.Context, tx *domain.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mockStore.PutTransaction(ctx, tx)
}
