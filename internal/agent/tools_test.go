package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/dvloznov/tally-ledger/internal/infra/inmemory"
	"github.com/dvloznov/tally-ledger/internal/ledger"
	"google.golang.org/genai"
)

var testNow = time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)

func newTestLibrary() Library {
	store := inmemory.NewStore()
	partners := inmemory.NewPartners(&domain.Partner{ID: "p-acme", Name: "ACME GmbH", OtherNames: []string{"acme"}})
	n := 0
	svc := ledger.New(store, partners, ledger.Config{ClearingAccounts: []int{2310}},
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithIDGenerator(func() string { n++; return "tx-" + string(rune('0'+n)) }),
	)
	return NewLibrary(ledger.NewDispatcher(svc, func() time.Time { return testNow }))
}

func TestDeclarations_CoverEveryOperation(t *testing.T) {
	declared := map[string]*genai.FunctionDeclaration{}
	for _, d := range Declarations() {
		declared[d.Name] = d
	}

	d := ledger.NewDispatcher(nil, nil)
	for _, op := range d.Operations() {
		decl, ok := declared[string(op)]
		if !ok {
			t.Errorf("operation %s has no declaration", op)
			continue
		}
		if decl.Parameters == nil || decl.Parameters.Type != genai.TypeObject {
			t.Errorf("%s: parameters must be an object schema", op)
		}
		for _, req := range decl.Parameters.Required {
			if _, ok := decl.Parameters.Properties[req]; !ok {
				t.Errorf("%s: required %q is not a property", op, req)
			}
		}
	}
	if len(declared) != len(d.Operations()) {
		t.Errorf("Expected %d declarations, got: %d", len(d.Operations()), len(declared))
	}
}

func TestLibrary_CreateThenRecalculate(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary()

	// Arguments arrive JSON-decoded, so numbers are float64.
	calls := []map[string]any{
		{"date": "2024-01-10", "partner": "acme", "debit": float64(2310), "debit_amount": float64(40)},
		{"date": "2024-01-20", "partner": "acme", "credit": float64(2310), "debit_amount": float64(25)},
	}
	for i, args := range calls {
		resp := lib(ctx, &genai.FunctionCall{ID: "c" + string(rune('0'+i)), Name: "create_transaction", Args: args})
		if errMsg, ok := resp.Response["error"]; ok {
			t.Fatalf("create %d failed: %v", i, errMsg)
		}
		if resp.ID != "c"+string(rune('0'+i)) || resp.Name != "create_transaction" {
			t.Errorf("response not correlated with call: %+v", resp)
		}
		tx, ok := resp.Response["transaction"].(map[string]string)
		if !ok || tx[ledger.ColumnPartner] != "p-acme" {
			t.Errorf("transaction = %v", resp.Response["transaction"])
		}
	}

	resp := lib(ctx, &genai.FunctionCall{Name: "recalculate_outstanding", Args: map[string]any{"partner": "ACME", "year": float64(2024)}})
	if errMsg, ok := resp.Response["error"]; ok {
		t.Fatalf("recalculate failed: %v", errMsg)
	}

	resp = lib(ctx, &genai.FunctionCall{Name: "get_outstanding", Args: map[string]any{}})
	out, _ := resp.Response["output"].(string)
	if !strings.Contains(out, "1 rows") {
		t.Errorf("Expected one outstanding row, got output %q", out)
	}
}

func TestLibrary_Errors(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary()

	tests := []struct {
		name string
		call *genai.FunctionCall
		want string
	}{
		{
			name: "unknown function",
			call: &genai.FunctionCall{Name: "delete_everything"},
			want: "unknown operation",
		},
		{
			name: "unknown partner",
			call: &genai.FunctionCall{Name: "recalculate_outstanding", Args: map[string]any{"partner": "initech"}},
			want: "unknown partner",
		},
		{
			name: "missing field",
			call: &genai.FunctionCall{Name: "create_transaction", Args: map[string]any{"date": "2024-01-10"}},
			want: "missing required field",
		},
		{
			name: "update missing transaction",
			call: &genai.FunctionCall{Name: "update_transaction", Args: map[string]any{"id": "nope", "comment": "x"}},
			want: "transaction not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := lib(ctx, tt.call)
			errMsg, _ := resp.Response["error"].(string)
			if !strings.Contains(errMsg, tt.want) {
				t.Errorf("Expected error containing %q, got: %v", tt.want, resp.Response)
			}
		})
	}
}
