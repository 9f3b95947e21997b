package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/dvloznov/tally-ledger/internal/infra/inmemory"
	"github.com/rs/zerolog"
)

// brokenStore reads from memory and fails every write.
type brokenStore struct {
	*inmemory.Store
}

func (b brokenStore) PutTransaction(ctx context.Context, tx *domain.Transaction) error {
	return errors.New("dataset ledger unreachable")
}

func TestLedgerAPI_StoreFailureIsLoggedNotLeaked(t *testing.T) {
	var buf bytes.Buffer
	s := newTestServerWith(t, brokenStore{inmemory.NewStore()}, zerolog.New(&buf))

	rec := s.do(t, http.MethodPost, "/api/transactions", `{"date": "2024-03-01", "debit_amount": "10"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "unreachable") {
		t.Errorf("store detail leaked to the client: %s", rec.Body.String())
	}

	logged := buf.String()
	if !strings.Contains(logged, "Ledger operation failed") || !strings.Contains(logged, "dataset ledger unreachable") {
		t.Errorf("Expected the failure in the log, got: %s", logged)
	}
	if id := rec.Header().Get("X-Request-ID"); id == "" || !strings.Contains(logged, id) {
		t.Errorf("Expected request id %q in the log, got: %s", id, logged)
	}
}

func TestFunctionsAPI_Declarations(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/functions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Functions []struct {
			Name string `json:"name"`
		} `json:"functions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	names := map[string]bool{}
	for _, f := range body.Functions {
		names[f.Name] = true
	}
	for _, want := range []string{"recalculate_outstanding", "create_transaction", "get_ledger"} {
		if !names[want] {
			t.Errorf("missing declaration %s in %v", want, names)
		}
	}
}

func TestFunctionsAPI_Call(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantKey    string
		wantText   string
	}{
		{
			name:       "create",
			body:       `{"id": "c1", "name": "create_transaction", "args": {"date": "2024-03-01", "partner": "acme", "debit": 2310, "debit_amount": 40}}`,
			wantStatus: http.StatusOK,
			wantKey:    "transaction",
			wantText:   "created",
		},
		{
			name:       "operation error stays in the response",
			body:       `{"name": "recalculate_outstanding", "args": {"partner": "initech"}}`,
			wantStatus: http.StatusOK,
			wantKey:    "error",
			wantText:   "unknown partner",
		},
		{
			name:       "missing name",
			body:       `{"args": {}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/functions", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantKey == "" {
				return
			}
			var resp struct {
				Response map[string]any `json:"response"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if _, ok := resp.Response[tt.wantKey]; !ok {
				t.Errorf("Expected %q in response, got: %v", tt.wantKey, resp.Response)
			}
			if !strings.Contains(rec.Body.String(), tt.wantText) {
				t.Errorf("Expected %q in body, got: %s", tt.wantText, rec.Body.String())
			}
		})
	}
}
