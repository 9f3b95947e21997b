package app

import (
	"context"
	"testing"

	"github.com/dvloznov/tally-ledger/internal/config"
	"github.com/dvloznov/tally-ledger/internal/domain"
)

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	l, err := Open(ctx, &config.Config{Store: config.StoreMemory, ClearingAccounts: []int{2310}})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer l.Close()

	if err := l.Partners.PutPartner(ctx, &domain.Partner{ID: "p1", Name: "Acme"}); err != nil {
		t.Fatalf("PutPartner failed: %v", err)
	}
	if err := l.Service.RecalculateOutstanding(ctx, "acme", 2024); err != nil {
		t.Errorf("RecalculateOutstanding on an empty ledger failed: %v", err)
	}
	if got := l.Service.ClearingAccounts(); len(got) != 1 || got[0] != 2310 {
		t.Errorf("ClearingAccounts() = %v", got)
	}
}

func TestOpen_UnknownStore(t *testing.T) {
	if _, err := Open(context.Background(), &config.Config{Store: "redis"}); err == nil {
		t.Error("Expected error for unknown store")
	}
}

func TestSQLConfig(t *testing.T) {
	got := SQLConfig(&config.Config{Store: config.StoreMySQL, DBHost: "db", DBPort: "3306", DBUser: "u", DBPassword: "p", DBName: "tally"})
	if got.Driver != "mysql" || got.DSN() != "u:p@tcp(db:3306)/tally?charset=utf8mb4&parseTime=True&loc=UTC" {
		t.Errorf("SQLConfig() = %+v, DSN %q", got, got.DSN())
	}
}
