// Package app wires a ledger service to the store selected by configuration.
package app

import (
	"context"
	"fmt"

	"github.com/dvloznov/tally-ledger/internal/config"
	infraBQ "github.com/dvloznov/tally-ledger/internal/infra/bigquery"
	"github.com/dvloznov/tally-ledger/internal/infra/inmemory"
	"github.com/dvloznov/tally-ledger/internal/infra/sqlstore"
	"github.com/dvloznov/tally-ledger/internal/ledger"
)

// Ledger bundles the engine with the repositories behind it.
type Ledger struct {
	Service  *ledger.Service
	Store    ledger.Store
	Partners ledger.PartnerRepository

	close func() error
}

// Close releases the store connection.
func (l *Ledger) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}

// Open builds the ledger for cfg.Store.
func Open(ctx context.Context, cfg *config.Config, opts ...ledger.Option) (*Ledger, error) {
	l := &Ledger{}

	switch cfg.Store {
	case config.StoreMemory:
		store := inmemory.NewStore()
		l.Store, l.Partners = store, inmemory.NewPartners()
	case config.StoreBigQuery:
		repo, err := infraBQ.NewLedgerRepository(ctx, infraBQ.Dataset{
			ProjectID: cfg.GCPProjectID,
			DatasetID: cfg.BQDataset,
		})
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		l.Store, l.Partners, l.close = repo, repo, repo.Close
	case config.StorePostgres, config.StoreMySQL:
		db, err := sqlstore.Open(SQLConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		store := sqlstore.New(db)
		l.Store, l.Partners, l.close = store, store, store.Close
	default:
		return nil, fmt.Errorf("Open: unknown store %q", cfg.Store)
	}

	l.Service = ledger.New(l.Store, l.Partners, ledger.Config{
		ClearingAccounts: cfg.ClearingAccounts,
		DefaultCurrency:  cfg.DefaultCurrency,
	}, opts...)
	return l, nil
}

// SQLConfig extracts the SQL connection settings from cfg.
func SQLConfig(cfg *config.Config) sqlstore.DBConfig {
	return sqlstore.DBConfig{
		Driver:   cfg.Store,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
	}
}
