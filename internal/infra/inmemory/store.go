package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/dvloznov/tally-ledger/internal/ledger"
)

// Store is an in-memory ledger store. It is safe for concurrent use and
// returns transactions in insertion order.
// Data is lost on restart - for persistence, use the BigQuery or SQL store.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Transaction
	order []string
}

// NewStore creates an empty in-memory ledger store.
func NewStore() *Store {
	return &Store{
		byID: make(map[string]*domain.Transaction),
	}
}

// QueryTransactions implements ledger.Store.
func (s *Store) QueryTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.Transaction{}
	for _, id := range s.order {
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
		tx := s.byID[id]
		if filter.Matches(tx) {
			// Copy to avoid external modifications
			result = append(result, tx.Clone())
		}
	}
	return result, nil
}

// GetTransaction implements ledger.Store. A missing id yields (nil, nil).
func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return tx.Clone(), nil
}

// PutTransaction implements ledger.Store. A replaced transaction keeps its position.
func (s *Store) PutTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("PutTransaction: transaction ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[tx.ID]; !exists {
		s.order = append(s.order, tx.ID)
	}
	s.byID[tx.ID] = tx.Clone()
	return nil
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Ensure Store implements ledger.Store interface.
var _ ledger.Store = (*Store)(nil)
