package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

const (
	// DefaultListLimit caps ListTransactions results.
	DefaultListLimit = 100
	// DefaultCurrency is used for bookings created without a currency.
	DefaultCurrency = "EUR"
)

// DefaultClearingAccounts are the receivables and payables clearing codes.
var DefaultClearingAccounts = []int{2310, 5310}

// Config holds the process-wide ledger settings. It is read-only after New.
type Config struct {
	// ClearingAccounts are the account codes subject to reconciliation.
	ClearingAccounts []int
	// DefaultCurrency fills debit and credit currencies on create.
	DefaultCurrency string
	// ListLimit caps ListTransactions, DefaultListLimit when zero.
	ListLimit int
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now, used for "today" and creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the uuid generator for new transactions.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// Service is the ledger engine: queries, reconciliation, reports and mutations
// over a Store and a PartnerResolver.
type Service struct {
	store    Store
	partners PartnerResolver
	cfg      Config
	locks    *partnerLocks
	now      func() time.Time
	newID    func() string
}

// New creates a Service. cfg is copied, later changes by the caller have no effect.
func New(store Store, partners PartnerResolver, cfg Config, opts ...Option) *Service {
	accounts := make([]int, len(cfg.ClearingAccounts))
	copy(accounts, cfg.ClearingAccounts)
	cfg.ClearingAccounts = accounts
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = DefaultCurrency
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = DefaultListLimit
	}

	s := &Service{
		store:    store,
		partners: partners,
		cfg:      cfg,
		locks:    newPartnerLocks(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClearingAccounts returns a copy of the configured clearing accounts.
func (s *Service) ClearingAccounts() []int {
	out := make([]int, len(s.cfg.ClearingAccounts))
	copy(out, s.cfg.ClearingAccounts)
	return out
}

// Today returns the current date according to the service clock.
func (s *Service) Today() civil.Date {
	return civil.DateOf(s.now())
}

// resolvePartner maps a partner name or alias to its id.
func (s *Service) resolvePartner(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("resolvePartner: empty name: %w", ErrUnknownPartner)
	}
	p, err := s.partners.FindPartner(ctx, name)
	if err != nil {
		return "", fmt.Errorf("resolvePartner: %w", err)
	}
	if p == nil || p.ID == "" {
		return "", fmt.Errorf("resolvePartner: %q: %w", name, ErrUnknownPartner)
	}
	return p.ID, nil
}

// partnerNames returns id -> name for every partner when the resolver can list them.
func (s *Service) partnerNames(ctx context.Context) (map[string]string, error) {
	repo, ok := s.partners.(PartnerRepository)
	if !ok {
		return nil, nil
	}
	partners, err := repo.ListPartners(ctx)
	if err != nil {
		return nil, fmt.Errorf("partnerNames: %w", err)
	}
	names := make(map[string]string, len(partners))
	for _, p := range partners {
		names[p.ID] = p.Name
	}
	return names, nil
}

// Ensure Service implements the caller-facing capability set.
var _ Operations = (*Service)(nil)
