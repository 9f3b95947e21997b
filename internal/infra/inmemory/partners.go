package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/dvloznov/tally-ledger/internal/ledger"
)

// Partners is an in-memory partner registry.
type Partners struct {
	mu       sync.RWMutex
	partners map[string]*domain.Partner
}

// NewPartners creates a registry seeded with partners.
func NewPartners(partners ...*domain.Partner) *Partners {
	p := &Partners{partners: make(map[string]*domain.Partner)}
	for _, partner := range partners {
		p.partners[partner.ID] = clonePartner(partner)
	}
	return p
}

// FindPartner implements ledger.PartnerResolver. Names match case-insensitively
// against the canonical name first, then against aliases.
func (p *Partners) FindPartner(ctx context.Context, name string) (*domain.Partner, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := domain.NormalizeName(name)
	if n == "" {
		return nil, nil
	}
	for _, partner := range p.sorted() {
		if domain.NormalizeName(partner.Name) == n {
			return clonePartner(partner), nil
		}
	}
	for _, partner := range p.sorted() {
		if partner.Answers(name) {
			return clonePartner(partner), nil
		}
	}
	return nil, nil
}

// PutPartner implements ledger.PartnerRepository.
func (p *Partners) PutPartner(ctx context.Context, partner *domain.Partner) error {
	if partner.ID == "" {
		return fmt.Errorf("PutPartner: partner ID is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.partners[partner.ID] = clonePartner(partner)
	return nil
}

// ListPartners implements ledger.PartnerRepository, ordered by name.
func (p *Partners) ListPartners(ctx context.Context) ([]*domain.Partner, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*domain.Partner, 0, len(p.partners))
	for _, partner := range p.sorted() {
		result = append(result, clonePartner(partner))
	}
	return result, nil
}

// sorted returns the partners by name then id. Callers hold the lock.
func (p *Partners) sorted() []*domain.Partner {
	out := make([]*domain.Partner, 0, len(p.partners))
	for _, partner := range p.partners {
		out = append(out, partner)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func clonePartner(p *domain.Partner) *domain.Partner {
	c := *p
	c.OtherNames = append([]string(nil), p.OtherNames...)
	return &c
}

// Ensure Partners implements ledger.PartnerRepository interface.
var _ ledger.PartnerRepository = (*Partners)(nil)
