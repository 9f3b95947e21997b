package main

import "github.com/dvloznov/tally-ledger/internal/domain"

// splitAmbiguous separates partners whose canonical name identifies them from
// partners sharing a canonical name with another one. Jobs reconcile by name,
// and a shared name would resolve to the same partner every time.
func splitAmbiguous(partners []*domain.Partner) (unique, ambiguous []*domain.Partner) {
	count := make(map[string]int, len(partners))
	for _, p := range partners {
		count[domain.NormalizeName(p.Name)]++
	}
	for _, p := range partners {
		if count[domain.NormalizeName(p.Name)] > 1 {
			ambiguous = append(ambiguous, p)
			continue
		}
		unique = append(unique, p)
	}
	return unique, ambiguous
}
