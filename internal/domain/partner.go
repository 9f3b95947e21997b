package domain

import "strings"

// Partner is a counterparty with a canonical name and aliases.
type Partner struct {
	ID         string
	Name       string
	OtherNames []string
}

// Answers reports whether name refers to p, ignoring case and surrounding spaces.
func (p *Partner) Answers(name string) bool {
	n := NormalizeName(name)
	if n == "" {
		return false
	}
	if NormalizeName(p.Name) == n {
		return true
	}
	for _, o := range p.OtherNames {
		if NormalizeName(o) == n {
			return true
		}
	}
	return false
}

// NormalizeName folds a partner name for comparison.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
