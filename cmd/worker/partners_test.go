package main

import (
	"testing"

	"github.com/dvloznov/tally-ledger/internal/domain"
)

func TestSplitAmbiguous(t *testing.T) {
	partners := []*domain.Partner{
		{ID: "p-1", Name: "ACME GmbH"},
		{ID: "p-2", Name: "Initech"},
		{ID: "p-3", Name: "acme gmbh "},
		{ID: "p-4", Name: "Globex", OtherNames: []string{"initech"}},
	}

	unique, ambiguous := splitAmbiguous(partners)

	ids := func(ps []*domain.Partner) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	// An alias never shadows a canonical name, so only p-1 and p-3 collide.
	if got := ids(unique); len(got) != 2 || got[0] != "p-2" || got[1] != "p-4" {
		t.Errorf("Expected unique [p-2 p-4], got: %v", got)
	}
	if got := ids(ambiguous); len(got) != 2 || got[0] != "p-1" || got[1] != "p-3" {
		t.Errorf("Expected ambiguous [p-1 p-3], got: %v", got)
	}
}
