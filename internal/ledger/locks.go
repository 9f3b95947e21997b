package ledger

import "sync"

// partnerLocks serializes reconciliation runs per partner id.
// Entries are dropped once nobody holds or waits for them.
type partnerLocks struct {
	mu    sync.Mutex
	locks map[string]*partnerLock
}

type partnerLock struct {
	mu   sync.Mutex
	refs int
}

func newPartnerLocks() *partnerLocks {
	return &partnerLocks{locks: make(map[string]*partnerLock)}
}

// lock blocks until the partner is free and returns the matching unlock func.
func (l *partnerLocks) lock(partnerID string) func() {
	l.mu.Lock()
	pl, ok := l.locks[partnerID]
	if !ok {
		pl = &partnerLock{}
		l.locks[partnerID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()
	return func() {
		pl.mu.Unlock()
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, partnerID)
		}
		l.mu.Unlock()
	}
}
