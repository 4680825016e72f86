package token

import (
	"sync"
	"time"
)

// RevocationList remembers revoked access tokens by jti. An entry only matters until the
// token would have expired on its own.
type RevocationList interface {
	Revoke(jti string, until time.Time)
	Revoked(jti string, now time.Time) bool
	// Prune forgets entries that expired before now and reports how many went.
	Prune(now time.Time) int
}

var _ RevocationList = (*MemoryRevocationList)(nil)

type MemoryRevocationList struct {
	until map[string]time.Time
	lock  sync.Mutex
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{until: make(map[string]time.Time)}
}

// Revoke keeps the later expiry when a jti is revoked twice.
func (l *MemoryRevocationList) Revoke(jti string, until time.Time) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if current, ok := l.until[jti]; ok && current.After(until) {
		return
	}
	l.until[jti] = until
}

func (l *MemoryRevocationList) Revoked(jti string, now time.Time) bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	until, ok := l.until[jti]
	return ok && !now.After(until)
}

func (l *MemoryRevocationList) Prune(now time.Time) int {
	l.lock.Lock()
	defer l.lock.Unlock()
	pruned := 0
	for jti, until := range l.until {
		if now.After(until) {
			delete(l.until, jti)
			pruned++
		}
	}
	return pruned
}

func (l *MemoryRevocationList) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.until)
}
