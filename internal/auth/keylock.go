// auth/keylock.go
package auth

import "sync"

// keyLocks hands out one mutex per (tenant, provider) pair so concurrent
// requests racing to refresh the same connection serialize on the
// refresh-and-upsert sequence. Entries are retained for the process lifetime;
// the map is bounded by the number of live connections.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for key and returns its release function.
func (l *keyLocks) lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
