package cart

import "sync"

// UserLocks serializes operations on a single user's cart. Two browser
// tabs adding items at once must not lose updates, and checkout must
// not race a concurrent add for the same user. Cross-user calls never
// contend with each other.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the per-user mutex and returns the unlock func.
func (l *UserLocks) Lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
