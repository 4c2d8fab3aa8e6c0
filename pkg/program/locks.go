package program

import "sync"

// accountLocks hands out one mutex per account, dropping entries
// once nobody holds or waits for them
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*accountLock
}

type accountLock struct {
	sync.Mutex
	refs int
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*accountLock)}
}

// lock blocks until the account is free and returns its unlock func
func (l *accountLocks) lock(account string) func() {
	l.mu.Lock()
	entry, ok := l.locks[account]
	if !ok {
		entry = &accountLock{}
		l.locks[account] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.Lock()
	return func() {
		entry.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, account)
		}
		l.mu.Unlock()
	}
}

func (l *accountLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
