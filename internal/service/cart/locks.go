package cart

import "sync"

// userLocks hands out one mutex per user. Entries are dropped once nobody holds
// or waits on them.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// lock blocks until uid's mutex is held and returns its release func.
func (l *userLocks) lock(uid string) func() {
	l.mu.Lock()
	ul, ok := l.locks[uid]
	if !ok {
		ul = &userLock{}
		l.locks[uid] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.Lock()
	return func() {
		ul.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, uid)
		}
		l.mu.Unlock()
	}
}
