package orders

import "sync"

// orderLocks serializes state-machine transitions per order number. A given
// order never runs two transitions concurrently; different orders do not
// contend. Entries are refcounted and removed once the last holder unlocks,
// so the map does not grow with order history.
type orderLocks struct {
	mu    sync.Mutex
	locks map[string]*orderLock
}

type orderLock struct {
	mu   sync.Mutex
	refs int
}

func newOrderLocks() *orderLocks {
	return &orderLocks{locks: make(map[string]*orderLock)}
}

// acquire blocks until the order's lock is held and returns the release func.
func (l *orderLocks) acquire(orderNumber string) func() {
	l.mu.Lock()
	entry, ok := l.locks[orderNumber]
	if !ok {
		entry = &orderLock{}
		l.locks[orderNumber] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, orderNumber)
		}
		l.mu.Unlock()
	}
}
