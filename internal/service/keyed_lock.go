package service

import (
	"sync"

	"github.com/google/uuid"
)

// driverLocks hands out one mutex per driver. Entries are reference counted
// and dropped once no goroutine holds or waits on them.
type driverLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*driverLock
}

type driverLock struct {
	mu   sync.Mutex
	refs int
}

func newDriverLocks() *driverLocks {
	return &driverLocks{locks: make(map[uuid.UUID]*driverLock)}
}

// lock blocks until the caller owns driverID and returns the release func.
func (l *driverLocks) lock(driverID uuid.UUID) func() {
	l.mu.Lock()
	dl, ok := l.locks[driverID]
	if !ok {
		dl = &driverLock{}
		l.locks[driverID] = dl
	}
	dl.refs++
	l.mu.Unlock()

	dl.mu.Lock()
	return func() {
		dl.mu.Unlock()
		l.mu.Lock()
		dl.refs--
		if dl.refs == 0 {
			delete(l.locks, driverID)
		}
		l.mu.Unlock()
	}
}

// size is the number of live entries. Tests use it to check cleanup.
func (l *driverLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
