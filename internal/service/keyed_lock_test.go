package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDriverLocks_SerializesOneDriver(t *testing.T) {
	locks := newDriverLocks()
	driverID := uuid.New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock(driverID)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Zero(t, locks.size(), "entries are dropped once released")
}

func TestDriverLocks_IndependentDrivers(t *testing.T) {
	locks := newDriverLocks()
	a, b := uuid.New(), uuid.New()

	unlockA := locks.lock(a)
	done := make(chan struct{})
	go func() {
		unlock := locks.lock(b)
		unlock()
		close(done)
	}()
	<-done // would deadlock if b shared a's mutex

	assert.Equal(t, 1, locks.size())
	unlockA()
	assert.Zero(t, locks.size())
}
