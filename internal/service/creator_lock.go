package service

import (
	"sync"

	"github.com/google/uuid"
)

// creatorLocks serializes check-then-insert per creator so two concurrent
// booking attempts for the same creator cannot both pass the conflict check.
// The database exclusion constraint is the backstop for writers on other
// instances; this lock closes the race within one process without a DB
// round trip.
type creatorLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*creatorLock
}

type creatorLock struct {
	mu   sync.Mutex
	refs int
}

func newCreatorLocks() *creatorLocks {
	return &creatorLocks{locks: make(map[uuid.UUID]*creatorLock)}
}

// acquire locks the creator's mutex and returns the matching release func.
// Entries are refcounted and removed on release so the map does not grow
// with the number of creators ever seen.
func (c *creatorLocks) acquire(creatorID uuid.UUID) func() {
	c.mu.Lock()
	l, ok := c.locks[creatorID]
	if !ok {
		l = &creatorLock{}
		c.locks[creatorID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, creatorID)
		}
		c.mu.Unlock()
	}
}
