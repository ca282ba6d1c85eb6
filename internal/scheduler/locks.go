package scheduler

import (
	"fmt"
	"sync"
)

// keyedLocks serializes critical sections per (room, date) key so that
// concurrent submissions for the same room and date cannot both pass
// the conflict check, while operations on different rooms or dates
// never block each other.  Entries are reference counted and removed
// once the last holder releases, so the map does not grow with the
// number of dates ever seen.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*lockEntry)}
}

func slotKey(roomID uint64, date string) string {
	return fmt.Sprintf("%d/%s", roomID, date)
}

// acquire blocks until the lock for key is held and returns the release
// function.  Callers must release exactly once, typically via defer.
func (k *keyedLocks) acquire(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
