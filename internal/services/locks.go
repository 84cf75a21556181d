package services

import "sync"

// keyedLocks serializes lifecycle runs per report id. Two concurrent
// updates to the same report would otherwise race on the artifact
// reference, with the loser's file leaking as an orphan.
type keyedLocks struct {
	mu      sync.Mutex
	entries map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{entries: make(map[int64]*lockEntry)}
}

func (k *keyedLocks) Lock(id int64) {
	k.mu.Lock()
	e, ok := k.entries[id]
	if !ok {
		e = &lockEntry{}
		k.entries[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *keyedLocks) Unlock(id int64) {
	k.mu.Lock()
	e := k.entries[id]
	e.refs--
	if e.refs == 0 {
		delete(k.entries, id)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
