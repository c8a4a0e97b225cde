package service

import "sync"

// requestLocks hands out one mutex per request id so concurrent
// read-modify-write cycles against the same record apply one at a
// time. The store only offers whole-record saves, so an unserialized
// write could drop a sibling goroutine's update.
type requestLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newRequestLocks() *requestLocks {
	return &requestLocks{entries: make(map[string]*lockEntry)}
}

// lock acquires the mutex for id and returns the matching release
// function. The entry is dropped once the last holder releases.
func (l *requestLocks) lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &lockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
