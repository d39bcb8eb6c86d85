// Package lockmap provides one mutex per key. Entries exist only while some
// caller holds or waits for them.
package lockmap

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Map hands out a mutex per key
type Map[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

// New creates an empty lock map
func New[K comparable]() *Map[K] {
	return &Map[K]{entries: make(map[K]*entry)}
}

// Lock blocks until the mutex of key is held and returns its release func
func (m *Map[K]) Lock(key K) func() {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()

		m.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(m.entries, key)
		}
		m.mu.Unlock()
	}
}

// Len returns the number of keys currently locked or awaited
func (m *Map[K]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
