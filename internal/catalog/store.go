package catalog

import (
	"sync"
	"sync/atomic"
	"time"
)

// Store provides thread-safe access to the current catalog snapshot.
// A build captures one *Dataset pointer at its start and never observes a
// concurrent refresh.
type Store struct {
	dataset atomic.Pointer[Dataset]
	mu      sync.Mutex // serializes refresh operations
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current snapshot, or nil if none has been loaded.
func (s *Store) Get() *Dataset {
	return s.dataset.Load()
}

// Set atomically replaces the current snapshot.
func (s *Store) Set(ds *Dataset) {
	s.dataset.Store(ds)
}

// AgeSeconds returns the age of the current snapshot in seconds.
// Returns -1 if no snapshot is loaded.
func (s *Store) AgeSeconds() float64 {
	ds := s.dataset.Load()
	if ds == nil {
		return -1
	}
	return time.Since(ds.FetchedAt).Seconds()
}

// Lock acquires the refresh mutex for serializing refresh operations.
func (s *Store) Lock() {
	s.mu.Lock()
}

// Unlock releases the refresh mutex.
func (s *Store) Unlock() {
	s.mu.Unlock()
}
