package store

import (
	"sync"
	"sync/atomic"
)

// Store publishes the current snapshot. A single writer rebuilds off to the
// side and swaps the finished snapshot in; readers take the pointer without
// locking and keep a consistent view for as long as they hold it.
type Store struct {
	current atomic.Pointer[Snapshot]

	// swapMu serializes writers so two rebuilds cannot interleave.
	swapMu sync.Mutex
}

// New returns a store holding an empty snapshot, so readers never see nil.
func New() *Store {
	s := &Store{}
	s.current.Store(NewSnapshot(SnapshotData{}))
	return s
}

// Snapshot returns the current catalog state.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Swap publishes a new snapshot and returns the previous one.
func (s *Store) Swap(next *Snapshot) *Snapshot {
	s.swapMu.Lock()
	defer s.swapMu.Unlock()
	return s.current.Swap(next)
}
