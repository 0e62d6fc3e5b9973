package config

import "sync/atomic"

// AdminStore holds the live AdminConfig behind an atomic pointer so the
// pipeline orchestrator can read a consistent snapshot per turn while an
// admin request swaps in new toggles concurrently.
type AdminStore struct {
	ptr atomic.Pointer[AdminConfig]
}

func NewAdminStore(initial AdminConfig) *AdminStore {
	s := &AdminStore{}
	s.ptr.Store(&initial)
	return s
}

func (s *AdminStore) Snapshot() AdminConfig {
	return *s.ptr.Load()
}

func (s *AdminStore) Update(fn func(AdminConfig) AdminConfig) AdminConfig {
	next := fn(s.Snapshot())
	s.ptr.Store(&next)
	return next
}
