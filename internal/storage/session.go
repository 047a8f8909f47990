package storage

import "sync"

// FlagJustLoggedOut is set by a forced logout so the next login prompt
// knows not to redirect again.
const FlagJustLoggedOut = "just_logged_out"

// SessionStore is process-scoped and never written to disk.
type SessionStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *SessionStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key.
func (s *SessionStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes key.
func (s *SessionStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// SetFlag marks key as set.
func (s *SessionStore) SetFlag(key string) { s.Set(key, "true") }

// TakeFlag reports whether key was set and clears it, so each flag is
// observed at most once.
func (s *SessionStore) TakeFlag(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	delete(s.values, key)
	return ok
}
