package core

import (
	"maps"
	"sync"
	"time"
)

// State is a mutable key/value store scoped to one agent run. Tools of the
// same run may execute concurrently, so every accessor is synchronized.
type State struct {
	values  map[string]any
	updated time.Time
	mu      sync.RWMutex
}

// NewState creates an empty State.
func NewState() *State {
	return &State{values: map[string]any{}, updated: time.Now()}
}

// Get returns the value and existence flag for a key.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a key/value pair updating the Updated timestamp.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.updated = time.Now()
}

// Update replaces the value of key with fn(old, ok) under a single lock,
// making read-modify-write sequences atomic.
func (s *State) Update(key string, fn func(old any, ok bool) any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.values[key]
	s.values[key] = fn(old, ok)
	s.updated = time.Now()
}

// Merge applies every key/value pair of delta.
func (s *State) Merge(delta map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.values, delta)
	s.updated = time.Now()
}

// Snapshot returns a copy of the current values.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Len returns the number of stored keys.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Updated returns the time of the last mutation.
func (s *State) Updated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}
