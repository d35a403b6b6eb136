package session

import (
	"slices"
	"sync"
)

// InMemoryStore is a volatile Store keeping sessions in a process local map.
// It is safe for concurrent access and best suited for tests or a single CLI
// process. Sessions are cloned on the way in and out, so callers never share
// mutable state with the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*Session)}
}

// Get returns a clone of an existing session or creates a new one lazily.
func (s *InMemoryStore) Get(id string) (*Session, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = New(id)
		s.sessions[id] = sess
	}

	return sess.Clone(), nil
}

// Save stores a clone of the provided session.
func (s *InMemoryStore) Save(sess *Session) error {
	if sess == nil || sess.ID == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()

	return nil
}

// Delete removes a session.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// IDs returns the stored session ids in lexical order.
func (s *InMemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

var _ Store = (*InMemoryStore)(nil)
