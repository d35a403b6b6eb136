package session

import (
	"errors"
	"slices"
	"time"

	"github.com/hupe1980/agentdemos/core"
)

// ErrInvalidID is returned for empty session ids.
var ErrInvalidID = errors.New("session: empty id")

// Session is one conversation: its full history and shared run state.
type Session struct {
	ID      string
	History []core.Content
	State   *core.State
	Updated time.Time
}

// New creates an empty session.
func New(id string) *Session {
	return &Session{ID: id, State: core.NewState(), Updated: time.Now()}
}

// Append adds contents to the history.
func (s *Session) Append(contents ...core.Content) {
	s.History = append(s.History, contents...)
	s.Updated = time.Now()
}

// Turns returns the number of user turns in the history.
func (s *Session) Turns() int {
	return len(splitTurns(s.History))
}

// Clone returns a deep enough copy: the history slice and the state values
// are copied, parts are immutable values and shared.
func (s *Session) Clone() *Session {
	state := core.NewState()
	if s.State != nil {
		state.Merge(s.State.Snapshot())
	}

	return &Session{
		ID:      s.ID,
		History: slices.Clone(s.History),
		State:   state,
		Updated: s.Updated,
	}
}

// Store persists sessions.
type Store interface {
	// Get returns the session for id, creating an empty one when missing.
	Get(id string) (*Session, error)
	// Save stores a snapshot of the session.
	Save(s *Session) error
	// Delete removes the session. Deleting a missing session is not an error.
	Delete(id string) error
}
