package session

import (
	"sync"

	"docchat/internal/domain"
	"docchat/internal/index"
)

// Session is one logical conversation: its history and its optional private
// index are the only session-private mutable state. A single mutex guards
// both so a history append and an index swap each observe a consistent
// session.
type Session struct {
	id string

	mu      sync.Mutex
	history []domain.Message
	index   *index.Index
}

func newSession(id string) *Session {
	return &Session{id: id}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// AppendExchange records a user turn and the assistant's reply as one unit,
// so concurrent requests never interleave partial turns.
func (s *Session) AppendExchange(question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		domain.Message{Role: domain.RoleUser, Content: question},
		domain.Message{Role: domain.RoleAssistant, Content: answer},
	)
}

// History returns a copy of the conversation so far.
func (s *Session) History() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.history...)
}

// LastUserQuestion returns the most recent prior user turn, if any.
func (s *Session) LastUserQuestion() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Role == domain.RoleUser {
			return s.history[i].Content, true
		}
	}
	return "", false
}

// Index returns the session's private index, or nil when none exists.
func (s *Session) Index() *index.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// SetIndex swaps in a fully built replacement index. The old index is simply
// dropped; callers must only pass indexes whose build already succeeded so a
// torn state is never served.
func (s *Session) SetIndex(ix *index.Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = ix
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.index = nil
}
