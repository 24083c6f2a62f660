package api

import (
	"sync"
	"time"

	"github.com/samcharles93/harmony/internal/reasoning"
	"github.com/samcharles93/harmony/pkg/harmony"
)

// parserSession owns one StreamableParser. mu serializes every use of the
// parser and splitter.
type parserSession struct {
	mu       sync.Mutex
	id       string
	created  time.Time
	parser   *harmony.StreamableParser
	splitter reasoning.Splitter
}

// SessionStore holds the live parser sessions of a server.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*parserSession
	max      int
}

// NewSessionStore returns a store holding at most max sessions; max <= 0
// means no limit.
func NewSessionStore(max int) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*parserSession),
		max:      max,
	}
}

func (s *SessionStore) Create(p *harmony.StreamableParser, now time.Time) (*parserSession, error) {
	sess := &parserSession{
		id:      newSessionID(),
		created: now,
		parser:  p,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.max > 0 && len(s.sessions) >= s.max {
		return nil, newInvalidRequest("too many parser sessions")
	}
	s.sessions[sess.id] = sess
	return sess, nil
}

func (s *SessionStore) Get(id string) (*parserSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// view builds the JSON form of the session. The caller holds sess.mu.
func (sess *parserSession) view(withSnapshot bool) ParserSession {
	p := sess.parser
	out := ParserSession{
		ID:       sess.id,
		Object:   "parser",
		Created:  sess.created.Unix(),
		State:    p.State(),
		Messages: p.Messages(),
	}
	if out.Messages == nil {
		out.Messages = []harmony.Message{}
	}
	if author, ok := p.CurrentAuthor(); ok {
		out.Current = &CurrentMessageState{
			Role:        author.Role,
			Name:        author.Name,
			Recipient:   p.CurrentRecipient(),
			Channel:     p.CurrentChannel(),
			ContentType: p.CurrentContentType(),
			Content:     p.CurrentContent(),
		}
	}
	if withSnapshot {
		snap := p.Snapshot()
		out.Snapshot = &snap
	}
	return out
}
