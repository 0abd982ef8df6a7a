package memory

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Exchange is one completed query and its answer.
type Exchange struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// Sessions keeps the most recent exchanges per session id. It is safe for
// concurrent use.
type Sessions struct {
	mu         sync.Mutex
	maxHistory int
	sessions   map[string][]Exchange
}

// NewSessions keeps at most maxHistory exchanges per session.
func NewSessions(maxHistory int) *Sessions {
	if maxHistory < 0 {
		maxHistory = 0
	}
	return &Sessions{maxHistory: maxHistory, sessions: make(map[string][]Exchange)}
}

// CreateSession registers a new, empty session and returns its id.
func (s *Sessions) CreateSession() string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = nil
	return id
}

func (s *Sessions) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// AddExchange appends to the session, creating it on first use, and drops
// the oldest exchanges beyond the configured depth.
func (s *Sessions) AddExchange(id, query, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ex := append(s.sessions[id], Exchange{Query: query, Answer: answer})
	s.sessions[id] = trim(ex, s.maxHistory)
}

// History formats the session's exchanges as "User: ...\nAssistant: ..."
// lines. It reports false when the session is unknown or empty.
func (s *Sessions) History(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ex := s.sessions[id]
	if len(ex) == 0 {
		return "", false
	}
	lines := make([]string, 0, 2*len(ex))
	for _, e := range ex {
		lines = append(lines, "User: "+e.Query, "Assistant: "+e.Answer)
	}
	return strings.Join(lines, "\n"), true
}

// Exchanges returns a copy of the session's retained exchanges.
func (s *Sessions) Exchanges(id string) []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Exchange(nil), s.sessions[id]...)
}

// ClearSession forgets the session entirely.
func (s *Sessions) ClearSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func trim(ex []Exchange, max int) []Exchange {
	if len(ex) <= max {
		return ex
	}
	return append([]Exchange(nil), ex[len(ex)-max:]...)
}
