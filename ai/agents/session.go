package agent

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

var (
	// ErrSessionBusy is returned when a query is already in flight on the session.
	ErrSessionBusy = errors.New("session busy: a query is already in flight")
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
)

// Session owns exactly one ConversationContext and one DecisionLog.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.RWMutex
	context    *ConversationContext
	log        *DecisionLog
	state      State
	lastActive time.Time

	// inflight admits one query at a time.
	inflight sync.Mutex
}

// NewSession creates a session; an empty id gets a generated short id.
func NewSession(id string) *Session {
	if id == "" {
		id = shortuuid.New()
	}
	now := time.Now()
	return &Session{
		ID:         id,
		CreatedAt:  now,
		context:    NewConversationContext(),
		log:        NewDecisionLog(),
		state:      StateAwaitingQuery,
		lastActive: now,
	}
}

// Context returns the current conversation context.
func (s *Session) Context() *ConversationContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.context
}

// Log returns the current decision log.
func (s *Session) Log() *DecisionLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log
}

// State returns the orchestrator state of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastActive returns when the session was last looked up or changed state.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Reset replaces the context and log with fresh empty ones.
// It fails with ErrSessionBusy while a query is in flight.
func (s *Session) Reset() error {
	if !s.inflight.TryLock() {
		return ErrSessionBusy
	}
	defer s.inflight.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = NewConversationContext()
	s.log = NewDecisionLog()
	s.state = StateAwaitingQuery
	s.lastActive = time.Now()
	return nil
}

func (s *Session) acquire() bool {
	return s.inflight.TryLock()
}

func (s *Session) release() {
	s.inflight.Unlock()
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.lastActive = time.Now()
}

// SessionStore manages sessions by id.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create adds a new session with a generated id.
func (s *SessionStore) Create() *Session {
	sess := NewSession("")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// Get retrieves a session if it exists. A returned session counts as
// active, so CleanupIdle cannot drop it before the caller uses it.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.touch()
	}
	return sess, ok
}

// GetOrCreate retrieves id or creates it. Like Get, it marks the session active.
func (s *SessionStore) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.touch()
		return sess
	}
	sess := NewSession(id)
	s.sessions[sess.ID] = sess
	return sess
}

// Delete removes a session and reports whether it existed.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// List returns sessions ordered by creation time.
func (s *SessionStore) List() []*Session {
	s.mu.RLock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// CleanupIdle removes idle sessions not active within maxAge.
// Sessions with a query in flight are kept.
func (s *SessionStore) CleanupIdle(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	deleted := 0
	for id, sess := range s.sessions {
		if !sess.LastActive().Before(cutoff) {
			continue
		}
		if !sess.acquire() {
			continue
		}
		delete(s.sessions, id)
		sess.release()
		deleted++
	}
	return deleted
}
