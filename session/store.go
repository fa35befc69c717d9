package session

import (
	"sync"
	"time"
)

// Store is the in-memory session registry. Sessions are created on first
// interaction and live until the process exits.
type Store struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	systemPrompt string
	now          func() time.Time
}

// NewStore creates a Store that seeds every new session with systemPrompt.
func NewStore(systemPrompt string) *Store {
	return &Store{
		sessions:     make(map[string]*Session),
		systemPrompt: systemPrompt,
		now:          time.Now,
	}
}

// GetOrCreate returns the session for sessionID, creating it on first use.
func (st *Store) GetOrCreate(sessionID, userID string) *Session {
	st.mu.RLock()
	s, ok := st.sessions[sessionID]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[sessionID]; ok {
		return s
	}
	s = newSession(sessionID, userID, st.systemPrompt, st.now())
	st.sessions[sessionID] = s
	return s
}

// Get returns the session for sessionID, or nil when it does not exist.
func (st *Store) Get(sessionID string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[sessionID]
}
