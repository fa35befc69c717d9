// Package session holds the in-memory conversation store. Transcripts are
// session-scoped and die with the process; there is no persistence layer.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/xiaot623/modgate/domain"
)

// Session owns the ordered transcript for one chat session plus its
// rate-limit timestamp. The transcript is append-only: a system turn at most
// once (always first), then strictly alternating user/assistant turns.
type Session struct {
	SessionID string
	UserID    string
	CreatedAt time.Time

	mu              sync.Mutex
	turns           []domain.Turn
	lastInteraction time.Time
}

// newSession seeds the transcript with the system prompt when one is given.
func newSession(sessionID, userID, systemPrompt string, now time.Time) *Session {
	s := &Session{
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: now,
	}
	if systemPrompt != "" {
		s.turns = append(s.turns, domain.Turn{
			Role:      domain.RoleSystem,
			Content:   systemPrompt,
			CreatedAt: now,
		})
	}
	return s
}

// Append adds a turn to the transcript, enforcing alternation: a user turn
// may only follow the system turn (or an empty transcript, or an assistant
// turn), and an assistant turn may only follow a user turn.
func (s *Session) Append(role domain.Role, content string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := domain.Role("")
	if n := len(s.turns); n > 0 {
		last = s.turns[n-1].Role
	}

	switch role {
	case domain.RoleUser:
		if last == domain.RoleUser {
			return fmt.Errorf("session %s: consecutive user turns", s.SessionID)
		}
	case domain.RoleAssistant:
		if last != domain.RoleUser {
			return fmt.Errorf("session %s: assistant turn must follow a user turn", s.SessionID)
		}
	case domain.RoleSystem:
		if len(s.turns) > 0 {
			return fmt.Errorf("session %s: system turn must be first", s.SessionID)
		}
	default:
		return fmt.Errorf("session %s: unknown role %q", s.SessionID, role)
	}

	s.turns = append(s.turns, domain.Turn{Role: role, Content: content, CreatedAt: now})
	return nil
}

// History returns a copy of the transcript in order.
func (s *Session) History() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns including the system turn.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// DropLast removes the most recent turn. Used to roll back a user turn when
// a later pipeline stage refuses the submission without committing anything.
func (s *Session) DropLast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.turns); n > 0 {
		s.turns = s.turns[:n-1]
	}
}

// TryAcquire applies the per-session cooldown. It returns false, leaving the
// timestamp untouched, when less than cooldown has passed since the last
// accepted submission; otherwise it records now and returns true. Keeping
// the timestamp only for accepted submissions means a rejected burst cannot
// keep pushing the window forward.
func (s *Session) TryAcquire(now time.Time, cooldown time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastInteraction.IsZero() && now.Sub(s.lastInteraction) < cooldown {
		return false
	}
	s.lastInteraction = now
	return true
}
