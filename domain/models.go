// Package domain defines the core domain models for the moderation gateway.
package domain

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry in a session transcript.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryScore is one moderation category reported by the content classifier.
type CategoryScore struct {
	Category string `json:"category"`
	Severity int    `json:"severity"`
}

// ClassificationResult is the combined screening verdict for one input.
// Produced fresh per submission and never stored.
type ClassificationResult struct {
	Blocked  bool   `json:"blocked"`
	Reason   string `json:"reason,omitempty"`
	Category string `json:"category,omitempty"`
	Severity int    `json:"severity,omitempty"`
}

// Outcome is the user-visible result class of one submission.
type Outcome string

const (
	OutcomeAnswered    Outcome = "answered"
	OutcomeBlocked     Outcome = "blocked"
	OutcomeFailed      Outcome = "failed"
	OutcomeRateLimited Outcome = "rate_limited"
)

// Exchange carries one completed input/output pair to the audit layer.
type Exchange struct {
	SessionID string
	UserID    string
	Input     string
	Output    string
	Model     string
	Tags      []string
}
