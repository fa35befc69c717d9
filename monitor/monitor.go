// Package monitor is the observability side channel: a bounded in-memory
// log of status entries, mirrored to structured logs and streamed to any
// connected WebSocket clients. Nothing here ever reaches the chat reply.
package monitor

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Level classifies a status entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Entry is one status event.
type Entry struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Monitor keeps the most recent entries, newest first.
type Monitor struct {
	mu      sync.Mutex
	entries []Entry
	cap     int

	logger *slog.Logger
	hub    *Hub
	now    func() time.Time
}

// New creates a Monitor that retains up to capacity entries. hub may be nil.
func New(capacity int, logger *slog.Logger, hub *Hub) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		cap:    capacity,
		logger: logger,
		hub:    hub,
		now:    time.Now,
	}
}

// Info records an informational entry.
func (m *Monitor) Info(msg string) { m.record(LevelInfo, msg) }

// Success records a success entry.
func (m *Monitor) Success(msg string) { m.record(LevelSuccess, msg) }

// Error records an error entry.
func (m *Monitor) Error(msg string) { m.record(LevelError, msg) }

func (m *Monitor) record(level Level, msg string) {
	e := Entry{Level: level, Message: msg, At: m.now()}

	m.mu.Lock()
	m.entries = append([]Entry{e}, m.entries...)
	if m.cap > 0 && len(m.entries) > m.cap {
		m.entries = m.entries[:m.cap]
	}
	m.mu.Unlock()

	switch level {
	case LevelError:
		m.logger.Error(msg, "channel", "monitor")
	default:
		m.logger.Info(msg, "channel", "monitor", "level", string(level))
	}

	if m.hub != nil {
		if data, err := json.Marshal(e); err == nil {
			m.hub.Broadcast(data)
		}
	}
}

// Entries returns a copy of the retained entries, newest first.
func (m *Monitor) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
