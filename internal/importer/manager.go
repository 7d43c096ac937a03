package importer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/logging"
)

// Manager is the registry of live sessions. Sessions share no mutable
// state; the registry only guards its own map.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     Deps
	logger   logging.Logger
}

// NewManager returns an empty registry whose sessions use deps.
func NewManager(deps Deps, logger logging.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		deps:     deps,
		logger:   logging.OrDefault(logger),
	}
}

// Create starts and registers a new idle session.
func (m *Manager) Create() *Session {
	s := NewSession(m.deps, m.logger)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Debug("Import session created", logging.F(logging.FieldSession, s.ID()))
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete forgets the session with id.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// IDs returns the registered session ids in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Prune drops sessions idle for longer than maxAge, except those that are
// committing. It returns how many were dropped.
func (m *Manager) Prune(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.RLock()
	candidates := make(map[string]*Session, len(m.sessions))
	for id, s := range m.sessions {
		candidates[id] = s
	}
	m.mu.RUnlock()

	var stale []string
	for id, s := range candidates {
		if s.State() == StateCommitting || s.UpdatedAt().After(cutoff) {
			continue
		}
		stale = append(stale, id)
	}

	m.mu.Lock()
	for _, id := range stale {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if len(stale) > 0 {
		m.logger.Info("Pruned idle import sessions", logging.F(logging.FieldCount, len(stale)))
	}
	return len(stale)
}
