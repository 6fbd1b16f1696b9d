package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/antibyte/retrocalc/pkg/calc"
	"github.com/antibyte/retrocalc/pkg/composer"
	"github.com/antibyte/retrocalc/pkg/configuration"
	"github.com/antibyte/retrocalc/pkg/history"
	"github.com/antibyte/retrocalc/pkg/logger"
)

// StoreFactory returns the history store for an owner.
type StoreFactory func(owner string) history.Store

// Manager verwaltet die Sessions aller verbundenen Clients
type Manager struct {
	sessions      map[string]*Session // SessionID -> Session
	sessionsMutex sync.RWMutex

	evaluator   composer.Evaluator
	newStore    StoreFactory
	maxSessions int
}

// NewManager erstellt einen neuen Session-Manager
func NewManager(ev composer.Evaluator, newStore StoreFactory) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		evaluator:   ev,
		newStore:    newStore,
		maxSessions: configuration.GetInt("Server", "max_sessions", 1000),
	}
}

// GetOrCreate returns the session with id, creating it for owner if needed.
func (m *Manager) GetOrCreate(id, owner string) (*Session, error) {
	m.sessionsMutex.Lock()
	defer m.sessionsMutex.Unlock()

	if existing, ok := m.sessions[id]; ok {
		existing.touch()
		return existing, nil
	}

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return nil, fmt.Errorf("maximum sessions reached: %d", len(m.sessions))
	}

	s := New(id, owner, m.evaluator, m.newStore(owner))
	m.sessions[id] = s

	logger.Info(logger.AreaTerminal, "session registered: %s (owner: %s)", id, owner)
	return s, nil
}

// Get returns an existing session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.sessionsMutex.RLock()
	defer m.sessionsMutex.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove entfernt eine Session
func (m *Manager) Remove(id string) {
	m.sessionsMutex.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.sessionsMutex.Unlock()

	if ok {
		logger.Info(logger.AreaTerminal, "session unregistered: %s (duration: %v)", id, time.Since(s.CreatedAt()).Round(time.Second))
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.sessionsMutex.RLock()
	defer m.sessionsMutex.RUnlock()
	return len(m.sessions)
}

// CleanupInactive entfernt Sessions, die länger als maxIdle inaktiv sind.
// It returns the number of removed sessions.
func (m *Manager) CleanupInactive(maxIdle time.Duration) int {
	m.sessionsMutex.Lock()
	defer m.sessionsMutex.Unlock()

	now := time.Now()
	removed := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastActivity()) > maxIdle {
			delete(m.sessions, id)
			removed++
			logger.Debug(logger.AreaTerminal, "cleaning up inactive session: %s", id)
		}
	}

	if removed > 0 {
		logger.Info(logger.AreaTerminal, "cleaned up %d inactive sessions", removed)
	}
	return removed
}

// StartPeriodicCleanup startet die periodische Bereinigung inaktiver Sessions
// until ctx is done.
func (m *Manager) StartPeriodicCleanup(ctx context.Context) {
	interval := configuration.GetDuration("Server", "session_cleanup_interval", 10*time.Minute)
	maxIdle := configuration.GetDuration("Server", "max_inactive_time", 30*time.Minute)
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CleanupInactive(maxIdle)
				logger.Debug(logger.AreaTerminal, "session stats: %v", m.Stats())
			}
		}
	}()
}

// Stats gibt Statistiken über alle Sessions zurück
func (m *Manager) Stats() map[string]interface{} {
	m.sessionsMutex.RLock()
	defer m.sessionsMutex.RUnlock()

	owners := make(map[string]int)
	for _, s := range m.sessions {
		owners[s.Owner]++
	}
	stats := map[string]interface{}{
		"total_sessions": len(m.sessions),
		"unique_owners":  len(owners),
		"max_sessions":   m.maxSessions,
	}
	if c, ok := m.evaluator.(cacheReporter); ok {
		cs := c.CacheStats()
		stats["cache_size"] = cs.Size
		stats["cache_hits"] = cs.Hits
		stats["cache_misses"] = cs.Misses
		stats["cache_evictions"] = cs.Evictions
	}
	return stats
}

// cacheReporter wird von Evaluatoren mit Postfix-Cache implementiert
type cacheReporter interface {
	CacheStats() calc.CacheStats
}
