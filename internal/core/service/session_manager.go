package service

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/salonbook/webapp/internal/api/metrics"
	"github.com/salonbook/webapp/internal/core/ports"
)

const defaultIdleTTL = 30 * time.Minute

// SessionFactory builds the store of one browser session.
type SessionFactory func(sessionID string) *SessionStore

// SessionManager keeps one SessionStore per browser, evicting idle ones.
// Evicted stores are rebuilt from their credential record on the next visit.
type SessionManager struct {
	mu      sync.Mutex
	stores  *cache.Cache
	factory SessionFactory
}

func NewSessionManager(factory SessionFactory, idleTTL time.Duration) *SessionManager {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	m := &SessionManager{
		stores:  cache.New(idleTTL, idleTTL/2),
		factory: factory,
	}
	m.stores.OnEvicted(func(string, interface{}) {
		metrics.SessionsActive.Dec()
	})
	return m
}

// Session implements ports.SessionProvider.
func (m *SessionManager) Session(sessionID string) ports.SessionService {
	return m.Store(sessionID)
}

// Store returns the store for sessionID, creating it on first use. Every call
// pushes the idle deadline forward.
func (m *SessionManager) Store(sessionID string) *SessionStore {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.stores.Get(sessionID); ok {
		st := v.(*SessionStore)
		m.stores.SetDefault(sessionID, st)
		return st
	}

	// Drop an expired entry the janitor has not collected yet.
	m.stores.Delete(sessionID)
	st := m.factory(sessionID)
	m.stores.SetDefault(sessionID, st)
	metrics.SessionsActive.Inc()
	return st
}

// Len returns the number of live stores. Expired stores still waiting for
// the janitor are not counted.
func (m *SessionManager) Len() int {
	return len(m.stores.Items())
}
