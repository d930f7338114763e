package authstate

import (
	"sync"

	"github.com/GoUserDesk/GoUserDesk/internal/identity"
)

// RestoreFunc re-establishes the identity of a session that has a valid
// session cookie but no in-memory state, typically after a restart. It
// is expected to publish an identity event for the session.
type RestoreFunc func(sessionID string)

// Manager keeps one state store per active session and routes identity
// change events to them.
type Manager struct {
	cache   *Cache
	lookup  ProfileLookup
	restore RestoreFunc

	mu     sync.RWMutex
	stores map[string]*Store
}

// NewManager creates an empty manager.
func NewManager(cache *Cache, lookup ProfileLookup) *Manager {
	return &Manager{
		cache:  cache,
		lookup: lookup,
		stores: make(map[string]*Store),
	}
}

// SetRestoreFunc installs the hook used to restore known sessions.
// It must be set before the web server starts accepting requests.
func (m *Manager) SetRestoreFunc(fn RestoreFunc) {
	m.restore = fn
}

// Get returns the store for a session if one exists.
func (m *Manager) Get(sessionID string) (*Store, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.stores[sessionID]

	return s, ok
}

// Fresh creates the store for a brand-new session. The store starts as
// an initialized guest, so navigations never wait on it.
func (m *Manager) Fresh(sessionID string) *Store {
	s := m.getOrCreate(sessionID)
	s.MarkInitialized()

	return s
}

// Resume returns the store for a session that presented a cookie. When
// no store exists yet the cached state is loaded for provisional
// rendering and the restore hook runs in the background; callers wait
// on the store's Ready channel for the definitive state.
func (m *Manager) Resume(sessionID string) *Store {
	if s, ok := m.Get(sessionID); ok {
		return s
	}

	s := m.getOrCreate(sessionID)
	s.LoadCachedState()

	if m.restore != nil {
		go m.restore(sessionID)
	}

	return s
}

// Dispatch routes an identity change event to its session's store,
// creating the store if the session is new. The store applies the
// event in the background; ordering is enforced by sequence numbers.
func (m *Manager) Dispatch(ev identity.Event) {
	s := m.getOrCreate(ev.SessionID)

	go s.Apply(ev)
}

// Drop forgets a session's store, for example when the session is
// destroyed on logout.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.stores, sessionID)
}

func (m *Manager) getOrCreate(sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[sessionID]; ok {
		return s
	}

	s := NewStore(sessionID, m.cache, m.lookup)
	m.stores[sessionID] = s

	return s
}
