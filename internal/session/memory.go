package session

import (
	"sync"
	"time"
)

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu      sync.RWMutex
	session Session
	now     func() time.Time
}

// NewMemoryStore returns a MemoryStore seeded with initial.
func NewMemoryStore(initial Session) *MemoryStore {
	return &MemoryStore{session: clone(initial), now: time.Now}
}

// Init implements Store.
func (m *MemoryStore) Init() error { return nil }

// Get implements Store.
func (m *MemoryStore) Get() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.session)
}

// Set implements Store.
func (m *MemoryStore) Set(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s = clone(s)
	s.UpdatedAt = m.now()
	m.session = s
	return nil
}

// SetAccessToken implements Store.
func (m *MemoryStore) SetAccessToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.AccessToken = token
	m.session.UpdatedAt = m.now()
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{}
	return nil
}

// Teardown implements Store.
func (m *MemoryStore) Teardown() error {
	return m.Clear()
}
