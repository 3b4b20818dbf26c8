package preview

import (
	"fmt"
	"sync"

	"github.com/adlint/adlint/pkg/bundle"
)

// Manager owns the active preview sessions. One session per bundle: opening a
// preview for a bundle that already has one supersedes and closes the old
// session before the new identifier is handed out.
type Manager struct {
	mu        sync.Mutex
	mountPath string
	sessions  map[string]*Session // session id -> session
	byBundle  map[string]string   // bundle id -> session id
}

func NewManager(mountPath string) *Manager {
	return &Manager{
		mountPath: mountPath,
		sessions:  make(map[string]*Session),
		byBundle:  make(map[string]string),
	}
}

// Open creates a session for the bundle, tearing down any previous session
// for the same bundle first.
func (m *Manager) Open(b *bundle.Bundle, primary string) (*Session, error) {
	s, err := NewSession(b, primary, m.mountPath)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if oldID, ok := m.byBundle[b.ID]; ok {
		if old, exists := m.sessions[oldID]; exists {
			old.Close()
			delete(m.sessions, oldID)
		}
	}
	m.sessions[s.ID] = s
	m.byBundle[b.ID] = s.ID
	return s, nil
}

// Get looks a session up by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears one session down.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("no session %s", id)
	}
	s.Close()
	delete(m.sessions, id)
	if m.byBundle[s.BundleID] == id {
		delete(m.byBundle, s.BundleID)
	}
	return nil
}

// CloseAll tears every session down.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
	m.byBundle = make(map[string]string)
}
