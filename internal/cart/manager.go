package cart

import "sync"

// Manager owns one cart per session. Carts live in memory only; they are
// created empty on first use and discarded on Drop or process restart.
//
// The Manager serializes access so that HTTP handlers can mutate a session's
// cart without the Cart itself needing locks.
type Manager struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

// NewManager creates an empty cart manager.
func NewManager() *Manager {
	return &Manager{carts: make(map[string]*Cart)}
}

// With runs fn against the cart for the given session, creating the cart if
// it does not exist yet. Mutations applied by fn are committed before the
// next call for the same session observes the cart.
func (m *Manager) With(session string, fn func(*Cart)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.carts[session]
	if !ok {
		c = New()
		m.carts[session] = c
	}
	fn(c)
}

// Snapshot returns a copy of the session's lines and total without creating
// a cart for unknown sessions.
func (m *Manager) Snapshot(session string) ([]Line, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.carts[session]
	if !ok {
		return nil, 0
	}
	return c.Lines(), c.Total()
}

// Drop forgets the session's cart entirely.
func (m *Manager) Drop(session string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, session)
}
