package hub

import "sync"

// PresenceTable maps a user identity to its single active connection.
// Exactly one connection per identity: a reconnect overwrites whatever
// was registered before (last-connected wins). Entries exist only while
// the connection is open; the table starts empty on every process start.
type PresenceTable struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewPresenceTable() *PresenceTable {
	return &PresenceTable{clients: make(map[string]*Client)}
}

// Register binds userID to client, unconditionally replacing any
// previous connection held by the same identity.
func (p *PresenceTable) Register(userID string, c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients[userID] = c
}

// Unregister removes userID from the table. Removing an absent identity
// is a no-op, so duplicate disconnect events are harmless.
func (p *PresenceTable) Unregister(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.clients, userID)
}

// UnregisterClient removes userID only if it is still bound to c.
// When a reconnect has already replaced the entry, the old connection's
// teardown must not knock the new one offline. Reports whether the
// entry was removed.
func (p *PresenceTable) UnregisterClient(userID string, c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.clients[userID]; ok && current == c {
		delete(p.clients, userID)
		return true
	}
	return false
}

// Lookup returns the live connection for userID, if any.
func (p *PresenceTable) Lookup(userID string) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.clients[userID]
	return c, ok
}

// Snapshot returns the identities currently online. The slice is a
// consistent point-in-time view; concurrent register/unregister calls
// are never half-visible.
func (p *PresenceTable) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.clients))
	for id := range p.clients {
		ids = append(ids, id)
	}
	return ids
}

func (p *PresenceTable) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}
