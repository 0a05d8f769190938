package chathub

import "sync"

// PresenceRegistry maps a party id to its live connection. It is the
// one piece of shared mutable state every connection handler touches,
// so all access goes through the mutex. Nothing is persisted: after a
// restart the registry starts empty and every party is simply offline
// until it re-registers.
type PresenceRegistry struct {
	mu      sync.RWMutex
	entries map[string]Client // party id -> live client
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		entries: make(map[string]Client),
	}
}

// Register associates a party with a connection. The last registration
// wins: a previous entry for the same party is silently replaced, which
// is what makes reconnects work. A connection speaks for at most one
// party, so re-registering a different party on the same connection
// drops the connection's previous binding.
func (r *PresenceRegistry) Register(partyID string, c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for pid, existing := range r.entries {
		if pid != partyID && existing.GetConnID() == c.GetConnID() {
			delete(r.entries, pid)
		}
	}
	r.entries[partyID] = c
}

// Lookup returns the party's current live connection, if any.
func (r *PresenceRegistry) Lookup(partyID string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.entries[partyID]
	return c, ok
}

// UnregisterConn removes every entry owned by the given connection id.
// The connection's Send channel is about to be closed, so no entry may
// keep pointing at it. When the party has already re-registered under a
// newer connection, the stale connection's unregister leaves the new
// entry untouched.
func (r *PresenceRegistry) UnregisterConn(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for partyID, c := range r.entries {
		if c.GetConnID() == connID {
			delete(r.entries, partyID)
		}
	}
}

// Size reports how many parties are currently registered.
func (r *PresenceRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
