package collab

import (
	"sync"
	"time"
)

// DefaultHeartbeatTimeout is the window after which a peer with no
// activity is considered inactive (§6).
const DefaultHeartbeatTimeout = 30 * time.Second

// PeerRecord describes one known peer: {id, address, port, active,
// last_response_time} (§6).
type PeerRecord struct {
	ID               string
	Address          string
	Port             int
	Active           bool
	LastResponseTime time.Time
}

// IsActive reports whether p is active per §6: Active is true and its
// last activity is within heartbeatTimeout of now.
func (p PeerRecord) IsActive(now time.Time, heartbeatTimeout time.Duration) bool {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = DefaultHeartbeatTimeout
	}
	return p.Active && now.Sub(p.LastResponseTime) < heartbeatTimeout
}

// PeerTable is the RWMutex-guarded known-peers map (§5).
type PeerTable struct {
	mu               sync.RWMutex
	peers            map[string]PeerRecord
	heartbeatTimeout time.Duration
}

// NewPeerTable returns an empty table using heartbeatTimeout
// (DefaultHeartbeatTimeout if non-positive).
func NewPeerTable(heartbeatTimeout time.Duration) *PeerTable {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = DefaultHeartbeatTimeout
	}
	return &PeerTable{peers: make(map[string]PeerRecord), heartbeatTimeout: heartbeatTimeout}
}

// Upsert records or replaces a peer's record.
func (t *PeerTable) Upsert(p PeerRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peers[p.ID] = p
}

// Touch marks peerID as having responded at now, without altering its
// other fields.
func (t *PeerTable) Touch(peerID string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.peers[peerID]
	if !ok {
		return
	}
	p.LastResponseTime = now
	p.Active = true
	t.peers[peerID] = p
}

// ActivePeers returns every peer currently considered active, per
// PeerRecord.IsActive.
func (t *PeerTable) ActivePeers(now time.Time) []PeerRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []PeerRecord
	for _, p := range t.peers {
		if p.IsActive(now, t.heartbeatTimeout) {
			out = append(out, p)
		}
	}
	return out
}

// Remove deletes peerID from the table (used by the discovery/cleanup
// timer task, §4.4/§5).
func (t *PeerTable) Remove(peerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.peers, peerID)
}
