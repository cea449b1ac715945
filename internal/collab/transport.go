package collab

import (
	"sync"
)

// Handler processes a Message delivered to this node after signature
// verification.
type Handler func(msg Message)

// Transport is the collaborator contract's send/broadcast surface.
// SimulatedTransport is the one in-process implementation; a real
// deployment would satisfy the same interface over an actual wire
// protocol.
type Transport interface {
	Broadcast(msg Message)
	RegisterHandler(kind Kind, h Handler)
}

// SimulatedTransport is an in-process, channel-based broadcast fabric —
// the multi-kind generalization of the teacher's SimulatedNetwork, whose
// BlockBroadcastChannel/TransactionBroadcastChannel pair becomes one
// channel per peer here, demultiplexed by Kind on delivery.
type SimulatedTransport struct {
	nodeID string

	mu    sync.RWMutex
	peers map[string]chan Message

	handlersMu sync.RWMutex
	handlers   map[Kind][]Handler
}

// NewSimulatedTransport returns a transport identified as nodeID.
func NewSimulatedTransport(nodeID string) *SimulatedTransport {
	return &SimulatedTransport{
		nodeID:   nodeID,
		peers:    make(map[string]chan Message),
		handlers: make(map[Kind][]Handler),
	}
}

// Connect registers peerID's inbox with this transport, returning the
// channel its messages arrive on. The caller is responsible for draining
// it (typically via RunInbox).
func (s *SimulatedTransport) Connect(peerID string) <-chan Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Message, 128)
	s.peers[peerID] = ch
	return ch
}

// Disconnect removes peerID and closes its inbox.
func (s *SimulatedTransport) Disconnect(peerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.peers[peerID]; ok {
		close(ch)
		delete(s.peers, peerID)
	}
}

// Broadcast verifies msg's signature, then fans it out to every connected
// peer's inbox, dropping it for any peer whose inbox is full rather than
// blocking (§5 backpressure: no unbounded queueing).
func (s *SimulatedTransport) Broadcast(msg Message) {
	if !msg.Verify() {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.peers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// RegisterHandler attaches h to every delivered message of kind, for
// RunInbox to invoke.
func (s *SimulatedTransport) RegisterHandler(kind Kind, h Handler) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers[kind] = append(s.handlers[kind], h)
}

// RunInbox drains ch, verifying and dispatching each message to its
// kind's registered handlers, until ch is closed.
func (s *SimulatedTransport) RunInbox(ch <-chan Message) {
	for msg := range ch {
		if !msg.Verify() {
			continue
		}
		s.handlersMu.RLock()
		handlers := append([]Handler(nil), s.handlers[msg.Kind]...)
		s.handlersMu.RUnlock()
		for _, h := range handlers {
			h(msg)
		}
	}
}
