package core

// common_structs.go – centralised struct definitions shared across the
// router, transport coordinator, and topology tracker. Kept as a single
// file so the P2P shape is declared once instead of scattered across every
// file that needs a NodeID or a Peer.

import (
	"context"
	"net"
	"sync"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	host "github.com/libp2p/go-libp2p/core/host"
)

//---------------------------------------------------------------------
// Identifiers
//---------------------------------------------------------------------

// NodeID is a stable local identifier for a mesh peer: either a libp2p peer
// ID string (Mesh transport) or a hex-encoded Nostr x-only public key
// (Nostr transport).
type NodeID string

// TransportKind names which transport last observed or should carry a
// message.
type TransportKind uint8

const (
	TransportMesh TransportKind = iota
	TransportNostr
)

func (t TransportKind) String() string {
	if t == TransportNostr {
		return "nostr"
	}
	return "mesh"
}

//---------------------------------------------------------------------
// Peer bookkeeping
//---------------------------------------------------------------------

// Peer is a directly-connected mesh link as tracked by the Mesh transport's
// libp2p host. DiscoveredPeer (topology.go) is the richer, transport-agnostic
// record the topology tracker keeps.
type Peer struct {
	ID      NodeID
	Addr    string
	Latency time.Duration
	Conn    net.Conn
}

// Config configures a Mesh transport Node.
type Config struct {
	ListenAddr     string
	BootstrapPeers []string
	DiscoveryTag   string
}

// Node wraps a libp2p host plus the pubsub/mDNS plumbing used for mesh
// broadcast and discovery.
type Node struct {
	host      host.Host
	pubsub    *pubsub.PubSub
	topics    map[string]*pubsub.Topic
	subs      map[string]*pubsub.Subscription
	topicLock sync.RWMutex
	subLock   sync.RWMutex
	peerLock  sync.RWMutex
	peers     map[NodeID]*Peer
	nat       *NATManager
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       Config

	peerEventLock sync.RWMutex
	onPeerFound   func(NodeID)
	onPeerLost    func(NodeID)
}

// OnPeerFound registers a callback invoked whenever mDNS discovery
// connects a new mesh peer (HandlePeerFound). Peers added by DialSeed or
// PeerManagement.Connect do not fire it. Only one callback is kept;
// re-registering replaces the previous one.
func (n *Node) OnPeerFound(fn func(NodeID)) {
	n.peerEventLock.Lock()
	n.onPeerFound = fn
	n.peerEventLock.Unlock()
}

// OnPeerLost registers a callback invoked whenever RemovePeer drops a mesh
// peer. PeerManagement.Disconnect removes peers without firing it.
func (n *Node) OnPeerLost(fn func(NodeID)) {
	n.peerEventLock.Lock()
	n.onPeerLost = fn
	n.peerEventLock.Unlock()
}

//---------------------------------------------------------------------
// Message/packet transport primitives
//---------------------------------------------------------------------

// Message is a decoded pubsub delivery on a mesh topic.
type Message struct {
	From  NodeID
	Topic string
	Data  []byte
}

// InboundMsg is a decoded delivery on a peer-management subscription.
type InboundMsg struct {
	PeerID  string `json:"peer_id"`
	Code    byte   `json:"code"`
	Payload []byte `json:"payload"`
	Topic   string `json:"topic,omitempty"`
	Ts      int64  `json:"ts"`
}

// PeerInfo summarizes a peer for discovery/sampling callers.
type PeerInfo struct {
	ID      NodeID
	RTT     float64
	Updated int64
}

// PeerManager is the narrow interface the routing engine and transport
// coordinator use to reach the Mesh transport's peer set, independent of
// libp2p's concrete types.
type PeerManager interface {
	Peers() []PeerInfo
	Connect(addr string) error
	Disconnect(id NodeID) error
	Sample(n int) []string
	SendAsync(peerID, proto string, code byte, payload []byte) error
	Subscribe(proto string) <-chan InboundMsg
	Unsubscribe(proto string)
}
