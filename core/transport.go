package core

// transport.go – the Transport abstraction the routing engine forwards
// packets through, plus the Mesh/Nostr/Hybrid selection policy. Follows
// the PeerManager narrow-interface pattern in common_structs.go: depend
// on behaviour, not on libp2p or websocket concrete types.

import "context"

// PacketHandler is invoked when a transport delivers a decoded packet.
type PacketHandler func(pkt *RoutablePacket, from NodeID)

// PeerEventHandler is invoked when a transport discovers or loses a peer.
type PeerEventHandler func(id NodeID)

// Transport is the narrow interface the routing engine and coordinator use
// to move packets, independent of whether the concrete carrier is the
// Mesh (libp2p) or Nostr (relay) transport.
type Transport interface {
	Kind() TransportKind
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool
	Send(ctx context.Context, to NodeID, pkt *RoutablePacket) error
	Broadcast(ctx context.Context, pkt *RoutablePacket) error
	OnPacket(h PacketHandler)
	OnPeerDiscovered(h PeerEventHandler)
	OnPeerLost(h PeerEventHandler)
}

// SelectionPolicy governs which transport(s) the coordinator prefers when
// more than one is available.
type SelectionPolicy string

const (
	SelectionMeshOnly  SelectionPolicy = "mesh_only"
	SelectionNostrOnly SelectionPolicy = "nostr_only"
	SelectionHybrid    SelectionPolicy = "hybrid"
)

// ChooseTransport picks which transport to use for an outbound packet
// under the given policy, preferring Mesh in the hybrid default (lower
// latency, no relay dependency) and falling back to whichever transport is
// actually connected.
func ChooseTransport(policy SelectionPolicy, mesh, nostr Transport) Transport {
	switch policy {
	case SelectionMeshOnly:
		return mesh
	case SelectionNostrOnly:
		return nostr
	default: // hybrid
		if mesh != nil && mesh.IsConnected() {
			return mesh
		}
		if nostr != nil && nostr.IsConnected() {
			return nostr
		}
		return mesh
	}
}
