package core

// transport_mesh.go – the Mesh Transport implementation: packets travel as
// pubsub broadcasts on a well-known topic, with direct sends carried over
// a dedicated libp2p stream protocol. Built on top of the existing
// Node/PeerManagement plumbing in network.go/peer_management.go rather
// than duplicating libp2p wiring.

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	meshBroadcastTopic  = "pulse/packets/v1"
	meshDirectProtocol  = "/pulse/direct/1.0.0"
)

// MeshTransport adapts Node/PeerManagement into the Transport interface.
type MeshTransport struct {
	node *Node
	pm   *PeerManagement

	mu         sync.RWMutex
	onPacket   PacketHandler
	onDiscover PeerEventHandler
	onLost     PeerEventHandler
	connected  bool
	cancel     context.CancelFunc
}

// NewMeshTransport wraps an already-constructed Node and its PeerManagement
// helper as a Transport.
func NewMeshTransport(node *Node, pm *PeerManagement) *MeshTransport {
	return &MeshTransport{node: node, pm: pm}
}

func (m *MeshTransport) Kind() TransportKind { return TransportMesh }

// Connect starts the broadcast-topic listener and the direct-protocol
// listener; both run until the returned context's parent is cancelled or
// Disconnect is called.
func (m *MeshTransport) Connect(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	broadcastCh, err := m.node.Subscribe(meshBroadcastTopic)
	if err != nil {
		cancel()
		return transportErr("mesh connect", err)
	}
	directCh := m.pm.Subscribe(meshDirectProtocol)

	m.node.OnPeerFound(func(id NodeID) {
		m.mu.RLock()
		h := m.onDiscover
		m.mu.RUnlock()
		if h != nil {
			h(id)
		}
	})
	m.node.OnPeerLost(func(id NodeID) {
		m.mu.RLock()
		h := m.onLost
		m.mu.RUnlock()
		if h != nil {
			h(id)
		}
	})

	m.mu.Lock()
	m.cancel = cancel
	m.connected = true
	m.mu.Unlock()

	go m.pump(runCtx, broadcastCh, directCh)
	return nil
}

func (m *MeshTransport) pump(ctx context.Context, broadcastCh <-chan Message, directCh <-chan InboundMsg) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-broadcastCh:
			if !ok {
				return
			}
			m.deliver(msg.Data, msg.From)
		case msg, ok := <-directCh:
			if !ok {
				return
			}
			m.deliver(msg.Payload, NodeID(msg.PeerID))
		}
	}
}

func (m *MeshTransport) deliver(data []byte, from NodeID) {
	pkt, err := UnmarshalPacket(data)
	if err != nil {
		logrus.Debugf("mesh transport: dropping undecodable packet from %s: %v", from, err)
		return
	}
	m.mu.RLock()
	handler := m.onPacket
	m.mu.RUnlock()
	if handler != nil {
		handler(pkt, from)
	}
}

func (m *MeshTransport) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
	m.connected = false
	return nil
}

func (m *MeshTransport) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *MeshTransport) Send(ctx context.Context, to NodeID, pkt *RoutablePacket) error {
	b, err := pkt.Marshal()
	if err != nil {
		return codecErr("mesh send marshal", err)
	}
	if err := m.pm.SendAsync(string(to), meshDirectProtocol, 0, b); err != nil {
		return transportErr(fmt.Sprintf("mesh send to %s", to), err)
	}
	return nil
}

func (m *MeshTransport) Broadcast(ctx context.Context, pkt *RoutablePacket) error {
	b, err := pkt.Marshal()
	if err != nil {
		return codecErr("mesh broadcast marshal", err)
	}
	if err := m.node.Broadcast(meshBroadcastTopic, b); err != nil {
		return transportErr("mesh broadcast", err)
	}
	return nil
}

func (m *MeshTransport) OnPacket(h PacketHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onPacket = h
}

func (m *MeshTransport) OnPeerDiscovered(h PeerEventHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDiscover = h
}

func (m *MeshTransport) OnPeerLost(h PeerEventHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLost = h
}
