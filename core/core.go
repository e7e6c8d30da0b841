package core

// core.go – Core: the single explicit struct wiring every subsystem
// together, deliberately avoiding a package-level sync.Once-singleton
// pattern: multiple Core instances must be constructible in-process for
// tests without fighting over shared global state.

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"pulsecore/pkg/config"
)

var coreLogger = log.New(io.Discard, "[core] ", log.LstdFlags)

// SetCoreLogger overrides the package logger.
func SetCoreLogger(l *log.Logger) { coreLogger = l }

// Core wires identity, dedup, routing, transports, the Nostr engine, the
// geohash channel manager, and topology tracking into one running node.
type Core struct {
	cfg *config.Config

	Identity     *IdentityStore
	MeshID       *MeshIdentity
	MeshHandle   string
	NostrID      *NostrIdentity

	Dedup    *Dedup
	Topology *Topology
	Router   *Router
	Acks     *AckTracker

	Mesh  *MeshTransport
	Nostr *NostrTransport

	Geo *ChannelGeohash

	policy SelectionPolicy

	onMessage MessageHandler
}

// MessageHandler is invoked for every successfully decrypted inbound
// message packet.
type MessageHandler func(from NodeID, msgType MessageType, plaintext []byte)

// OnMessage registers the callback invoked whenever an inbound message
// packet is delivered to this node and its envelope decrypts cleanly. Only
// one callback is kept; re-registering replaces the previous one.
func (c *Core) OnMessage(fn MessageHandler) { c.onMessage = fn }

// NewCore assembles a Core from configuration and a secret store, loading
// or creating identities as needed. It does not connect any transport;
// call Start for that.
func NewCore(cfg *config.Config, secrets SecretStore, meshNode *Node, meshPM *PeerManagement) (*Core, error) {
	identity := NewIdentityStore(secrets)

	meshID, handle, ok, err := identity.Load()
	if err != nil {
		return nil, identityErr("load mesh identity", err)
	}
	if !ok {
		meshID, err = identity.CreateOrFail("pulse-node")
		if err != nil {
			return nil, identityErr("create mesh identity", err)
		}
		handle = "pulse-node"
	}

	nostrID, ok, err := identity.LoadNostr()
	if err != nil {
		return nil, identityErr("load nostr identity", err)
	}
	if !ok {
		nostrID, err = NewNostrIdentity()
		if err != nil {
			return nil, identityErr("create nostr identity", err)
		}
		if _, err := identity.ImportNostr(nostrID.PrivateKeyHex()); err != nil {
			return nil, identityErr("persist nostr identity", err)
		}
	}

	clk := NewRealClock()
	dedup := NewDedup(clk, time.Duration(cfg.Routing.DedupRotationMS)*time.Millisecond)
	self := meshID.NodeID()
	topo := NewTopology(self, clk)

	policy := SelectionPolicy(cfg.Routing.PreferredTransport)
	if policy == "" {
		policy = SelectionHybrid
	}
	router := NewRouter(self, dedup, topo, policy, cfg.Routing.EnableRelaying)

	var meshTransport *MeshTransport
	if meshNode != nil && meshPM != nil {
		meshTransport = NewMeshTransport(meshNode, meshPM)
	}
	nostrTransport := NewNostrTransport(nostrID, cfg.Nostr.RelayURLs)

	geo := NewChannelGeohash(NewGeoRelaySubscriber(nostrTransport))

	c := &Core{
		cfg:        cfg,
		Identity:   identity,
		MeshID:     meshID,
		MeshHandle: handle,
		NostrID:    nostrID,
		Dedup:      dedup,
		Topology:   topo,
		Router:     router,
		Mesh:       meshTransport,
		Nostr:      nostrTransport,
		Geo:        geo,
		policy:     policy,
	}

	ackTimeout := time.Duration(cfg.Routing.AckRetryTimeoutMS) * time.Millisecond
	c.Acks = NewAckTracker(clk, ackTimeout, cfg.Routing.AckRetryMax, c.resendPacket, c.ackFailed)
	return c, nil
}

// Start connects whichever transports are configured and wires their
// inbound packets through the routing engine.
func (c *Core) Start(ctx context.Context) error {
	if c.cfg.Mesh.Enabled && c.Mesh != nil {
		c.Mesh.OnPacket(c.handleInbound(TransportMesh))
		if err := c.Mesh.Connect(ctx); err != nil {
			return transportErr("start mesh transport", err)
		}
	}
	if c.cfg.Nostr.Enabled && c.Nostr != nil {
		c.Nostr.OnPacket(c.handleInbound(TransportNostr))
		if err := c.Nostr.Connect(ctx); err != nil {
			return transportErr("start nostr transport", err)
		}
	}
	return nil
}

// Stop tears down transports and timer-driven services.
func (c *Core) Stop() {
	if c.Mesh != nil {
		_ = c.Mesh.Disconnect()
	}
	if c.Nostr != nil {
		_ = c.Nostr.Disconnect()
	}
	c.Acks.Close()
	c.Dedup.Close()
	c.Topology.Close()
}

func (c *Core) handleInbound(via TransportKind) PacketHandler {
	return func(pkt *RoutablePacket, from NodeID) {
		decision := c.Router.Route(pkt, from, via, time.Now())
		ObserveDecision(decision)
		switch decision.Action {
		case DecisionDeliver:
			c.deliver(pkt, from)
		case DecisionDeliverAndForward:
			c.deliver(pkt, from)
			c.forward(decision)
		case DecisionForward:
			c.forward(decision)
		}
	}
}

// deliver surfaces a packet the routing engine decided is addressed to this
// node: ack bookkeeping for message_ack packets, envelope decryption and
// the registered callback for message packets.
func (c *Core) deliver(pkt *RoutablePacket, from NodeID) {
	switch pkt.Type {
	case PacketMessageAck:
		c.Acks.Ack(pkt.PacketID)
	case PacketMessage:
		env, err := UnmarshalMessageEnvelope(pkt.Payload)
		if err != nil {
			coreLogger.Printf("deliver packet %s: %v", pkt.PacketID, codecErr("unmarshal envelope", err))
			return
		}
		plaintext, err := env.Open(c.MeshID, c.MeshID.NodeID(), env.SenderEncPub)
		if err != nil {
			coreLogger.Printf("deliver packet %s: %v", pkt.PacketID, err)
			return
		}
		if c.onMessage != nil {
			c.onMessage(from, env.MessageType, plaintext)
		}
	}
}

func (c *Core) forward(d Decision) {
	transport := c.transportFor(d.Transport)
	if transport == nil {
		return
	}
	ctx := context.Background()
	if len(d.NextHops) > 0 {
		for _, hop := range d.NextHops {
			if err := transport.Send(ctx, hop, d.Next); err != nil {
				coreLogger.Printf("forward packet to %s: %v", hop, transportErr("forward packet", err))
			}
		}
		return
	}
	if err := transport.Broadcast(ctx, d.Next); err != nil {
		coreLogger.Printf("forward packet: %v", transportErr("forward packet", err))
	}
}

func (c *Core) transportFor(kind TransportKind) Transport {
	if kind == TransportNostr {
		if c.Nostr == nil {
			return nil
		}
		return c.Nostr
	}
	if c.Mesh == nil {
		return nil
	}
	return c.Mesh
}

// SendMessage encrypts plaintext for the recipient's X25519 public key,
// routes the resulting envelope as a fresh outbound message packet, and
// registers it for ack tracking.
func (c *Core) SendMessage(ctx context.Context, to NodeID, recipientEncPub [32]byte, msgType MessageType, plaintext []byte) (*RoutablePacket, error) {
	env, err := NewMessageEnvelope(c.MeshID, c.MeshID.NodeID(), to, recipientEncPub, msgType, "", plaintext, time.Now().Unix())
	if err != nil {
		return nil, err
	}
	payload, err := env.Marshal()
	if err != nil {
		return nil, codecErr("marshal envelope", err)
	}

	pkt, decision := c.Router.RouteOutbound(to, PacketMessage, payload, time.Now())
	transport := c.transportFor(decision.Transport)
	if transport == nil {
		return nil, transportErr("send message", fmt.Errorf("no transport available for %s", decision.Transport))
	}
	if err := transport.Send(ctx, to, pkt); err != nil {
		return nil, err
	}
	c.Acks.Track(pkt, to, time.Now().Unix())
	return pkt, nil
}

func (c *Core) resendPacket(pkt *RoutablePacket, to NodeID) error {
	var mesh, nostr Transport
	if c.Mesh != nil {
		mesh = c.Mesh
	}
	if c.Nostr != nil {
		nostr = c.Nostr
	}
	transport := ChooseTransport(c.policy, mesh, nostr)
	if transport == nil {
		return fmt.Errorf("no transport available to resend")
	}
	return transport.Send(context.Background(), to, pkt)
}

func (c *Core) ackFailed(pkt *RoutablePacket, to NodeID) {
	// Surfaced via metrics only; a CLI or higher layer can subscribe to
	// AckTracker directly if it needs the failure event itself.
	MetricPacketsDropped.WithLabelValues("ack_failed").Inc()
}
