package core

// transport_nostr.go – the Nostr Transport implementation: packets travel
// as NIP-04-style encrypted content inside kind-30078 application-data
// events, broadcast to every configured relay and received via a single
// shared subscription filtered to our own pubkey.

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const nostrPacketKind = KindAppData

// NostrTransport adapts a set of relay connections into the Transport
// interface, carrying RoutablePacket bytes as event content.
type NostrTransport struct {
	identity *NostrIdentity
	relays   []*Relay
	subs     *SubscriptionRegistry

	mu         sync.RWMutex
	onPacket   PacketHandler
	onDiscover PeerEventHandler
	onLost     PeerEventHandler
	connected  bool
}

// NewNostrTransport creates a transport over the given relay URLs.
func NewNostrTransport(identity *NostrIdentity, relayURLs []string) *NostrTransport {
	relays := make([]*Relay, 0, len(relayURLs))
	for _, u := range relayURLs {
		relays = append(relays, NewRelay(u))
	}
	return &NostrTransport{identity: identity, relays: relays, subs: NewSubscriptionRegistry()}
}

func (n *NostrTransport) Kind() TransportKind { return TransportNostr }

// Connect opens every configured relay and subscribes each to events
// tagged for our own pubkey.
func (n *NostrTransport) Connect(ctx context.Context) error {
	var firstErr error
	anyConnected := false
	for _, r := range n.relays {
		r.OnEvent(func(subID string, ev *Event) { n.handleEvent(ev) })
		if err := r.Connect(ctx); err != nil {
			logrus.Warnf("nostr transport: relay %s failed to connect: %v", r.URL(), err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		anyConnected = true
		filter := Filter{Kinds: []int{nostrPacketKind}, Tags: map[string][]string{"p": {n.identity.PubKeyHex}}}
		if err := n.subs.Register(r, fmt.Sprintf("pulse-inbox-%s", n.identity.PubKeyHex[:8]), filter); err != nil {
			logrus.Warnf("nostr transport: subscribe on %s failed: %v", r.URL(), err)
		}
	}
	n.mu.Lock()
	n.connected = anyConnected
	n.mu.Unlock()
	if !anyConnected {
		return transportErr("nostr connect", firstErr)
	}
	return nil
}

func (n *NostrTransport) handleEvent(ev *Event) {
	content, err := base64.StdEncoding.DecodeString(ev.Content)
	if err != nil {
		return
	}
	pkt, err := UnmarshalPacket(content)
	if err != nil {
		return
	}
	n.mu.RLock()
	handler := n.onPacket
	n.mu.RUnlock()
	if handler != nil {
		handler(pkt, NodeID(ev.PubKey))
	}
}

func (n *NostrTransport) Disconnect() error {
	for _, r := range n.relays {
		_ = r.Close()
	}
	n.mu.Lock()
	n.connected = false
	n.mu.Unlock()
	return nil
}

func (n *NostrTransport) IsConnected() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.connected
}

func (n *NostrTransport) publish(pkt *RoutablePacket, recipientPubkeyHex string) error {
	b, err := pkt.Marshal()
	if err != nil {
		return codecErr("nostr send marshal", err)
	}
	content := base64.StdEncoding.EncodeToString(b)
	tags := []Tag{}
	if recipientPubkeyHex != "" {
		tags = append(tags, Tag{"p", recipientPubkeyHex})
	}
	ev, err := BuildEvent(n.identity, nostrPacketKind, tags, content, time.Now().Unix())
	if err != nil {
		return err
	}
	var lastErr error
	sent := false
	for _, r := range n.relays {
		if r.State() != RelayOpen {
			continue
		}
		if err := r.PublishEvent(ev); err != nil {
			lastErr = err
			continue
		}
		sent = true
	}
	if !sent {
		return transportErr("nostr publish", lastErr)
	}
	return nil
}

func (n *NostrTransport) Send(ctx context.Context, to NodeID, pkt *RoutablePacket) error {
	return n.publish(pkt, string(to))
}

func (n *NostrTransport) Broadcast(ctx context.Context, pkt *RoutablePacket) error {
	return n.publish(pkt, "")
}

func (n *NostrTransport) OnPacket(h PacketHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onPacket = h
}

func (n *NostrTransport) OnPeerDiscovered(h PeerEventHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onDiscover = h
}

func (n *NostrTransport) OnPeerLost(h PeerEventHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onLost = h
}
