package core

import (
	"testing"
	"time"
)

func newTestRouter(self NodeID, relaying bool) (*Router, *Dedup, *Topology) {
	dedup := NewDedup(NewMockClock(), 0)
	topo := NewTopology(self, NewMockClock())
	r := NewRouter(self, dedup, topo, SelectionHybrid, relaying)
	return r, dedup, topo
}

func TestRouterDeliversPacketAddressedToSelf(t *testing.T) {
	r, dedup, topo := newTestRouter("me", true)
	defer dedup.Close()
	defer topo.Close()

	pkt := NewOutboundPacket("peer", "me", PacketMessage, []byte("hi"), 1000)
	d := r.Route(pkt, "peer", TransportMesh, time.Unix(1000, 0))
	if d.Action != DecisionDeliver {
		t.Fatalf("expected deliver, got %v (%s)", d.Action, d.Reason)
	}
}

func TestRouterDropsDuplicatePacket(t *testing.T) {
	r, dedup, topo := newTestRouter("me", true)
	defer dedup.Close()
	defer topo.Close()

	pkt := NewOutboundPacket("peer", "someone-else", PacketMessage, []byte("hi"), 1000)
	first := r.Route(pkt, "peer", TransportMesh, time.Unix(1000, 0))
	if first.Action != DecisionForward {
		t.Fatalf("expected first delivery to forward, got %v (%s)", first.Action, first.Reason)
	}
	second := r.Route(pkt, "peer", TransportMesh, time.Unix(1001, 0))
	if second.Action != DecisionDrop || second.Reason != "duplicate packet" {
		t.Fatalf("expected duplicate drop, got %v (%s)", second.Action, second.Reason)
	}
}

func TestRouterDropsWhenTTLExhausted(t *testing.T) {
	r, dedup, topo := newTestRouter("me", true)
	defer dedup.Close()
	defer topo.Close()

	pkt := NewOutboundPacket("peer", "someone-else", PacketMessage, []byte("hi"), 1000)
	pkt.TTL = 0
	d := r.Route(pkt, "peer", TransportMesh, time.Unix(1000, 0))
	if d.Action != DecisionDrop || d.Reason != "ttl exhausted" {
		t.Fatalf("expected ttl exhausted drop, got %v (%s)", d.Action, d.Reason)
	}
}

func TestRouterReportsDuplicateBeforeTTLExhausted(t *testing.T) {
	r, dedup, topo := newTestRouter("me", true)
	defer dedup.Close()
	defer topo.Close()

	pkt := NewOutboundPacket("peer", "someone-else", PacketMessage, []byte("hi"), 1000)
	first := r.Route(pkt, "peer", TransportMesh, time.Unix(1000, 0))
	if first.Action != DecisionForward {
		t.Fatalf("expected first delivery to forward, got %v (%s)", first.Action, first.Reason)
	}

	pkt.TTL = 0
	second := r.Route(pkt, "peer", TransportMesh, time.Unix(1001, 0))
	if second.Action != DecisionDrop || second.Reason != "duplicate packet" {
		t.Fatalf("expected duplicate drop to take priority over ttl exhausted, got %v (%s)", second.Action, second.Reason)
	}
}

func TestRouterDeliversAndForwardsBroadcast(t *testing.T) {
	r, dedup, topo := newTestRouter("me", true)
	defer dedup.Close()
	defer topo.Close()

	pkt := NewOutboundPacket("peer", "", PacketMessage, []byte("hi"), 1000)
	d := r.Route(pkt, "peer", TransportMesh, time.Unix(1000, 0))
	if d.Action != DecisionDeliverAndForward {
		t.Fatalf("expected deliver_and_forward for broadcast packet, got %v (%s)", d.Action, d.Reason)
	}
	if d.Next == nil || d.Next.TTL != pkt.TTL-1 {
		t.Fatalf("expected forwarded copy with decremented ttl")
	}
	if !d.Next.HasVisited("me") {
		t.Fatal("expected forwarded broadcast copy to include self in hop path")
	}
	if len(d.NextHops) != 0 {
		t.Fatalf("expected broadcast forward to flood (no NextHops), got %v", d.NextHops)
	}
}

func TestRouterForwardsUnicastToKnownNextHop(t *testing.T) {
	r, dedup, topo := newTestRouter("me", true)
	defer dedup.Close()
	defer topo.Close()

	topo.ObserveEdge("me", "someone-else", 1.0, 1000)

	pkt := NewOutboundPacket("peer", "someone-else", PacketMessage, []byte("hi"), 1000)
	d := r.Route(pkt, "peer", TransportMesh, time.Unix(1000, 0))
	if d.Action != DecisionForward {
		t.Fatalf("expected forward, got %v (%s)", d.Action, d.Reason)
	}
	if len(d.NextHops) != 1 || d.NextHops[0] != "someone-else" {
		t.Fatalf("expected unicast next hop someone-else, got %v", d.NextHops)
	}
}

func TestRouterDropsWhenAlreadyVisited(t *testing.T) {
	r, dedup, topo := newTestRouter("me", true)
	defer dedup.Close()
	defer topo.Close()

	pkt := NewOutboundPacket("peer", "someone-else", PacketMessage, []byte("hi"), 1000)
	pkt.HopPath = append(pkt.HopPath, "me")
	d := r.Route(pkt, "peer", TransportMesh, time.Unix(1000, 0))
	if d.Action != DecisionDrop || d.Reason != "already relayed by this node" {
		t.Fatalf("expected loop drop, got %v (%s)", d.Action, d.Reason)
	}
}

func TestRouterDropsNonLocalWhenRelayingDisabled(t *testing.T) {
	r, dedup, topo := newTestRouter("me", false)
	defer dedup.Close()
	defer topo.Close()

	pkt := NewOutboundPacket("peer", "someone-else", PacketMessage, []byte("hi"), 1000)
	d := r.Route(pkt, "peer", TransportMesh, time.Unix(1000, 0))
	if d.Action != DecisionDrop || d.Reason != "relaying disabled for non-local destination" {
		t.Fatalf("expected relaying-disabled drop, got %v (%s)", d.Action, d.Reason)
	}
}

func TestRouterForwardDecrementsTTLAndAppendsHop(t *testing.T) {
	r, dedup, topo := newTestRouter("me", true)
	defer dedup.Close()
	defer topo.Close()

	pkt := NewOutboundPacket("peer", "someone-else", PacketMessage, []byte("hi"), 1000)
	d := r.Route(pkt, "peer", TransportMesh, time.Unix(1000, 0))
	if d.Action != DecisionForward {
		t.Fatalf("expected forward, got %v (%s)", d.Action, d.Reason)
	}
	if d.Next.TTL != pkt.TTL-1 {
		t.Fatalf("expected ttl decremented, got %d", d.Next.TTL)
	}
	if !d.Next.HasVisited("me") {
		t.Fatal("expected forwarded packet to include self in hop path")
	}
}

func TestRouteOutboundSeedsFreshPacket(t *testing.T) {
	r, dedup, topo := newTestRouter("me", true)
	defer dedup.Close()
	defer topo.Close()

	pkt, d := r.RouteOutbound("someone-else", PacketMessage, []byte("hi"), time.Unix(1000, 0))
	if d.Action != DecisionForward {
		t.Fatalf("expected forward decision, got %v", d.Action)
	}
	if pkt.TTL != MaxTTL {
		t.Fatalf("expected fresh TTL %d, got %d", MaxTTL, pkt.TTL)
	}
}
