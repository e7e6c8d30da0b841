package core

// routing_engine.go – the routing decision function: given an inbound
// packet (or a freshly constructed outbound one), decide whether to
// deliver it locally, forward it onward, or drop it, and to which
// transport. The function itself never returns an error: every outcome,
// including failure, is expressed as a Decision so a caller never has to
// distinguish "routing failed" from "routing decided to drop."

import "time"

// DecisionAction names what the routing engine decided to do with a packet.
type DecisionAction string

const (
	DecisionDeliver           DecisionAction = "deliver"            // payload is for this node
	DecisionDeliverAndForward DecisionAction = "deliver_and_forward" // broadcast: surface locally and keep relaying
	DecisionForward           DecisionAction = "forward"            // relay onward to next hop(s)
	DecisionDrop              DecisionAction = "drop"               // discard, see Reason
)

// Decision is the result of routing a single packet.
type Decision struct {
	Action    DecisionAction
	Reason    string
	Next      *RoutablePacket // set when Action == DecisionForward or DecisionDeliverAndForward
	Transport TransportKind
	// NextHops names the specific peers the forwarded copy must be unicast
	// to. Empty means no known next hop: the caller floods/broadcasts
	// instead.
	NextHops []NodeID
}

func dropped(reason string) Decision {
	return Decision{Action: DecisionDrop, Reason: reason}
}

// Router implements the packet-level routing decision function over a
// node's dedup state, topology view, and transport selection policy.
type Router struct {
	self     NodeID
	dedup    *Dedup
	topology *Topology
	policy   SelectionPolicy
	relaying bool
}

// NewRouter builds a router for self, bound to a dedup service, topology
// tracker, transport selection policy, and whether this node relays
// traffic that isn't addressed to it.
func NewRouter(self NodeID, dedup *Dedup, topology *Topology, policy SelectionPolicy, enableRelaying bool) *Router {
	return &Router{self: self, dedup: dedup, topology: topology, policy: policy, relaying: enableRelaying}
}

// Route applies the decision function to an inbound packet arriving from
// the given transport.
//
// Steps:
//  1. structural validation
//  2. duplicate suppression
//  3. TTL check
//  4. loop check (have we already relayed this exact packet?)
//  5. destination check (addressed to us / broadcast)
//  6. relaying policy check (do we forward others' traffic at all?)
//  7. topology lookup for the next hop
//  8. hop decrement + hop-path append
//  9. transport selection for the forwarded copy
//
// Steps 2 and 3 are checked in this order deliberately: a packet this node
// has already processed is always reported as a duplicate, even if its TTL
// has also been exhausted in the meantime.
func (r *Router) Route(pkt *RoutablePacket, from NodeID, arrivedVia TransportKind, now time.Time) Decision {
	// 1. structural validation
	if err := pkt.Validate(); err != nil {
		return dropped("invalid packet: " + err.Error())
	}

	// 2. duplicate suppression
	if r.dedup.IsDuplicate(pkt.DedupKey()) {
		return dropped("duplicate packet")
	}

	// 3. TTL check
	if pkt.TTL <= 0 {
		return dropped("ttl exhausted")
	}

	// 4. loop check
	if pkt.HasVisited(r.self) {
		return dropped("already relayed by this node")
	}

	// 5. destination check
	if pkt.RecipientID == "" {
		// Broadcast: deliver locally and keep the flood going; with no
		// NextHops the caller broadcasts the hop-appended copy.
		next := pkt.WithHop(r.self)
		chosen := r.chooseForwardTransport(arrivedVia)
		return Decision{Action: DecisionDeliverAndForward, Next: next, Transport: chosen}
	}
	if pkt.RecipientID == r.self {
		return Decision{Action: DecisionDeliver, Transport: arrivedVia}
	}

	// 6. relaying policy check
	if !r.relaying {
		return dropped("relaying disabled for non-local destination")
	}

	// 7. topology lookup
	r.topology.ObserveEdge(from, r.self, 1.0, now.Unix())
	nextHop, knownRoute := r.topology.NextHop(pkt.RecipientID)

	// 8. hop decrement + hop-path append
	next := pkt.WithHop(r.self)

	// 9. transport selection for the forwarded copy
	chosen := r.chooseForwardTransport(arrivedVia)
	d := Decision{Action: DecisionForward, Next: next, Transport: chosen}
	if knownRoute {
		// Direct peer or a known routing-table entry: unicast to the next
		// hop instead of flooding the whole mesh/topic.
		d.NextHops = []NodeID{nextHop}
	}
	return d
}

func (r *Router) chooseForwardTransport(arrivedVia TransportKind) TransportKind {
	switch r.policy {
	case SelectionMeshOnly:
		return TransportMesh
	case SelectionNostrOnly:
		return TransportNostr
	default:
		return arrivedVia
	}
}

// RouteOutbound builds and routes a freshly originated packet, skipping the
// duplicate/loop checks that only matter for packets that already
// travelled through the mesh.
func (r *Router) RouteOutbound(recipient NodeID, typ PacketType, payload []byte, now time.Time) (*RoutablePacket, Decision) {
	pkt := NewOutboundPacket(r.self, recipient, typ, payload, now.Unix())
	r.dedup.IsDuplicate(pkt.DedupKey()) // seed dedup so echoes of our own packet are dropped
	chosen := r.chooseForwardTransport(TransportMesh)
	return pkt, Decision{Action: DecisionForward, Next: pkt, Transport: chosen}
}
