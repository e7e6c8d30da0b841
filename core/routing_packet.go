package core

// routing_packet.go – RoutablePacket: the unit the routing engine forwards
// across either transport. Distinct from MessageEnvelope, which is the
// encrypted payload carried inside a packet of type message.

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// PacketType enumerates the kinds of routable packets the engine handles.
type PacketType string

const (
	PacketMessage      PacketType = "message"
	PacketMessageAck   PacketType = "message_ack"
	PacketReadReceipt  PacketType = "read_receipt"
	PacketPeerAnnounce PacketType = "peer_announce"
	PacketPeerQuery    PacketType = "peer_query"
	PacketRouteRequest PacketType = "route_request"
	PacketRouteReply   PacketType = "route_reply"
)

// MaxTTL is the inclusive upper bound on RoutablePacket.TTL: fresh packets
// start at it, and packets above it fail validation.
const MaxTTL = 7

var (
	ErrPacketTTLExceeded  = errors.New("routing: packet ttl exhausted")
	ErrPacketTTLTooHigh   = errors.New("routing: ttl exceeds maximum of 7")
	ErrPacketEmptyPayload = errors.New("routing: payload must not be empty for this packet type")
)

// RoutablePacket is the transport-agnostic envelope the routing engine
// forwards, acks, and deduplicates.
type RoutablePacket struct {
	PacketID    string     `json:"packet_id"`
	SenderID    NodeID     `json:"sender_id"`
	RecipientID NodeID     `json:"recipient_id,omitempty"`
	Payload     []byte     `json:"payload"`
	Type        PacketType `json:"type"`
	TTL         int        `json:"ttl"`
	Timestamp   int64      `json:"timestamp"`
	OriginTS    int64      `json:"origin_ts"`
	HopPath     []NodeID   `json:"hop_path"`
	Signature   []byte     `json:"signature,omitempty"`
}

// NewOutboundPacket builds a fresh packet originating at self: TTL set to
// the maximum hop budget and hop_path seeded with only the sender.
func NewOutboundPacket(self NodeID, recipient NodeID, typ PacketType, payload []byte, now int64) *RoutablePacket {
	return &RoutablePacket{
		PacketID:    uuid.NewString(),
		SenderID:    self,
		RecipientID: recipient,
		Payload:     payload,
		Type:        typ,
		TTL:         MaxTTL,
		Timestamp:   now,
		OriginTS:    now,
		HopPath:     []NodeID{self},
	}
}

// Validate checks the structural invariants a packet must hold before it
// enters the routing engine, whether freshly constructed or received from
// a transport.
func (p *RoutablePacket) Validate() error {
	if p.TTL > MaxTTL {
		return ErrPacketTTLTooHigh
	}
	if p.TTL < 0 {
		return ErrPacketTTLExceeded
	}
	if p.Type != PacketPeerQuery && p.Type != PacketRouteRequest && len(p.Payload) == 0 {
		return ErrPacketEmptyPayload
	}
	return nil
}

// DedupKey builds the key used to suppress reprocessing of this packet.
func (p *RoutablePacket) DedupKey() DedupKey {
	return DedupKey{SenderID: p.SenderID, PacketID: p.PacketID, OriginSec: p.OriginTS}
}

// WithHop returns a copy of the packet ready to forward onward: TTL
// decremented and self appended to the hop path. The caller must have
// already checked TTL > 0.
func (p *RoutablePacket) WithHop(self NodeID) *RoutablePacket {
	cp := *p
	cp.TTL = p.TTL - 1
	cp.HopPath = append(append([]NodeID{}, p.HopPath...), self)
	return &cp
}

// HasVisited reports whether node already appears in the packet's hop path.
func (p *RoutablePacket) HasVisited(node NodeID) bool {
	for _, h := range p.HopPath {
		if h == node {
			return true
		}
	}
	return false
}

// Marshal encodes the packet as canonical JSON for transport framing.
func (p *RoutablePacket) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalPacket decodes a packet received from a transport.
func UnmarshalPacket(b []byte) (*RoutablePacket, error) {
	var p RoutablePacket
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
