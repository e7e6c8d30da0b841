package core

import "testing"

func TestNewOutboundPacketSeedsHopPathAndTTL(t *testing.T) {
	p := NewOutboundPacket("node-a", "node-b", PacketMessage, []byte("hi"), 1000)
	if p.TTL != MaxTTL {
		t.Fatalf("expected ttl %d, got %d", MaxTTL, p.TTL)
	}
	if len(p.HopPath) != 1 || p.HopPath[0] != "node-a" {
		t.Fatalf("unexpected hop path: %v", p.HopPath)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected fresh packet to validate: %v", err)
	}
}

func TestRoutablePacketValidateRejectsTTLTooHigh(t *testing.T) {
	p := NewOutboundPacket("node-a", "node-b", PacketMessage, []byte("hi"), 1000)
	p.TTL = MaxTTL + 1
	if err := p.Validate(); err != ErrPacketTTLTooHigh {
		t.Fatalf("expected ErrPacketTTLTooHigh, got %v", err)
	}
}

func TestRoutablePacketValidateRejectsEmptyPayloadForMessage(t *testing.T) {
	p := NewOutboundPacket("node-a", "node-b", PacketMessage, nil, 1000)
	if err := p.Validate(); err != ErrPacketEmptyPayload {
		t.Fatalf("expected ErrPacketEmptyPayload, got %v", err)
	}
}

func TestRoutablePacketWithHopDecrementsAndAppends(t *testing.T) {
	p := NewOutboundPacket("node-a", "node-b", PacketMessage, []byte("hi"), 1000)
	next := p.WithHop("node-relay")
	if next.TTL != MaxTTL-1 {
		t.Fatalf("expected ttl %d, got %d", MaxTTL-1, next.TTL)
	}
	if len(next.HopPath) != 2 || next.HopPath[1] != "node-relay" {
		t.Fatalf("unexpected hop path: %v", next.HopPath)
	}
	if !next.HasVisited("node-relay") || !next.HasVisited("node-a") {
		t.Fatal("expected both hops to be visited")
	}
	if p.TTL != MaxTTL {
		t.Fatal("original packet must not be mutated")
	}
}

func TestRoutablePacketMarshalRoundTrip(t *testing.T) {
	p := NewOutboundPacket("node-a", "node-b", PacketMessage, []byte("hi"), 1000)
	b, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := UnmarshalPacket(b)
	if err != nil {
		t.Fatalf("UnmarshalPacket: %v", err)
	}
	if got.PacketID != p.PacketID || got.SenderID != p.SenderID {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, p)
	}
}
