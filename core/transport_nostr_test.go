package core

import (
	"context"
	"testing"
	"time"
)

func TestNostrTransportConnectAndBroadcast(t *testing.T) {
	srv, wsURL := newEchoRelayServer(t)
	defer srv.Close()

	id, err := NewNostrIdentity()
	if err != nil {
		t.Fatalf("NewNostrIdentity: %v", err)
	}
	tr := NewNostrTransport(id, []string{wsURL})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer tr.Disconnect()

	if !tr.IsConnected() {
		t.Fatal("expected transport to report connected")
	}

	pkt := NewOutboundPacket(NodeID(id.PubKeyHex), "someone", PacketMessage, []byte("hi"), time.Now().Unix())
	if err := tr.Broadcast(ctx, pkt); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
}

func TestChooseTransportHybridPrefersMesh(t *testing.T) {
	mesh := &fakeTransport{kind: TransportMesh, connected: true}
	nostr := &fakeTransport{kind: TransportNostr, connected: true}
	got := ChooseTransport(SelectionHybrid, mesh, nostr)
	if got != mesh {
		t.Fatal("expected hybrid policy to prefer mesh when both connected")
	}
}

func TestChooseTransportHybridFallsBackToNostr(t *testing.T) {
	mesh := &fakeTransport{kind: TransportMesh, connected: false}
	nostr := &fakeTransport{kind: TransportNostr, connected: true}
	got := ChooseTransport(SelectionHybrid, mesh, nostr)
	if got != nostr {
		t.Fatal("expected hybrid policy to fall back to nostr when mesh disconnected")
	}
}

type fakeTransport struct {
	kind      TransportKind
	connected bool
}

func (f *fakeTransport) Kind() TransportKind                      { return f.kind }
func (f *fakeTransport) Connect(ctx context.Context) error        { f.connected = true; return nil }
func (f *fakeTransport) Disconnect() error                        { f.connected = false; return nil }
func (f *fakeTransport) IsConnected() bool                        { return f.connected }
func (f *fakeTransport) Send(ctx context.Context, to NodeID, pkt *RoutablePacket) error { return nil }
func (f *fakeTransport) Broadcast(ctx context.Context, pkt *RoutablePacket) error       { return nil }
func (f *fakeTransport) OnPacket(h PacketHandler)                 {}
func (f *fakeTransport) OnPeerDiscovered(h PeerEventHandler)       {}
func (f *fakeTransport) OnPeerLost(h PeerEventHandler)             {}
