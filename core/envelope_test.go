package core

import "testing"

func TestMessageEnvelopeRoundTrip(t *testing.T) {
	alice, err := NewMeshIdentity()
	if err != nil {
		t.Fatalf("alice identity: %v", err)
	}
	bob, err := NewMeshIdentity()
	if err != nil {
		t.Fatalf("bob identity: %v", err)
	}

	env, err := NewMessageEnvelope(alice, alice.NodeID(), bob.NodeID(), bob.EncPub, MessageTypeText, "en", []byte("hello bob"), 1000)
	if err != nil {
		t.Fatalf("NewMessageEnvelope: %v", err)
	}
	if !env.Verify() {
		t.Fatal("expected envelope signature to verify")
	}

	plain, err := env.Open(bob, bob.NodeID(), alice.EncPub)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(plain) != "hello bob" {
		t.Fatalf("unexpected plaintext: %q", plain)
	}
}

func TestMessageEnvelopeMarshalRoundTrip(t *testing.T) {
	alice, _ := NewMeshIdentity()
	bob, _ := NewMeshIdentity()

	env, err := NewMessageEnvelope(alice, alice.NodeID(), bob.NodeID(), bob.EncPub, MessageTypeText, "", []byte("hi"), 1000)
	if err != nil {
		t.Fatalf("NewMessageEnvelope: %v", err)
	}
	b, err := env.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := UnmarshalMessageEnvelope(b)
	if err != nil {
		t.Fatalf("UnmarshalMessageEnvelope: %v", err)
	}
	plain, err := decoded.Open(bob, bob.NodeID(), decoded.SenderEncPub)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(plain) != "hi" {
		t.Fatalf("unexpected plaintext: %q", plain)
	}
}

func TestMessageEnvelopeOpenRejectsWrongRecipient(t *testing.T) {
	alice, _ := NewMeshIdentity()
	bob, _ := NewMeshIdentity()
	mallory, _ := NewMeshIdentity()

	env, err := NewMessageEnvelope(alice, alice.NodeID(), bob.NodeID(), bob.EncPub, MessageTypeText, "", []byte("hi"), 1000)
	if err != nil {
		t.Fatalf("NewMessageEnvelope: %v", err)
	}
	if _, err := env.Open(mallory, mallory.NodeID(), alice.EncPub); err != ErrEnvelopeWrongRecipient {
		t.Fatalf("expected ErrEnvelopeWrongRecipient, got %v", err)
	}
}

func TestMessageEnvelopeVerifyDetectsTamper(t *testing.T) {
	alice, _ := NewMeshIdentity()
	bob, _ := NewMeshIdentity()

	env, err := NewMessageEnvelope(alice, alice.NodeID(), bob.NodeID(), bob.EncPub, MessageTypeText, "", []byte("hi"), 1000)
	if err != nil {
		t.Fatalf("NewMessageEnvelope: %v", err)
	}
	env.Ciphertext = env.Ciphertext + "00"
	if env.Verify() {
		t.Fatal("expected tampered envelope to fail verification")
	}
}
