package core

import "testing"

func TestBuildEventVerifyRoundTrip(t *testing.T) {
	id, err := NewNostrIdentity()
	if err != nil {
		t.Fatalf("NewNostrIdentity: %v", err)
	}
	ev, err := BuildEvent(id, KindTextNote, []Tag{{"p", "abc"}}, "hello", 1700000000)
	if err != nil {
		t.Fatalf("BuildEvent: %v", err)
	}
	if err := ev.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if v, ok := ev.TagValue("p"); !ok || v != "abc" {
		t.Fatalf("unexpected tag value: %q ok=%v", v, ok)
	}
}

func TestEventVerifyRejectsTamperedContent(t *testing.T) {
	id, _ := NewNostrIdentity()
	ev, err := BuildEvent(id, KindTextNote, nil, "hello", 1700000000)
	if err != nil {
		t.Fatalf("BuildEvent: %v", err)
	}
	ev.Content = "goodbye"
	if err := ev.Verify(); err != ErrEventBadID {
		t.Fatalf("expected ErrEventBadID, got %v", err)
	}
}

func TestEventVerifyRejectsForgedSignature(t *testing.T) {
	alice, _ := NewNostrIdentity()
	mallory, _ := NewNostrIdentity()

	ev, err := BuildEvent(alice, KindTextNote, nil, "hello", 1700000000)
	if err != nil {
		t.Fatalf("BuildEvent: %v", err)
	}
	forged, err := BuildEvent(mallory, KindTextNote, nil, "hello", 1700000000)
	if err != nil {
		t.Fatalf("BuildEvent mallory: %v", err)
	}
	ev.Sig = forged.Sig
	if err := ev.Verify(); err != ErrEventBadSignature {
		t.Fatalf("expected ErrEventBadSignature, got %v", err)
	}
}
