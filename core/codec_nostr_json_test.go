package core

import "testing"

func TestCanonicalEventSerializationFormat(t *testing.T) {
	tags := [][]string{{"e", "abc123"}, {"p", "def456"}}
	raw, err := CanonicalEventSerialization("feedface", 1700000000, 1, tags, "hello")
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	want := `[0,"feedface",1700000000,1,[["e","abc123"],["p","def456"]],"hello"]`
	if string(raw) != want {
		t.Fatalf("unexpected canonical form:\ngot  %s\nwant %s", raw, want)
	}
}

func TestCanonicalEventSerializationIsDeterministic(t *testing.T) {
	tags := [][]string{{"g", "u4pruydqqvj"}}
	a, err := CanonicalEventSerialization("abc", 1, 1, tags, "x")
	if err != nil {
		t.Fatalf("serialize a: %v", err)
	}
	b, err := CanonicalEventSerialization("abc", 1, 1, tags, "x")
	if err != nil {
		t.Fatalf("serialize b: %v", err)
	}
	if string(a) != string(b) {
		t.Fatal("expected identical output for identical input")
	}
}

func TestEventIDHexLength(t *testing.T) {
	id, err := EventIDHex("feedface", 1700000000, 1, [][]string{}, "hello")
	if err != nil {
		t.Fatalf("event id: %v", err)
	}
	if len(id) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(id))
	}
}
