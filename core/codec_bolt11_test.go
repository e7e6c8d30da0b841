package core

import "testing"

func TestParseBolt11AmountMultipliers(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"2500u", 250_000_000},
		{"1m", 100_000_000},
		{"100n", 10_000},
		{"10p", 1},
	}
	for _, c := range cases {
		got, err := parseBolt11Amount(c.in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("%s: got %d want %d", c.in, got, c.want)
		}
	}
}

func TestParseBolt11AmountRejectsInexactPico(t *testing.T) {
	if _, err := parseBolt11Amount("5p"); err != ErrBolt11InvalidAmount {
		t.Fatalf("expected ErrBolt11InvalidAmount, got %v", err)
	}
}

func TestValidateBolt11RejectsUnsafeDescription(t *testing.T) {
	inv := &Bolt11Invoice{
		Tags: []Bolt11Tag{
			{Type: TagPaymentHash, Raw: make([]byte, 32)},
			{Type: TagDescription, Raw: []byte("<script>alert(1)</script>")},
		},
	}
	if err := ValidateBolt11(inv); err == nil {
		t.Fatal("expected unsafe description to be rejected")
	}
}

func TestValidateBolt11AcceptsCleanInvoice(t *testing.T) {
	inv := &Bolt11Invoice{
		Tags: []Bolt11Tag{
			{Type: TagPaymentHash, Raw: make([]byte, 32)},
			{Type: TagDescription, Raw: []byte("1 cup coffee")},
		},
	}
	if err := ValidateBolt11(inv); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
}

func TestValidateBolt11RequiresPaymentHash(t *testing.T) {
	inv := &Bolt11Invoice{
		Tags: []Bolt11Tag{
			{Type: TagDescription, Raw: []byte("no payment hash")},
		},
	}
	if err := ValidateBolt11(inv); err == nil {
		t.Fatal("expected missing payment_hash to be rejected")
	}
}
