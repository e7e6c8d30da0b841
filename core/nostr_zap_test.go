package core

import "testing"

func TestValidateLightningAddress(t *testing.T) {
	user, domain, err := ValidateLightningAddress("alice@example.com")
	if err != nil {
		t.Fatalf("ValidateLightningAddress: %v", err)
	}
	if user != "alice" || domain != "example.com" {
		t.Fatalf("unexpected split: user=%q domain=%q", user, domain)
	}
}

func TestValidateLightningAddressRejectsMalformed(t *testing.T) {
	cases := []string{"", "alice", "alice@", "@example.com", "alice@b@example.com", "al ice@example.com"}
	for _, c := range cases {
		if _, _, err := ValidateLightningAddress(c); err != ErrZapInvalidLightningAddress {
			t.Fatalf("case %q: expected ErrZapInvalidLightningAddress, got %v", c, err)
		}
	}
}

func TestResolveSafeHostBlocksLoopback(t *testing.T) {
	if err := resolveSafeHost("http://127.0.0.1/.well-known/lnurlp/alice"); err != ErrZapUnsafeEndpoint {
		t.Fatalf("expected ErrZapUnsafeEndpoint, got %v", err)
	}
}

func TestResolveSafeHostBlocksLinkLocal(t *testing.T) {
	if err := resolveSafeHost("http://169.254.1.1/.well-known/lnurlp/alice"); err != ErrZapUnsafeEndpoint {
		t.Fatalf("expected ErrZapUnsafeEndpoint, got %v", err)
	}
}

func TestBuildZapRequestCarriesAmountAndRecipientTags(t *testing.T) {
	id, _ := NewNostrIdentity()
	ev, err := BuildZapRequest(id, "deadbeef", "", []string{"wss://relay.example"}, 21000, "gm", 1700000000)
	if err != nil {
		t.Fatalf("BuildZapRequest: %v", err)
	}
	if v, ok := ev.TagValue("p"); !ok || v != "deadbeef" {
		t.Fatalf("unexpected p tag: %q ok=%v", v, ok)
	}
	if v, ok := ev.TagValue("amount"); !ok || v != "21000" {
		t.Fatalf("unexpected amount tag: %q ok=%v", v, ok)
	}
	if ev.Kind != KindZapRequest {
		t.Fatalf("expected kind %d, got %d", KindZapRequest, ev.Kind)
	}
}

func TestRequestZapInvoiceRejectsOutOfBoundsAmount(t *testing.T) {
	lp := &LNURLPayResponse{Callback: "https://example.com/cb", MinSendable: 1000, MaxSendable: 5000, Metadata: "[]"}
	id, _ := NewNostrIdentity()
	zr, _ := BuildZapRequest(id, "deadbeef", "", nil, 100000, "", 1700000000)
	if _, err := RequestZapInvoice(lp, zr, 100000); err != ErrZapAmountOutsideBounds {
		t.Fatalf("expected ErrZapAmountOutsideBounds, got %v", err)
	}
}

func TestWalletURIPrefersLightningScheme(t *testing.T) {
	inv := &Bolt11Invoice{Raw: "lnbc1invoice"}
	if got := WalletURI(inv); got != "lightning:lnbc1invoice" {
		t.Fatalf("unexpected wallet uri: %q", got)
	}
}
