package core

import (
	"bytes"
	"testing"
)

func TestX25519ECDHAgreement(t *testing.T) {
	aPriv, aPub, err := GenerateX25519Keypair()
	if err != nil {
		t.Fatalf("keypair a: %v", err)
	}
	bPriv, bPub, err := GenerateX25519Keypair()
	if err != nil {
		t.Fatalf("keypair b: %v", err)
	}
	sharedA, err := ECDH(aPriv, bPub)
	if err != nil {
		t.Fatalf("ecdh a: %v", err)
	}
	sharedB, err := ECDH(bPriv, aPub)
	if err != nil {
		t.Fatalf("ecdh b: %v", err)
	}
	if !bytes.Equal(sharedA, sharedB) {
		t.Fatal("shared secrets diverged")
	}

	keyA, err := DeriveSessionKey(sharedA, nil, []byte("pulse-envelope"))
	if err != nil {
		t.Fatalf("derive a: %v", err)
	}
	keyB, err := DeriveSessionKey(sharedB, nil, []byte("pulse-envelope"))
	if err != nil {
		t.Fatalf("derive b: %v", err)
	}
	if !bytes.Equal(keyA, keyB) {
		t.Fatal("derived session keys diverged")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	plaintext := []byte("hello mesh")
	aad := []byte("envelope-v1")

	ct, err := Encrypt(key, plaintext, aad)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	pt, err := Decrypt(key, ct, aad)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(pt, plaintext) {
		t.Fatalf("roundtrip mismatch: got %q", pt)
	}

	if _, err := Decrypt(key, ct, []byte("wrong-aad")); err == nil {
		t.Fatal("expected AAD mismatch to fail")
	}
}

func TestDecryptShortCiphertext(t *testing.T) {
	key := make([]byte, 32)
	if _, err := Decrypt(key, []byte("short"), nil); err != ErrShortCiphertext {
		t.Fatalf("expected ErrShortCiphertext, got %v", err)
	}
}

func TestSchnorrSignVerify(t *testing.T) {
	priv, err := GenerateSchnorrKeypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	hash := Sha256([]byte("nostr event"))
	sig, err := SignSchnorr(priv, hash[:])
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ok, err := VerifySchnorr(priv.PubKey(), hash[:], sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected valid signature")
	}
}
