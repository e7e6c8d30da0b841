package core

// Nostr identity: a secp256k1 keypair used to sign Nostr events, encoded
// for display/exchange as bech32 npub/nsec strings (NIP-19).

import (
	"encoding/hex"
	"fmt"
	"io"
	"log"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

var nostrIdentityLogger = log.New(io.Discard, "[nostr-identity] ", log.LstdFlags)

// SetNostrIdentityLogger overrides the package logger.
func SetNostrIdentityLogger(l *log.Logger) { nostrIdentityLogger = l }

// NostrIdentity holds a secp256k1 keypair plus its cached x-only hex pubkey,
// the form Nostr events reference in their "pubkey" field.
type NostrIdentity struct {
	priv      *btcec.PrivateKey
	PubKeyHex string
}

// NewNostrIdentity generates a fresh Nostr identity.
func NewNostrIdentity() (*NostrIdentity, error) {
	priv, err := GenerateSchnorrKeypair()
	if err != nil {
		return nil, fmt.Errorf("nostr identity: generate key: %w", err)
	}
	id := identityFromPriv(priv)
	nostrIdentityLogger.Printf("nostr identity generated, pubkey=%s", id.PubKeyHex)
	return id, nil
}

// NostrIdentityFromPrivateKeyHex rebuilds an identity from a 32-byte hex
// private key, as loaded from a SecretStore.
func NostrIdentityFromPrivateKeyHex(hexKey string) (*NostrIdentity, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("nostr identity: invalid private key hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("nostr identity: private key must be 32 bytes, got %d", len(raw))
	}
	priv, _ := btcec.PrivKeyFromBytes(raw)
	return identityFromPriv(priv), nil
}

func identityFromPriv(priv *btcec.PrivateKey) *NostrIdentity {
	xOnly := schnorr.SerializePubKey(priv.PubKey())
	return &NostrIdentity{priv: priv, PubKeyHex: hex.EncodeToString(xOnly)}
}

// PrivateKeyHex returns the raw 32-byte private key as hex, for persistence
// by a SecretStore.
func (id *NostrIdentity) PrivateKeyHex() string {
	return hex.EncodeToString(id.priv.Serialize())
}

// Sign produces a BIP-340 Schnorr signature over a 32-byte event ID hash.
func (id *NostrIdentity) Sign(idHash []byte) ([]byte, error) {
	return SignSchnorr(id.priv, idHash)
}

// Npub encodes the x-only public key as a bech32 "npub1..." string (NIP-19).
func (id *NostrIdentity) Npub() (string, error) {
	raw, err := hex.DecodeString(id.PubKeyHex)
	if err != nil {
		return "", err
	}
	return Bech32Encode("npub", raw)
}

// Nsec encodes the raw private key as a bech32 "nsec1..." string (NIP-19).
// Callers should treat the result as sensitive and avoid logging it.
func (id *NostrIdentity) Nsec() (string, error) {
	return Bech32Encode("nsec", id.priv.Serialize())
}

// ParseNpub decodes a bech32 "npub1..." string back into a 32-byte x-only
// public key hex string.
func ParseNpub(npub string) (string, error) {
	hrp, data, err := Bech32Decode(npub)
	if err != nil {
		return "", err
	}
	if hrp != "npub" {
		return "", fmt.Errorf("nostr identity: expected hrp npub, got %s", hrp)
	}
	return hex.EncodeToString(data), nil
}
