package core

// Mesh identity: a long-lived keypair pair used to sign and encrypt
// messages exchanged over the Mesh transport.
//
//   - Ed25519 signing key   – authenticates message envelopes.
//   - X25519 encryption key – ECDH key agreement for envelope AEAD.
//   - did:key               – a portable, self-certifying identifier derived
//     from the Ed25519 public key (multicodec 0xed01), so a mesh identity
//     can be shared out of band without a directory service.
//
// Import hygiene: depends only on crypto.go and the stdlib/base58 encoder,
// kept to the same low dependency tier as the rest of the identity layer.

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/mr-tron/base58"
)

var meshIdentityLogger = log.New(io.Discard, "[mesh-identity] ", log.LstdFlags)

// SetMeshIdentityLogger overrides the package logger.
func SetMeshIdentityLogger(l *log.Logger) { meshIdentityLogger = l }

// did:key multicodec prefix for an Ed25519 public key (0xed, varint-encoded).
var edMulticodecPrefix = []byte{0xed, 0x01}

// MeshIdentity is a node's long-lived mesh identity: a signing keypair plus
// an encryption keypair. The identity store persists the private keys as
// raw bytes through its SecretStore; the core applies no encryption at
// rest.
type MeshIdentity struct {
	SignPub  ed25519.PublicKey
	signPriv ed25519.PrivateKey
	EncPub   [32]byte
	encPriv  [32]byte
}

// NewMeshIdentity generates a fresh mesh identity.
func NewMeshIdentity() (*MeshIdentity, error) {
	signPub, signPriv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("mesh identity: generate signing key: %w", err)
	}
	encPriv, encPub, err := GenerateX25519Keypair()
	if err != nil {
		return nil, fmt.Errorf("mesh identity: generate encryption key: %w", err)
	}
	id := &MeshIdentity{
		SignPub:  signPub,
		signPriv: signPriv,
		EncPub:   encPub,
		encPriv:  encPriv,
	}
	meshIdentityLogger.Printf("mesh identity generated, did=%s", id.DID())
	return id, nil
}

// MeshIdentityFromSeed rebuilds an identity from a stored 32-byte Ed25519
// seed and a 32-byte X25519 private scalar, as loaded from a SecretStore.
func MeshIdentityFromSeed(signSeed []byte, encPriv [32]byte) (*MeshIdentity, error) {
	if len(signSeed) != ed25519.SeedSize {
		return nil, errors.New("mesh identity: signing seed must be 32 bytes")
	}
	priv := ed25519.NewKeyFromSeed(signSeed)
	pub := priv.Public().(ed25519.PublicKey)
	encPub, err := curve25519Base(encPriv)
	if err != nil {
		return nil, err
	}
	return &MeshIdentity{
		SignPub:  pub,
		signPriv: priv,
		EncPub:   encPub,
		encPriv:  encPriv,
	}, nil
}

func curve25519Base(priv [32]byte) ([32]byte, error) {
	pubSlice, err := ECDHBasepoint(priv)
	if err != nil {
		return [32]byte{}, err
	}
	var pub [32]byte
	copy(pub[:], pubSlice)
	return pub, nil
}

// Sign signs msg with the identity's Ed25519 signing key.
func (id *MeshIdentity) Sign(msg []byte) []byte {
	return SignEd25519(id.signPriv, msg)
}

// Verify checks a signature made by this identity's signing key.
func (id *MeshIdentity) Verify(msg, sig []byte) bool {
	return VerifyEd25519(id.SignPub, msg, sig)
}

// SigningSeed returns the raw Ed25519 seed for persistence by a SecretStore.
func (id *MeshIdentity) SigningSeed() []byte {
	return id.signPriv.Seed()
}

// EncryptionPrivateKey returns the raw X25519 scalar for persistence by a
// SecretStore.
func (id *MeshIdentity) EncryptionPrivateKey() [32]byte {
	return id.encPriv
}

// ECDH derives a shared secret between this identity and a peer's X25519
// public key.
func (id *MeshIdentity) ECDH(peerPub [32]byte) ([]byte, error) {
	return ECDH(id.encPriv, peerPub)
}

// DID returns a did:key identifier for this identity's signing public key.
func (id *MeshIdentity) DID() string {
	payload := append(append([]byte{}, edMulticodecPrefix...), id.SignPub...)
	return "did:key:z" + base58.Encode(payload)
}

// NodeID derives the stable NodeID the topology tracker uses for this
// identity: the DID itself, which is transport-independent.
func (id *MeshIdentity) NodeID() NodeID {
	return NodeID(id.DID())
}
