package core

// identity_store.go – loads, creates, and erases the two identities a core
// instance carries: a MeshIdentity for the libp2p transport and a
// NostrIdentity for the relay transport. Same "resolve-or-create, persist
// through a narrow collaborator" shape as an IDRegistry, generalized from
// a ledger write to a local SecretStore.

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
)

var identityStoreLogger = log.New(io.Discard, "[identity-store] ", log.LstdFlags)

// SetIdentityStoreLogger overrides the package logger.
func SetIdentityStoreLogger(l *log.Logger) { identityStoreLogger = l }

const (
	secretKeyMeshIdentity  = "mesh_identity"
	secretKeyNostrIdentity = "nostr_identity"
)

// ErrHandleAlreadyTaken is returned by CreateOrFail when a mesh identity
// already exists in the backing store.
var ErrHandleAlreadyTaken = errors.New("identity store: mesh identity already exists")

// IdentityStore resolves, creates, and removes the mesh and Nostr identities
// of a single node, backed by a SecretStore.
type IdentityStore struct {
	secrets SecretStore
}

// NewIdentityStore wraps a SecretStore with identity load/create/delete
// semantics.
func NewIdentityStore(secrets SecretStore) *IdentityStore {
	return &IdentityStore{secrets: secrets}
}

// Load returns the persisted mesh identity and its handle, if one exists.
// ok is false if no mesh identity has been created yet.
func (s *IdentityStore) Load() (id *MeshIdentity, handle string, ok bool, err error) {
	blob, err := s.secrets.Get(secretKeyMeshIdentity)
	if errors.Is(err, ErrSecretNotFound) {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, err
	}
	id, handle, err = decodeMeshIdentityBlob(blob)
	if err != nil {
		return nil, "", false, err
	}
	return id, handle, true, nil
}

// LoadNostr returns the persisted Nostr identity, if one exists. ok is false
// if no Nostr identity has been created or imported yet.
func (s *IdentityStore) LoadNostr() (id *NostrIdentity, ok bool, err error) {
	blob, err := s.secrets.Get(secretKeyNostrIdentity)
	if errors.Is(err, ErrSecretNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	id, err = NostrIdentityFromPrivateKeyHex(hex.EncodeToString(blob))
	if err != nil {
		return nil, false, err
	}
	return id, true, nil
}

// CreateOrFail generates a fresh mesh identity bound to handle and persists
// it. It fails if a mesh identity already exists, since a node carries
// exactly one.
func (s *IdentityStore) CreateOrFail(handle string) (*MeshIdentity, error) {
	if _, _, ok, err := s.Load(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrHandleAlreadyTaken
	}
	id, err := NewMeshIdentity()
	if err != nil {
		return nil, err
	}
	if err := s.secrets.Set(secretKeyMeshIdentity, encodeMeshIdentityBlob(id, handle)); err != nil {
		return nil, err
	}
	identityStoreLogger.Printf("mesh identity created for handle=%q did=%s", handle, id.DID())
	return id, nil
}

// Delete erases both the mesh and Nostr identities from the backing store.
// It reports whether anything was actually present to remove.
func (s *IdentityStore) Delete() bool {
	_, _, hadMesh, _ := s.Load()
	_, hadNostr, _ := s.LoadNostr()
	s.secrets.Delete(secretKeyMeshIdentity)
	s.secrets.Delete(secretKeyNostrIdentity)
	identityStoreLogger.Printf("identity deleted (mesh=%v nostr=%v)", hadMesh, hadNostr)
	return hadMesh || hadNostr
}

// ImportNostr validates and persists a Nostr identity supplied as either a
// bech32 "nsec1..." string or a raw 32-byte hex private key.
func (s *IdentityStore) ImportNostr(nsecOrHex string) (*NostrIdentity, error) {
	id, err := parseNostrSecret(nsecOrHex)
	if err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(id.PrivateKeyHex())
	if err != nil {
		return nil, err
	}
	if err := s.secrets.Set(secretKeyNostrIdentity, raw); err != nil {
		return nil, err
	}
	identityStoreLogger.Printf("nostr identity imported pubkey=%s", id.PubKeyHex)
	return id, nil
}

func parseNostrSecret(nsecOrHex string) (*NostrIdentity, error) {
	if len(nsecOrHex) > 4 && nsecOrHex[:4] == "nsec" {
		hrp, data, err := Bech32Decode(nsecOrHex)
		if err != nil {
			return nil, fmt.Errorf("identity store: invalid nsec: %w", err)
		}
		if hrp != "nsec" {
			return nil, fmt.Errorf("identity store: expected hrp nsec, got %s", hrp)
		}
		return NostrIdentityFromPrivateKeyHex(hex.EncodeToString(data))
	}
	return NostrIdentityFromPrivateKeyHex(nsecOrHex)
}

// encodeMeshIdentityBlob serializes a mesh identity as
// x25519_priv(32) || ed25519_priv(32) || utf8(handle).
func encodeMeshIdentityBlob(id *MeshIdentity, handle string) []byte {
	encPriv := id.EncryptionPrivateKey()
	seed := id.SigningSeed()
	out := make([]byte, 0, 32+32+len(handle))
	out = append(out, encPriv[:]...)
	out = append(out, seed...)
	out = append(out, []byte(handle)...)
	return out
}

func decodeMeshIdentityBlob(blob []byte) (*MeshIdentity, string, error) {
	if len(blob) < 32+ed25519.SeedSize {
		return nil, "", fmt.Errorf("identity store: mesh identity blob too short (%d bytes)", len(blob))
	}
	var encPriv [32]byte
	copy(encPriv[:], blob[:32])
	seed := blob[32 : 32+ed25519.SeedSize]
	handle := string(blob[32+ed25519.SeedSize:])
	id, err := MeshIdentityFromSeed(seed, encPriv)
	if err != nil {
		return nil, "", err
	}
	return id, handle, nil
}

