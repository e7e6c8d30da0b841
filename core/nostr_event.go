package core

// nostr_event.go – Nostr event construction and verification (NIP-01),
// plus the fixed set of kind integers the rest of the engine relies on.
// Serialization is delegated to codec_nostr_json.go; this file owns the
// event struct and the sign/verify algorithm around it.

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// Event kinds this engine constructs or consumes. These integers are part
// of the wire protocol and must never be renumbered.
const (
	KindSetMetadata     = 0
	KindTextNote        = 1
	KindContactList     = 3
	KindEncryptedDM     = 4
	KindDeletion        = 5
	KindRepost          = 6
	KindReaction        = 7
	KindGiftWrap        = 1059
	KindZapRequest      = 9734
	KindZapReceipt      = 9735
	KindAppData         = 30078
	KindGeohashChannel  = 30079
)

// Tag is a single Nostr event tag: ["name", value, ...extra].
type Tag []string

// Event is a signed Nostr event as exchanged with relays.
type Event struct {
	ID        string `json:"id"`
	PubKey    string `json:"pubkey"`
	CreatedAt int64  `json:"created_at"`
	Kind      int    `json:"kind"`
	Tags      []Tag  `json:"tags"`
	Content   string `json:"content"`
	Sig       string `json:"sig"`
}

var (
	ErrEventBadID        = errors.New("nostr event: id does not match canonical serialization")
	ErrEventBadSignature = errors.New("nostr event: signature does not verify")
)

// BuildEvent constructs and signs a new event with identity's key, deriving
// the canonical id and BIP-340 signature.
func BuildEvent(identity *NostrIdentity, kind int, tags []Tag, content string, createdAt int64) (*Event, error) {
	rawTags := tagsToStrings(tags)
	id, err := EventIDHex(identity.PubKeyHex, createdAt, kind, rawTags, content)
	if err != nil {
		return nil, nostrErr("build event", err)
	}
	idBytes, err := hex.DecodeString(id)
	if err != nil {
		return nil, nostrErr("build event: decode id", err)
	}
	sig, err := identity.Sign(idBytes)
	if err != nil {
		return nil, nostrErr("build event: sign", err)
	}
	return &Event{
		ID:        id,
		PubKey:    identity.PubKeyHex,
		CreatedAt: createdAt,
		Kind:      kind,
		Tags:      tags,
		Content:   content,
		Sig:       hex.EncodeToString(sig),
	}, nil
}

// Verify checks that an event's id matches its canonical serialization and
// that its signature is valid for its pubkey.
func (e *Event) Verify() error {
	rawTags := tagsToStrings(e.Tags)
	wantID, err := EventIDHex(e.PubKey, e.CreatedAt, e.Kind, rawTags, e.Content)
	if err != nil {
		return nostrErr("verify event", err)
	}
	if wantID != e.ID {
		return ErrEventBadID
	}
	pubBytes, err := hex.DecodeString(e.PubKey)
	if err != nil {
		return nostrErr("verify event: decode pubkey", err)
	}
	sigBytes, err := hex.DecodeString(e.Sig)
	if err != nil {
		return nostrErr("verify event: decode sig", err)
	}
	idBytes, err := hex.DecodeString(e.ID)
	if err != nil {
		return nostrErr("verify event: decode id", err)
	}
	ok, err := verifySchnorrXOnly(pubBytes, idBytes, sigBytes)
	if err != nil {
		return nostrErr("verify event", err)
	}
	if !ok {
		return ErrEventBadSignature
	}
	return nil
}

// TagValue returns the first value of the first tag named name, if any.
func (e *Event) TagValue(name string) (string, bool) {
	for _, t := range e.Tags {
		if len(t) >= 2 && t[0] == name {
			return t[1], true
		}
	}
	return "", false
}

func tagsToStrings(tags []Tag) [][]string {
	out := make([][]string, len(tags))
	for i, t := range tags {
		out[i] = []string(t)
	}
	return out
}

func verifySchnorrXOnly(pubBytes, hash, sig []byte) (bool, error) {
	pub, err := schnorr.ParsePubKey(pubBytes)
	if err != nil {
		return false, fmt.Errorf("parse pubkey: %w", err)
	}
	return VerifySchnorr(pub, hash, sig)
}
