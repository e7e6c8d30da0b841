package core

// envelope.go – MessageEnvelope: the end-to-end encrypted payload a
// RoutablePacket carries for packet-type "message". Construction and
// opening are the only two operations; the wire shape is plain JSON,
// matching the encoding/json-everywhere habit the rest of this package
// uses for its wire types.

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// MessageType tags the kind of payload an envelope carries.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeCode  MessageType = "code"
	MessageTypeVoice MessageType = "voice"
	MessageTypeImage MessageType = "image"
)

// MessageEnvelope is the end-to-end encrypted unit exchanged between two
// mesh identities.
type MessageEnvelope struct {
	MessageID    string      `json:"message_id"`
	SenderID     NodeID      `json:"sender_id"`
	RecipientID  NodeID      `json:"recipient_id"`
	Ciphertext   string      `json:"ciphertext"` // base64 of AEAD output
	Timestamp    int64       `json:"timestamp"`
	MessageType  MessageType `json:"message_type"`
	Language     string      `json:"language,omitempty"`
	Signature    []byte      `json:"signature,omitempty"`
	SenderEdPub  []byte      `json:"sender_ed25519_pub"`
	SenderEncPub [32]byte    `json:"sender_enc_pub"`
}

var (
	ErrEnvelopeEmptyCiphertext = errors.New("envelope: ciphertext must not be empty")
	ErrEnvelopeBadSignature    = errors.New("envelope: signature does not verify")
	ErrEnvelopeWrongRecipient  = errors.New("envelope: recipient_id does not match local identity")
)

// NewMessageEnvelope encrypts plaintext for recipientEncPub using the
// sender's mesh identity, producing a signed envelope ready to carry in a
// RoutablePacket.
func NewMessageEnvelope(
	sender *MeshIdentity,
	senderID, recipientID NodeID,
	recipientEncPub [32]byte,
	msgType MessageType,
	language string,
	plaintext []byte,
	now int64,
) (*MessageEnvelope, error) {
	shared, err := sender.ECDH(recipientEncPub)
	if err != nil {
		return nil, fmt.Errorf("envelope: ecdh: %w", err)
	}
	key, err := DeriveSessionKey(shared, nil, []byte("pulse-e2e"))
	if err != nil {
		return nil, fmt.Errorf("envelope: derive key: %w", err)
	}
	aad := []byte(string(senderID) + "|" + string(recipientID))
	ct, err := Encrypt(key, plaintext, aad)
	if err != nil {
		return nil, fmt.Errorf("envelope: encrypt: %w", err)
	}

	env := &MessageEnvelope{
		MessageID:    uuid.NewString(),
		SenderID:     senderID,
		RecipientID:  recipientID,
		Ciphertext:   base64.StdEncoding.EncodeToString(ct),
		Timestamp:    now,
		MessageType:  msgType,
		Language:     language,
		SenderEdPub:  append([]byte{}, []byte(sender.SignPub)...),
		SenderEncPub: sender.EncPub,
	}
	env.Signature = sender.Sign(env.signingBytes())
	return env, nil
}

// signingBytes is the deterministic byte form signed/verified over an
// envelope: every field except the signature itself.
func (e *MessageEnvelope) signingBytes() []byte {
	cp := *e
	cp.Signature = nil
	b, _ := json.Marshal(cp)
	return b
}

// Verify checks the envelope's attached signature against its attached
// Ed25519 public key, if a signature is present.
func (e *MessageEnvelope) Verify() bool {
	if len(e.Signature) == 0 {
		return true
	}
	return VerifyEd25519(ed25519.PublicKey(e.SenderEdPub), e.signingBytes(), e.Signature)
}

// Open decrypts the envelope's ciphertext using the local recipient's mesh
// identity and the sender's X25519 public key. It enforces the invariants:
// ciphertext non-empty, signature verifies if present, recipient-id
// matches localID.
func (e *MessageEnvelope) Open(local *MeshIdentity, localID NodeID, senderEncPub [32]byte) ([]byte, error) {
	if e.Ciphertext == "" {
		return nil, ErrEnvelopeEmptyCiphertext
	}
	if e.RecipientID != localID {
		return nil, ErrEnvelopeWrongRecipient
	}
	if !e.Verify() {
		return nil, ErrEnvelopeBadSignature
	}
	ct, err := base64.StdEncoding.DecodeString(e.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("envelope: decode ciphertext: %w", err)
	}
	shared, err := local.ECDH(senderEncPub)
	if err != nil {
		return nil, fmt.Errorf("envelope: ecdh: %w", err)
	}
	key, err := DeriveSessionKey(shared, nil, []byte("pulse-e2e"))
	if err != nil {
		return nil, fmt.Errorf("envelope: derive key: %w", err)
	}
	aad := []byte(string(e.SenderID) + "|" + string(e.RecipientID))
	return Decrypt(key, ct, aad)
}

// Marshal encodes the envelope as the wire payload a RoutablePacket of type
// message carries.
func (e *MessageEnvelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalMessageEnvelope decodes a message packet's payload back into an
// envelope.
func UnmarshalMessageEnvelope(b []byte) (*MessageEnvelope, error) {
	var e MessageEnvelope
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
