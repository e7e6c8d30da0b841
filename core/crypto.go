// SPDX-License-Identifier: Apache-2.0
// Package core – cryptographic primitives shared by the mesh identity,
// Nostr identity, and envelope layers.
//
// Exposes:
//   - X25519 ECDH + HKDF-SHA256    – mesh envelope key agreement.
//   - XChaCha20-Poly1305           – authenticated encryption for envelopes.
//   - Ed25519                      – mesh identity signing.
//   - secp256k1 / BIP-340 Schnorr  – Nostr identity and event signing.
package core

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"log"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

var cryptoLogger = log.New(io.Discard, "[crypto] ", log.LstdFlags)

// SetCryptoLogger overrides the package logger, mirroring the rest of the
// core package's SetXLogger hooks.
func SetCryptoLogger(l *log.Logger) { cryptoLogger = l }

var (
	ErrInvalidKeySize = errors.New("crypto: invalid key size")
	ErrShortCiphertext = errors.New("crypto: ciphertext too short")
)

//---------------------------------------------------------------------
// X25519 key agreement
//---------------------------------------------------------------------

// GenerateX25519Keypair returns a fresh X25519 private/public key pair.
func GenerateX25519Keypair() (priv, pub [32]byte, err error) {
	if _, err = io.ReadFull(rand.Reader, priv[:]); err != nil {
		return
	}
	pubSlice, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(pub[:], pubSlice)
	return
}

// ECDH performs X25519 scalar multiplication between a local private key
// and a remote public key.
func ECDH(priv, peerPub [32]byte) ([]byte, error) {
	shared, err := curve25519.X25519(priv[:], peerPub[:])
	if err != nil {
		return nil, err
	}
	return shared, nil
}

// ECDHBasepoint multiplies priv by the curve25519 basepoint, recovering the
// public key that corresponds to a raw private scalar.
func ECDHBasepoint(priv [32]byte) ([]byte, error) {
	return curve25519.X25519(priv[:], curve25519.Basepoint)
}

// DeriveSessionKey runs HKDF-SHA256 over an ECDH shared secret to produce a
// 32-byte symmetric key; salt and info are passed to HKDF unchanged (the
// envelope layer uses a fixed info string and binds the sender/recipient
// pair through the AEAD associated data instead).
func DeriveSessionKey(shared []byte, salt, info []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, shared, salt, info)
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

//---------------------------------------------------------------------
// Encryption – XChaCha20-Poly1305
//---------------------------------------------------------------------

// Encrypt returns nonce || ciphertext || tag using XChaCha20-Poly1305.
func Encrypt(key, plaintext, aad []byte) ([]byte, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKeySize
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, plaintext, aad)
	return append(nonce, ct...), nil
}

// Decrypt verifies and opens a blob produced by Encrypt.
func Decrypt(key, blob, aad []byte) ([]byte, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKeySize
	}
	minLen := chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(blob) < minLen {
		return nil, ErrShortCiphertext
	}
	nonce, ciphertext := blob[:chacha20poly1305.NonceSizeX], blob[chacha20poly1305.NonceSizeX:]
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, aad)
}

//---------------------------------------------------------------------
// Ed25519 – mesh identity signing
//---------------------------------------------------------------------

// SignEd25519 signs msg with an Ed25519 private key.
func SignEd25519(priv ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(priv, msg)
}

// VerifyEd25519 checks an Ed25519 signature.
func VerifyEd25519(pub ed25519.PublicKey, msg, sig []byte) bool {
	return ed25519.Verify(pub, msg, sig)
}

//---------------------------------------------------------------------
// secp256k1 / BIP-340 Schnorr – Nostr identity signing
//---------------------------------------------------------------------

// GenerateSchnorrKeypair returns a fresh secp256k1 key pair suitable for
// BIP-340 Schnorr signing (Nostr event signing).
func GenerateSchnorrKeypair() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

// SignSchnorr produces a BIP-340 Schnorr signature over a 32-byte message
// hash, as required by Nostr event IDs.
func SignSchnorr(priv *btcec.PrivateKey, hash []byte) ([]byte, error) {
	if len(hash) != sha256.Size {
		return nil, ErrInvalidKeySize
	}
	sig, err := schnorr.Sign(priv, hash)
	if err != nil {
		return nil, err
	}
	return sig.Serialize(), nil
}

// VerifySchnorr verifies a BIP-340 Schnorr signature against an x-only
// public key and a 32-byte message hash.
func VerifySchnorr(pub *btcec.PublicKey, hash, sig []byte) (bool, error) {
	if len(hash) != sha256.Size {
		return false, ErrInvalidKeySize
	}
	s, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false, err
	}
	return s.Verify(hash, pub), nil
}

// Sha256 is a small convenience wrapper used throughout the codec and
// event-hashing code so callers don't each re-import crypto/sha256.
func Sha256(data []byte) [32]byte {
	return sha256.Sum256(data)
}
