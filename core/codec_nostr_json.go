package core

// codec_nostr_json.go – canonical Nostr event serialization (NIP-01 event
// id derivation): the UTF-8 JSON array [0, pubkey, created_at, kind, tags,
// content] with no insignificant whitespace. This is a thin wrapper over
// encoding/json's Encoder with HTML escaping turned off, so `<`, `>` and
// `&` are written verbatim, `\n`/`\r`/`\t`/`\"`/`\\` get their short
// escapes and integers carry no decimal point. The encoder's other escapes
// still apply: `\b`/`\f`, `\u00XX` for the remaining control characters,
// U+2028/U+2029 written as `\u` escapes, and U+FFFD in place of invalid
// UTF-8.

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CanonicalEventSerialization returns the exact byte string whose SHA-256
// is the Nostr event id.
func CanonicalEventSerialization(pubkeyHex string, createdAt int64, kind int, tags [][]string, content string) ([]byte, error) {
	arr := []interface{}{0, pubkeyHex, createdAt, kind, tags, content}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(arr); err != nil {
		return nil, fmt.Errorf("canonical serialization: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// EventIDHex derives the lowercase-hex event id from its canonical
// serialization.
func EventIDHex(pubkeyHex string, createdAt int64, kind int, tags [][]string, content string) (string, error) {
	raw, err := CanonicalEventSerialization(pubkeyHex, createdAt, kind, tags, content)
	if err != nil {
		return "", err
	}
	sum := Sha256(raw)
	return fmt.Sprintf("%x", sum[:]), nil
}
