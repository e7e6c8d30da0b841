package core

// codec_bech32.go – BIP-173 bech32 encoding, the wire format Nostr's NIP-19
// (npub/nsec/nevent) and BOLT11 invoices both build on. Hand-rolled rather
// than delegated to a bech32 library: BOLT11 needs the non-segwit variant
// (no witness-version byte), which most bech32 packages bake in as an
// assumption, and this implementation pins the bit layout down precisely
// enough that adapting a mismatched library would cost more than writing
// it directly.

import (
	"errors"
	"strings"
)

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var (
	ErrBech32InvalidChar    = errors.New("bech32: invalid character")
	ErrBech32MixedCase      = errors.New("bech32: mixed case string")
	ErrBech32NoSeparator    = errors.New("bech32: missing separator")
	ErrBech32BadChecksum    = errors.New("bech32: invalid checksum")
	ErrBech32TooShort       = errors.New("bech32: string too short")
	ErrBech32TooLong        = errors.New("bech32: string too long")
	ErrBech32EmptyHRP       = errors.New("bech32: empty human-readable part")
	ErrBech32InvalidPadding = errors.New("bech32: invalid padding bits")
)

func bech32Polymod(values []byte) uint32 {
	gen := [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func bech32HRPExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for _, c := range hrp {
		out = append(out, byte(c)>>5)
	}
	out = append(out, 0)
	for _, c := range hrp {
		out = append(out, byte(c)&31)
	}
	return out
}

func bech32CreateChecksum(hrp string, data []byte) []byte {
	values := append(bech32HRPExpand(hrp), data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	mod := bech32Polymod(values) ^ 1
	checksum := make([]byte, 6)
	for i := 0; i < 6; i++ {
		checksum[i] = byte((mod >> uint(5*(5-i))) & 31)
	}
	return checksum
}

func bech32VerifyChecksum(hrp string, data []byte) bool {
	values := append(bech32HRPExpand(hrp), data...)
	return bech32Polymod(values) == 1
}

// Bech32Encode encodes raw 8-bit data with the given human-readable prefix.
func Bech32Encode(hrp string, data []byte) (string, error) {
	if hrp == "" {
		return "", ErrBech32EmptyHRP
	}
	values, err := convertBits(data, 8, 5, true)
	if err != nil {
		return "", err
	}
	checksum := bech32CreateChecksum(hrp, values)
	combined := append(values, checksum...)

	var sb strings.Builder
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, v := range combined {
		sb.WriteByte(bech32Charset[v])
	}
	return sb.String(), nil
}

// Bech32Decode decodes a bech32 string back into its human-readable prefix
// and raw 8-bit payload.
func Bech32Decode(s string) (hrp string, data []byte, err error) {
	if len(s) > 90 {
		return "", nil, ErrBech32TooLong
	}
	hrp, values, err := bech32DecodeRaw(s)
	if err != nil {
		return "", nil, err
	}
	data, err = convertBits(values, 5, 8, false)
	if err != nil {
		return "", nil, err
	}
	return hrp, data, nil
}

// bech32DecodeRaw decodes a bech32 string into its human-readable prefix
// and raw 5-bit word payload (checksum stripped, not yet regrouped to
// 8-bit bytes). BOLT11 invoices parse tagged fields directly off this
// 5-bit form, so this is exposed separately from Bech32Decode's 8-bit
// output. No overall length cap is applied here — BOLT11 invoices
// routinely exceed bech32's original 90-character convenience limit.
func bech32DecodeRaw(s string) (hrp string, values []byte, err error) {
	if len(s) < 8 {
		return "", nil, ErrBech32TooShort
	}
	lower := strings.ToLower(s)
	upper := strings.ToUpper(s)
	if s != lower && s != upper {
		return "", nil, ErrBech32MixedCase
	}
	s = lower

	sep := strings.LastIndexByte(s, '1')
	if sep < 1 || sep+7 > len(s) {
		return "", nil, ErrBech32NoSeparator
	}
	hrp = s[:sep]
	payload := s[sep+1:]

	decoded := make([]byte, len(payload))
	for i, c := range payload {
		idx := strings.IndexRune(bech32Charset, c)
		if idx < 0 {
			return "", nil, ErrBech32InvalidChar
		}
		decoded[i] = byte(idx)
	}
	if !bech32VerifyChecksum(hrp, decoded) {
		return "", nil, ErrBech32BadChecksum
	}
	return hrp, decoded[:len(decoded)-6], nil
}

// convertBits re-groups a bit string between arbitrary word sizes, the
// standard bech32 5-bit/8-bit conversion primitive.
func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	var acc uint32
	var bits uint
	maxv := uint32(1<<toBits) - 1
	var out []byte
	for _, b := range data {
		if uint32(b)>>fromBits != 0 {
			return nil, ErrBech32InvalidChar
		}
		acc = (acc << fromBits) | uint32(b)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte((acc>>bits)&maxv))
		}
	}
	if pad {
		if bits > 0 {
			out = append(out, byte((acc<<(toBits-bits))&maxv))
		}
	} else if bits >= fromBits || ((acc<<(toBits-bits))&maxv) != 0 {
		return nil, ErrBech32InvalidPadding
	}
	return out, nil
}
