package core

// codec_bolt11.go – BOLT11 Lightning invoice decoder: bech32 decode, HRP
// network/amount parsing with exact millisat conversion, and a tagged-field
// parser over the 5-bit word payload. Hand-rolled against the BOLT11
// bit-level layout rather than delegated to a general Lightning library,
// since the exact tagged-field layout and amount-conversion rule need
// precise control this core must implement directly.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrBolt11InvalidHRP       = errors.New("bolt11: invalid human-readable prefix")
	ErrBolt11InvalidNetwork   = errors.New("bolt11: unknown network label")
	ErrBolt11InvalidAmount    = errors.New("bolt11: amount not exactly representable in millisats")
	ErrBolt11InvalidLength    = errors.New("bolt11: data payload too short")
	ErrBolt11InvalidTimestamp = errors.New("bolt11: malformed timestamp")
	ErrBolt11InvalidTagData   = errors.New("bolt11: malformed tagged field")
	ErrBolt11InvalidSignature = errors.New("bolt11: signature must be 65 bytes")
)

// Bolt11TagType names a known BOLT11 tagged field.
type Bolt11TagType string

const (
	TagPaymentHash     Bolt11TagType = "payment_hash"
	TagDescription     Bolt11TagType = "description"
	TagDescriptionHash Bolt11TagType = "description_hash"
	TagExpiry          Bolt11TagType = "expiry"
	TagPayeePubkey     Bolt11TagType = "payee_pubkey"
	TagMinFinalCLTV    Bolt11TagType = "min_final_cltv"
	TagFallback        Bolt11TagType = "fallback"
	TagRoutingInfo     Bolt11TagType = "routing_info"
	TagFeatures        Bolt11TagType = "features"
	TagUnknown         Bolt11TagType = "unknown"
)

// bolt11TagChars maps the bech32 tag character to its known type.
var bolt11TagChars = map[byte]Bolt11TagType{
	'p': TagPaymentHash,
	'd': TagDescription,
	'h': TagDescriptionHash,
	'x': TagExpiry,
	'n': TagPayeePubkey,
	'c': TagMinFinalCLTV,
	'f': TagFallback,
	'r': TagRoutingInfo,
	'9': TagFeatures,
}

// Bolt11Tag is one parsed tagged field.
type Bolt11Tag struct {
	Type Bolt11TagType
	Code byte   // original bech32 tag character
	Raw  []byte // decoded bytes (UTF-8 for description, binary otherwise)
	Int  uint64 // decoded integer for expiry / min_final_cltv
}

// Bolt11Invoice is the fully parsed form of a BOLT11 invoice.
type Bolt11Invoice struct {
	Raw         string
	Network     string
	AmountMsat  *uint64
	Timestamp   int64
	Tags        []Bolt11Tag
	Signature   []byte // 65 bytes: 64-byte recoverable sig + 1-byte recovery id
}

var bolt11Networks = []string{"bcrt", "bc", "tb", "sb"}

// ParseBolt11 normalizes and decodes a BOLT11 invoice string.
func ParseBolt11(input string) (*Bolt11Invoice, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.TrimPrefix(s, "lightning:")

	hrp, words, err := bech32DecodeRaw(s)
	if err != nil {
		return nil, fmt.Errorf("bolt11: %w", err)
	}
	if !strings.HasPrefix(hrp, "ln") {
		return nil, ErrBolt11InvalidHRP
	}
	rest := hrp[2:]

	var network, amountStr string
	found := false
	for _, n := range bolt11Networks {
		if strings.HasPrefix(rest, n) {
			network = n
			amountStr = rest[len(n):]
			found = true
			break
		}
	}
	if !found {
		return nil, ErrBolt11InvalidNetwork
	}

	var amountMsat *uint64
	if amountStr != "" {
		msat, err := parseBolt11Amount(amountStr)
		if err != nil {
			return nil, err
		}
		amountMsat = &msat
	}

	if len(words) < 7+104 {
		return nil, ErrBolt11InvalidLength
	}

	timestampWords := words[:7]
	sigWords := words[len(words)-104:]
	fieldWords := words[7 : len(words)-104]

	var ts int64
	for _, w := range timestampWords {
		if w > 31 {
			return nil, ErrBolt11InvalidTimestamp
		}
		ts = ts<<5 | int64(w)
	}

	tags, err := parseBolt11Tags(fieldWords)
	if err != nil {
		return nil, err
	}

	sig, err := convertBits(sigWords, 5, 8, true)
	if err != nil {
		return nil, fmt.Errorf("bolt11: %w", err)
	}
	if len(sig) != 65 {
		return nil, ErrBolt11InvalidSignature
	}

	return &Bolt11Invoice{
		Raw:        s,
		Network:    network,
		AmountMsat: amountMsat,
		Timestamp:  ts,
		Tags:       tags,
		Signature:  sig,
	}, nil
}

// parseBolt11Amount converts an HRP amount suffix (digits + optional
// multiplier m|u|n|p) to an exact millisat value.
func parseBolt11Amount(s string) (uint64, error) {
	if s == "" {
		return 0, ErrBolt11InvalidAmount
	}
	mult := byte(0)
	digits := s
	last := s[len(s)-1]
	if last == 'm' || last == 'u' || last == 'n' || last == 'p' {
		mult = last
		digits = s[:len(s)-1]
	}
	if digits == "" {
		return 0, ErrBolt11InvalidAmount
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, ErrBolt11InvalidAmount
		}
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, ErrBolt11InvalidAmount
	}

	switch mult {
	case 0:
		return n * 100_000_000_000, nil
	case 'm':
		return n * 100_000_000, nil
	case 'u':
		return n * 100_000, nil
	case 'n':
		return n * 100, nil
	case 'p':
		if n%10 != 0 {
			return 0, ErrBolt11InvalidAmount
		}
		return n / 10, nil
	default:
		return 0, ErrBolt11InvalidAmount
	}
}

// parseBolt11Tags walks the tagged-field region: type(1 word) ||
// length(2 words, 10-bit) || data(length words).
func parseBolt11Tags(words []byte) ([]Bolt11Tag, error) {
	var tags []Bolt11Tag
	i := 0
	for i < len(words) {
		if i+3 > len(words) {
			return nil, ErrBolt11InvalidTagData
		}
		code := words[i]
		length := int(words[i+1])<<5 | int(words[i+2])
		i += 3
		if i+length > len(words) {
			return nil, ErrBolt11InvalidTagData
		}
		data := words[i : i+length]
		i += length

		tagType, known := bolt11TagChars[bech32Charset[code]]
		if !known {
			tagType = TagUnknown
		}

		tag := Bolt11Tag{Type: tagType, Code: bech32Charset[code]}
		switch tagType {
		case TagPaymentHash, TagDescriptionHash:
			tag.Raw = decodeFieldBytes(data, 256)
			if len(tag.Raw) != 32 {
				return nil, ErrBolt11InvalidTagData
			}
		case TagPayeePubkey:
			tag.Raw = decodeFieldBytes(data, 264)
			if len(tag.Raw) != 33 {
				return nil, ErrBolt11InvalidTagData
			}
		case TagExpiry, TagMinFinalCLTV:
			var v uint64
			for _, w := range data {
				v = v<<5 | uint64(w)
			}
			tag.Int = v
		case TagDescription:
			tag.Raw = decodeFieldBytes(data, length*5)
		default:
			tag.Raw = decodeFieldBytes(data, length*5)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// decodeFieldBytes converts a run of 5-bit words to bytes, keeping exactly
// expectedBits/8 leading bytes and discarding any trailing padding bits.
func decodeFieldBytes(words []byte, expectedBits int) []byte {
	full, err := convertBits(words, 5, 8, true)
	if err != nil {
		return nil
	}
	n := expectedBits / 8
	if n > len(full) {
		n = len(full)
	}
	return full[:n]
}

// Description returns the decoded description tag's value, if present.
func (inv *Bolt11Invoice) Description() (string, bool) {
	for _, t := range inv.Tags {
		if t.Type == TagDescription {
			return string(t.Raw), true
		}
	}
	return "", false
}

// DescriptionHash returns the decoded description_hash tag's value, if present.
func (inv *Bolt11Invoice) DescriptionHash() ([]byte, bool) {
	for _, t := range inv.Tags {
		if t.Type == TagDescriptionHash {
			return t.Raw, true
		}
	}
	return nil, false
}

// PaymentHash returns the decoded payment_hash tag's value, if present.
func (inv *Bolt11Invoice) PaymentHash() ([]byte, bool) {
	for _, t := range inv.Tags {
		if t.Type == TagPaymentHash {
			return t.Raw, true
		}
	}
	return nil, false
}

//---------------------------------------------------------------------
// Validation
//---------------------------------------------------------------------

var bolt11UnsafeSubstrings = []string{
	"<script", "</script", "javascript:", "onerror=", "onload=",
	"union select", "drop table", "insert into", "' or 1=1", "--", "/*", "*/",
}

// ValidateBolt11 checks an invoice against the acceptance rules: a
// payment_hash tag must be present, at least one of description/
// description_hash must be present, and any description must be free of
// control characters (other than \n/\t) and unsafe substrings.
func ValidateBolt11(inv *Bolt11Invoice) error {
	if _, ok := inv.PaymentHash(); !ok {
		return fmt.Errorf("%w: missing payment_hash", ErrBolt11InvalidTagData)
	}
	desc, hasDesc := inv.Description()
	_, hasDescHash := inv.DescriptionHash()
	if !hasDesc && !hasDescHash {
		return fmt.Errorf("%w: missing description and description_hash", ErrBolt11InvalidTagData)
	}
	if hasDesc {
		if err := validateBolt11Description(desc); err != nil {
			return err
		}
	}
	return nil
}

func validateBolt11Description(desc string) error {
	for _, r := range desc {
		if r < 0x20 && r != '\n' && r != '\t' {
			return fmt.Errorf("%w: unsafe_description", ErrBolt11InvalidTagData)
		}
		if r == 0x7f {
			return fmt.Errorf("%w: unsafe_description", ErrBolt11InvalidTagData)
		}
	}
	lower := strings.ToLower(desc)
	for _, bad := range bolt11UnsafeSubstrings {
		if strings.Contains(lower, bad) {
			return fmt.Errorf("%w: unsafe_description", ErrBolt11InvalidTagData)
		}
	}
	return nil
}
