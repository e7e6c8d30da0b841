package core

// errors.go – the shared error taxonomy every package-level operation
// reports through: a small Kind enum plus a CoreError wrapper carrying a
// human-readable recovery suggestion, wrapping sentinel errors with %w
// rather than inventing a framework-wide exception hierarchy.

import "fmt"

// Kind names the broad family an error belongs to, mirroring the
// transport/codec/crypto/etc. boundaries of the core package layout.
type Kind string

const (
	KindCrypto   Kind = "Crypto"
	KindCodec    Kind = "Codec"
	KindRouting  Kind = "Routing"
	KindTransport Kind = "Transport"
	KindNostr    Kind = "Nostr"
	KindZap      Kind = "Zap"
	KindIdentity Kind = "Identity"
)

// CoreError wraps an underlying error with a Kind and a recovery
// suggestion a caller (or a CLI's error printer) can surface to a human.
type CoreError struct {
	Kind     Kind
	Op       string
	Err      error
	Recovery string
}

func (e *CoreError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s::%s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *CoreError) Unwrap() error { return e.Err }

// RecoverySuggestion returns the human-facing hint for resolving this
// error, falling back to a generic message if none was set.
func (e *CoreError) RecoverySuggestion() string {
	if e.Recovery != "" {
		return e.Recovery
	}
	return "no automatic recovery available; see the wrapped error for detail"
}

// NewCoreError builds a CoreError with the given kind, operation name, and
// recovery hint.
func NewCoreError(kind Kind, op string, err error, recovery string) *CoreError {
	return &CoreError{Kind: kind, Op: op, Err: err, Recovery: recovery}
}

// Recoverable error-kind helpers: crypto and zap failures are always
// terminal per the propagation policy; routing decisions never throw and
// report failure via Decision.Drop instead.

func cryptoErr(op string, err error) error {
	return NewCoreError(KindCrypto, op, err, "crypto failures are not retryable; regenerate keys or re-derive the session")
}

func codecErr(op string, err error) error {
	return NewCoreError(KindCodec, op, err, "check the wire payload against the expected format and retry")
}

func routingErr(op string, err error) error {
	return NewCoreError(KindRouting, op, err, "the packet was dropped; no retry is attempted automatically")
}

func transportErr(op string, err error) error {
	return NewCoreError(KindTransport, op, err, "check transport connectivity and retry")
}

func nostrErr(op string, err error) error {
	return NewCoreError(KindNostr, op, err, "check relay connectivity or event validity and retry")
}

func zapErr(op string, err error) error {
	return NewCoreError(KindZap, op, err, "zap failures are terminal; the sender must retry the whole flow")
}

func identityErr(op string, err error) error {
	return NewCoreError(KindIdentity, op, err, "check the secret store and persisted identity bytes")
}
