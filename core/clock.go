package core

// clock.go – a swappable time source so the dedup rotation ticker and the
// ack-retry ticker can be driven deterministically in tests: the clock is
// explicit and injectable instead of a bare time.NewTicker call.

import "github.com/benbjohnson/clock"

// Clock is the time source used by timer-driven core components.
type Clock = clock.Clock

// NewRealClock returns a Clock backed by the real wall clock.
func NewRealClock() Clock { return clock.New() }

// NewMockClock returns a Clock whose time only advances when told to,
// for deterministic tests of ticker-driven components.
func NewMockClock() *clock.Mock { return clock.NewMock() }
