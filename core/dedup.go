package core

// dedup.go – duplicate-packet suppression: an exact LRU for recent keys
// plus a rotating pair of Bloom filters for the wider recent-past window.
// The rotation ticker follows the same ticker-driven, single close
// channel, sync.Once shutdown shape as this package's other reapers.

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	dedupExactLRUSize        = 5000
	dedupBloomM              = 10000
	dedupBloomK              = 7
	dedupRotationEveryDefault = 5 * time.Minute
)

// DedupKey identifies a packet for duplicate suppression: the sender,
// the packet id, and the origin timestamp floored to the second.
type DedupKey struct {
	SenderID  NodeID
	PacketID  string
	OriginSec int64
}

// Bytes returns the canonical byte encoding hashed into the Bloom filters.
func (k DedupKey) Bytes() []byte {
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], uint64(k.OriginSec))
	out := make([]byte, 0, len(k.SenderID)+len(k.PacketID)+8+2)
	out = append(out, []byte(k.SenderID)...)
	out = append(out, 0)
	out = append(out, []byte(k.PacketID)...)
	out = append(out, 0)
	out = append(out, ts[:]...)
	return out
}

func (k DedupKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.SenderID, k.PacketID, k.OriginSec)
}

// dedupBloom is a fixed-size Bloom filter with dedupBloomK hash rounds,
// each round SHA-256(key_bytes || little_endian(i)) truncated to its first
// 4 bytes mod m.
type dedupBloom struct {
	bits *bitset.BitSet
}

func newDedupBloom() *dedupBloom {
	return &dedupBloom{bits: bitset.New(dedupBloomM)}
}

func (b *dedupBloom) indices(keyBytes []byte) [dedupBloomK]uint {
	var idx [dedupBloomK]uint
	for i := 0; i < dedupBloomK; i++ {
		buf := make([]byte, len(keyBytes)+4)
		copy(buf, keyBytes)
		binary.LittleEndian.PutUint32(buf[len(keyBytes):], uint32(i))
		sum := sha256.Sum256(buf)
		h := binary.LittleEndian.Uint32(sum[:4])
		idx[i] = uint(h % dedupBloomM)
	}
	return idx
}

func (b *dedupBloom) Add(keyBytes []byte) {
	for _, i := range b.indices(keyBytes) {
		b.bits.Set(i)
	}
}

func (b *dedupBloom) Contains(keyBytes []byte) bool {
	for _, i := range b.indices(keyBytes) {
		if !b.bits.Test(i) {
			return false
		}
	}
	return true
}

// Dedup suppresses re-processing of packets already seen, combining an
// exact LRU (for precise, short-horizon suppression) with a rotating pair
// of Bloom filters (for an approximate, longer-horizon window).
type Dedup struct {
	mu       sync.Mutex
	exact    *lru.Cache[string, struct{}]
	recent   *dedupBloom
	older    *dedupBloom
	clock    Clock
	rotation time.Duration
	closing   chan struct{}
	closeOnce sync.Once
}

// NewDedup creates a dedup service and starts its rotation ticker on the
// given clock, rotating the Bloom filter window every rotation interval.
// A non-positive rotation falls back to dedupRotationEveryDefault.
func NewDedup(clk Clock, rotation time.Duration) *Dedup {
	if clk == nil {
		clk = NewRealClock()
	}
	if rotation <= 0 {
		rotation = dedupRotationEveryDefault
	}
	exact, _ := lru.New[string, struct{}](dedupExactLRUSize)
	d := &Dedup{
		exact:    exact,
		recent:   newDedupBloom(),
		older:    newDedupBloom(),
		clock:    clk,
		rotation: rotation,
		closing:  make(chan struct{}),
	}
	go d.rotateLoop()
	return d
}

// IsDuplicate checks the exact LRU then both Bloom filter generations,
// inserting the key into the exact LRU and the recent Bloom filter when
// it is not a duplicate.
func (d *Dedup) IsDuplicate(key DedupKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := key.String()
	if d.exact.Contains(s) {
		return true
	}
	kb := key.Bytes()
	if d.recent.Contains(kb) || d.older.Contains(kb) {
		return true
	}
	d.exact.Add(s, struct{}{})
	d.recent.Add(kb)
	return false
}

// Close stops the rotation ticker.
func (d *Dedup) Close() {
	d.closeOnce.Do(func() { close(d.closing) })
}

// rotate shifts the Bloom filter window: older <- recent, recent <- fresh.
func (d *Dedup) rotate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.older = d.recent
	d.recent = newDedupBloom()
}

func (d *Dedup) rotateLoop() {
	ticker := d.clock.Ticker(d.rotation)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.rotate()
		case <-d.closing:
			return
		}
	}
}
