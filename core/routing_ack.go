package core

// routing_ack.go – pending-ack tracking: every outbound message-type
// packet gets a retry/backoff timer until it's acked, fails out after
// three retries, or the pending set hits its hard cap. Ticker/closing
// channel shape matches the reaper pattern used throughout this package.

import (
	"sync"
	"time"
)

// AckState is where a pending outbound packet sits in its retry lifecycle.
type AckState string

const (
	AckOutbound AckState = "outbound"
	AckRetrying AckState = "retrying"
	AckAcked    AckState = "acked"
	AckFailed   AckState = "failed"
)

const (
	ackTickEvery           = 10 * time.Second
	ackTimeoutDefault      = 30 * time.Second
	ackMaxRetriesDefault   = 3
	ackPendingLimit        = 1024
)

// PendingAck tracks one outbound packet awaiting acknowledgement.
type PendingAck struct {
	Packet    *RoutablePacket
	Recipient NodeID
	State     AckState
	SentAt    int64
	Retries   int
}

// AckResendFunc resends a packet to its recipient; the tracker calls this
// on timeout, after bumping the retry count.
type AckResendFunc func(pkt *RoutablePacket, to NodeID) error

// AckFailedFunc is invoked once a pending ack exhausts its retries or is
// evicted to respect the pending-set cap.
type AckFailedFunc func(pkt *RoutablePacket, to NodeID)

// AckTracker manages the outbound acknowledgement state machine:
// Outbound -> Acked | Retrying -> Acked | Failed.
type AckTracker struct {
	mu         sync.Mutex
	pending    map[string]*PendingAck
	order      []string // insertion order, for oldest-dropped eviction
	clock      Clock
	timeout    time.Duration
	maxRetries int
	resend     AckResendFunc
	onFailed   AckFailedFunc
	closing    chan struct{}
	closeOnce  sync.Once
}

// NewAckTracker creates a tracker and starts its retry-check ticker. A
// non-positive timeout or maxRetries falls back to the package defaults.
func NewAckTracker(clk Clock, timeout time.Duration, maxRetries int, resend AckResendFunc, onFailed AckFailedFunc) *AckTracker {
	if clk == nil {
		clk = NewRealClock()
	}
	if timeout <= 0 {
		timeout = ackTimeoutDefault
	}
	if maxRetries <= 0 {
		maxRetries = ackMaxRetriesDefault
	}
	t := &AckTracker{
		pending:    make(map[string]*PendingAck),
		clock:      clk,
		timeout:    timeout,
		maxRetries: maxRetries,
		resend:     resend,
		onFailed:   onFailed,
		closing:    make(chan struct{}),
	}
	go t.tick()
	return t
}

// Close stops the retry-check ticker.
func (t *AckTracker) Close() {
	t.closeOnce.Do(func() { close(t.closing) })
}

// Track registers pkt as awaiting an ack from to. If the pending set is at
// its cap, the oldest entry is evicted and reported failed to make room.
func (t *AckTracker) Track(pkt *RoutablePacket, to NodeID, now int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.pending[pkt.PacketID]; exists {
		return
	}
	if len(t.pending) >= ackPendingLimit {
		t.evictOldestLocked()
	}
	t.pending[pkt.PacketID] = &PendingAck{Packet: pkt, Recipient: to, State: AckOutbound, SentAt: now}
	t.order = append(t.order, pkt.PacketID)
}

func (t *AckTracker) evictOldestLocked() {
	if len(t.order) == 0 {
		return
	}
	oldestID := t.order[0]
	t.order = t.order[1:]
	if p, ok := t.pending[oldestID]; ok {
		delete(t.pending, oldestID)
		if t.onFailed != nil {
			t.onFailed(p.Packet, p.Recipient)
		}
	}
}

// Ack marks packetID as acknowledged and removes it from tracking.
func (t *AckTracker) Ack(packetID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pending[packetID]; !ok {
		return
	}
	delete(t.pending, packetID)
	t.removeFromOrderLocked(packetID)
}

func (t *AckTracker) removeFromOrderLocked(packetID string) {
	for i, id := range t.order {
		if id == packetID {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

// Pending returns a snapshot of the packet ids currently awaiting ack.
func (t *AckTracker) Pending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.pending))
	for id := range t.pending {
		out = append(out, id)
	}
	return out
}

// checkTimeouts scans pending acks, resending those past the configured
// timeout and failing out those that have exhausted their retry budget.
func (t *AckTracker) checkTimeouts(now int64) {
	t.mu.Lock()
	var toResend []*PendingAck
	var toFail []*PendingAck
	for id, p := range t.pending {
		if now-p.SentAt < int64(t.timeout.Seconds()) {
			continue
		}
		if p.Retries >= t.maxRetries {
			delete(t.pending, id)
			t.removeFromOrderLocked(id)
			toFail = append(toFail, p)
			continue
		}
		p.Retries++
		p.State = AckRetrying
		p.SentAt = now
		toResend = append(toResend, p)
	}
	MetricPendingAcks.Set(float64(len(t.pending)))
	t.mu.Unlock()

	for _, p := range toFail {
		if t.onFailed != nil {
			t.onFailed(p.Packet, p.Recipient)
		}
	}
	for _, p := range toResend {
		if t.resend != nil {
			_ = t.resend(p.Packet, p.Recipient)
		}
	}
}

func (t *AckTracker) tick() {
	ticker := t.clock.Ticker(ackTickEvery)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			t.checkTimeouts(now.Unix())
		case <-t.closing:
			return
		}
	}
}
