package core

// nostr_relay.go – a single relay session: connection lifecycle, frame
// encode/decode, and a rate-limited outbound queue. Follows the same
// explicit-state, context-driven-shutdown shape as the Dialer/Node pair in
// network.go, but swaps libp2p for gorilla/websocket, the transport NIP-01
// relays speak.

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// RelayState is the lifecycle state of a single relay connection.
type RelayState int

const (
	RelayDisconnected RelayState = iota
	RelayConnecting
	RelayOpen
	RelayClosing
	RelayClosed
)

func (s RelayState) String() string {
	switch s {
	case RelayConnecting:
		return "connecting"
	case RelayOpen:
		return "open"
	case RelayClosing:
		return "closing"
	case RelayClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

const (
	relayOutboundRatePerSec = 60
	relayOutboundQueueCap   = 1024
)

// RelayEventHandler is invoked for each decoded EVENT frame delivered by a
// relay, tagged with the subscription id it arrived under.
type RelayEventHandler func(subID string, ev *Event)

// RelayEoseHandler is invoked when a relay signals end of stored events for
// a subscription.
type RelayEoseHandler func(subID string)

// RelayOkHandler is invoked when a relay acknowledges a published event.
type RelayOkHandler func(eventID string, accepted bool, message string)

// RelayNoticeHandler is invoked for human-readable NOTICE frames.
type RelayNoticeHandler func(message string)

// Relay manages one websocket connection to a single Nostr relay URL.
type Relay struct {
	url string

	mu    sync.Mutex
	state RelayState
	conn  *websocket.Conn

	outbound chan []byte
	limiter  *rate.Limiter

	onEvent  RelayEventHandler
	onEose   RelayEoseHandler
	onOk     RelayOkHandler
	onNotice RelayNoticeHandler

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRelay creates a relay session bound to url. Call Connect to open it.
func NewRelay(url string) *Relay {
	return &Relay{
		url:      url,
		state:    RelayDisconnected,
		outbound: make(chan []byte, relayOutboundQueueCap),
		limiter:  rate.NewLimiter(rate.Limit(relayOutboundRatePerSec), relayOutboundRatePerSec),
	}
}

func (r *Relay) URL() string { return r.url }

func (r *Relay) State() RelayState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Relay) setState(s RelayState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Connect dials the relay and starts its read/write pumps.
func (r *Relay) Connect(ctx context.Context) error {
	r.setState(RelayConnecting)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.url, nil)
	if err != nil {
		r.setState(RelayDisconnected)
		return nostrErr(fmt.Sprintf("connect %s", r.url), err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.conn = conn
	r.cancel = cancel
	r.state = RelayOpen
	r.done = make(chan struct{})
	r.mu.Unlock()

	go r.readPump(runCtx)
	go r.writePump(runCtx)
	return nil
}

// Close gracefully closes the relay connection.
func (r *Relay) Close() error {
	r.mu.Lock()
	if r.state == RelayClosed || r.state == RelayClosing {
		r.mu.Unlock()
		return nil
	}
	r.state = RelayClosing
	cancel := r.cancel
	conn := r.conn
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	r.setState(RelayClosed)
	return nil
}

// OnEvent registers the handler invoked for decoded EVENT frames.
func (r *Relay) OnEvent(h RelayEventHandler) { r.mu.Lock(); r.onEvent = h; r.mu.Unlock() }

// OnEose registers the handler invoked for EOSE frames.
func (r *Relay) OnEose(h RelayEoseHandler) { r.mu.Lock(); r.onEose = h; r.mu.Unlock() }

// OnOk registers the handler invoked for OK frames.
func (r *Relay) OnOk(h RelayOkHandler) { r.mu.Lock(); r.onOk = h; r.mu.Unlock() }

// OnNotice registers the handler invoked for NOTICE frames.
func (r *Relay) OnNotice(h RelayNoticeHandler) { r.mu.Lock(); r.onNotice = h; r.mu.Unlock() }

// PublishEvent queues an ["EVENT", event] frame for send.
func (r *Relay) PublishEvent(ev *Event) error {
	frame, err := json.Marshal([]interface{}{"EVENT", ev})
	if err != nil {
		return codecErr("relay publish marshal", err)
	}
	return r.enqueue(frame)
}

// SendReq queues a ["REQ", subID, filter] frame.
func (r *Relay) SendReq(subID string, filter Filter) error {
	frame, err := json.Marshal([]interface{}{"REQ", subID, filter})
	if err != nil {
		return codecErr("relay req marshal", err)
	}
	return r.enqueue(frame)
}

// SendClose queues a ["CLOSE", subID] frame.
func (r *Relay) SendClose(subID string) error {
	frame, err := json.Marshal([]interface{}{"CLOSE", subID})
	if err != nil {
		return codecErr("relay close marshal", err)
	}
	return r.enqueue(frame)
}

func (r *Relay) enqueue(frame []byte) error {
	select {
	case r.outbound <- frame:
		return nil
	default:
		// Hard cap reached: drop the oldest queued frame to make room,
		// matching the bounded-queue budget for relay outbound traffic.
		select {
		case <-r.outbound:
		default:
		}
		select {
		case r.outbound <- frame:
		default:
		}
		return nil
	}
}

func (r *Relay) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-r.outbound:
			if err := r.limiter.Wait(ctx); err != nil {
				return
			}
			r.mu.Lock()
			conn := r.conn
			r.mu.Unlock()
			if conn == nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}
}

func (r *Relay) readPump(ctx context.Context) {
	defer func() {
		r.mu.Lock()
		done := r.done
		r.mu.Unlock()
		if done != nil {
			close(done)
		}
	}()
	for {
		r.mu.Lock()
		conn := r.conn
		r.mu.Unlock()
		if conn == nil {
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			r.setState(RelayClosed)
			return
		}
		r.handleFrame(data)
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (r *Relay) handleFrame(data []byte) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) == 0 {
		return
	}
	var label string
	if err := json.Unmarshal(raw[0], &label); err != nil {
		return
	}
	switch label {
	case "EVENT":
		if len(raw) < 3 {
			return
		}
		var subID string
		var ev Event
		if json.Unmarshal(raw[1], &subID) != nil || json.Unmarshal(raw[2], &ev) != nil {
			return
		}
		r.mu.Lock()
		h := r.onEvent
		r.mu.Unlock()
		if h != nil {
			h(subID, &ev)
		}
	case "EOSE":
		if len(raw) < 2 {
			return
		}
		var subID string
		if json.Unmarshal(raw[1], &subID) != nil {
			return
		}
		r.mu.Lock()
		h := r.onEose
		r.mu.Unlock()
		if h != nil {
			h(subID)
		}
	case "OK":
		if len(raw) < 3 {
			return
		}
		var eventID string
		var accepted bool
		var message string
		_ = json.Unmarshal(raw[1], &eventID)
		_ = json.Unmarshal(raw[2], &accepted)
		if len(raw) >= 4 {
			_ = json.Unmarshal(raw[3], &message)
		}
		r.mu.Lock()
		h := r.onOk
		r.mu.Unlock()
		if h != nil {
			h(eventID, accepted, message)
		}
	case "NOTICE":
		if len(raw) < 2 {
			return
		}
		var message string
		if json.Unmarshal(raw[1], &message) != nil {
			return
		}
		r.mu.Lock()
		h := r.onNotice
		r.mu.Unlock()
		if h != nil {
			h(message)
		}
	case "AUTH":
		// Challenge-response auth (NIP-42) is not implemented; relays
		// requiring it are simply not authenticated against.
	}
}
