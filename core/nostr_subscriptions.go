package core

// nostr_subscriptions.go – the subscription registry: tracks active REQ
// filters per relay so they can be re-issued on reconnect, exactly the
// reconnect-state problem peer_management.go's Subscribe/Unsubscribe pair
// solves for mesh pubsub topics, here adapted to Nostr's filter shape.

import (
	"encoding/json"
	"sync"
)

// Filter is a NIP-01 REQ filter.
type Filter struct {
	IDs     []string            `json:"ids,omitempty"`
	Authors []string            `json:"authors,omitempty"`
	Kinds   []int               `json:"kinds,omitempty"`
	Since   int64               `json:"since,omitempty"`
	Until   int64               `json:"until,omitempty"`
	Limit   int                 `json:"limit,omitempty"`
	Tags    map[string][]string `json:"-"`
}

// MarshalJSON flattens Tags into the NIP-01 "#x": [...] convention while
// keeping the other fields at the top level.
func (f Filter) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{}
	if len(f.IDs) > 0 {
		m["ids"] = f.IDs
	}
	if len(f.Authors) > 0 {
		m["authors"] = f.Authors
	}
	if len(f.Kinds) > 0 {
		m["kinds"] = f.Kinds
	}
	if f.Since != 0 {
		m["since"] = f.Since
	}
	if f.Until != 0 {
		m["until"] = f.Until
	}
	if f.Limit != 0 {
		m["limit"] = f.Limit
	}
	for tag, values := range f.Tags {
		m["#"+tag] = values
	}
	return json.Marshal(m)
}

// subscription is one registered REQ, remembered so it can be replayed
// against a relay after reconnect.
type subscription struct {
	id     string
	filter Filter
}

// SubscriptionRegistry tracks active subscriptions per relay and re-issues
// them whenever a relay (re)connects.
type SubscriptionRegistry struct {
	mu   sync.RWMutex
	subs map[string]map[string]subscription // relayURL -> subID -> subscription
}

// NewSubscriptionRegistry creates an empty registry.
func NewSubscriptionRegistry() *SubscriptionRegistry {
	return &SubscriptionRegistry{subs: make(map[string]map[string]subscription)}
}

// Register records subID/filter against relayURL and issues the REQ
// immediately on relay.
func (r *SubscriptionRegistry) Register(relay *Relay, subID string, filter Filter) error {
	r.mu.Lock()
	if r.subs[relay.URL()] == nil {
		r.subs[relay.URL()] = make(map[string]subscription)
	}
	r.subs[relay.URL()][subID] = subscription{id: subID, filter: filter}
	r.mu.Unlock()
	return relay.SendReq(subID, filter)
}

// Unregister drops subID for relayURL and tells the relay to close it.
func (r *SubscriptionRegistry) Unregister(relay *Relay, subID string) error {
	r.mu.Lock()
	if m, ok := r.subs[relay.URL()]; ok {
		delete(m, subID)
	}
	r.mu.Unlock()
	return relay.SendClose(subID)
}

// ReissueAll re-sends every registered subscription for relay, called after
// a reconnect establishes a fresh session with no server-side memory of
// prior REQs.
func (r *SubscriptionRegistry) ReissueAll(relay *Relay) error {
	r.mu.RLock()
	subs := make([]subscription, 0, len(r.subs[relay.URL()]))
	for _, s := range r.subs[relay.URL()] {
		subs = append(subs, s)
	}
	r.mu.RUnlock()

	for _, s := range subs {
		if err := relay.SendReq(s.id, s.filter); err != nil {
			return err
		}
	}
	return nil
}

// Active returns the subscription ids currently registered for relayURL.
func (r *SubscriptionRegistry) Active(relayURL string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.subs[relayURL]))
	for id := range r.subs[relayURL] {
		ids = append(ids, id)
	}
	return ids
}
