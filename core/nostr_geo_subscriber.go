package core

// nostr_geo_subscriber.go – wires ChannelGeohash's GeoSubscriber dependency
// to live relay subscriptions: joining a location channel becomes a REQ
// for {kinds:[30079], #g:[geohash]}, leaving becomes a CLOSE.

// GeoRelaySubscriber implements GeoSubscriber against a NostrTransport's
// relay set and subscription registry.
type GeoRelaySubscriber struct {
	transport *NostrTransport
}

// NewGeoRelaySubscriber adapts transport into a GeoSubscriber.
func NewGeoRelaySubscriber(transport *NostrTransport) *GeoRelaySubscriber {
	return &GeoRelaySubscriber{transport: transport}
}

// SubscribeGeohash issues the geohash-channel REQ against every connected
// relay.
func (g *GeoRelaySubscriber) SubscribeGeohash(channelID, geohash string, since int64) error {
	filter := Filter{
		Kinds: []int{GeohashChannelKind},
		Since: since,
		Tags:  map[string][]string{"g": {geohash}},
	}
	var lastErr error
	for _, r := range g.transport.relays {
		if r.State() != RelayOpen {
			continue
		}
		if err := g.transport.subs.Register(r, channelID, filter); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Unsubscribe closes the geohash-channel subscription on every relay.
func (g *GeoRelaySubscriber) Unsubscribe(channelID string) error {
	var lastErr error
	for _, r := range g.transport.relays {
		if r.State() != RelayOpen {
			continue
		}
		if err := g.transport.subs.Unregister(r, channelID); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
