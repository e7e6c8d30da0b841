package core

// topology.go – the routing table: a best-known-path view of the mesh,
// updated only by strictly shorter paths, with BFS shortest-path queries
// and periodic staleness reaping. The reaper shape (ticker + closing
// channel + sync.Once) is the same one dedup.go uses for its rotation loop.

import (
	"sync"
	"time"
)

const topologyStaleAfter = 5 * time.Minute

// DiscoveredPeer is a transport-agnostic record of a peer somewhere in the
// mesh, as opposed to Peer (common_structs.go), which is a direct libp2p
// link.
type DiscoveredPeer struct {
	ID          NodeID
	Transport   TransportKind
	HopDistance int
	LastSeen    int64
	EdgeStrength float64
}

// routeEntry is the topology tracker's internal best-known-path record for
// a destination.
type routeEntry struct {
	NextHop  NodeID
	HopCount int
	LastSeen int64
}

// Topology tracks the shortest known path to every peer the node has heard
// about, directly or via peer_announce/route_reply gossip.
type Topology struct {
	mu        sync.RWMutex
	self      NodeID
	adjacency map[NodeID]map[NodeID]float64 // node -> neighbor -> edge strength
	routes    map[NodeID]routeEntry
	peers     map[NodeID]*DiscoveredPeer
	clock     Clock
	closing   chan struct{}
	closeOnce sync.Once
}

// NewTopology creates a topology tracker for self and starts its staleness
// reaper on the given clock.
func NewTopology(self NodeID, clk Clock) *Topology {
	if clk == nil {
		clk = NewRealClock()
	}
	t := &Topology{
		self:      self,
		adjacency: make(map[NodeID]map[NodeID]float64),
		routes:    make(map[NodeID]routeEntry),
		peers:     make(map[NodeID]*DiscoveredPeer),
		clock:     clk,
		closing:   make(chan struct{}),
	}
	go t.reap()
	return t
}

// Close stops the staleness reaper.
func (t *Topology) Close() {
	t.closeOnce.Do(func() { close(t.closing) })
}

// ObserveEdge records (or strengthens) a direct link between two nodes,
// then recomputes the best path to "to" via BFS if this observation
// produces a strictly shorter path than what's already known.
func (t *Topology) ObserveEdge(from, to NodeID, strength float64, now int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.addAdjacency(from, to, strength)
	t.addAdjacency(to, from, strength)

	if p, ok := t.peers[to]; ok {
		p.LastSeen = now
		p.EdgeStrength = strength
	} else {
		t.peers[to] = &DiscoveredPeer{ID: to, LastSeen: now, EdgeStrength: strength}
	}

	t.recomputeIfShorter(to, now)
}

func (t *Topology) addAdjacency(a, b NodeID, strength float64) {
	if t.adjacency[a] == nil {
		t.adjacency[a] = make(map[NodeID]float64)
	}
	t.adjacency[a][b] = strength
}

// recomputeIfShorter runs BFS from self and updates the route to dest only
// if the new path is strictly shorter than the currently recorded one.
func (t *Topology) recomputeIfShorter(dest NodeID, now int64) {
	path := t.bfsLocked(t.self, dest)
	if path == nil {
		return
	}
	hops := len(path) - 1
	existing, ok := t.routes[dest]
	if !ok || hops < existing.HopCount {
		nextHop := dest
		if len(path) > 1 {
			nextHop = path[1]
		}
		t.routes[dest] = routeEntry{NextHop: nextHop, HopCount: hops, LastSeen: now}
	}
}

// ShortestPath returns the BFS shortest path from self to dest, inclusive
// of both endpoints, or nil if dest is unreachable in the known topology.
func (t *Topology) ShortestPath(dest NodeID) []NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bfsLocked(t.self, dest)
}

func (t *Topology) bfsLocked(from, to NodeID) []NodeID {
	if from == to {
		return []NodeID{from}
	}
	visited := map[NodeID]bool{from: true}
	prev := map[NodeID]NodeID{}
	queue := []NodeID{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for neighbor := range t.adjacency[cur] {
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			prev[neighbor] = cur
			if neighbor == to {
				return reconstructPath(prev, from, to)
			}
			queue = append(queue, neighbor)
		}
	}
	return nil
}

func reconstructPath(prev map[NodeID]NodeID, from, to NodeID) []NodeID {
	path := []NodeID{to}
	cur := to
	for cur != from {
		p, ok := prev[cur]
		if !ok {
			return nil
		}
		path = append([]NodeID{p}, path...)
		cur = p
	}
	return path
}

// NextHop returns the next hop toward dest, if known.
func (t *Topology) NextHop(dest NodeID) (NodeID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.routes[dest]
	return r.NextHop, ok
}

// Health reports the mean edge strength across all known direct links, a
// coarse signal of how well-connected the local view of the mesh is.
func (t *Topology) Health() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.peers) == 0 {
		return 0
	}
	var sum float64
	for _, p := range t.peers {
		sum += p.EdgeStrength
	}
	return sum / float64(len(t.peers))
}

// Peers returns a snapshot of all discovered peers.
func (t *Topology) Peers() []DiscoveredPeer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]DiscoveredPeer, 0, len(t.peers))
	for _, p := range t.peers {
		out = append(out, *p)
	}
	return out
}

// reapStale removes peers (and their routes/adjacency) that have not been
// observed within the staleness window.
func (t *Topology) reapStale(now int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := now - int64(topologyStaleAfter.Seconds())
	for id, p := range t.peers {
		if p.LastSeen < cutoff {
			delete(t.peers, id)
			delete(t.routes, id)
			delete(t.adjacency, id)
			for _, nbrs := range t.adjacency {
				delete(nbrs, id)
			}
		}
	}
}

func (t *Topology) reap() {
	ticker := t.clock.Ticker(topologyStaleAfter)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			t.reapStale(now.Unix())
			MetricTopologyHealth.Set(t.Health())
		case <-t.closing:
			return
		}
	}
}
