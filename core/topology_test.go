package core

import "testing"

func TestTopologyShortestPathDirect(t *testing.T) {
	topo := NewTopology("a", NewMockClock())
	defer topo.Close()

	topo.ObserveEdge("a", "b", 0.9, 1000)
	path := topo.ShortestPath("b")
	if len(path) != 2 || path[0] != "a" || path[1] != "b" {
		t.Fatalf("unexpected path: %v", path)
	}
}

func TestTopologyShortestPathMultiHop(t *testing.T) {
	topo := NewTopology("a", NewMockClock())
	defer topo.Close()

	topo.ObserveEdge("a", "b", 0.9, 1000)
	topo.ObserveEdge("b", "c", 0.9, 1000)
	path := topo.ShortestPath("c")
	if len(path) != 3 || path[2] != "c" {
		t.Fatalf("unexpected path: %v", path)
	}
	nh, ok := topo.NextHop("c")
	if !ok || nh != "b" {
		t.Fatalf("expected next hop b, got %v ok=%v", nh, ok)
	}
}

func TestTopologyDoesNotRegressToLongerPath(t *testing.T) {
	topo := NewTopology("a", NewMockClock())
	defer topo.Close()

	// Direct edge a-c: shortest path length 1.
	topo.ObserveEdge("a", "c", 0.5, 1000)
	// Longer alternative a-b-c should not override the existing shorter route.
	topo.ObserveEdge("a", "b", 0.9, 1000)
	topo.ObserveEdge("b", "c", 0.9, 1000)

	nh, ok := topo.NextHop("c")
	if !ok || nh != "c" {
		t.Fatalf("expected direct next hop c (unchanged), got %v ok=%v", nh, ok)
	}
}

func TestTopologyUnreachableReturnsNil(t *testing.T) {
	topo := NewTopology("a", NewMockClock())
	defer topo.Close()
	topo.ObserveEdge("a", "b", 0.9, 1000)
	if path := topo.ShortestPath("z"); path != nil {
		t.Fatalf("expected nil path, got %v", path)
	}
}

func TestTopologyReapStaleRemovesOldPeers(t *testing.T) {
	topo := NewTopology("a", NewMockClock())
	defer topo.Close()
	topo.ObserveEdge("a", "b", 0.9, 0)
	topo.reapStale(int64(topologyStaleAfter.Seconds()) + 1)
	if _, ok := topo.NextHop("b"); ok {
		t.Fatal("expected stale peer to be reaped")
	}
}

func TestTopologyHealthIsMeanEdgeStrength(t *testing.T) {
	topo := NewTopology("a", NewMockClock())
	defer topo.Close()
	topo.ObserveEdge("a", "b", 1.0, 1000)
	topo.ObserveEdge("a", "c", 0.5, 1000)
	if h := topo.Health(); h < 0.74 || h > 0.76 {
		t.Fatalf("expected mean ~0.75, got %v", h)
	}
}
