// Copyright 2025 Certen Protocol

package routing

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/frost-protocol/frost/pkg/frosttypes"
	"github.com/frost-protocol/frost/pkg/resilience"
)

// ErrNoRoute is returned when every candidate hop's circuit breaker is
// open, per spec §8 boundary scenario 6: "select_next_hop(T) returns
// none, outer policy falls back to broadcast state Failed('No available
// route')".
var ErrNoRoute = errors.New("routing: no available route")

const usageWindow = time.Minute

// routeCacheEntry memoizes a FindRoute (BFS) result keyed by (from, to),
// invalidated whenever the topology version changes. FindWeightedRoute
// does not use the cache.
type routeCacheEntry struct {
	path            []frosttypes.ChainID
	topologyVersion uint64
}

// Router selects next hops and end-to-end routes over a Topology,
// bypassing chains whose circuit breaker is open, per spec §4.6.
// Grounded on original_source/src/routing/router.rs.
type Router struct {
	topology *Topology
	breakers *resilience.PerChainBreakers

	mu        sync.Mutex
	usage     map[frosttypes.ChainID][]time.Time // recent route_next_hop draws, for the weight formula
	routeCache map[[2]frosttypes.ChainID]routeCacheEntry
}

// NewRouter builds a Router over topology, using cfg to construct the
// per-chain circuit breakers that gate hop selection.
func NewRouter(topology *Topology, cfg resilience.CircuitConfig) *Router {
	return &Router{
		topology:   topology,
		breakers:   resilience.NewPerChainBreakers(cfg),
		usage:      make(map[frosttypes.ChainID][]time.Time),
		routeCache: make(map[[2]frosttypes.ChainID]routeCacheEntry),
	}
}

// RecordSuccess/RecordFailure feed hop outcomes back into that chain's
// circuit breaker, so future selection reflects current health.
func (r *Router) RecordSuccess(chain frosttypes.ChainID) {
	r.breakers.For(string(chain)).RecordSuccess()
}

func (r *Router) RecordFailure(chain frosttypes.ChainID) {
	r.breakers.For(string(chain)).RecordFailure()
}

// weight implements spec §4.6's recency-decayed weighted-round-robin
// term: 1 / (1 + recent_count/100), where recent_count is the number of
// times chain was selected within the trailing one-minute window.
func (r *Router) weight(chain frosttypes.ChainID, now time.Time) float64 {
	recent := r.pruneUsageLocked(chain, now)
	return 1.0 / (1.0 + float64(recent)/100.0)
}

func (r *Router) pruneUsageLocked(chain frosttypes.ChainID, now time.Time) int {
	cutoff := now.Add(-usageWindow)
	times := r.usage[chain]
	i := 0
	for i < len(times) && times[i].Before(cutoff) {
		i++
	}
	times = times[i:]
	r.usage[chain] = times
	return len(times)
}

// SelectNextHop picks the neighbor of from with the highest recency
// weight, excluding any whose circuit breaker is open; ties go to the
// smallest chain ID. The choice is deterministic, not a random draw. Returns ErrNoRoute if no
// neighbor is eligible (all breakers open, or from has no connections).
func (r *Router) SelectNextHop(from frosttypes.ChainID) (frosttypes.ChainID, error) {
	node, ok := r.topology.Node(from)
	if !ok || len(node.Connections) == 0 {
		return "", ErrNoRoute
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	type candidate struct {
		chain  frosttypes.ChainID
		weight float64
	}
	var candidates []candidate
	total := 0.0
	for _, neighbor := range node.Connections {
		if r.breakers.For(string(neighbor)).State() == resilience.StateOpen {
			continue
		}
		w := r.weight(neighbor, now)
		candidates = append(candidates, candidate{neighbor, w})
		total += w
	}
	if len(candidates) == 0 {
		return "", ErrNoRoute
	}

	// Deterministic weighted pick: highest-weight candidate, ties broken
	// by chain ID, matching the round-robin fairness goal without
	// depending on a non-deterministic RNG in the core routing path.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].weight != candidates[j].weight {
			return candidates[i].weight > candidates[j].weight
		}
		return candidates[i].chain < candidates[j].chain
	})
	chosen := candidates[0].chain
	r.usage[chosen] = append(r.usage[chosen], now)
	return chosen, nil
}

// FindRoute returns the unweighted BFS shortest path from→to, skipping
// nodes whose circuit breaker is open, using a version-invalidated
// route cache.
func (r *Router) FindRoute(from, to frosttypes.ChainID) ([]frosttypes.ChainID, error) {
	key := [2]frosttypes.ChainID{from, to}
	version := r.topology.Version()

	r.mu.Lock()
	if cached, ok := r.routeCache[key]; ok && cached.topologyVersion == version {
		r.mu.Unlock()
		return cached.path, nil
	}
	r.mu.Unlock()

	nodes := r.topology.Snapshot()
	path := r.bfsAvoidingOpenBreakers(nodes, from, to)
	if path == nil {
		return nil, ErrNoRoute
	}

	r.mu.Lock()
	r.routeCache[key] = routeCacheEntry{path: path, topologyVersion: version}
	r.mu.Unlock()
	return path, nil
}

func (r *Router) bfsAvoidingOpenBreakers(nodes map[frosttypes.ChainID]frosttypes.TopologyNode, from, to frosttypes.ChainID) []frosttypes.ChainID {
	if from == to {
		return []frosttypes.ChainID{from}
	}
	visited := map[frosttypes.ChainID]bool{from: true}
	prev := map[frosttypes.ChainID]frosttypes.ChainID{}
	queue := []frosttypes.ChainID{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			var path []frosttypes.ChainID
			for n := to; ; {
				path = append([]frosttypes.ChainID{n}, path...)
				if n == from {
					break
				}
				n = prev[n]
			}
			return path
		}
		for _, neighbor := range nodes[cur].Connections {
			if visited[neighbor] {
				continue
			}
			if neighbor != to && r.breakers.For(string(neighbor)).State() == resilience.StateOpen {
				continue
			}
			visited[neighbor] = true
			prev[neighbor] = cur
			queue = append(queue, neighbor)
		}
	}
	return nil
}

// nodeWeight derives a per-node routing weight from node health, used by
// the Dijkstra edge-weight formula below. Healthier nodes yield smaller
// (cheaper) edge weights.
func (r *Router) nodeWeight(chain frosttypes.ChainID) float64 {
	health := r.topology.NodeHealth(chain)
	if health <= 0 {
		return 1000 // effectively unreachable without being literally infinite
	}
	return 1.0 / health
}

// FindWeightedRoute is the Dijkstra variant of FindRoute: edge weight
// between a and b is node_weight(a) × node_weight(b), per spec §4.6,
// minimizing total path cost rather than hop count.
func (r *Router) FindWeightedRoute(from, to frosttypes.ChainID) ([]frosttypes.ChainID, error) {
	nodes := r.topology.Snapshot()
	if _, ok := nodes[from]; !ok {
		return nil, ErrNoRoute
	}

	const inf = 1e18
	dist := map[frosttypes.ChainID]float64{from: 0}
	prev := map[frosttypes.ChainID]frosttypes.ChainID{}
	visited := map[frosttypes.ChainID]bool{}

	for {
		// Pick the unvisited node with smallest known distance.
		var cur frosttypes.ChainID
		best := inf
		found := false
		for id, d := range dist {
			if visited[id] {
				continue
			}
			if d < best {
				best = d
				cur = id
				found = true
			}
		}
		if !found {
			break
		}
		if cur == to {
			break
		}
		visited[cur] = true

		for _, neighbor := range nodes[cur].Connections {
			if visited[neighbor] {
				continue
			}
			if neighbor != to && r.breakers.For(string(neighbor)).State() == resilience.StateOpen {
				continue
			}
			edgeWeight := r.nodeWeight(cur) * r.nodeWeight(neighbor)
			alt := dist[cur] + edgeWeight
			if existing, ok := dist[neighbor]; !ok || alt < existing {
				dist[neighbor] = alt
				prev[neighbor] = cur
			}
		}
	}

	if _, ok := dist[to]; !ok {
		return nil, ErrNoRoute
	}
	var path []frosttypes.ChainID
	for n := to; ; {
		path = append([]frosttypes.ChainID{n}, path...)
		if n == from {
			break
		}
		n = prev[n]
	}
	return path, nil
}

// Health is a router's aggregate circuit-breaker posture, per spec §4.6.
type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthDegraded Health = "degraded"
	HealthUnhealthy Health = "unhealthy"
)

// Health reports Healthy when no tracked chain has an open breaker,
// Degraded when fewer than half are open, and Unhealthy otherwise.
func (r *Router) Health() Health {
	total, open := r.breakers.Snapshot()
	if total == 0 || open == 0 {
		return HealthHealthy
	}
	if open < total/2+total%2 {
		return HealthDegraded
	}
	return HealthUnhealthy
}
