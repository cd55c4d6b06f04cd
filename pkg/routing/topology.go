// Copyright 2025 Certen Protocol

// Package routing implements FROST's routing layer (C6): the topology
// graph, BFS/Dijkstra route-finding, weighted-round-robin next-hop
// selection that bypasses open circuit breakers, and the resilience
// scoring of spec §4.6. Grounded on
// original_source/src/routing/{topology,router}.rs.
package routing

import (
	"sync"
	"time"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// Topology wraps frosttypes.NetworkTopology with the reader-preferring
// lock spec §5 calls for: "readers (route queries) do not block each
// other; a single writer mutates and bumps version".
type Topology struct {
	mu   sync.RWMutex
	data frosttypes.NetworkTopology
}

// NewTopology constructs an empty, versioned topology.
func NewTopology() *Topology {
	return &Topology{data: frosttypes.NetworkTopology{
		Nodes:       make(map[frosttypes.ChainID]*frosttypes.TopologyNode),
		LastUpdated: time.Now(),
	}}
}

// AddNode inserts or replaces a node, bumping the topology version per
// spec §3: "each mutation increments version and updates last_updated".
func (t *Topology) AddNode(chain frosttypes.ChainID, node frosttypes.TopologyNode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.Nodes[chain] = &node
	t.bumpLocked()
}

// RemoveNode deletes a node if present, reporting whether it existed.
func (t *Topology) RemoveNode(chain frosttypes.ChainID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.data.Nodes[chain]; !ok {
		return false
	}
	delete(t.data.Nodes, chain)
	t.bumpLocked()
	return true
}

// Node returns a copy of chain's node, if present.
func (t *Topology) Node(chain frosttypes.ChainID) (frosttypes.TopologyNode, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.data.Nodes[chain]
	if !ok {
		return frosttypes.TopologyNode{}, false
	}
	return *n, true
}

// AddConnection adds a symmetric edge between from and to, per spec §3:
// "adding an edge is symmetric". Reports whether either side changed.
func (t *Topology) AddConnection(from, to frosttypes.ChainID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	modified := false
	if n, ok := t.data.Nodes[from]; ok && !containsChain(n.Connections, to) {
		n.Connections = append(n.Connections, to)
		modified = true
	}
	if n, ok := t.data.Nodes[to]; ok && !containsChain(n.Connections, from) {
		n.Connections = append(n.Connections, from)
		modified = true
	}
	if modified {
		t.bumpLocked()
	}
	return modified
}

// RemoveConnection removes a symmetric edge, reporting whether either
// side changed.
func (t *Topology) RemoveConnection(from, to frosttypes.ChainID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	modified := false
	if n, ok := t.data.Nodes[from]; ok {
		if idx := indexOfChain(n.Connections, to); idx >= 0 {
			n.Connections = append(n.Connections[:idx], n.Connections[idx+1:]...)
			modified = true
		}
	}
	if n, ok := t.data.Nodes[to]; ok {
		if idx := indexOfChain(n.Connections, from); idx >= 0 {
			n.Connections = append(n.Connections[:idx], n.Connections[idx+1:]...)
			modified = true
		}
	}
	if modified {
		t.bumpLocked()
	}
	return modified
}

func (t *Topology) bumpLocked() {
	t.data.Version++
	t.data.LastUpdated = time.Now()
}

// Version returns the topology's current mutation counter.
func (t *Topology) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.data.Version
}

// Snapshot returns a shallow copy of every node, keyed by chain, for
// read-only traversal (BFS/Dijkstra/metrics).
func (t *Topology) Snapshot() map[frosttypes.ChainID]frosttypes.TopologyNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[frosttypes.ChainID]frosttypes.TopologyNode, len(t.data.Nodes))
	for id, n := range t.data.Nodes {
		out[id] = *n
	}
	return out
}

func containsChain(list []frosttypes.ChainID, target frosttypes.ChainID) bool {
	return indexOfChain(list, target) >= 0
}

func indexOfChain(list []frosttypes.ChainID, target frosttypes.ChainID) int {
	for i, c := range list {
		if c == target {
			return i
		}
	}
	return -1
}

// NetworkDensity is edges / max-possible-edges, per spec §4.6's
// resilience-score density term.
func (t *Topology) NetworkDensity() float64 {
	nodes := t.Snapshot()
	n := float64(len(nodes))
	if n <= 1 {
		return 0
	}
	maxEdges := n * (n - 1) / 2
	actualEdges := 0.0
	for _, node := range nodes {
		actualEdges += float64(len(node.Connections))
	}
	actualEdges /= 2
	return actualEdges / maxEdges
}

// DetectPartitions returns the connected components of the topology via
// BFS, per spec §4.6's resilience score.
func (t *Topology) DetectPartitions() [][]frosttypes.ChainID {
	nodes := t.Snapshot()
	visited := make(map[frosttypes.ChainID]bool, len(nodes))
	var partitions [][]frosttypes.ChainID

	for start := range nodes {
		if visited[start] {
			continue
		}
		var partition []frosttypes.ChainID
		queue := []frosttypes.ChainID{start}
		visited[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			partition = append(partition, cur)
			for _, neighbor := range nodes[cur].Connections {
				if !visited[neighbor] {
					visited[neighbor] = true
					queue = append(queue, neighbor)
				}
			}
		}
		partitions = append(partitions, partition)
	}
	return partitions
}

// NodeHealth computes spec §4.6's weighted node health score in [0,1]:
// 0.3·inverse-latency + 0.2·throughput/100 + 0.3·reliability + 0.2·status.
func (t *Topology) NodeHealth(chain frosttypes.ChainID) float64 {
	node, ok := t.Node(chain)
	if !ok {
		return 0
	}
	perf := node.Metadata.Performance
	latencyScore := 1.0 / (1.0 + perf.LatencyMs/1000.0)
	throughputScore := perf.Throughput / 100.0
	reliabilityScore := perf.Reliability

	var statusScore float64
	switch node.Status {
	case frosttypes.TopologyActive:
		statusScore = 1.0
	case frosttypes.TopologyDegraded:
		statusScore = 0.5
	default:
		statusScore = 0.0
	}

	score := 0.3*latencyScore + 0.2*throughputScore + 0.3*reliabilityScore + 0.2*statusScore
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// CriticalNodes returns nodes whose betweenness centrality (the count of
// shortest paths passing through them) exceeds 10% of the node count,
// per spec §4.6, sorted by ascending node health (weakest first).
func (t *Topology) CriticalNodes() []frosttypes.ChainID {
	nodes := t.Snapshot()
	centrality := make(map[frosttypes.ChainID]int)

	for start := range nodes {
		for end := range nodes {
			if start == end {
				continue
			}
			path := bfsPath(nodes, start, end)
			for i := 1; i < len(path)-1; i++ {
				centrality[path[i]]++
			}
		}
	}

	threshold := int(float64(len(nodes)) * 0.1)
	var critical []frosttypes.ChainID
	for node, count := range centrality {
		if count > threshold {
			critical = append(critical, node)
		}
	}
	sortByHealth(critical, t)
	return critical
}

func sortByHealth(nodes []frosttypes.ChainID, t *Topology) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && t.NodeHealth(nodes[j-1]) > t.NodeHealth(nodes[j]); j-- {
			nodes[j-1], nodes[j] = nodes[j], nodes[j-1]
		}
	}
}

// bfsPath returns the unweighted shortest path from start to end, or
// nil if unreachable.
func bfsPath(nodes map[frosttypes.ChainID]frosttypes.TopologyNode, start, end frosttypes.ChainID) []frosttypes.ChainID {
	if start == end {
		return []frosttypes.ChainID{start}
	}
	visited := map[frosttypes.ChainID]bool{start: true}
	prev := map[frosttypes.ChainID]frosttypes.ChainID{}
	queue := []frosttypes.ChainID{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == end {
			var path []frosttypes.ChainID
			for n := end; ; {
				path = append([]frosttypes.ChainID{n}, path...)
				if n == start {
					break
				}
				n = prev[n]
			}
			return path
		}
		for _, neighbor := range nodes[cur].Connections {
			if !visited[neighbor] {
				visited[neighbor] = true
				prev[neighbor] = cur
				queue = append(queue, neighbor)
			}
		}
	}
	return nil
}

// ResilienceScore combines partition count, critical-node ratio, average
// node health, and density, per spec §4.6's exact weighted formula:
// 0.3·(1/partitions) + 0.3·(1 − critical/|nodes|) + 0.2·avg_health + 0.2·density.
func (t *Topology) ResilienceScore() float64 {
	nodes := t.Snapshot()
	if len(nodes) == 0 {
		return 0
	}

	partitions := t.DetectPartitions()
	partitionScore := 1.0 / float64(len(partitions))

	critical := t.CriticalNodes()
	criticalScore := 1.0 - float64(len(critical))/float64(len(nodes))

	healthSum := 0.0
	for id := range nodes {
		healthSum += t.NodeHealth(id)
	}
	healthScore := healthSum / float64(len(nodes))

	densityScore := t.NetworkDensity()

	score := 0.3*partitionScore + 0.3*criticalScore + 0.2*healthScore + 0.2*densityScore
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}
