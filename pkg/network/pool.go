// Copyright 2025 Certen Protocol

package network

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// PoolConfig is the static connection-pool configuration of spec §6.
type PoolConfig struct {
	MinIdlePerPeer     int
	MaxPerPeer         int
	MaxLifetime        time.Duration
	IdleTimeout        time.Duration
	ConnectionTimeout  time.Duration
	ValidationInterval time.Duration
}

// DynamicPoolConfig adds the adaptive per-peer limit parameters of spec
// §4.5/§6, grounded on original_source/src/network/pool.rs's
// DynamicAdjustment.
type DynamicPoolConfig struct {
	AdaptationRate      float64
	MaxGrowthRate       float64
	MinTotalConnections int
	MaxTotalConnections int
	ScaleUpThreshold    float64
	ScaleDownThreshold  float64
}

// DefaultPoolConfig mirrors the teacher's defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MinIdlePerPeer:     1,
		MaxPerPeer:         8,
		MaxLifetime:        30 * time.Minute,
		IdleTimeout:        2 * time.Minute,
		ConnectionTimeout:  5 * time.Second,
		ValidationInterval: 30 * time.Second,
	}
}

// DefaultDynamicPoolConfig mirrors original_source/src/network/pool.rs's
// implicit defaults for the dynamic adjustment parameters.
func DefaultDynamicPoolConfig() DynamicPoolConfig {
	return DynamicPoolConfig{
		AdaptationRate:      0.2,
		MaxGrowthRate:       0.5,
		MinTotalConnections: 4,
		MaxTotalConnections: 256,
		ScaleUpThreshold:    0.7,
		ScaleDownThreshold:  0.2,
	}
}

// PoolMetrics is the pool-wide observable snapshot of spec §4.5.
type PoolMetrics struct {
	ActiveConnections   int
	IdleConnections     int
	TotalConnections    int
	ConnectionRequests  uint64
	ConnectionTimeouts  uint64
	ConnectionErrors    uint64
	AverageWaitTime     time.Duration
	PeakConnections     int
	GlobalLoadFactor    float64
}

// ConnectionPool owns every PooledConnection; acquisitions are handed
// out as a scoped Acquisition that returns its connection to the pool on
// Release, per spec §3/§9 ("the pool owns connections; a scoped
// acquisition handle borrows back into the pool on drop").
type ConnectionPool struct {
	cfg       PoolConfig
	dynamic   DynamicPoolConfig
	transport Transport

	mu          sync.Mutex
	conns       map[string]*frosttypes.PooledConnection
	peerLimits  map[string]int
	metrics     PoolMetrics
	peerMetrics map[string]frosttypes.PeerMetrics
}

// NewConnectionPool constructs an empty pool over the given transport.
func NewConnectionPool(cfg PoolConfig, dynamic DynamicPoolConfig, transport Transport) *ConnectionPool {
	return &ConnectionPool{
		cfg:         cfg,
		dynamic:     dynamic,
		transport:   transport,
		conns:       make(map[string]*frosttypes.PooledConnection),
		peerLimits:  make(map[string]int),
		peerMetrics: make(map[string]frosttypes.PeerMetrics),
	}
}

// Acquisition is a scoped handle into the pool; callers must call
// Release exactly once, on every exit path (success, error, or
// cancellation), per spec §5's cancellation-and-cleanup rule.
type Acquisition struct {
	pool *ConnectionPool
	conn *frosttypes.PooledConnection
}

// Connection returns the underlying PooledConnection.
func (a *Acquisition) Connection() *frosttypes.PooledConnection { return a.conn }

// Release returns the connection to the pool as idle.
func (a *Acquisition) Release() {
	a.pool.release(a.conn)
}

// Acquire returns an idle connection for peer, creating one if none
// exists and the per-peer limit allows, per spec §4.5. Every acquire
// first runs adjustPeerLimit, per spec §4.5: "Every acquire triggers
// adjust_peer_limit".
func (p *ConnectionPool) Acquire(ctx context.Context, peer frosttypes.Peer) (*Acquisition, error) {
	start := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.adjustPeerLimitLocked(peer.ID)

	limit := p.peerLimits[peer.ID]
	if limit == 0 {
		limit = p.cfg.MinIdlePerPeer
	}

	peerCount := 0
	var idle *frosttypes.PooledConnection
	for _, c := range p.conns {
		if c.Peer.ID != peer.ID {
			continue
		}
		peerCount++
		if idle == nil && c.Status.Kind == frosttypes.ConnStatusIdle {
			idle = c
		}
	}

	conn := idle
	if conn == nil {
		if peerCount >= limit {
			return nil, peerLimitReached(limit)
		}
		if _, err := p.transport.Connect(ctx, peer.Info.Address); err != nil {
			p.metrics.ConnectionErrors++
			return nil, err
		}
		now := time.Now()
		conn = &frosttypes.PooledConnection{
			ID:        uuid.New().String(),
			Peer:      peer,
			CreatedAt: now,
			LastUsed:  now,
			Status:    frosttypes.ConnectionStatus{Kind: frosttypes.ConnStatusIdle},
		}
		p.conns[conn.ID] = conn
		p.metrics.TotalConnections++
		p.metrics.IdleConnections++
		if len(p.conns) > p.metrics.PeakConnections {
			p.metrics.PeakConnections = len(p.conns)
		}
	}

	conn.Status = frosttypes.ConnectionStatus{Kind: frosttypes.ConnStatusActive, PeerLoad: float64(peerCount)}
	conn.LastUsed = time.Now()

	p.metrics.ConnectionRequests++
	p.metrics.ActiveConnections++
	if p.metrics.IdleConnections > 0 {
		p.metrics.IdleConnections--
	}
	wait := time.Since(start)
	p.metrics.AverageWaitTime = (p.metrics.AverageWaitTime + wait) / 2

	p.updatePeerMetricsLocked(conn)

	return &Acquisition{pool: p, conn: conn}, nil
}

func (p *ConnectionPool) release(conn *frosttypes.PooledConnection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn.Status = frosttypes.ConnectionStatus{Kind: frosttypes.ConnStatusIdle}
	conn.LastUsed = time.Now()

	if p.metrics.ActiveConnections > 0 {
		p.metrics.ActiveConnections--
	}
	p.metrics.IdleConnections++

	p.updatePeerMetricsLocked(conn)
}

// adjustPeerLimitLocked implements spec §4.5's scale-up/scale-down rule.
// Caller must hold p.mu.
func (p *ConnectionPool) adjustPeerLimitLocked(peerID string) {
	pm, ok := p.peerMetrics[peerID]
	if !ok {
		return
	}
	current, ok := p.peerLimits[peerID]
	if !ok {
		current = p.cfg.MinIdlePerPeer
	}

	newLimit := current
	if pm.LoadFactor > p.dynamic.ScaleUpThreshold && pm.Reputation > 0.7 && pm.FailureRate < 0.1 {
		newLimit = int(float64(current) * (1 + p.dynamic.MaxGrowthRate))
	}
	if pm.LoadFactor < p.dynamic.ScaleDownThreshold || pm.Reputation < 0.3 || pm.FailureRate > 0.3 {
		newLimit = int(float64(current) * (1 - p.dynamic.AdaptationRate))
	}

	if newLimit < p.cfg.MinIdlePerPeer {
		newLimit = p.cfg.MinIdlePerPeer
	}
	if newLimit > p.cfg.MaxPerPeer {
		newLimit = p.cfg.MaxPerPeer
	}
	p.peerLimits[peerID] = newLimit
}

// updatePeerMetricsLocked recomputes a peer's aggregate PeerMetrics from
// its connection's ConnectionMetrics, per spec §4.5's reputation
// formula. Caller must hold p.mu.
func (p *ConnectionPool) updatePeerMetricsLocked(conn *frosttypes.PooledConnection) {
	pm := p.peerMetrics[conn.Peer.ID]

	if n := len(conn.Metrics.RecentLatencies); n > 0 {
		var sum time.Duration
		for _, l := range conn.Metrics.RecentLatencies {
			sum += l
		}
		pm.AvgLatency = sum / time.Duration(n)
	}

	if conn.Metrics.RequestsProcessed > 0 {
		pm.FailureRate = float64(conn.Metrics.Errors) / float64(conn.Metrics.RequestsProcessed)
	}

	activePeer := 0
	for _, c := range p.conns {
		if c.Peer.ID == conn.Peer.ID && c.Status.Kind == frosttypes.ConnStatusActive {
			activePeer++
		}
	}
	limit := p.peerLimits[conn.Peer.ID]
	if limit == 0 {
		limit = p.cfg.MinIdlePerPeer
	}
	pm.LoadFactor = float64(activePeer) / float64(limit)

	pm.Reputation = Reputation(pm.FailureRate, pm.AvgLatency, conn.Metrics.QualityScore)

	p.peerMetrics[conn.Peer.ID] = pm
	conn.PeerMetrics = pm
}

// Reputation implements spec §4.5's exact weighted formula:
// 0.4·(1 − failure_rate) + 0.3·(1 − min(avg_latency_s, 1)) + 0.3·quality_score.
func Reputation(failureRate float64, avgLatency time.Duration, qualityScore float64) float64 {
	latencySeconds := avgLatency.Seconds()
	if latencySeconds > 1 {
		latencySeconds = 1
	}
	return 0.4*(1-failureRate) + 0.3*(1-latencySeconds) + 0.3*qualityScore
}

// Cleanup evicts idle connections past IdleTimeout, respecting
// MinIdlePerPeer, per spec §4.5.
func (p *ConnectionPool) Cleanup(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	idlePerPeer := make(map[string]int)
	for _, c := range p.conns {
		if c.Status.Kind == frosttypes.ConnStatusIdle {
			idlePerPeer[c.Peer.ID]++
		}
	}

	for id, c := range p.conns {
		if c.Status.Kind != frosttypes.ConnStatusIdle {
			continue
		}
		if now.Sub(c.LastUsed) <= p.cfg.IdleTimeout {
			continue
		}
		if idlePerPeer[c.Peer.ID] <= p.cfg.MinIdlePerPeer {
			continue
		}
		delete(p.conns, id)
		idlePerPeer[c.Peer.ID]--
	}

	p.recomputeMetricsLocked()
	return nil
}

func (p *ConnectionPool) recomputeMetricsLocked() {
	p.metrics.TotalConnections = len(p.conns)
	active, idle := 0, 0
	for _, c := range p.conns {
		switch c.Status.Kind {
		case frosttypes.ConnStatusActive:
			active++
		case frosttypes.ConnStatusIdle:
			idle++
		}
	}
	p.metrics.ActiveConnections = active
	p.metrics.IdleConnections = idle
	if p.metrics.TotalConnections > 0 {
		p.metrics.GlobalLoadFactor = float64(active) / float64(p.metrics.TotalConnections)
	}
}

// Metrics returns a snapshot of the pool's observable counters.
func (p *ConnectionPool) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}
